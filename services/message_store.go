package services

import (
	"errors"
	"time"

	"carbscan-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageStore owns notification message rows and their status lifecycle.
type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Create inserts a new message. Messages always start out pending; whatever
// status the caller put on the struct is overwritten.
func (s *MessageStore) Create(msg *models.NotificationMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Status = models.MessageStatusPending
	if msg.Audience == "" {
		msg.Audience = models.AudienceAll
	}
	return s.db.Create(msg).Error
}

func (s *MessageStore) GetByID(id string) (*models.NotificationMessage, error) {
	var msg models.NotificationMessage
	err := s.db.Where("id = ?", id).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListDue returns pending messages whose scheduled time has passed. A message
// without a schedule is due immediately.
func (s *MessageStore) ListDue(now time.Time) ([]models.NotificationMessage, error) {
	var msgs []models.NotificationMessage
	err := s.db.
		Where("status = ?", models.MessageStatusPending).
		Where("scheduled_for IS NULL OR scheduled_for <= ?", now).
		Order("created_at").
		Find(&msgs).Error
	return msgs, err
}

func (s *MessageStore) ListPending() ([]models.NotificationMessage, error) {
	var msgs []models.NotificationMessage
	err := s.db.
		Where("status = ?", models.MessageStatusPending).
		Order("created_at").
		Find(&msgs).Error
	return msgs, err
}

// TryMarkSending claims a message for sending with a conditional update.
// Only one of several concurrent callers sees true; the rest lose the row
// count check and must treat the message as already taken.
func (s *MessageStore) TryMarkSending(id string) (bool, error) {
	res := s.db.Model(&models.NotificationMessage{}).
		Where("id = ? AND status = ?", id, models.MessageStatusPending).
		Update("status", models.MessageStatusSending)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateStatus sets the message status and, when provided, the aggregate
// counters. Reaching "sent" stamps SentAt. Counters left nil stay untouched.
func (s *MessageStore) UpdateStatus(id, status string, successCount, failureCount *int) error {
	updates := map[string]any{"status": status}
	if status == models.MessageStatusSent {
		updates["sent_at"] = time.Now()
	}
	if successCount != nil {
		updates["success_count"] = *successCount
	}
	if failureCount != nil {
		updates["failure_count"] = *failureCount
	}
	return s.db.Model(&models.NotificationMessage{}).
		Where("id = ?", id).
		Updates(updates).Error
}
