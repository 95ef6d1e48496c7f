package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MessageStatusPending = "pending"
	MessageStatusSending = "sending"
	MessageStatusSent    = "sent"
	MessageStatusFailed  = "failed"
)

const (
	AudienceAll        = "all"
	AudienceSubscribed = "subscribed"
	AudienceFree       = "free"
)

type NotificationMessage struct {
	ID           string `gorm:"primaryKey;size:36"`
	Title        string `gorm:"size:256;not null"`
	Body         string `gorm:"type:text"`
	Data         datatypes.JSON
	Category     string `gorm:"size:64"`
	Audience     string `gorm:"size:16;default:'all'"` // "all" | "subscribed" | "free"
	Status       string `gorm:"size:16;index;default:'pending'"`
	ScheduledFor *time.Time
	SentAt       *time.Time
	CreatedBy    string `gorm:"size:64"`
	SuccessCount int
	FailureCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
