package services

import (
	"errors"
	"strings"
	"time"

	"carbscan-backend/models"

	"gorm.io/gorm"
)

var (
	ErrEmptyToken      = errors.New("push token must not be empty")
	ErrUnknownPlatform = errors.New("platform must be ios or android")
)

// DeviceRegistry owns the user -> push endpoint mapping.
type DeviceRegistry struct {
	db *gorm.DB
}

func NewDeviceRegistry(db *gorm.DB) *DeviceRegistry {
	return &DeviceRegistry{db: db}
}

type DeviceMetadata struct {
	DeviceName string
	OSVersion  string
	AppVersion string
}

// Register upserts a device by push token. A token already on file is
// re-assigned to the given user, refreshed with the new metadata and
// re-enabled, so registering twice converges to a single enabled row.
func (r *DeviceRegistry) Register(userID, token, platform string, meta DeviceMetadata) (*models.UserDevice, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	platform = strings.ToLower(platform)
	if platform != "ios" && platform != "android" {
		return nil, ErrUnknownPlatform
	}

	var existing models.UserDevice
	err := r.db.Where("token = ?", token).First(&existing).Error
	if err == nil {
		existing.UserID = userID
		existing.Platform = platform
		existing.DeviceName = meta.DeviceName
		existing.OSVersion = meta.OSVersion
		existing.AppVersion = meta.AppVersion
		existing.Enabled = true
		existing.UpdatedAt = time.Now()
		if err := r.db.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	dev := &models.UserDevice{
		UserID:     userID,
		Token:      token,
		Platform:   platform,
		DeviceName: meta.DeviceName,
		OSVersion:  meta.OSVersion,
		AppVersion: meta.AppVersion,
		Enabled:    true,
	}
	if err := r.db.Create(dev).Error; err != nil {
		return nil, err
	}
	return dev, nil
}

// Unregister disables the device holding the token. The row is kept so the
// token cannot be re-created under another user by accident. Unknown tokens
// report success: disabling an already-gone device is not a failure.
func (r *DeviceRegistry) Unregister(token string) (bool, error) {
	err := r.db.Model(&models.UserDevice{}).
		Where("token = ?", token).
		Update("enabled", false).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *DeviceRegistry) GetByToken(token string) (*models.UserDevice, error) {
	var dev models.UserDevice
	err := r.db.Where("token = ?", token).First(&dev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dev, nil
}

func (r *DeviceRegistry) ListForUser(userID string) ([]models.UserDevice, error) {
	var devices []models.UserDevice
	err := r.db.Where("user_id = ? AND enabled = ?", userID, true).Find(&devices).Error
	return devices, err
}

func (r *DeviceRegistry) ListAllEnabled() ([]models.UserDevice, error) {
	var devices []models.UserDevice
	err := r.db.Where("enabled = ?", true).Find(&devices).Error
	return devices, err
}

// MarkNotified stamps the device after a confirmed delivery ticket.
func (r *DeviceRegistry) MarkNotified(deviceID uint) error {
	return r.db.Model(&models.UserDevice{}).
		Where("id = ?", deviceID).
		Update("last_notified_at", time.Now()).Error
}

// SetEnabledForUser flips every device of one user at once. Backs the
// notification toggle in the app settings screen.
func (r *DeviceRegistry) SetEnabledForUser(userID string, enabled bool) error {
	return r.db.Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Update("enabled", enabled).Error
}
