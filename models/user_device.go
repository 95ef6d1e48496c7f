package models

import "time"

type UserDevice struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         string `gorm:"index;size:64"`
	Token          string `gorm:"uniqueIndex;size:256;not null"`
	Platform       string `gorm:"size:16"` // "android" | "ios"
	DeviceName     string `gorm:"size:128"`
	OSVersion      string `gorm:"size:32"`
	AppVersion     string `gorm:"size:32"`
	Enabled        bool   `gorm:"default:true"`
	LastNotifiedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
