package models

import (
	"time"
)

// Like is unique per (user, certificate); the unique index backs the toggle.
type Like struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_like_user_certificate" json:"userId"`
	CertificateID uint      `gorm:"not null;index;uniqueIndex:idx_like_user_certificate" json:"certificateId"`
	CreatedAt     time.Time `json:"createdAt"`
}
