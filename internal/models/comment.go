package models

import (
	"time"
)

type Comment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"userId"`
	User          User      `json:"-"`
	CertificateID uint      `gorm:"not null;index" json:"certificateId"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`

	// Poster summary for display, filled from User
	Poster *UserSummary `gorm:"-" json:"user,omitempty"`
}
