package models

import (
	"time"
)

// TokenAward is one ledger entry per verified certificate. The unique
// certificate_id is what keeps a certificate from paying out twice.
type TokenAward struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"userId"`
	CertificateID uint      `gorm:"not null;uniqueIndex" json:"certificateId"`
	Amount        int       `gorm:"not null" json:"amount"`
	Action        string    `gorm:"size:100;not null" json:"action"`
	CreatedAt     time.Time `json:"createdAt"`
}
