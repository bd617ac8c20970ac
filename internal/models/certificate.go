package models

import (
	"time"
)

// Certificate is a claimed achievement waiting for (or past) admin verification.
// TokenValue is fixed from the type catalog at creation and never recomputed.
type Certificate struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"userId"`
	Title           string     `gorm:"not null" json:"title"`
	Issuer          string     `gorm:"not null" json:"issuer"`
	ImageURL        string     `gorm:"not null" json:"imageUrl"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	CertificateType string     `gorm:"size:40;not null;index" json:"certificateType"`
	TokenValue      int        `gorm:"not null" json:"tokenValue"`
	IsVerified      bool       `gorm:"default:false;not null;index" json:"isVerified"`
	VerifiedAt      *time.Time `json:"verifiedAt,omitempty"`
	LikesCount      int        `gorm:"default:0;not null" json:"likesCount"`
	CommentsCount   int        `gorm:"default:0;not null" json:"commentsCount"`
	FileType        string     `gorm:"size:100;default:'image/jpeg'" json:"fileType"`
	IsPDF           bool       `gorm:"default:false" json:"isPdf"`
	CreatedAt       time.Time  `gorm:"index" json:"createdAt"`

	// Not persisted, filled when rendering responses
	DescriptionHTML string `gorm:"-" json:"descriptionHtml,omitempty"`
}
