package models

import (
	"time"
)

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Password    string    `gorm:"not null" json:"-"` // Hash
	Name        string    `gorm:"not null" json:"name"`
	Avatar      string    `json:"avatar,omitempty"` // URI, optional
	Bio         string    `gorm:"size:500" json:"bio,omitempty"`
	TotalTokens int       `gorm:"default:0;not null;index" json:"totalTokens"`
	IsAdmin     bool      `gorm:"default:false;not null" json:"isAdmin"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
}

// UserSummary is the public part of a user shown next to comments.
type UserSummary struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
