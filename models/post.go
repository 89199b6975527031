package models

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        uint           `json:"user_id" gorm:"not null;index"`
	Description   string         `json:"description"`
	MediaURLs     []string       `json:"media_urls" gorm:"serializer:json"`
	LikesCount    int            `json:"likes_count" gorm:"not null;default:0"`
	CommentsCount int            `json:"comments_count" gorm:"not null;default:0"`
	SharesCount   int            `json:"shares_count" gorm:"not null;default:0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	User *User `json:"user,omitempty"`

	// Per-viewer flags, populated by the service layer.
	IsLiked  bool `json:"is_liked" gorm:"-"`
	IsShared bool `json:"is_shared" gorm:"-"`
}
