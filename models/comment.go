package models

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	PostID          uint           `json:"post_id" gorm:"not null;index"`
	UserID          uint           `json:"user_id" gorm:"not null"`
	ParentCommentID *uint          `json:"parent_comment_id" gorm:"index"`
	Content         string         `json:"content" gorm:"not null"`
	LikesCount      int            `json:"likes_count" gorm:"not null;default:0"`
	RepliesCount    int            `json:"replies_count" gorm:"not null;default:0"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	User *User `json:"user,omitempty"`

	IsLiked bool `json:"is_liked" gorm:"-"`
}
