package models

import "time"

// Like and share rows are hard-deleted on toggle, so they carry no soft-delete
// column; the composite unique index is the duplicate guard.

type PostLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;uniqueIndex:idx_post_likes_post_user"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_post_likes_post_user"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"comment_id" gorm:"not null;uniqueIndex:idx_comment_likes_comment_user"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_comment_likes_comment_user"`
	CreatedAt time.Time `json:"created_at"`
}

type PostShare struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;uniqueIndex:idx_post_shares_post_user"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_post_shares_post_user"`
	CreatedAt time.Time `json:"created_at"`
}
