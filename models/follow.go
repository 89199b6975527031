package models

import "time"

type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"not null;uniqueIndex:idx_follows_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"not null;uniqueIndex:idx_follows_follower_following"`
	CreatedAt   time.Time `json:"created_at"`

	// Relationships
	Follower  *User `json:"follower,omitempty" gorm:"foreignKey:FollowerID"`
	Following *User `json:"following,omitempty" gorm:"foreignKey:FollowingID"`
}
