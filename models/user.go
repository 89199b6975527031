package models

import (
	"time"

	"gorm.io/gorm"
)

type AccountPrivacy string

const (
	AccountPrivacyPublic  AccountPrivacy = "PUBLIC"
	AccountPrivacyPrivate AccountPrivacy = "PRIVATE"
)

type UserStatus string

const (
	UserStatusActive UserStatus = "ACTIVE"
	UserStatusLocked UserStatus = "LOCKED"
)

type User struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	FirstName       string         `json:"first_name" gorm:"not null"`
	LastName        string         `json:"last_name" gorm:"not null"`
	UniqueHandle    string         `json:"unique_handle" gorm:"uniqueIndex;not null"`
	Email           string         `json:"email" gorm:"uniqueIndex;not null"`
	PhoneNumber     string         `json:"phone_number" gorm:"uniqueIndex;not null"`
	PasswordHash    string         `json:"-" gorm:"not null"`
	ProfilePicURL   string         `json:"profile_pic_url"`
	AccountPrivacy  AccountPrivacy `json:"account_privacy" gorm:"not null;default:'PUBLIC'"`
	XURL            string         `json:"x_url"`
	InstagramURL    string         `json:"instagram_url"`
	TiktokURL       string         `json:"tiktok_url"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at"`
	PhoneVerifiedAt *time.Time     `json:"phone_verified_at"`
	Status          UserStatus     `json:"status" gorm:"not null;default:'ACTIVE'"`
	PlotPoints      int            `json:"plot_points" gorm:"not null;default:0"`
	FollowersCount  int            `json:"followers_count" gorm:"not null;default:0"`
	FollowingCount  int            `json:"following_count" gorm:"not null;default:0"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
