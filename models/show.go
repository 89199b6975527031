package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Show struct {
	ID            uint                `json:"id" gorm:"primaryKey"`
	Title         string              `json:"title" gorm:"not null;uniqueIndex:idx_shows_title_season"`
	SeasonNumber  int                 `json:"season_number" gorm:"not null;uniqueIndex:idx_shows_title_season"`
	Description   string              `json:"description"`
	ThumbnailURL  string              `json:"thumbnail_url"`
	MinimumAmount decimal.Decimal     `json:"minimum_amount" gorm:"type:decimal(10,2);not null"`
	MaximumAmount decimal.Decimal     `json:"maximum_amount" gorm:"type:decimal(10,2);not null"`
	PayoutAmount  decimal.Decimal     `json:"payout_amount" gorm:"type:decimal(10,2);not null"`
	PlotpicksVig  decimal.Decimal     `json:"plotpicks_vig" gorm:"type:decimal(5,2);not null"` // percentage 0-100
	BonusKicker   bool                `json:"bonus_kicker" gorm:"not null;default:false"`
	BonusAmount   decimal.NullDecimal `json:"bonus_amount" gorm:"type:decimal(10,2)"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	DeletedAt     gorm.DeletedAt      `json:"-" gorm:"index"`

	// Relationships
	Plots []Plot `json:"plots,omitempty" gorm:"foreignKey:ShowID"`
}
