package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionPrediction struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	PlotPredictionID uint           `json:"plot_prediction_id" gorm:"not null;index"`
	QuestionID       uint           `json:"question_id" gorm:"not null"`
	OptionID         uint           `json:"option_id" gorm:"not null"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Question *Question       `json:"question,omitempty"`
	Option   *QuestionOption `json:"option,omitempty"`
}
