package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PlotPrediction struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	UserID          uint            `json:"user_id" gorm:"not null;uniqueIndex:idx_predictions_user_plot"`
	PlotID          uint            `json:"plot_id" gorm:"not null;uniqueIndex:idx_predictions_user_plot"`
	PredictedAmount decimal.Decimal `json:"predicted_amount" gorm:"type:decimal(10,2);not null"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`

	// Relationships
	User                *User                `json:"user,omitempty"`
	Plot                *Plot                `json:"plot,omitempty"`
	QuestionPredictions []QuestionPrediction `json:"question_predictions,omitempty" gorm:"foreignKey:PlotPredictionID"`
}
