package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionTypeYesNo          QuestionType = "YES_NO"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
)

// OptionCount returns the fixed option cardinality for the question type,
// or 0 for an unknown type.
func (t QuestionType) OptionCount() int {
	switch t {
	case QuestionTypeYesNo:
		return 2
	case QuestionTypeMultipleChoice:
		return 4
	}
	return 0
}

type Question struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	PlotID          uint           `json:"plot_id" gorm:"not null;index"`
	QuestionText    string         `json:"question_text" gorm:"not null"`
	Type            QuestionType   `json:"type" gorm:"not null"`
	Order           int            `json:"order" gorm:"not null"`
	IsPaused        bool           `json:"is_paused" gorm:"not null;default:false"`
	CorrectOptionID *uint          `json:"correct_option_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Plot          *Plot           `json:"plot,omitempty"`
	Options       []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
	CorrectOption *QuestionOption  `json:"correct_option,omitempty" gorm:"foreignKey:CorrectOptionID"`
}
