package models

import (
	"time"

	"gorm.io/gorm"
)

type PlotStatus string

const (
	PlotStatusDraft            PlotStatus = "DRAFT"
	PlotStatusActive           PlotStatus = "ACTIVE"
	PlotStatusClosed           PlotStatus = "CLOSED"
	PlotStatusResultsAnnounced PlotStatus = "RESULTS_ANNOUNCED"
)

func (s PlotStatus) Valid() bool {
	switch s {
	case PlotStatusDraft, PlotStatusActive, PlotStatusClosed, PlotStatusResultsAnnounced:
		return true
	}
	return false
}

type PlotType string

const (
	PlotTypeStandard PlotType = "STANDARD"
	PlotTypeSpecial  PlotType = "SPECIAL"
)

func (t PlotType) Valid() bool {
	return t == PlotTypeStandard || t == PlotTypeSpecial
}

type Plot struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	ShowID            uint           `json:"show_id" gorm:"not null;uniqueIndex:idx_plots_show_episode"`
	EpisodeNumber     int            `json:"episode_number" gorm:"not null;uniqueIndex:idx_plots_show_episode"`
	Type              PlotType       `json:"type" gorm:"not null"`
	NumberOfQuestions int            `json:"number_of_questions" gorm:"not null"`
	ActiveStartDate   time.Time      `json:"active_start_date" gorm:"not null"`
	ActiveStartTime   string         `json:"active_start_time" gorm:"not null"`
	CloseEndDate      time.Time      `json:"close_end_date" gorm:"not null"`
	CloseEndTime      string         `json:"close_end_time" gorm:"not null"`
	Status            PlotStatus     `json:"status" gorm:"not null;default:'DRAFT'"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Show            *Show            `json:"show,omitempty"`
	Questions       []Question       `json:"questions,omitempty" gorm:"foreignKey:PlotID"`
	PlotPredictions []PlotPrediction `json:"plot_predictions,omitempty" gorm:"foreignKey:PlotID"`
}
