package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/models"
)

// PredictionService is the prediction ledger: exactly one complete, validated
// prediction per (user, plot) pair, written atomically.
type PredictionService struct {
	db *gorm.DB
}

func NewPredictionService(db *gorm.DB) *PredictionService {
	return &PredictionService{db: db}
}

type SelectionRequest struct {
	QuestionID uint `json:"question_id" binding:"required"`
	OptionID   uint `json:"option_id" binding:"required"`
}

type CreatePredictionRequest struct {
	PlotID          uint               `json:"plot_id" binding:"required"`
	PredictedAmount decimal.Decimal    `json:"predicted_amount" binding:"required"`
	Selections      []SelectionRequest `json:"selections" binding:"required,min=1"`
}

type PredictionListResponse struct {
	Predictions []models.PlotPrediction `json:"predictions"`
	Pagination
}

func (s *PredictionService) CreatePrediction(userID uint, req *CreatePredictionRequest) (*models.PlotPrediction, error) {
	var plot models.Plot
	err := s.db.
		Preload("Show").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_paused = ?", false).Order(`questions."order" ASC`)
		}).
		Preload("Questions.Options").
		First(&plot, req.PlotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Plot not found")
	}
	if err != nil {
		return nil, err
	}

	if !IsPredictable(&plot, time.Now().UTC()) {
		return nil, apierror.BadRequest("Plot is not active or outside prediction window")
	}

	if req.PredictedAmount.LessThan(plot.Show.MinimumAmount) || req.PredictedAmount.GreaterThan(plot.Show.MaximumAmount) {
		return nil, apierror.BadRequest(fmt.Sprintf("Predicted amount must be between %s and %s",
			plot.Show.MinimumAmount, plot.Show.MaximumAmount))
	}

	var existing int64
	if err := s.db.Model(&models.PlotPrediction{}).
		Where("user_id = ? AND plot_id = ?", userID, req.PlotID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, apierror.Conflict("You have already predicted on this plot")
	}

	if err := validateSelections(plot.Questions, req.Selections); err != nil {
		return nil, err
	}

	prediction := models.PlotPrediction{
		UserID:          userID,
		PlotID:          req.PlotID,
		PredictedAmount: req.PredictedAmount,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&prediction).Error; err != nil {
			return err
		}
		for _, selection := range req.Selections {
			questionPrediction := models.QuestionPrediction{
				PlotPredictionID: prediction.ID,
				QuestionID:       selection.QuestionID,
				OptionID:         selection.OptionID,
			}
			if err := tx.Create(&questionPrediction).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Concurrent duplicate attempts race on the (user, plot) unique index.
		if isDuplicateKey(err) {
			return nil, apierror.Conflict("You have already predicted on this plot")
		}
		return nil, err
	}

	return s.getPredictionByID(prediction.ID)
}

// validateSelections requires the selection set to be a bijection onto the
// plot's non-paused questions, with every option belonging to its question.
func validateSelections(questions []models.Question, selections []SelectionRequest) error {
	if len(selections) != len(questions) {
		return apierror.BadRequest(fmt.Sprintf("You must provide selections for all %d questions", len(questions)))
	}

	questionsByID := make(map[uint]*models.Question, len(questions))
	for i := range questions {
		questionsByID[questions[i].ID] = &questions[i]
	}

	seen := make(map[uint]bool, len(selections))
	for _, selection := range selections {
		if seen[selection.QuestionID] {
			return apierror.BadRequest("Duplicate question selections are not allowed")
		}
		seen[selection.QuestionID] = true

		question, ok := questionsByID[selection.QuestionID]
		if !ok {
			return apierror.BadRequest(fmt.Sprintf("Question %d does not belong to this plot", selection.QuestionID))
		}

		found := false
		for _, option := range question.Options {
			if option.ID == selection.OptionID {
				found = true
				break
			}
		}
		if !found {
			return apierror.BadRequest(fmt.Sprintf("Option %d does not belong to question %d", selection.OptionID, selection.QuestionID))
		}
	}

	return nil
}

func (s *PredictionService) getPredictionByID(id uint) (*models.PlotPrediction, error) {
	var prediction models.PlotPrediction
	err := s.db.
		Preload("Plot").
		Preload("Plot.Show").
		Preload("QuestionPredictions").
		Preload("QuestionPredictions.Question").
		Preload("QuestionPredictions.Question.Options").
		Preload("QuestionPredictions.Option").
		First(&prediction, id).Error
	if err != nil {
		return nil, err
	}

	sortSelectionsByQuestionOrder(prediction.QuestionPredictions)

	return &prediction, nil
}

func (s *PredictionService) GetUserPredictions(userID uint, page, limit int) (*PredictionListResponse, error) {
	page, limit = NormalizePage(page, limit)

	var total int64
	if err := s.db.Model(&models.PlotPrediction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, err
	}

	var predictions []models.PlotPrediction
	err := s.db.
		Where("user_id = ?", userID).
		Preload("Plot").
		Preload("Plot.Show").
		Preload("Plot.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order" ASC`)
		}).
		Preload("Plot.Questions.CorrectOption").
		Preload("QuestionPredictions").
		Preload("QuestionPredictions.Question").
		Preload("QuestionPredictions.Question.CorrectOption").
		Preload("QuestionPredictions.Option").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&predictions).Error
	if err != nil {
		return nil, err
	}

	for i := range predictions {
		sortSelectionsByQuestionOrder(predictions[i].QuestionPredictions)
	}

	return &PredictionListResponse{Predictions: predictions, Pagination: NewPagination(total, page, limit)}, nil
}

// GetUserPlots lists the plots the user has predicted on, each with the
// user's own prediction attached.
func (s *PredictionService) GetUserPlots(userID uint, page, limit int) (*PlotListResponse, error) {
	page, limit = NormalizePage(page, limit)

	var plotIDs []uint
	if err := s.db.Model(&models.PlotPrediction{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("plot_id", &plotIDs).Error; err != nil {
		return nil, err
	}

	if len(plotIDs) == 0 {
		return &PlotListResponse{Plots: []models.Plot{}, Pagination: NewPagination(0, page, limit)}, nil
	}

	var total int64
	if err := s.db.Model(&models.Plot{}).Where("id IN ?", plotIDs).Count(&total).Error; err != nil {
		return nil, err
	}

	var plots []models.Plot
	err := s.db.
		Where("id IN ?", plotIDs).
		Preload("Show").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order" ASC`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`question_options."order" ASC`)
		}).
		Preload("Questions.CorrectOption").
		Preload("PlotPredictions", func(db *gorm.DB) *gorm.DB {
			return db.Where("user_id = ?", userID)
		}).
		Preload("PlotPredictions.QuestionPredictions").
		Preload("PlotPredictions.QuestionPredictions.Question").
		Preload("PlotPredictions.QuestionPredictions.Option").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&plots).Error
	if err != nil {
		return nil, err
	}

	for i := range plots {
		for j := range plots[i].PlotPredictions {
			sortSelectionsByQuestionOrder(plots[i].PlotPredictions[j].QuestionPredictions)
		}
	}

	return &PlotListResponse{Plots: plots, Pagination: NewPagination(total, page, limit)}, nil
}

func sortSelectionsByQuestionOrder(selections []models.QuestionPrediction) {
	sort.SliceStable(selections, func(i, j int) bool {
		var left, right int
		if selections[i].Question != nil {
			left = selections[i].Question.Order
		}
		if selections[j].Question != nil {
			right = selections[j].Question.Order
		}
		return left < right
	})
}
