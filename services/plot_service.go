package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/logging"
	"github.com/Zain975/plot-pick-backend/models"
	"github.com/Zain975/plot-pick-backend/storage"
)

const dateLayout = "2006-01-02"

// PlotService owns the show/episode catalog, the question bank and the plot
// lifecycle rules. Every state-changing operation is gated here.
type PlotService struct {
	db       *gorm.DB
	uploader storage.Uploader
}

func NewPlotService(db *gorm.DB, uploader storage.Uploader) *PlotService {
	return &PlotService{db: db, uploader: uploader}
}

type CreateOptionRequest struct {
	OptionText string `json:"option_text" binding:"required"`
	Order      int    `json:"order"`
}

type CreateQuestionRequest struct {
	QuestionText string                `json:"question_text" binding:"required"`
	Type         models.QuestionType   `json:"type" binding:"required"`
	Order        int                   `json:"order"`
	Options      []CreateOptionRequest `json:"options" binding:"required"`
}

type CreateShowWithEpisodeRequest struct {
	Title             string                  `json:"title" binding:"required"`
	SeasonNumber      int                     `json:"season_number" binding:"required"`
	Episode           int                     `json:"episode" binding:"required"`
	Description       string                  `json:"description"`
	ThumbnailURL      string                  `json:"-"`
	MinimumAmount     decimal.Decimal         `json:"minimum_amount" binding:"required"`
	MaximumAmount     decimal.Decimal         `json:"maximum_amount" binding:"required"`
	PayoutAmount      decimal.Decimal         `json:"payout_amount" binding:"required"`
	PlotpicksVig      decimal.Decimal         `json:"plotpicks_vig"`
	BonusKicker       bool                    `json:"bonus_kicker"`
	BonusAmount       *decimal.Decimal        `json:"bonus_amount"`
	Type              models.PlotType         `json:"type" binding:"required"`
	NumberOfQuestions int                     `json:"number_of_questions" binding:"required"`
	ActiveStartDate   string                  `json:"active_start_date" binding:"required"`
	ActiveStartTime   string                  `json:"active_start_time" binding:"required"`
	CloseEndDate      string                  `json:"close_end_date" binding:"required"`
	CloseEndTime      string                  `json:"close_end_time" binding:"required"`
	Questions         []CreateQuestionRequest `json:"questions" binding:"required,min=1"`
}

type UpdateShowWithEpisodeRequest struct {
	Title             *string                 `json:"title"`
	SeasonNumber      *int                    `json:"season_number"`
	Description       *string                 `json:"description"`
	ThumbnailURL      string                  `json:"-"`
	MinimumAmount     *decimal.Decimal        `json:"minimum_amount"`
	MaximumAmount     *decimal.Decimal        `json:"maximum_amount"`
	PayoutAmount      *decimal.Decimal        `json:"payout_amount"`
	PlotpicksVig      *decimal.Decimal        `json:"plotpicks_vig"`
	BonusKicker       *bool                   `json:"bonus_kicker"`
	BonusAmount       *decimal.Decimal        `json:"bonus_amount"`
	Type              *models.PlotType        `json:"type"`
	NumberOfQuestions *int                    `json:"number_of_questions"`
	ActiveStartDate   *string                 `json:"active_start_date"`
	ActiveStartTime   *string                 `json:"active_start_time"`
	CloseEndDate      *string                 `json:"close_end_date"`
	CloseEndTime      *string                 `json:"close_end_time"`
	Questions         []CreateQuestionRequest `json:"questions"`
}

type AnnounceResultRequest struct {
	QuestionID      uint `json:"question_id" binding:"required"`
	CorrectOptionID uint `json:"correct_option_id" binding:"required"`
}

type AnnounceResultsRequest struct {
	PlotID  uint                    `json:"plot_id" binding:"required"`
	Results []AnnounceResultRequest `json:"results" binding:"required,min=1"`
}

type ShowListResponse struct {
	Shows []models.Show `json:"shows"`
	Pagination
}

type PlotListResponse struct {
	Plots []models.Plot `json:"plots"`
	Pagination
}

type PlotDetailsResponse struct {
	models.Plot
	IsActive       bool                   `json:"is_active"`
	CanPredict     bool                   `json:"can_predict"`
	UserPrediction *models.PlotPrediction `json:"user_prediction"`
}

// ==================== Admin: show + episode management ====================

func (s *PlotService) CreateShowWithEpisode(req *CreateShowWithEpisodeRequest) (*models.Show, error) {
	if len(req.Questions) != req.NumberOfQuestions {
		return nil, apierror.BadRequest("Number of questions does not match number_of_questions field")
	}
	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}
	if req.MaximumAmount.LessThan(req.MinimumAmount) {
		return nil, apierror.BadRequest("maximum_amount must be greater than or equal to minimum_amount")
	}
	if req.PlotpicksVig.IsNegative() || req.PlotpicksVig.GreaterThan(decimal.NewFromInt(100)) {
		return nil, apierror.BadRequest("plotpicks_vig must be between 0 and 100")
	}

	startDate, err := time.Parse(dateLayout, req.ActiveStartDate)
	if err != nil {
		return nil, apierror.BadRequest("active_start_date must be in YYYY-MM-DD format")
	}
	endDate, err := time.Parse(dateLayout, req.CloseEndDate)
	if err != nil {
		return nil, apierror.BadRequest("close_end_date must be in YYYY-MM-DD format")
	}
	if endDate.Before(startDate) {
		return nil, apierror.BadRequest("close_end_date must not be before active_start_date")
	}

	var existing models.Show
	findErr := s.db.Where("title = ? AND season_number = ?", req.Title, req.SeasonNumber).First(&existing).Error
	if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return nil, findErr
	}
	showExists := findErr == nil

	var showID uint

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var show models.Show

		if showExists {
			show = existing
			updates := map[string]interface{}{
				"description":    req.Description,
				"minimum_amount": req.MinimumAmount,
				"maximum_amount": req.MaximumAmount,
				"payout_amount":  req.PayoutAmount,
				"plotpicks_vig":  req.PlotpicksVig,
				"bonus_kicker":   req.BonusKicker,
			}
			if req.BonusAmount != nil {
				updates["bonus_amount"] = decimal.NewNullDecimal(*req.BonusAmount)
			}
			if req.ThumbnailURL != "" {
				updates["thumbnail_url"] = req.ThumbnailURL
			}
			if err := tx.Model(&show).Updates(updates).Error; err != nil {
				return err
			}

			var count int64
			if err := tx.Model(&models.Plot{}).
				Where("show_id = ? AND episode_number = ?", show.ID, req.Episode).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apierror.BadRequest(fmt.Sprintf("Episode %d already exists for this show. Use update API to modify it.", req.Episode))
			}
		} else {
			show = models.Show{
				Title:         req.Title,
				SeasonNumber:  req.SeasonNumber,
				Description:   req.Description,
				ThumbnailURL:  req.ThumbnailURL,
				MinimumAmount: req.MinimumAmount,
				MaximumAmount: req.MaximumAmount,
				PayoutAmount:  req.PayoutAmount,
				PlotpicksVig:  req.PlotpicksVig,
				BonusKicker:   req.BonusKicker,
			}
			if req.BonusAmount != nil {
				show.BonusAmount = decimal.NewNullDecimal(*req.BonusAmount)
			}
			if err := tx.Create(&show).Error; err != nil {
				if isDuplicateKey(err) {
					return apierror.Conflict("A show with this title and season already exists")
				}
				return err
			}
		}

		plot := models.Plot{
			ShowID:            show.ID,
			EpisodeNumber:     req.Episode,
			Type:              req.Type,
			NumberOfQuestions: req.NumberOfQuestions,
			ActiveStartDate:   startDate,
			ActiveStartTime:   req.ActiveStartTime,
			CloseEndDate:      endDate,
			CloseEndTime:      req.CloseEndTime,
			Status:            models.PlotStatusDraft,
		}
		if err := tx.Create(&plot).Error; err != nil {
			if isDuplicateKey(err) {
				return apierror.Conflict(fmt.Sprintf("Episode %d already exists for this show", req.Episode))
			}
			return err
		}

		if err := insertQuestions(tx, plot.ID, req.Questions); err != nil {
			return err
		}

		showID = show.ID
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.GetShowByID(showID)
}

func (s *PlotService) UpdateShowWithEpisode(showID uint, episodeNumber int, req *UpdateShowWithEpisodeRequest) (*models.Show, error) {
	var show models.Show
	if err := s.db.First(&show, showID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Show not found")
		}
		return nil, err
	}

	var plot models.Plot
	plotErr := s.db.Where("show_id = ? AND episode_number = ?", showID, episodeNumber).First(&plot).Error
	if plotErr != nil && !errors.Is(plotErr, gorm.ErrRecordNotFound) {
		return nil, plotErr
	}
	plotExists := plotErr == nil

	showUpdates := map[string]interface{}{}
	if req.Title != nil {
		showUpdates["title"] = *req.Title
	}
	if req.SeasonNumber != nil {
		showUpdates["season_number"] = *req.SeasonNumber
	}
	if req.Description != nil {
		showUpdates["description"] = *req.Description
	}
	if req.ThumbnailURL != "" {
		showUpdates["thumbnail_url"] = req.ThumbnailURL
	}
	if req.MinimumAmount != nil {
		showUpdates["minimum_amount"] = *req.MinimumAmount
	}
	if req.MaximumAmount != nil {
		showUpdates["maximum_amount"] = *req.MaximumAmount
	}
	if req.PayoutAmount != nil {
		showUpdates["payout_amount"] = *req.PayoutAmount
	}
	if req.PlotpicksVig != nil {
		if req.PlotpicksVig.IsNegative() || req.PlotpicksVig.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apierror.BadRequest("plotpicks_vig must be between 0 and 100")
		}
		showUpdates["plotpicks_vig"] = *req.PlotpicksVig
	}
	if req.BonusKicker != nil {
		showUpdates["bonus_kicker"] = *req.BonusKicker
	}
	if req.BonusAmount != nil {
		showUpdates["bonus_amount"] = decimal.NewNullDecimal(*req.BonusAmount)
	}

	oldThumbnail := show.ThumbnailURL

	if plotExists {
		if err := s.updateExistingEpisode(&show, &plot, req, showUpdates); err != nil {
			return nil, err
		}
	} else {
		if err := s.createEpisodeForShow(&show, episodeNumber, req, showUpdates); err != nil {
			return nil, err
		}
	}

	if req.ThumbnailURL != "" && oldThumbnail != "" && oldThumbnail != req.ThumbnailURL {
		s.deleteThumbnail(oldThumbnail)
	}

	return s.GetShowByID(showID)
}

func (s *PlotService) updateExistingEpisode(show *models.Show, plot *models.Plot, req *UpdateShowWithEpisodeRequest, showUpdates map[string]interface{}) error {
	if plot.Status == models.PlotStatusResultsAnnounced {
		return apierror.BadRequest("Cannot update plot after results are announced")
	}

	if req.Questions != nil {
		var predictions int64
		if err := s.db.Model(&models.PlotPrediction{}).Where("plot_id = ?", plot.ID).Count(&predictions).Error; err != nil {
			return err
		}
		if predictions > 0 {
			return apierror.BadRequest("Cannot update questions that have predictions")
		}

		if req.NumberOfQuestions != nil && len(req.Questions) != *req.NumberOfQuestions {
			return apierror.BadRequest("Number of questions does not match number_of_questions field")
		}
		if err := validateQuestions(req.Questions); err != nil {
			return err
		}
	}

	plotUpdates := map[string]interface{}{}
	if req.Type != nil {
		plotUpdates["type"] = *req.Type
	}
	if req.NumberOfQuestions != nil {
		plotUpdates["number_of_questions"] = *req.NumberOfQuestions
	}
	if req.ActiveStartDate != nil {
		startDate, err := time.Parse(dateLayout, *req.ActiveStartDate)
		if err != nil {
			return apierror.BadRequest("active_start_date must be in YYYY-MM-DD format")
		}
		plotUpdates["active_start_date"] = startDate
	}
	if req.ActiveStartTime != nil {
		plotUpdates["active_start_time"] = *req.ActiveStartTime
	}
	if req.CloseEndDate != nil {
		endDate, err := time.Parse(dateLayout, *req.CloseEndDate)
		if err != nil {
			return apierror.BadRequest("close_end_date must be in YYYY-MM-DD format")
		}
		plotUpdates["close_end_date"] = endDate
	}
	if req.CloseEndTime != nil {
		plotUpdates["close_end_time"] = *req.CloseEndTime
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if req.Questions != nil {
			if err := replaceQuestions(tx, plot.ID, req.Questions); err != nil {
				return err
			}
		}
		if len(showUpdates) > 0 {
			if err := tx.Model(show).Updates(showUpdates).Error; err != nil {
				return err
			}
		}
		if len(plotUpdates) > 0 {
			if err := tx.Model(plot).Updates(plotUpdates).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PlotService) createEpisodeForShow(show *models.Show, episodeNumber int, req *UpdateShowWithEpisodeRequest, showUpdates map[string]interface{}) error {
	if req.Questions == nil || req.Type == nil || req.NumberOfQuestions == nil ||
		req.ActiveStartDate == nil || req.ActiveStartTime == nil ||
		req.CloseEndDate == nil || req.CloseEndTime == nil {
		return apierror.BadRequest("questions, type, number_of_questions, active_start_date, active_start_time, close_end_date and close_end_time are required when creating a new episode")
	}

	if len(req.Questions) != *req.NumberOfQuestions {
		return apierror.BadRequest("Number of questions does not match number_of_questions field")
	}
	if err := validateQuestions(req.Questions); err != nil {
		return err
	}

	startDate, err := time.Parse(dateLayout, *req.ActiveStartDate)
	if err != nil {
		return apierror.BadRequest("active_start_date must be in YYYY-MM-DD format")
	}
	endDate, err := time.Parse(dateLayout, *req.CloseEndDate)
	if err != nil {
		return apierror.BadRequest("close_end_date must be in YYYY-MM-DD format")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if len(showUpdates) > 0 {
			if err := tx.Model(show).Updates(showUpdates).Error; err != nil {
				return err
			}
		}

		plot := models.Plot{
			ShowID:            show.ID,
			EpisodeNumber:     episodeNumber,
			Type:              *req.Type,
			NumberOfQuestions: *req.NumberOfQuestions,
			ActiveStartDate:   startDate,
			ActiveStartTime:   *req.ActiveStartTime,
			CloseEndDate:      endDate,
			CloseEndTime:      *req.CloseEndTime,
			Status:            models.PlotStatusDraft,
		}
		if err := tx.Create(&plot).Error; err != nil {
			return err
		}

		return insertQuestions(tx, plot.ID, req.Questions)
	})
}

// DeleteShow removes a show and its episodes for good. Deletes are unscoped
// so the title+season and show+episode keys can be reused afterwards.
func (s *PlotService) DeleteShow(showID uint) error {
	var show models.Show
	if err := s.db.Preload("Plots").First(&show, showID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("Show not found")
		}
		return err
	}

	plotIDs := make([]uint, 0, len(show.Plots))
	for _, plot := range show.Plots {
		plotIDs = append(plotIDs, plot.ID)
	}

	if len(plotIDs) > 0 {
		var predictions int64
		if err := s.db.Model(&models.PlotPrediction{}).Where("plot_id IN ?", plotIDs).Count(&predictions).Error; err != nil {
			return err
		}
		if predictions > 0 {
			return apierror.BadRequest("Cannot delete show with existing predictions")
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(plotIDs) > 0 {
			if err := deleteQuestionsForPlots(tx, plotIDs); err != nil {
				return err
			}
			if err := tx.Unscoped().Where("show_id = ?", showID).Delete(&models.Plot{}).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&models.Show{}, showID).Error
	})
	if err != nil {
		return err
	}

	if show.ThumbnailURL != "" {
		s.deleteThumbnail(show.ThumbnailURL)
	}

	return nil
}

func (s *PlotService) DeleteEpisode(showID uint, episodeNumber int) error {
	var plot models.Plot
	err := s.db.Where("show_id = ? AND episode_number = ?", showID, episodeNumber).First(&plot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound("Episode not found")
	}
	if err != nil {
		return err
	}

	var predictions int64
	if err := s.db.Model(&models.PlotPrediction{}).Where("plot_id = ?", plot.ID).Count(&predictions).Error; err != nil {
		return err
	}
	if predictions > 0 {
		return apierror.BadRequest("Cannot delete episode with existing predictions")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteQuestionsForPlots(tx, []uint{plot.ID}); err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Plot{}, plot.ID).Error
	})
}

func (s *PlotService) GetAllShows(page, limit int) (*ShowListResponse, error) {
	page, limit = NormalizePage(page, limit)

	var total int64
	if err := s.db.Model(&models.Show{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var shows []models.Show
	err := s.db.
		Preload("Plots", func(db *gorm.DB) *gorm.DB {
			return db.Order("plots.episode_number ASC")
		}).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&shows).Error
	if err != nil {
		return nil, err
	}

	return &ShowListResponse{Shows: shows, Pagination: NewPagination(total, page, limit)}, nil
}

func (s *PlotService) GetShowByID(showID uint) (*models.Show, error) {
	var show models.Show
	err := s.db.
		Preload("Plots", func(db *gorm.DB) *gorm.DB {
			return db.Order("plots.episode_number ASC")
		}).
		Preload("Plots.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order" ASC`)
		}).
		Preload("Plots.Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`question_options."order" ASC`)
		}).
		First(&show, showID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Show not found")
	}
	if err != nil {
		return nil, err
	}
	return &show, nil
}

// ==================== Admin: plot lifecycle ====================

func (s *PlotService) GetAllPlots(status models.PlotStatus, page, limit int) (*PlotListResponse, error) {
	page, limit = NormalizePage(page, limit)

	query := s.db.Model(&models.Plot{})
	if status != "" {
		if !status.Valid() {
			return nil, apierror.BadRequest("Unknown plot status")
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var plots []models.Plot
	err := query.
		Preload("Show").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order" ASC`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`question_options."order" ASC`)
		}).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&plots).Error
	if err != nil {
		return nil, err
	}

	return &PlotListResponse{Plots: plots, Pagination: NewPagination(total, page, limit)}, nil
}

func (s *PlotService) GetPlotByID(plotID uint) (*models.Plot, error) {
	var plot models.Plot
	err := s.db.
		Preload("Show").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order" ASC`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`question_options."order" ASC`)
		}).
		Preload("Questions.CorrectOption").
		First(&plot, plotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Plot not found")
	}
	if err != nil {
		return nil, err
	}
	return &plot, nil
}

// UpdatePlotStatus moves a plot between DRAFT, ACTIVE and CLOSED. Reaching
// RESULTS_ANNOUNCED is only possible through AnnounceResults, and a plot
// never leaves it.
func (s *PlotService) UpdatePlotStatus(plotID uint, status models.PlotStatus) (*models.Plot, error) {
	if !status.Valid() {
		return nil, apierror.BadRequest("Unknown plot status")
	}
	if status == models.PlotStatusResultsAnnounced {
		return nil, apierror.BadRequest("Results must be announced via the announce-results API")
	}

	var plot models.Plot
	if err := s.db.First(&plot, plotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Plot not found")
		}
		return nil, err
	}

	if plot.Status == models.PlotStatusResultsAnnounced {
		return nil, apierror.BadRequest("Cannot change status after results are announced")
	}

	if err := s.db.Model(&plot).Update("status", status).Error; err != nil {
		return nil, err
	}

	return s.GetPlotByID(plotID)
}

func (s *PlotService) PauseQuestion(questionID uint) error {
	return s.setQuestionPaused(questionID, true)
}

func (s *PlotService) UnpauseQuestion(questionID uint) error {
	return s.setQuestionPaused(questionID, false)
}

func (s *PlotService) setQuestionPaused(questionID uint, paused bool) error {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("Question not found")
		}
		return err
	}

	return s.db.Model(&question).Update("is_paused", paused).Error
}

// AnnounceResults stamps the correct option on every question and freezes the
// plot. The option writes and the status flip are one transaction.
func (s *PlotService) AnnounceResults(req *AnnounceResultsRequest) (*models.Plot, error) {
	var plot models.Plot
	err := s.db.
		Preload("Questions").
		Preload("Questions.Options").
		First(&plot, req.PlotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Plot not found")
	}
	if err != nil {
		return nil, err
	}

	if plot.Status == models.PlotStatusResultsAnnounced {
		return nil, apierror.BadRequest("Results already announced for this plot")
	}

	if len(req.Results) != len(plot.Questions) {
		return nil, apierror.BadRequest("Results must be provided for all questions")
	}

	questionsByID := make(map[uint]*models.Question, len(plot.Questions))
	for i := range plot.Questions {
		questionsByID[plot.Questions[i].ID] = &plot.Questions[i]
	}

	seen := make(map[uint]bool, len(req.Results))
	for _, result := range req.Results {
		question, ok := questionsByID[result.QuestionID]
		if !ok {
			return nil, apierror.BadRequest(fmt.Sprintf("Question %d not found in plot", result.QuestionID))
		}
		if seen[result.QuestionID] {
			return nil, apierror.BadRequest(fmt.Sprintf("Duplicate result for question %d", result.QuestionID))
		}
		seen[result.QuestionID] = true

		found := false
		for _, option := range question.Options {
			if option.ID == result.CorrectOptionID {
				found = true
				break
			}
		}
		if !found {
			return nil, apierror.BadRequest(fmt.Sprintf("Option %d not found for question %d", result.CorrectOptionID, result.QuestionID))
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, result := range req.Results {
			if err := tx.Model(&models.Question{}).
				Where("id = ?", result.QuestionID).
				Update("correct_option_id", result.CorrectOptionID).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Plot{}).
			Where("id = ?", plot.ID).
			Update("status", models.PlotStatusResultsAnnounced).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetPlotByID(plot.ID)
}

// ==================== User: plot viewing ====================

func (s *PlotService) GetActivePlots(status models.PlotStatus, page, limit int) (*PlotListResponse, error) {
	page, limit = NormalizePage(page, limit)

	query := s.db.Model(&models.Plot{})
	if status != "" {
		if !status.Valid() {
			return nil, apierror.BadRequest("Unknown plot status")
		}
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status <> ?", models.PlotStatusDraft)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var plots []models.Plot
	err := query.
		Preload("Show").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_paused = ?", false).Order(`questions."order" ASC`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`question_options."order" ASC`)
		}).
		Preload("Questions.CorrectOption").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&plots).Error
	if err != nil {
		return nil, err
	}

	return &PlotListResponse{Plots: plots, Pagination: NewPagination(total, page, limit)}, nil
}

func (s *PlotService) GetPlotDetailsForUser(plotID, userID uint) (*PlotDetailsResponse, error) {
	var plot models.Plot
	err := s.db.
		Preload("Show").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_paused = ?", false).Order(`questions."order" ASC`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`question_options."order" ASC`)
		}).
		Preload("Questions.CorrectOption").
		First(&plot, plotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Plot not found")
	}
	if err != nil {
		return nil, err
	}

	var prediction models.PlotPrediction
	predErr := s.db.
		Preload("QuestionPredictions").
		Preload("QuestionPredictions.Question").
		Preload("QuestionPredictions.Option").
		Where("user_id = ? AND plot_id = ?", userID, plotID).
		First(&prediction).Error
	if predErr != nil && !errors.Is(predErr, gorm.ErrRecordNotFound) {
		return nil, predErr
	}
	hasPredicted := predErr == nil

	isActive := IsPredictable(&plot, time.Now().UTC())

	details := &PlotDetailsResponse{
		Plot:       plot,
		IsActive:   isActive,
		CanPredict: isActive && !hasPredicted,
	}
	if hasPredicted {
		sortSelectionsByQuestionOrder(prediction.QuestionPredictions)
		details.UserPrediction = &prediction
	}

	return details, nil
}

// IsPredictable reports whether the plot accepts predictions at now. The
// window is date-granular: the stored time-of-day strings are informational
// and intentionally not part of the comparison.
func IsPredictable(plot *models.Plot, now time.Time) bool {
	return plot.Status == models.PlotStatusActive &&
		!plot.ActiveStartDate.After(now) &&
		!plot.CloseEndDate.Before(now)
}

// ==================== Question bank helpers ====================

func validateQuestions(questions []CreateQuestionRequest) error {
	for _, question := range questions {
		want := question.Type.OptionCount()
		if want == 0 {
			return apierror.BadRequest(fmt.Sprintf("Unknown question type %q", question.Type))
		}
		if len(question.Options) != want {
			return apierror.BadRequest(fmt.Sprintf("%s questions must have exactly %d options", question.Type, want))
		}
	}
	return nil
}

func insertQuestions(tx *gorm.DB, plotID uint, questions []CreateQuestionRequest) error {
	for _, questionReq := range questions {
		question := models.Question{
			PlotID:       plotID,
			QuestionText: questionReq.QuestionText,
			Type:         questionReq.Type,
			Order:        questionReq.Order,
		}
		if err := tx.Create(&question).Error; err != nil {
			return err
		}

		for _, optionReq := range questionReq.Options {
			option := models.QuestionOption{
				QuestionID: question.ID,
				OptionText: optionReq.OptionText,
				Order:      optionReq.Order,
			}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// replaceQuestions destructively swaps a plot's question set. Callers must
// have verified the plot has no predictions.
func replaceQuestions(tx *gorm.DB, plotID uint, questions []CreateQuestionRequest) error {
	if err := deleteQuestionsForPlots(tx, []uint{plotID}); err != nil {
		return err
	}
	return insertQuestions(tx, plotID, questions)
}

func deleteQuestionsForPlots(tx *gorm.DB, plotIDs []uint) error {
	var questionIDs []uint
	if err := tx.Model(&models.Question{}).Where("plot_id IN ?", plotIDs).Pluck("id", &questionIDs).Error; err != nil {
		return err
	}
	if len(questionIDs) > 0 {
		if err := tx.Unscoped().Where("question_id IN ?", questionIDs).Delete(&models.QuestionOption{}).Error; err != nil {
			return err
		}
	}
	return tx.Unscoped().Where("plot_id IN ?", plotIDs).Delete(&models.Question{}).Error
}

func (s *PlotService) deleteThumbnail(url string) {
	if s.uploader == nil {
		return
	}
	key := s.uploader.KeyFromURL(url)
	if err := s.uploader.Delete(context.Background(), key); err != nil {
		logging.Log.Errorf("failed to delete orphaned thumbnail %s: %v", key, err)
	}
}
