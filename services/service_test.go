package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Zain975/plot-pick-backend/models"
)

var testDBCounter atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Show{},
		&models.Plot{},
		&models.Question{},
		&models.QuestionOption{},
		&models.PlotPrediction{},
		&models.QuestionPrediction{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
		&models.PostShare{},
		&models.Follow{},
	)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, handle string) *models.User {
	t.Helper()

	user := &models.User{
		FirstName:    "Test",
		LastName:     "User",
		UniqueHandle: handle,
		Email:        handle + "@example.com",
		PhoneNumber:  fmt.Sprintf("+1%010d", testDBCounter.Add(1)),
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhashnotarea",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func dateString(d time.Time) string {
	return d.Format(dateLayout)
}

func yesNoQuestion(text string, order int) CreateQuestionRequest {
	return CreateQuestionRequest{
		QuestionText: text,
		Type:         models.QuestionTypeYesNo,
		Order:        order,
		Options: []CreateOptionRequest{
			{OptionText: "Yes", Order: 1},
			{OptionText: "No", Order: 2},
		},
	}
}

func multipleChoiceQuestion(text string, order int) CreateQuestionRequest {
	return CreateQuestionRequest{
		QuestionText: text,
		Type:         models.QuestionTypeMultipleChoice,
		Order:        order,
		Options: []CreateOptionRequest{
			{OptionText: "A", Order: 1},
			{OptionText: "B", Order: 2},
			{OptionText: "C", Order: 3},
			{OptionText: "D", Order: 4},
		},
	}
}

func validShowRequest(title string, episode int) *CreateShowWithEpisodeRequest {
	now := time.Now().UTC()
	return &CreateShowWithEpisodeRequest{
		Title:             title,
		SeasonNumber:      1,
		Episode:           episode,
		Description:       "A test show",
		MinimumAmount:     decimal.NewFromInt(5),
		MaximumAmount:     decimal.NewFromInt(100),
		PayoutAmount:      decimal.NewFromInt(200),
		PlotpicksVig:      decimal.NewFromInt(10),
		Type:              models.PlotTypeStandard,
		NumberOfQuestions: 2,
		ActiveStartDate:   dateString(now.AddDate(0, 0, -1)),
		ActiveStartTime:   "18:00",
		CloseEndDate:      dateString(now.AddDate(0, 0, 7)),
		CloseEndTime:      "21:00",
		Questions: []CreateQuestionRequest{
			yesNoQuestion("Will the hero survive?", 1),
			multipleChoiceQuestion("Who is the traitor?", 2),
		},
	}
}

// createTestShow seeds a show with one episode and returns the show and its
// plot with questions and options loaded.
func createTestShow(t *testing.T, svc *PlotService, title string, episode int) (*models.Show, *models.Plot) {
	t.Helper()

	show, err := svc.CreateShowWithEpisode(validShowRequest(title, episode))
	require.NoError(t, err)
	require.Len(t, show.Plots, 1)

	plot, err := svc.GetPlotByID(show.Plots[0].ID)
	require.NoError(t, err)
	return show, plot
}

func activatePlot(t *testing.T, svc *PlotService, plotID uint) *models.Plot {
	t.Helper()

	plot, err := svc.UpdatePlotStatus(plotID, models.PlotStatusActive)
	require.NoError(t, err)
	return plot
}

// fakeUploader records uploads and deletes in memory.
type fakeUploader struct {
	uploads map[string][]byte
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploads: map[string][]byte{}}
}

func (f *fakeUploader) Upload(_ context.Context, data []byte, key string, _ string) (string, error) {
	f.uploads[key] = data
	return "https://fake-bucket.s3.us-east-1.amazonaws.com/" + key, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	delete(f.uploads, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeUploader) Key(folder string, ownerID uint, originalName string, label string) string {
	return fmt.Sprintf("%s/%d/%s-%s", folder, ownerID, label, originalName)
}

func (f *fakeUploader) KeyFromURL(url string) string {
	_, after, found := strings.Cut(url, ".amazonaws.com/")
	if !found {
		return url
	}
	return after
}
