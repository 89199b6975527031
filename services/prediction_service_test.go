package services

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zain975/plot-pick-backend/models"
)

func TestCreatePrediction(t *testing.T) {
	db := newTestDB(t)
	plots := NewPlotService(db, nil)
	svc := NewPredictionService(db)

	_, plot := createTestShow(t, plots, "Prediction Show", 1)
	activatePlot(t, plots, plot.ID)
	user := createTestUser(t, db, "predictor")

	prediction := makeTestPrediction(t, svc, user.ID, plot)

	assert.Equal(t, user.ID, prediction.UserID)
	assert.Equal(t, plot.ID, prediction.PlotID)
	assert.True(t, prediction.PredictedAmount.Equal(decimal.NewFromInt(10)))
	require.Len(t, prediction.QuestionPredictions, 2)

	// Selections come back in question order.
	assert.Equal(t, plot.Questions[0].ID, prediction.QuestionPredictions[0].QuestionID)
	assert.Equal(t, plot.Questions[1].ID, prediction.QuestionPredictions[1].QuestionID)
}

func TestCreatePredictionWindowEnforced(t *testing.T) {
	db := newTestDB(t)
	plots := NewPlotService(db, nil)
	svc := NewPredictionService(db)
	user := createTestUser(t, db, "windowuser")

	t.Run("draft plot", func(t *testing.T) {
		_, plot := createTestShow(t, plots, "Still Draft", 1)
		_, err := svc.CreatePrediction(user.ID, &CreatePredictionRequest{
			PlotID:          plot.ID,
			PredictedAmount: decimal.NewFromInt(10),
			Selections:      selectionsFor(plot),
		})
		apiErr := requireAPIError(t, err, http.StatusBadRequest)
		assert.Contains(t, apiErr.Message, "not active")
	})

	t.Run("closed plot", func(t *testing.T) {
		_, plot := createTestShow(t, plots, "Closed Show", 1)
		activatePlot(t, plots, plot.ID)
		_, err := plots.UpdatePlotStatus(plot.ID, models.PlotStatusClosed)
		require.NoError(t, err)

		_, err = svc.CreatePrediction(user.ID, &CreatePredictionRequest{
			PlotID:          plot.ID,
			PredictedAmount: decimal.NewFromInt(10),
			Selections:      selectionsFor(plot),
		})
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("active but window passed", func(t *testing.T) {
		req := validShowRequest("Expired Window", 1)
		req.ActiveStartDate = "2020-01-01"
		req.CloseEndDate = "2020-01-08"
		show, err := plots.CreateShowWithEpisode(req)
		require.NoError(t, err)
		plot, err := plots.GetPlotByID(show.Plots[0].ID)
		require.NoError(t, err)
		activatePlot(t, plots, plot.ID)

		_, err = svc.CreatePrediction(user.ID, &CreatePredictionRequest{
			PlotID:          plot.ID,
			PredictedAmount: decimal.NewFromInt(10),
			Selections:      selectionsFor(plot),
		})
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("unknown plot", func(t *testing.T) {
		_, err := svc.CreatePrediction(user.ID, &CreatePredictionRequest{
			PlotID:          9999,
			PredictedAmount: decimal.NewFromInt(10),
			Selections:      []SelectionRequest{{QuestionID: 1, OptionID: 1}},
		})
		requireAPIError(t, err, http.StatusNotFound)
	})
}

func TestCreatePredictionAmountRange(t *testing.T) {
	db := newTestDB(t)
	plots := NewPlotService(db, nil)
	svc := NewPredictionService(db)

	_, plot := createTestShow(t, plots, "Amount Range", 1)
	activatePlot(t, plots, plot.ID)
	user := createTestUser(t, db, "amountuser")

	for _, amount := range []int64{4, 101} {
		_, err := svc.CreatePrediction(user.ID, &CreatePredictionRequest{
			PlotID:          plot.ID,
			PredictedAmount: decimal.NewFromInt(amount),
			Selections:      selectionsFor(plot),
		})
		apiErr := requireAPIError(t, err, http.StatusBadRequest)
		assert.Contains(t, apiErr.Message, "Predicted amount must be between")
	}

	// Boundary values are accepted.
	_, err := svc.CreatePrediction(user.ID, &CreatePredictionRequest{
		PlotID:          plot.ID,
		PredictedAmount: decimal.NewFromInt(5),
		Selections:      selectionsFor(plot),
	})
	require.NoError(t, err)
}

func TestCreatePredictionDuplicateRejected(t *testing.T) {
	db := newTestDB(t)
	plots := NewPlotService(db, nil)
	svc := NewPredictionService(db)

	_, plot := createTestShow(t, plots, "One Shot", 1)
	activatePlot(t, plots, plot.ID)
	user := createTestUser(t, db, "oneshot")

	makeTestPrediction(t, svc, user.ID, plot)

	_, err := svc.CreatePrediction(user.ID, &CreatePredictionRequest{
		PlotID:          plot.ID,
		PredictedAmount: decimal.NewFromInt(20),
		Selections:      selectionsFor(plot),
	})
	apiErr := requireAPIError(t, err, http.StatusConflict)
	assert.Contains(t, apiErr.Message, "already predicted")

	// A different user is unaffected.
	other := createTestUser(t, db, "othershot")
	makeTestPrediction(t, svc, other.ID, plot)
}

func TestCreatePredictionSelectionValidation(t *testing.T) {
	db := newTestDB(t)
	plots := NewPlotService(db, nil)
	svc := NewPredictionService(db)

	_, plot := createTestShow(t, plots, "Selections", 1)
	_, other := createTestShow(t, plots, "Other Plot", 1)
	activatePlot(t, plots, plot.ID)
	user := createTestUser(t, db, "selector")

	q1, q2 := plot.Questions[0], plot.Questions[1]

	cases := []struct {
		name       string
		selections []SelectionRequest
	}{
		{
			name:       "missing a question",
			selections: []SelectionRequest{{QuestionID: q1.ID, OptionID: q1.Options[0].ID}},
		},
		{
			name: "duplicate question",
			selections: []SelectionRequest{
				{QuestionID: q1.ID, OptionID: q1.Options[0].ID},
				{QuestionID: q1.ID, OptionID: q1.Options[1].ID},
			},
		},
		{
			name: "question from another plot",
			selections: []SelectionRequest{
				{QuestionID: q1.ID, OptionID: q1.Options[0].ID},
				{QuestionID: other.Questions[0].ID, OptionID: other.Questions[0].Options[0].ID},
			},
		},
		{
			name: "option from another question",
			selections: []SelectionRequest{
				{QuestionID: q1.ID, OptionID: q2.Options[0].ID},
				{QuestionID: q2.ID, OptionID: q2.Options[1].ID},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreatePrediction(user.ID, &CreatePredictionRequest{
				PlotID:          plot.ID,
				PredictedAmount: decimal.NewFromInt(10),
				Selections:      tc.selections,
			})
			requireAPIError(t, err, http.StatusBadRequest)

			// A failed attempt writes nothing.
			var predictions, selections int64
			require.NoError(t, db.Model(&models.PlotPrediction{}).Count(&predictions).Error)
			require.NoError(t, db.Model(&models.QuestionPrediction{}).Count(&selections).Error)
			assert.EqualValues(t, 0, predictions)
			assert.EqualValues(t, 0, selections)
		})
	}
}

func TestPredictionAgainstPausedQuestion(t *testing.T) {
	db := newTestDB(t)
	plots := NewPlotService(db, nil)
	svc := NewPredictionService(db)

	_, plot := createTestShow(t, plots, "Paused Prediction", 1)
	activatePlot(t, plots, plot.ID)
	user := createTestUser(t, db, "pausedpredictor")

	require.NoError(t, plots.PauseQuestion(plot.Questions[0].ID))

	// The full selection set now includes a paused question and is rejected.
	_, err := svc.CreatePrediction(user.ID, &CreatePredictionRequest{
		PlotID:          plot.ID,
		PredictedAmount: decimal.NewFromInt(10),
		Selections:      selectionsFor(plot),
	})
	requireAPIError(t, err, http.StatusBadRequest)

	// Selecting only the visible question succeeds.
	prediction, err := svc.CreatePrediction(user.ID, &CreatePredictionRequest{
		PlotID:          plot.ID,
		PredictedAmount: decimal.NewFromInt(10),
		Selections: []SelectionRequest{
			{QuestionID: plot.Questions[1].ID, OptionID: plot.Questions[1].Options[0].ID},
		},
	})
	require.NoError(t, err)
	require.Len(t, prediction.QuestionPredictions, 1)
}

func TestGetPlotDetailsForUser(t *testing.T) {
	db := newTestDB(t)
	plots := NewPlotService(db, nil)
	svc := NewPredictionService(db)

	_, plot := createTestShow(t, plots, "Details", 1)
	activatePlot(t, plots, plot.ID)
	user := createTestUser(t, db, "detailuser")

	before, err := plots.GetPlotDetailsForUser(plot.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, before.IsActive)
	assert.True(t, before.CanPredict)
	assert.Nil(t, before.UserPrediction)

	makeTestPrediction(t, svc, user.ID, plot)

	after, err := plots.GetPlotDetailsForUser(plot.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, after.IsActive)
	assert.False(t, after.CanPredict)
	require.NotNil(t, after.UserPrediction)
	assert.Len(t, after.UserPrediction.QuestionPredictions, 2)

	// Another user still sees a predictable plot.
	other := createTestUser(t, db, "detailother")
	otherView, err := plots.GetPlotDetailsForUser(plot.ID, other.ID)
	require.NoError(t, err)
	assert.True(t, otherView.CanPredict)
	assert.Nil(t, otherView.UserPrediction)
}

func TestGetUserPredictions(t *testing.T) {
	db := newTestDB(t)
	plots := NewPlotService(db, nil)
	svc := NewPredictionService(db)

	_, first := createTestShow(t, plots, "History One", 1)
	_, second := createTestShow(t, plots, "History Two", 1)
	activatePlot(t, plots, first.ID)
	activatePlot(t, plots, second.ID)
	user := createTestUser(t, db, "historian")

	makeTestPrediction(t, svc, user.ID, first)
	makeTestPrediction(t, svc, user.ID, second)

	result, err := svc.GetUserPredictions(user.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, result.Predictions, 2)
	assert.EqualValues(t, 2, result.Total)
	for _, p := range result.Predictions {
		assert.Equal(t, user.ID, p.UserID)
		assert.NotNil(t, p.Plot)
		assert.Len(t, p.QuestionPredictions, 2)
	}

	// Other users see an empty page, not an error.
	other := createTestUser(t, db, "nothistorian")
	empty, err := svc.GetUserPredictions(other.ID, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, empty.Predictions)
	assert.EqualValues(t, 0, empty.Total)
}

func TestGetUserPlots(t *testing.T) {
	db := newTestDB(t)
	plots := NewPlotService(db, nil)
	svc := NewPredictionService(db)

	_, predicted := createTestShow(t, plots, "Mine", 1)
	_, skipped := createTestShow(t, plots, "Not Mine", 1)
	activatePlot(t, plots, predicted.ID)
	activatePlot(t, plots, skipped.ID)
	user := createTestUser(t, db, "plotowner")

	makeTestPrediction(t, svc, user.ID, predicted)

	result, err := svc.GetUserPlots(user.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, result.Plots, 1)
	assert.Equal(t, predicted.ID, result.Plots[0].ID)
	assert.EqualValues(t, 1, result.Total)
}

func selectionsFor(plot *models.Plot) []SelectionRequest {
	selections := make([]SelectionRequest, 0, len(plot.Questions))
	for _, q := range plot.Questions {
		selections = append(selections, SelectionRequest{
			QuestionID: q.ID,
			OptionID:   q.Options[0].ID,
		})
	}
	return selections
}
