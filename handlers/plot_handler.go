package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/models"
	"github.com/Zain975/plot-pick-backend/services"
	"github.com/Zain975/plot-pick-backend/storage"
)

type PlotHandler struct {
	plotService       *services.PlotService
	predictionService *services.PredictionService
	uploader          storage.Uploader
}

func NewPlotHandler(plotService *services.PlotService, predictionService *services.PredictionService, uploader storage.Uploader) *PlotHandler {
	return &PlotHandler{
		plotService:       plotService,
		predictionService: predictionService,
		uploader:          uploader,
	}
}

// ==================== Admin: shows + episodes ====================

// CreateShow accepts a multipart form with a "data" JSON part and an
// optional "thumbnail" file part.
func (h *PlotHandler) CreateShow(c *gin.Context) {
	adminID, ok := currentAdminID(c)
	if !ok {
		return
	}

	var req services.CreateShowWithEpisodeRequest
	if !bindMultipartJSON(c, &req) {
		return
	}

	url, ok := h.uploadThumbnail(c, adminID)
	if !ok {
		return
	}
	req.ThumbnailURL = url

	show, err := h.plotService.CreateShowWithEpisode(&req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, show)
}

func (h *PlotHandler) UpdateShow(c *gin.Context) {
	adminID, ok := currentAdminID(c)
	if !ok {
		return
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return
	}
	episode, err := strconv.Atoi(c.Param("episode"))
	if err != nil || episode < 1 {
		apierror.Respond(c, apierror.BadRequest("Invalid episode parameter"))
		return
	}

	var req services.UpdateShowWithEpisodeRequest
	if !bindMultipartJSON(c, &req) {
		return
	}

	url, ok := h.uploadThumbnail(c, adminID)
	if !ok {
		return
	}
	req.ThumbnailURL = url

	show, err := h.plotService.UpdateShowWithEpisode(showID, episode, &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, show)
}

func (h *PlotHandler) DeleteShow(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.plotService.DeleteShow(showID); err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Show deleted"})
}

func (h *PlotHandler) DeleteEpisode(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return
	}
	episode, err := strconv.Atoi(c.Param("episode"))
	if err != nil || episode < 1 {
		apierror.Respond(c, apierror.BadRequest("Invalid episode parameter"))
		return
	}

	if err := h.plotService.DeleteEpisode(showID, episode); err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Episode deleted"})
}

func (h *PlotHandler) GetAllShows(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}

	page, limit := pageParams(c)
	result, err := h.plotService.GetAllShows(page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PlotHandler) GetShowByID(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return
	}

	show, err := h.plotService.GetShowByID(showID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, show)
}

// ==================== Admin: plots ====================

func (h *PlotHandler) GetAllPlots(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}

	status := models.PlotStatus(c.Query("status"))
	page, limit := pageParams(c)
	result, err := h.plotService.GetAllPlots(status, page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PlotHandler) GetPlotByID(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}
	plotID, ok := idParam(c, "id")
	if !ok {
		return
	}

	plot, err := h.plotService.GetPlotByID(plotID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, plot)
}

func (h *PlotHandler) UpdatePlotStatus(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}
	plotID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.PlotStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	plot, err := h.plotService.UpdatePlotStatus(plotID, req.Status)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, plot)
}

func (h *PlotHandler) PauseQuestion(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}
	questionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.plotService.PauseQuestion(questionID); err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question paused"})
}

func (h *PlotHandler) UnpauseQuestion(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}
	questionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.plotService.UnpauseQuestion(questionID); err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question unpaused"})
}

func (h *PlotHandler) AnnounceResults(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}

	var req services.AnnounceResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	plot, err := h.plotService.AnnounceResults(&req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, plot)
}

// ==================== User: plots + predictions ====================

func (h *PlotHandler) GetActivePlots(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	status := models.PlotStatus(c.Query("status"))
	page, limit := pageParams(c)
	result, err := h.plotService.GetActivePlots(status, page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PlotHandler) GetPlotDetails(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	plotID, ok := idParam(c, "id")
	if !ok {
		return
	}

	details, err := h.plotService.GetPlotDetailsForUser(plotID, userID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *PlotHandler) CreatePrediction(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreatePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	prediction, err := h.predictionService.CreatePrediction(userID, &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, prediction)
}

func (h *PlotHandler) GetUserPredictions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	result, err := h.predictionService.GetUserPredictions(userID, page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PlotHandler) GetUserPlots(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	result, err := h.predictionService.GetUserPlots(userID, page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ==================== helpers ====================

// bindMultipartJSON decodes the "data" part of a multipart form, or the raw
// body when the request is plain JSON, and runs the binding validators.
func bindMultipartJSON(c *gin.Context, out interface{}) bool {
	if _, err := c.MultipartForm(); err == nil {
		raw := c.PostForm("data")
		if raw == "" {
			apierror.Respond(c, apierror.BadRequest("Missing data form field"))
			return false
		}
		if err := json.Unmarshal([]byte(raw), out); err != nil {
			apierror.Respond(c, apierror.BadRequest(err.Error()))
			return false
		}
		if err := binding.Validator.ValidateStruct(out); err != nil {
			apierror.Respond(c, apierror.BadRequest(err.Error()))
			return false
		}
		return true
	}

	if err := c.ShouldBindJSON(out); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return false
	}
	return true
}

// uploadThumbnail stores an optional "thumbnail" file part and returns its
// URL. A request without the part returns an empty URL and ok.
func (h *PlotHandler) uploadThumbnail(c *gin.Context, adminID uint) (string, bool) {
	fileHeader, err := c.FormFile("thumbnail")
	if err != nil {
		return "", true
	}
	if h.uploader == nil {
		apierror.Respond(c, apierror.Internal("Media storage is not configured"))
		return "", false
	}

	data, err := readMultipartFile(fileHeader)
	if err != nil {
		apierror.Respond(c, apierror.BadRequest("Could not read thumbnail file"))
		return "", false
	}

	key := h.uploader.Key("thumbnails", adminID, fileHeader.Filename, "")
	url, err := h.uploader.Upload(c.Request.Context(), data, key, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		apierror.Respond(c, err)
		return "", false
	}
	return url, true
}

func readMultipartFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
