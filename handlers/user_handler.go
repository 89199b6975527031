package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/services"
	"github.com/Zain975/plot-pick-backend/storage"
)

type UserHandler struct {
	userService *services.UserService
	uploader    storage.Uploader
}

func NewUserHandler(userService *services.UserService, uploader storage.Uploader) *UserHandler {
	return &UserHandler{
		userService: userService,
		uploader:    uploader,
	}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(userID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := idParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(targetID, viewerID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateInfo(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateUserInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	user, err := h.userService.UpdateInfo(userID, &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UploadProfilePicture accepts a multipart "picture" file, stores it and
// points the profile at the new URL.
func (h *UserHandler) UploadProfilePicture(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if h.uploader == nil {
		apierror.Respond(c, apierror.Internal("Media storage is not configured"))
		return
	}

	fileHeader, err := c.FormFile("picture")
	if err != nil {
		apierror.Respond(c, apierror.BadRequest("A picture file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierror.Respond(c, apierror.BadRequest("Could not read uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		apierror.Respond(c, apierror.BadRequest("Could not read uploaded file"))
		return
	}

	key := h.uploader.Key("profile-pictures", userID, fileHeader.Filename, "avatar")
	url, err := h.uploader.Upload(c.Request.Context(), data, key, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	user, err := h.userService.UpdateInfo(userID, &services.UpdateUserInfoRequest{ProfilePicURL: &url})
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdatePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	if err := h.userService.UpdatePassword(userID, &req); err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (h *UserHandler) UpdatePrivacy(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdatePrivacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	user, err := h.userService.UpdatePrivacy(userID, &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateSocialLinks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateSocialLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	user, err := h.userService.UpdateSocialLinks(userID, &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Search(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		apierror.Respond(c, apierror.BadRequest("Query parameter q is required"))
		return
	}

	page, limit := pageParams(c)
	result, err := h.userService.Search(query, page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
