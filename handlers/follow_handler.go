package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/services"
)

type FollowHandler struct {
	followService *services.FollowService
}

func NewFollowHandler(followService *services.FollowService) *FollowHandler {
	return &FollowHandler{
		followService: followService,
	}
}

func (h *FollowHandler) ToggleFollow(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.followService.ToggleFollow(userID, targetID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *FollowHandler) GetFollowers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	result, err := h.followService.GetFollowers(userID, page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *FollowHandler) GetFollowing(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	result, err := h.followService.GetFollowing(userID, page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
