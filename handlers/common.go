package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Zain975/plot-pick-backend/apierror"
)

func currentUserID(c *gin.Context) (uint, bool) {
	id, exists := c.Get("user_id")
	if !exists {
		apierror.Respond(c, apierror.Unauthorized("User not authenticated"))
		return 0, false
	}
	return id.(uint), true
}

func currentAdminID(c *gin.Context) (uint, bool) {
	id, exists := c.Get("admin_id")
	if !exists {
		apierror.Respond(c, apierror.Unauthorized("Admin not authenticated"))
		return 0, false
	}
	return id.(uint), true
}

func idParam(c *gin.Context, name string) (uint, bool) {
	raw, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		apierror.Respond(c, apierror.BadRequest("Invalid "+name+" parameter"))
		return 0, false
	}
	return uint(raw), true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}
