package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/services"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func (h *AdminHandler) Signup(c *gin.Context) {
	var req services.AdminSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	admin, err := h.adminService.Signup(c.Request.Context(), &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, admin)
}

func (h *AdminHandler) VerifyEmailOTP(c *gin.Context) {
	var req services.AdminVerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	admin, err := h.adminService.VerifyEmailOTP(c.Request.Context(), &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, admin)
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req services.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	if err := h.adminService.Login(c.Request.Context(), &req); err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func (h *AdminHandler) VerifyLoginOTP(c *gin.Context) {
	var req services.AdminVerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	token, err := h.adminService.VerifyLoginOTP(c.Request.Context(), &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}

	page, limit := pageParams(c)
	result, err := h.adminService.ListUsers(c.Query("q"), page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(userID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	user, err := h.adminService.UpdateUserStatus(userID, &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) AddPlotPoints(c *gin.Context) {
	if _, ok := currentAdminID(c); !ok {
		return
	}
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.AddPlotPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	user, err := h.adminService.AddPlotPoints(userID, &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
