package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) VerifyEmailOTP(c *gin.Context) {
	var req services.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	user, err := h.authService.VerifyEmailOTP(c.Request.Context(), &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) VerifyPhoneOTP(c *gin.Context) {
	var req services.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	user, err := h.authService.VerifyPhoneOTP(c.Request.Context(), &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	if err := h.authService.Login(c.Request.Context(), &req); err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func (h *AuthHandler) VerifyLoginOTP(c *gin.Context) {
	var req services.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	token, err := h.authService.VerifyLoginOTP(c.Request.Context(), &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req services.ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	if err := h.authService.ResendOTP(c.Request.Context(), &req); err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}
