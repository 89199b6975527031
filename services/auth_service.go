package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/logging"
	"github.com/Zain975/plot-pick-backend/models"
)

type AuthService struct {
	db        *gorm.DB
	otp       *OTPService
	jwtSecret string
}

func NewAuthService(db *gorm.DB, otp *OTPService, jwtSecret string) *AuthService {
	return &AuthService{db: db, otp: otp, jwtSecret: jwtSecret}
}

type RegisterRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ResendOTPRequest struct {
	Email string  `json:"email" binding:"required,email"`
	Type  OTPType `json:"type" binding:"required"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

var handleSanitizer = regexp.MustCompile(`[^a-z0-9]`)

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).
		Where("email = ? OR phone_number = ?", strings.ToLower(req.Email), req.PhoneNumber).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apierror.Conflict("Email or phone number already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	handle, err := s.generateUniqueHandle(req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}

	user := models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		UniqueHandle: handle,
		Email:        strings.ToLower(req.Email),
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hash),
	}

	if err := s.db.Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apierror.Conflict("Email or phone number already registered")
		}
		return nil, err
	}

	s.issueOTP(ctx, &user, OTPTypeEmailVerification)
	s.issueOTP(ctx, &user, OTPTypePhoneVerification)

	return &user, nil
}

func (s *AuthService) VerifyEmailOTP(ctx context.Context, req *VerifyOTPRequest) (*models.User, error) {
	user, err := s.findUserByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if err := s.otp.Verify(ctx, UserSubject(user.ID), OTPTypeEmailVerification, req.Code); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.db.Model(user).Update("email_verified_at", &now).Error; err != nil {
		return nil, err
	}
	user.EmailVerifiedAt = &now

	return user, nil
}

func (s *AuthService) VerifyPhoneOTP(ctx context.Context, req *VerifyOTPRequest) (*models.User, error) {
	user, err := s.findUserByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if err := s.otp.Verify(ctx, UserSubject(user.ID), OTPTypePhoneVerification, req.Code); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.db.Model(user).Update("phone_verified_at", &now).Error; err != nil {
		return nil, err
	}
	user.PhoneVerifiedAt = &now

	return user, nil
}

// Login checks credentials and issues a login OTP; the session token is only
// handed out after VerifyLoginOTP.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) error {
	user, err := s.findUserByEmail(req.Email)
	if err != nil {
		return err
	}

	if user.Status == models.UserStatusLocked {
		return apierror.Forbidden("Account is locked")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return apierror.Unauthorized("Invalid email or password")
	}

	s.issueOTP(ctx, user, OTPTypeLogin)

	return nil
}

func (s *AuthService) VerifyLoginOTP(ctx context.Context, req *VerifyOTPRequest) (*TokenResponse, error) {
	user, err := s.findUserByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if err := s.otp.Verify(ctx, UserSubject(user.ID), OTPTypeLogin, req.Code); err != nil {
		return nil, err
	}

	token, err := SignToken(s.jwtSecret, user.ID, "user")
	if err != nil {
		return nil, err
	}

	return &TokenResponse{Token: token, User: user}, nil
}

func (s *AuthService) ResendOTP(ctx context.Context, req *ResendOTPRequest) error {
	switch req.Type {
	case OTPTypeEmailVerification, OTPTypePhoneVerification, OTPTypeLogin:
	default:
		return apierror.BadRequest("Unknown OTP type")
	}

	user, err := s.findUserByEmail(req.Email)
	if err != nil {
		return err
	}

	s.issueOTP(ctx, user, req.Type)

	return nil
}

func (s *AuthService) issueOTP(ctx context.Context, user *models.User, otpType OTPType) {
	code, err := s.otp.Generate(ctx, UserSubject(user.ID), otpType)
	if err != nil {
		// Recoverable via resend; don't fail the request.
		logging.Log.WithError(err).Errorf("failed to issue %s OTP for %s", otpType, UserSubject(user.ID))
		return
	}
	s.otp.Dispatch(UserSubject(user.ID), otpType, code)
}

func (s *AuthService) findUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) generateUniqueHandle(firstName, lastName string) (string, error) {
	base := handleSanitizer.ReplaceAllString(strings.ToLower(firstName+lastName), "")
	if base == "" {
		base = "user"
	}

	handle := base
	for suffix := 1; ; suffix++ {
		var count int64
		if err := s.db.Model(&models.User{}).Where("unique_handle = ?", handle).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return handle, nil
		}
		handle = fmt.Sprintf("%s%d", base, suffix)
	}
}

// SignToken issues a 24h HS256 bearer token for the given principal.
func SignToken(secret string, id uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  float64(id),
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
