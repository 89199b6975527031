package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/logging"
	"github.com/Zain975/plot-pick-backend/models"
)

type AdminService struct {
	db        *gorm.DB
	otp       *OTPService
	jwtSecret string
}

func NewAdminService(db *gorm.DB, otp *OTPService, jwtSecret string) *AdminService {
	return &AdminService{db: db, otp: otp, jwtSecret: jwtSecret}
}

type AdminSignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AdminVerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

type AdminTokenResponse struct {
	Token string        `json:"token"`
	Admin *models.Admin `json:"admin"`
}

type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" binding:"required"`
}

type AddPlotPointsRequest struct {
	Points int `json:"points" binding:"required"`
}

func (s *AdminService) Signup(ctx context.Context, req *AdminSignupRequest) (*models.Admin, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := s.db.Model(&models.Admin{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apierror.Conflict("An admin with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{Email: email, PasswordHash: string(hash)}
	if err := s.db.Create(admin).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apierror.Conflict("An admin with this email already exists")
		}
		return nil, err
	}

	code, err := s.otp.Generate(ctx, AdminSubject(admin.ID), OTPTypeEmailVerification)
	if err != nil {
		// Recoverable via a later verification attempt; don't fail the signup.
		logging.Log.WithError(err).Errorf("failed to issue %s OTP for %s", OTPTypeEmailVerification, AdminSubject(admin.ID))
	} else {
		s.otp.Dispatch(AdminSubject(admin.ID), OTPTypeEmailVerification, code)
	}

	return admin, nil
}

func (s *AdminService) VerifyEmailOTP(ctx context.Context, req *AdminVerifyOTPRequest) (*models.Admin, error) {
	admin, err := s.findByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if err := s.otp.Verify(ctx, AdminSubject(admin.ID), OTPTypeEmailVerification, req.Code); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Model(admin).Update("email_verified_at", &now).Error; err != nil {
		return nil, err
	}
	admin.EmailVerifiedAt = &now
	return admin, nil
}

func (s *AdminService) Login(ctx context.Context, req *AdminLoginRequest) error {
	admin, err := s.findByEmail(req.Email)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return apierror.Unauthorized("Invalid email or password")
	}
	if admin.EmailVerifiedAt == nil {
		return apierror.Forbidden("Email is not verified")
	}

	code, err := s.otp.Generate(ctx, AdminSubject(admin.ID), OTPTypeLogin)
	if err != nil {
		return err
	}
	s.otp.Dispatch(AdminSubject(admin.ID), OTPTypeLogin, code)
	return nil
}

func (s *AdminService) VerifyLoginOTP(ctx context.Context, req *AdminVerifyOTPRequest) (*AdminTokenResponse, error) {
	admin, err := s.findByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if err := s.otp.Verify(ctx, AdminSubject(admin.ID), OTPTypeLogin, req.Code); err != nil {
		return nil, err
	}

	token, err := SignToken(s.jwtSecret, admin.ID, "admin")
	if err != nil {
		return nil, err
	}
	return &AdminTokenResponse{Token: token, Admin: admin}, nil
}

// ListUsers returns a paginated user page, optionally filtered by a search
// term matched against name, handle and email.
func (s *AdminService) ListUsers(query string, page, limit int) (*UserListResponse, error) {
	page, limit = NormalizePage(page, limit)

	base := s.db.Model(&models.User{})
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		base = base.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(unique_handle) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern, pattern)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	err := base.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	return &UserListResponse{Users: users, Pagination: NewPagination(total, page, limit)}, nil
}

func (s *AdminService) GetUser(userID uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserStatus locks or unlocks a user account. Locked users cannot log in.
func (s *AdminService) UpdateUserStatus(userID uint, req *UpdateUserStatusRequest) (*models.User, error) {
	if req.Status != models.UserStatusActive && req.Status != models.UserStatusLocked {
		return nil, apierror.BadRequest("status must be ACTIVE or LOCKED")
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(user).Update("status", req.Status).Error; err != nil {
		return nil, err
	}
	user.Status = req.Status
	return user, nil
}

func (s *AdminService) AddPlotPoints(userID uint, req *AddPlotPointsRequest) (*models.User, error) {
	if req.Points <= 0 {
		return nil, apierror.BadRequest("points must be a positive number")
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	err = s.db.Model(user).
		Update("plot_points", gorm.Expr("plot_points + ?", req.Points)).Error
	if err != nil {
		return nil, err
	}

	// Reload for the updated balance.
	return s.GetUser(userID)
}

func (s *AdminService) findByEmail(email string) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Admin not found")
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}
