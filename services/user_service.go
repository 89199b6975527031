package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/models"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UpdateUserInfoRequest struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	ProfilePicURL *string `json:"profile_pic_url"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type UpdatePrivacyRequest struct {
	AccountPrivacy models.AccountPrivacy `json:"account_privacy" binding:"required"`
}

type UpdateSocialLinksRequest struct {
	XURL         *string `json:"x_url"`
	InstagramURL *string `json:"instagram_url"`
	TiktokURL    *string `json:"tiktok_url"`
}

type UserProfileResponse struct {
	User        *models.User `json:"user"`
	IsFollowing bool         `json:"is_following"`
	IsOwn       bool         `json:"is_own"`
	// Limited is true when the profile is private and hidden from the viewer.
	Limited bool `json:"limited"`
}

type UserListResponse struct {
	Users []models.User `json:"users"`
	Pagination
}

func (s *UserService) GetByID(userID uint) (*models.User, error) {
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

// GetProfile returns userID's profile as seen by viewerID. Private accounts
// expose only name/handle/picture to non-followers.
func (s *UserService) GetProfile(userID, viewerID uint) (*UserProfileResponse, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	isOwn := userID == viewerID

	var isFollowing bool
	if !isOwn {
		var count int64
		if err := s.db.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", viewerID, userID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		isFollowing = count > 0
	}

	limited := user.AccountPrivacy == models.AccountPrivacyPrivate && !isOwn && !isFollowing
	if limited {
		user = &models.User{
			ID:             user.ID,
			FirstName:      user.FirstName,
			LastName:       user.LastName,
			UniqueHandle:   user.UniqueHandle,
			ProfilePicURL:  user.ProfilePicURL,
			AccountPrivacy: user.AccountPrivacy,
			FollowersCount: user.FollowersCount,
			FollowingCount: user.FollowingCount,
		}
	}

	return &UserProfileResponse{
		User:        user,
		IsFollowing: isFollowing,
		IsOwn:       isOwn,
		Limited:     limited,
	}, nil
}

func (s *UserService) UpdateInfo(userID uint, req *UpdateUserInfoRequest) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.ProfilePicURL != nil {
		updates["profile_pic_url"] = *req.ProfilePicURL
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (s *UserService) UpdatePassword(userID uint, req *UpdatePasswordRequest) error {
	user, err := s.GetByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return apierror.BadRequest("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.Model(user).Update("password_hash", string(hash)).Error
}

func (s *UserService) UpdatePrivacy(userID uint, req *UpdatePrivacyRequest) (*models.User, error) {
	if req.AccountPrivacy != models.AccountPrivacyPublic && req.AccountPrivacy != models.AccountPrivacyPrivate {
		return nil, apierror.BadRequest("account_privacy must be PUBLIC or PRIVATE")
	}

	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(user).Update("account_privacy", req.AccountPrivacy).Error; err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) UpdateSocialLinks(userID uint, req *UpdateSocialLinksRequest) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.XURL != nil {
		updates["x_url"] = *req.XURL
	}
	if req.InstagramURL != nil {
		updates["instagram_url"] = *req.InstagramURL
	}
	if req.TiktokURL != nil {
		updates["tiktok_url"] = *req.TiktokURL
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (s *UserService) Search(query string, page, limit int) (*UserListResponse, error) {
	page, limit = NormalizePage(page, limit)

	pattern := "%" + strings.ToLower(query) + "%"
	base := s.db.Model(&models.User{}).
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(unique_handle) LIKE ?",
			pattern, pattern, pattern)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	err := base.
		Order("unique_handle ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	return &UserListResponse{Users: users, Pagination: NewPagination(total, page, limit)}, nil
}
