package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/models"
)

type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

type FollowToggleResponse struct {
	// Following reports the state after the toggle.
	Following      bool `json:"following"`
	FollowersCount int  `json:"followers_count"`
}

// ToggleFollow follows targetID if userID does not already follow them, and
// unfollows otherwise. Both users' denormalized counters move in the same
// transaction.
func (s *FollowService) ToggleFollow(userID, targetID uint) (*FollowToggleResponse, error) {
	if userID == targetID {
		return nil, apierror.BadRequest("You cannot follow yourself")
	}

	var target models.User
	err := s.db.First(&target, targetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	var resp FollowToggleResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Follow
		err := tx.Where("follower_id = ? AND following_id = ?", userID, targetID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			resp.Following = false
			return s.bumpCounters(tx, userID, targetID, -1, &resp)
		case errors.Is(err, gorm.ErrRecordNotFound):
			follow := models.Follow{FollowerID: userID, FollowingID: targetID}
			if err := tx.Create(&follow).Error; err != nil {
				if isDuplicateKey(err) {
					return apierror.Conflict("You are already following this user")
				}
				return err
			}
			resp.Following = true
			return s.bumpCounters(tx, userID, targetID, 1, &resp)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *FollowService) GetFollowers(userID uint, page, limit int) (*UserListResponse, error) {
	page, limit = NormalizePage(page, limit)

	base := s.db.Model(&models.Follow{}).Where("following_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var follows []models.Follow
	err := base.
		Preload("Follower").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&follows).Error
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(follows))
	for _, f := range follows {
		if f.Follower != nil {
			users = append(users, *f.Follower)
		}
	}

	return &UserListResponse{Users: users, Pagination: NewPagination(total, page, limit)}, nil
}

func (s *FollowService) GetFollowing(userID uint, page, limit int) (*UserListResponse, error) {
	page, limit = NormalizePage(page, limit)

	base := s.db.Model(&models.Follow{}).Where("follower_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var follows []models.Follow
	err := base.
		Preload("Following").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&follows).Error
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(follows))
	for _, f := range follows {
		if f.Following != nil {
			users = append(users, *f.Following)
		}
	}

	return &UserListResponse{Users: users, Pagination: NewPagination(total, page, limit)}, nil
}

func (s *FollowService) bumpCounters(tx *gorm.DB, followerID, followingID uint, delta int, resp *FollowToggleResponse) error {
	err := tx.Model(&models.User{}).Where("id = ?", followerID).
		Update("following_count", gorm.Expr("following_count + ?", delta)).Error
	if err != nil {
		return err
	}
	err = tx.Model(&models.User{}).Where("id = ?", followingID).
		Update("followers_count", gorm.Expr("followers_count + ?", delta)).Error
	if err != nil {
		return err
	}

	var target models.User
	if err := tx.Select("followers_count").First(&target, followingID).Error; err != nil {
		return err
	}
	resp.FollowersCount = target.FollowersCount
	return nil
}
