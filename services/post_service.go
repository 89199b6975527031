package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/models"
	"github.com/Zain975/plot-pick-backend/storage"
)

type PostService struct {
	db       *gorm.DB
	uploader storage.Uploader
}

func NewPostService(db *gorm.DB, uploader storage.Uploader) *PostService {
	return &PostService{db: db, uploader: uploader}
}

type CreatePostRequest struct {
	Description string   `json:"description"`
	MediaURLs   []string `json:"media_urls"`
}

type UpdatePostRequest struct {
	Description *string `json:"description"`
}

type PostListResponse struct {
	Posts []models.Post `json:"posts"`
	Pagination
}

type ToggleResponse struct {
	// Active reports the state after the toggle: true means the like or
	// share now exists.
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

func (s *PostService) CreatePost(userID uint, req *CreatePostRequest) (*models.Post, error) {
	if req.Description == "" && len(req.MediaURLs) == 0 {
		return nil, apierror.BadRequest("A post needs a description or at least one media attachment")
	}

	post := &models.Post{
		UserID:      userID,
		Description: req.Description,
		MediaURLs:   req.MediaURLs,
	}
	if err := s.db.Create(post).Error; err != nil {
		return nil, err
	}

	return s.getPostForUser(post.ID, userID)
}

// GetFeed returns the posts of the users the viewer follows plus their own,
// newest first. An empty follow list degrades to the viewer's own posts.
func (s *PostService) GetFeed(userID uint, page, limit int) (*PostListResponse, error) {
	page, limit = NormalizePage(page, limit)

	authorIDs, err := s.feedAuthorIDs(userID)
	if err != nil {
		return nil, err
	}

	base := s.db.Model(&models.Post{}).Where("user_id IN ?", authorIDs)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var posts []models.Post
	err = base.
		Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	if err := s.annotatePosts(posts, userID); err != nil {
		return nil, err
	}

	return &PostListResponse{Posts: posts, Pagination: NewPagination(total, page, limit)}, nil
}

func (s *PostService) GetUserPosts(authorID, viewerID uint, page, limit int) (*PostListResponse, error) {
	page, limit = NormalizePage(page, limit)

	base := s.db.Model(&models.Post{}).Where("user_id = ?", authorID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var posts []models.Post
	err := base.
		Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	if err := s.annotatePosts(posts, viewerID); err != nil {
		return nil, err
	}

	return &PostListResponse{Posts: posts, Pagination: NewPagination(total, page, limit)}, nil
}

func (s *PostService) GetPost(postID, viewerID uint) (*models.Post, error) {
	return s.getPostForUser(postID, viewerID)
}

func (s *PostService) UpdatePost(postID, userID uint, req *UpdatePostRequest) (*models.Post, error) {
	post, err := s.findPost(postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, apierror.Forbidden("You can only edit your own posts")
	}

	if req.Description != nil {
		if err := s.db.Model(post).Update("description", *req.Description).Error; err != nil {
			return nil, err
		}
	}

	return s.getPostForUser(postID, userID)
}

func (s *PostService) DeletePost(ctx context.Context, postID, userID uint) error {
	post, err := s.findPost(postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return apierror.Forbidden("You can only delete your own posts")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		return err
	}

	if s.uploader != nil {
		for _, url := range post.MediaURLs {
			if key := s.uploader.KeyFromURL(url); key != "" {
				_ = s.uploader.Delete(ctx, key)
			}
		}
	}
	return nil
}

// ToggleLike likes the post if the user has not liked it, and unlikes it
// otherwise. The denormalized counter moves in the same transaction.
func (s *PostService) ToggleLike(postID, userID uint) (*ToggleResponse, error) {
	if _, err := s.findPost(postID); err != nil {
		return nil, err
	}

	var resp ToggleResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.PostLike
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			resp.Active = false
			return s.bumpPostCounter(tx, postID, "likes_count", -1, &resp)
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.PostLike{PostID: postID, UserID: userID}
			if err := tx.Create(&like).Error; err != nil {
				if isDuplicateKey(err) {
					return apierror.Conflict("You have already liked this post")
				}
				return err
			}
			resp.Active = true
			return s.bumpPostCounter(tx, postID, "likes_count", 1, &resp)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *PostService) ToggleShare(postID, userID uint) (*ToggleResponse, error) {
	if _, err := s.findPost(postID); err != nil {
		return nil, err
	}

	var resp ToggleResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.PostShare
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			resp.Active = false
			return s.bumpPostCounter(tx, postID, "shares_count", -1, &resp)
		case errors.Is(err, gorm.ErrRecordNotFound):
			share := models.PostShare{PostID: postID, UserID: userID}
			if err := tx.Create(&share).Error; err != nil {
				if isDuplicateKey(err) {
					return apierror.Conflict("You have already shared this post")
				}
				return err
			}
			resp.Active = true
			return s.bumpPostCounter(tx, postID, "shares_count", 1, &resp)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *PostService) bumpPostCounter(tx *gorm.DB, postID uint, column string, delta int, resp *ToggleResponse) error {
	err := tx.Model(&models.Post{}).Where("id = ?", postID).
		Update(column, gorm.Expr(column+" + ?", delta)).Error
	if err != nil {
		return err
	}

	var post models.Post
	if err := tx.Select(column).First(&post, postID).Error; err != nil {
		return err
	}
	switch column {
	case "likes_count":
		resp.Count = post.LikesCount
	case "shares_count":
		resp.Count = post.SharesCount
	}
	return nil
}

func (s *PostService) findPost(postID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Post not found")
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) getPostForUser(postID, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.Preload("User").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Post not found")
	}
	if err != nil {
		return nil, err
	}

	posts := []models.Post{post}
	if err := s.annotatePosts(posts, viewerID); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *PostService) feedAuthorIDs(userID uint) ([]uint, error) {
	var followingIDs []uint
	err := s.db.Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &followingIDs).Error
	if err != nil {
		return nil, err
	}
	return append(followingIDs, userID), nil
}

// annotatePosts fills the per-viewer IsLiked/IsShared flags for a page of
// posts with two IN queries instead of one pair per row.
func (s *PostService) annotatePosts(posts []models.Post, viewerID uint) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	var likes []models.PostLike
	err := s.db.Where("user_id = ? AND post_id IN ?", viewerID, ids).Find(&likes).Error
	if err != nil {
		return err
	}
	var shares []models.PostShare
	err = s.db.Where("user_id = ? AND post_id IN ?", viewerID, ids).Find(&shares).Error
	if err != nil {
		return err
	}

	liked := make(map[uint]bool, len(likes))
	for _, l := range likes {
		liked[l.PostID] = true
	}
	shared := make(map[uint]bool, len(shares))
	for _, sh := range shares {
		shared[sh.PostID] = true
	}

	for i := range posts {
		posts[i].IsLiked = liked[posts[i].ID]
		posts[i].IsShared = shared[posts[i].ID]
	}
	return nil
}
