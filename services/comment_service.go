package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/models"
)

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

type CreateCommentRequest struct {
	Content         string `json:"content" binding:"required"`
	ParentCommentID *uint  `json:"parent_comment_id"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type CommentListResponse struct {
	Comments []models.Comment `json:"comments"`
	Pagination
}

// CreateComment adds a comment or a single-level reply to a post. Replies to
// replies attach to the top-level parent instead of nesting further.
func (s *CommentService) CreateComment(postID, userID uint, req *CreateCommentRequest) (*models.Comment, error) {
	var post models.Post
	err := s.db.First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Post not found")
	}
	if err != nil {
		return nil, err
	}

	parentID := req.ParentCommentID
	if parentID != nil {
		var parent models.Comment
		err := s.db.First(&parent, *parentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Parent comment not found")
		}
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, apierror.BadRequest("Parent comment belongs to a different post")
		}
		if parent.ParentCommentID != nil {
			parentID = parent.ParentCommentID
		}
	}

	comment := &models.Comment{
		PostID:          postID,
		UserID:          userID,
		ParentCommentID: parentID,
		Content:         req.Content,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Update("comments_count", gorm.Expr("comments_count + 1")).Error
		if err != nil {
			return err
		}
		if parentID != nil {
			err = tx.Model(&models.Comment{}).Where("id = ?", *parentID).
				Update("replies_count", gorm.Expr("replies_count + 1")).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.getComment(comment.ID, userID)
}

// GetComments returns a post's top-level comments, oldest first.
func (s *CommentService) GetComments(postID, viewerID uint, page, limit int) (*CommentListResponse, error) {
	page, limit = NormalizePage(page, limit)

	base := s.db.Model(&models.Comment{}).
		Where("post_id = ? AND parent_comment_id IS NULL", postID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var comments []models.Comment
	err := base.
		Preload("User").
		Order("created_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	if err := s.annotateComments(comments, viewerID); err != nil {
		return nil, err
	}

	return &CommentListResponse{Comments: comments, Pagination: NewPagination(total, page, limit)}, nil
}

func (s *CommentService) GetReplies(commentID, viewerID uint, page, limit int) (*CommentListResponse, error) {
	page, limit = NormalizePage(page, limit)

	base := s.db.Model(&models.Comment{}).Where("parent_comment_id = ?", commentID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var replies []models.Comment
	err := base.
		Preload("User").
		Order("created_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&replies).Error
	if err != nil {
		return nil, err
	}

	if err := s.annotateComments(replies, viewerID); err != nil {
		return nil, err
	}

	return &CommentListResponse{Comments: replies, Pagination: NewPagination(total, page, limit)}, nil
}

func (s *CommentService) UpdateComment(commentID, userID uint, req *UpdateCommentRequest) (*models.Comment, error) {
	comment, err := s.findComment(commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, apierror.Forbidden("You can only edit your own comments")
	}

	if err := s.db.Model(comment).Update("content", req.Content).Error; err != nil {
		return nil, err
	}
	return s.getComment(commentID, userID)
}

func (s *CommentService) DeleteComment(commentID, userID uint) error {
	comment, err := s.findComment(commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return apierror.Forbidden("You can only delete your own comments")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var removed int64 = 1
		likedIDs := []uint{commentID}
		if comment.ParentCommentID == nil {
			var replyIDs []uint
			if err := tx.Model(&models.Comment{}).Where("parent_comment_id = ?", commentID).Pluck("id", &replyIDs).Error; err != nil {
				return err
			}
			likedIDs = append(likedIDs, replyIDs...)
			res := tx.Where("parent_comment_id = ?", commentID).Delete(&models.Comment{})
			if res.Error != nil {
				return res.Error
			}
			removed += res.RowsAffected
		} else {
			err := tx.Model(&models.Comment{}).Where("id = ?", *comment.ParentCommentID).
				Update("replies_count", gorm.Expr("replies_count - 1")).Error
			if err != nil {
				return err
			}
		}
		if err := tx.Where("comment_id IN ?", likedIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			Update("comments_count", gorm.Expr("comments_count - ?", removed)).Error
	})
}

func (s *CommentService) ToggleLike(commentID, userID uint) (*ToggleResponse, error) {
	if _, err := s.findComment(commentID); err != nil {
		return nil, err
	}

	var resp ToggleResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.CommentLike
		err := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			resp.Active = false
			return s.bumpLikes(tx, commentID, -1, &resp)
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.CommentLike{CommentID: commentID, UserID: userID}
			if err := tx.Create(&like).Error; err != nil {
				if isDuplicateKey(err) {
					return apierror.Conflict("You have already liked this comment")
				}
				return err
			}
			resp.Active = true
			return s.bumpLikes(tx, commentID, 1, &resp)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *CommentService) bumpLikes(tx *gorm.DB, commentID uint, delta int, resp *ToggleResponse) error {
	err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
		Update("likes_count", gorm.Expr("likes_count + ?", delta)).Error
	if err != nil {
		return err
	}
	var comment models.Comment
	if err := tx.Select("likes_count").First(&comment, commentID).Error; err != nil {
		return err
	}
	resp.Count = comment.LikesCount
	return nil
}

func (s *CommentService) findComment(commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.First(&comment, commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Comment not found")
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *CommentService) getComment(commentID, viewerID uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.Preload("User").First(&comment, commentID).Error
	if err != nil {
		return nil, err
	}
	comments := []models.Comment{comment}
	if err := s.annotateComments(comments, viewerID); err != nil {
		return nil, err
	}
	return &comments[0], nil
}

func (s *CommentService) annotateComments(comments []models.Comment, viewerID uint) error {
	if len(comments) == 0 {
		return nil
	}

	ids := make([]uint, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}

	var likes []models.CommentLike
	err := s.db.Where("user_id = ? AND comment_id IN ?", viewerID, ids).Find(&likes).Error
	if err != nil {
		return err
	}

	liked := make(map[uint]bool, len(likes))
	for _, l := range likes {
		liked[l.CommentID] = true
	}
	for i := range comments {
		comments[i].IsLiked = liked[comments[i].ID]
	}
	return nil
}
