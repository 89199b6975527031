package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/services"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	comment, err := h.commentService.CreateComment(postID, userID, &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) GetComments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}

	page, limit := pageParams(c)
	result, err := h.commentService.GetComments(postID, userID, page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *CommentHandler) GetReplies(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	commentID, ok := idParam(c, "id")
	if !ok {
		return
	}

	page, limit := pageParams(c)
	result, err := h.commentService.GetReplies(commentID, userID, page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	commentID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	comment, err := h.commentService.UpdateComment(commentID, userID, &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	commentID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(commentID, userID); err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

func (h *CommentHandler) ToggleLike(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	commentID, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.commentService.ToggleLike(commentID, userID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
