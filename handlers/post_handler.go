package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zain975/plot-pick-backend/apierror"
	"github.com/Zain975/plot-pick-backend/services"
	"github.com/Zain975/plot-pick-backend/storage"
)

type PostHandler struct {
	postService *services.PostService
	uploader    storage.Uploader
}

func NewPostHandler(postService *services.PostService, uploader storage.Uploader) *PostHandler {
	return &PostHandler{
		postService: postService,
		uploader:    uploader,
	}
}

// CreatePost accepts a multipart form with a "data" JSON part and up to
// four "media" file parts, or a plain JSON body with media URLs.
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreatePostRequest
	if !bindMultipartJSON(c, &req) {
		return
	}

	if form, err := c.MultipartForm(); err == nil {
		files := form.File["media"]
		if len(files) > 0 && h.uploader == nil {
			apierror.Respond(c, apierror.Internal("Media storage is not configured"))
			return
		}
		if len(files) > 4 {
			apierror.Respond(c, apierror.BadRequest("A post can carry at most 4 media attachments"))
			return
		}
		for _, fileHeader := range files {
			data, err := readMultipartFile(fileHeader)
			if err != nil {
				apierror.Respond(c, apierror.BadRequest("Could not read media file"))
				return
			}
			key := h.uploader.Key("posts", userID, fileHeader.Filename, "")
			url, err := h.uploader.Upload(c.Request.Context(), data, key, fileHeader.Header.Get("Content-Type"))
			if err != nil {
				apierror.Respond(c, err)
				return
			}
			req.MediaURLs = append(req.MediaURLs, url)
		}
	}

	post, err := h.postService.CreatePost(userID, &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetFeed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	result, err := h.postService.GetFeed(userID, page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PostHandler) GetUserPosts(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		return
	}
	authorID, ok := idParam(c, "id")
	if !ok {
		return
	}

	page, limit := pageParams(c)
	result, err := h.postService.GetUserPosts(authorID, viewerID, page, limit)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}

	post, err := h.postService.GetPost(postID, userID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.BadRequest(err.Error()))
		return
	}

	post, err := h.postService.UpdatePost(postID, userID, &req)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), postID, userID); err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

func (h *PostHandler) ToggleLike(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.postService.ToggleLike(postID, userID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PostHandler) ToggleShare(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.postService.ToggleShare(postID, userID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
