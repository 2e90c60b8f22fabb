package post

import (
	"errors"
	"net/http"

	"github.com/abduss/postboard/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts post reads on public and writes on protected.
func RegisterRoutes(public, protected *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	public.GET("/posts", handler.listPosts)
	public.GET("/posts/:postID", handler.getPost)
	public.GET("/users/:userID/posts", handler.listUserPosts)
	protected.POST("/posts", handler.createPost)
	protected.PUT("/posts/:postID", handler.updatePost)
	protected.DELETE("/posts/:postID", handler.deletePost)
}

type httpHandler struct {
	service *Service
}

type createPostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *httpHandler) createPost(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), userID, req.Title, req.Content)
	if err != nil {
		writeError(c, err, "failed to create post")
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *httpHandler) listPosts(c *gin.Context) {
	var filter Filter
	if raw := c.Query("userId"); raw != "" {
		authorID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		filter.AuthorID = &authorID
	}
	h.respondList(c, filter)
}

func (h *httpHandler) listUserPosts(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	h.respondList(c, Filter{AuthorID: &authorID})
}

func (h *httpHandler) respondList(c *gin.Context, filter Filter) {
	posts, err := h.service.ListPosts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list posts"})
		return
	}
	if posts == nil {
		posts = []Post{}
	}
	c.JSON(http.StatusOK, posts)
}

func (h *httpHandler) getPost(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err, "failed to fetch post")
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *httpHandler) updatePost(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.service.UpdatePost(c.Request.Context(), userID, postID, Update{Title: req.Title, Content: req.Content})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own posts"})
			return
		}
		writeError(c, err, "failed to update post")
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *httpHandler) deletePost(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	if err := h.service.DeletePost(c.Request.Context(), userID, postID); err != nil {
		if errors.Is(err, ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own posts"})
			return
		}
		writeError(c, err, "failed to delete post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func parsePostID(c *gin.Context) (uuid.UUID, bool) {
	postID, err := uuid.Parse(c.Param("postID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return uuid.Nil, false
	}
	return postID, true
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(err, ErrTitleRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
