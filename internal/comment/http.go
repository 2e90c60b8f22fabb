package comment

import (
	"errors"
	"net/http"

	"github.com/abduss/postboard/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts comment reads on public and writes on protected.
func RegisterRoutes(public, protected *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	public.GET("/posts/:postID/comments", handler.listPostComments)
	public.GET("/comments", handler.listComments)
	public.GET("/comments/:commentID", handler.getComment)
	public.GET("/users/:userID/comments", handler.listUserComments)
	protected.POST("/posts/:postID/comments", handler.createComment)
	protected.PUT("/comments/:commentID", handler.updateComment)
	protected.DELETE("/comments/:commentID", handler.deleteComment)
}

type httpHandler struct {
	service *Service
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *httpHandler) createComment(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	postID, ok := parseID(c, "postID", "invalid post id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.service.CreateComment(c.Request.Context(), userID, postID, req.Content)
	if err != nil {
		writeError(c, err, "failed to create comment")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *httpHandler) listPostComments(c *gin.Context) {
	postID, ok := parseID(c, "postID", "invalid post id")
	if !ok {
		return
	}

	comments, err := h.service.ListForPost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err, "failed to list comments")
		return
	}
	respondList(c, comments)
}

func (h *httpHandler) listComments(c *gin.Context) {
	comments, err := h.service.ListComments(c.Request.Context(), Filter{})
	if err != nil {
		writeError(c, err, "failed to list comments")
		return
	}
	respondList(c, comments)
}

func (h *httpHandler) listUserComments(c *gin.Context) {
	authorID, ok := parseID(c, "userID", "invalid user id")
	if !ok {
		return
	}

	comments, err := h.service.ListComments(c.Request.Context(), Filter{AuthorID: &authorID})
	if err != nil {
		writeError(c, err, "failed to list comments")
		return
	}
	respondList(c, comments)
}

func (h *httpHandler) getComment(c *gin.Context) {
	commentID, ok := parseID(c, "commentID", "invalid comment id")
	if !ok {
		return
	}

	comment, err := h.service.GetComment(c.Request.Context(), commentID)
	if err != nil {
		writeError(c, err, "failed to fetch comment")
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *httpHandler) updateComment(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	commentID, ok := parseID(c, "commentID", "invalid comment id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.service.UpdateComment(c.Request.Context(), userID, commentID, req.Content)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own comments"})
			return
		}
		writeError(c, err, "failed to update comment")
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *httpHandler) deleteComment(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	commentID, ok := parseID(c, "commentID", "invalid comment id")
	if !ok {
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), userID, commentID); err != nil {
		if errors.Is(err, ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own comments"})
			return
		}
		writeError(c, err, "failed to delete comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

func respondList(c *gin.Context, comments []Comment) {
	if comments == nil {
		comments = []Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

func parseID(c *gin.Context, param, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return uuid.Nil, false
	}
	return id, true
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
	case errors.Is(err, ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(err, ErrContentRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
