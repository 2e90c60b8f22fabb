package attachment

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/abduss/postboard/internal/auth"
	"github.com/abduss/postboard/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterRoutes mounts attachment reads on public and writes on protected.
func RegisterRoutes(public, protected *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	public.GET("/posts/:postID/attachments", handler.listAttachments)
	public.GET("/posts/:postID/attachments/:attachmentID/download", handler.downloadAttachment)
	public.GET("/posts/:postID/attachments/:attachmentID/url", handler.signedURL)
	protected.POST("/posts/:postID/attachments", handler.uploadAttachment)
	protected.DELETE("/posts/:postID/attachments/:attachmentID", handler.deleteAttachment)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) uploadAttachment(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	postID, ok := parseID(c, "postID", "invalid post id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	a, err := h.service.Upload(c.Request.Context(), userID, postID, fileHeader)
	if err != nil {
		writeError(c, err, "failed to upload attachment")
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *httpHandler) listAttachments(c *gin.Context) {
	postID, ok := parseID(c, "postID", "invalid post id")
	if !ok {
		return
	}

	list, err := h.service.List(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err, "failed to list attachments")
		return
	}
	if list == nil {
		list = []Attachment{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *httpHandler) downloadAttachment(c *gin.Context) {
	postID, attachmentID, ok := parseIDs(c)
	if !ok {
		return
	}

	a, reader, err := h.service.Download(c.Request.Context(), postID, attachmentID)
	if err != nil {
		writeError(c, err, "failed to download attachment")
		return
	}
	defer reader.Close()

	c.Header("Content-Type", a.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	c.Header("Content-Length", strconv.FormatInt(a.SizeBytes, 10))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, reader); err != nil {
		logger.FromContext(c).Warn("attachment stream interrupted",
			zap.String("attachment_id", attachmentID.String()), zap.Error(err))
	}
}

func (h *httpHandler) signedURL(c *gin.Context) {
	postID, attachmentID, ok := parseIDs(c)
	if !ok {
		return
	}

	signed, err := h.service.SignedDownloadURL(c.Request.Context(), postID, attachmentID)
	if err != nil {
		writeError(c, err, "failed to sign attachment url")
		return
	}
	c.JSON(http.StatusOK, signed)
}

func (h *httpHandler) deleteAttachment(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	postID, attachmentID, ok := parseIDs(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, postID, attachmentID); err != nil {
		writeError(c, err, "failed to delete attachment")
		return
	}
	c.Status(http.StatusNoContent)
}

func parseIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	postID, ok := parseID(c, "postID", "invalid post id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	attachmentID, ok := parseID(c, "attachmentID", "invalid attachment id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return postID, attachmentID, true
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
	case errors.Is(err, ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(err, ErrAttachmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "attachment not found"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only manage attachments on your own posts"})
	case errors.Is(err, ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
	case errors.Is(err, ErrMissingFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
	default:
		logger.FromContext(c).Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
