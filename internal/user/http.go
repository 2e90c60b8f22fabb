package user

import (
	"errors"
	"net/http"

	"github.com/abduss/postboard/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts profile reads on public and edits on protected.
func RegisterRoutes(public, protected *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	public.GET("/users", handler.listUsers)
	public.GET("/users/:userID", handler.getUser)
	protected.PUT("/users/:userID", handler.updateUser)
	protected.DELETE("/users/:userID", handler.deleteUser)
}

type httpHandler struct {
	service *Service
}

type updateUserRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=30"`
	Email     *string `json:"email" binding:"omitempty,max=254"`
	FirstName *string `json:"firstName" binding:"omitempty,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,max=50"`
	Bio       *string `json:"bio" binding:"omitempty,max=500"`
}

func (h *httpHandler) listUsers(c *gin.Context) {
	profiles, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	if profiles == nil {
		profiles = []Profile{}
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *httpHandler) getUser(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	profile, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *httpHandler) updateUser(c *gin.Context) {
	actorID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.service.UpdateUser(c.Request.Context(), actorID, userID, ProfileUpdate{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
			return
		}
		writeError(c, err, "failed to update user")
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *httpHandler) deleteUser(c *gin.Context) {
	actorID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	profile, err := h.service.DeleteUser(c.Request.Context(), actorID, userID)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own account"})
			return
		}
		writeError(c, err, "failed to delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully", "user": profile})
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return uuid.Nil, false
	}
	return userID, true
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidProfile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
