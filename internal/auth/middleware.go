package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const principalContextKey contextKey = "postboardPrincipal"

// Principal is the authenticated identity attached to a request. Every field
// comes from the signed access token; the gate never reads the database.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Email    string
}

// AuthMiddleware validates bearer access tokens and injects the principal.
// A missing token yields 401, an invalid or expired one 403.
func AuthMiddleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
			return
		}

		principal, err := service.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid or expired access token"})
			return
		}

		c.Set(string(principalContextKey), principal)
		c.Next()
	}
}

// CurrentUser extracts the authenticated principal from the context.
func CurrentUser(c *gin.Context) (Principal, bool) {
	value, exists := c.Get(string(principalContextKey))
	if !exists {
		return Principal{}, false
	}
	principal, ok := value.(Principal)
	return principal, ok
}

// RequireUser fetches the authenticated principal's identifier.
func RequireUser(c *gin.Context) (uuid.UUID, Principal, bool) {
	principal, ok := CurrentUser(c)
	if !ok || principal.UserID == uuid.Nil {
		return uuid.Nil, Principal{}, false
	}
	return principal.UserID, principal, true
}

func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
