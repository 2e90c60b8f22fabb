// Package authtest builds an access-token gate for handler tests outside the auth package.
package authtest

import (
	"testing"
	"time"

	"github.com/abduss/postboard/internal/auth"
	"github.com/abduss/postboard/internal/config"
	"github.com/abduss/postboard/internal/token"
	"github.com/google/uuid"
)

// Gate verifies access tokens without a user store, the same way the middleware does in production.
type Gate struct {
	Service *auth.Service
	codec   *token.Codec
}

// NewGate returns a gate backed by throwaway secrets.
func NewGate() *Gate {
	cfg := config.AuthConfig{
		AccessTokenSecret:  "authtest-access",
		RefreshTokenSecret: "authtest-refresh",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		BcryptCost:         4,
		Issuer:             "postboard-test",
	}
	codec := token.NewCodec(cfg)
	return &Gate{Service: auth.NewService(nil, codec, cfg, nil), codec: codec}
}

// AccessToken signs an access token for the given identity.
func (g *Gate) AccessToken(t *testing.T, userID uuid.UUID, username string) string {
	t.Helper()

	tok, err := g.codec.IssueAccess(token.Payload{
		UserID:   userID.String(),
		Username: username,
		Email:    username + "@example.com",
	})
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}
	return tok
}
