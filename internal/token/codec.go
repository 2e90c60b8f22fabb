// Package token signs and verifies the two JWT classes handed out by the API:
// short-lived access tokens and long-lived, uniquely identified refresh tokens.
// The codec is stateless; whether a refresh token is still live is decided by
// the auth service against the owner's stored sequence.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/abduss/postboard/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid is the only error returned by verification. Callers never learn
// whether a token was expired, malformed or signed with another key.
var ErrInvalid = errors.New("invalid token")

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Payload is the identity carried by both token classes.
type Payload struct {
	UserID   string
	Username string
	Email    string
}

type claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Kind     string `json:"typ"`
	jwt.RegisteredClaims
}

// Codec issues and verifies tokens with the configured secrets and lifetimes.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	nowFunc       func() time.Time
	newID         func() string
}

// NewCodec builds a Codec from the auth configuration.
func NewCodec(cfg config.AuthConfig) *Codec {
	return &Codec{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
		nowFunc:       time.Now,
		newID:         uuid.NewString,
	}
}

// IssueAccess signs an access token for the payload.
func (c *Codec) IssueAccess(p Payload) (string, error) {
	return c.sign(p, kindAccess, "", c.accessSecret, c.accessTTL)
}

// IssueRefresh signs a refresh token carrying a fresh random identifier, so two
// tokens for the same payload issued within one clock tick still differ.
func (c *Codec) IssueRefresh(p Payload) (string, error) {
	return c.sign(p, kindRefresh, c.newID(), c.refreshSecret, c.refreshTTL)
}

// VerifyAccess validates an access token and returns its payload.
func (c *Codec) VerifyAccess(tokenString string) (Payload, error) {
	return c.verify(tokenString, kindAccess, c.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its payload.
func (c *Codec) VerifyRefresh(tokenString string) (Payload, error) {
	return c.verify(tokenString, kindRefresh, c.refreshSecret)
}

func (c *Codec) sign(p Payload, kind, id string, secret []byte, ttl time.Duration) (string, error) {
	now := c.nowFunc()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:   p.UserID,
		Username: p.Username,
		Email:    p.Email,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    c.issuer,
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

func (c *Codec) verify(tokenString, kind string, secret []byte) (Payload, error) {
	if tokenString == "" {
		return Payload{}, ErrInvalid
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowFunc),
	)

	var parsed claims
	tok, err := parser.ParseWithClaims(tokenString, &parsed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return Payload{}, ErrInvalid
	}

	if parsed.Kind != kind || parsed.UserID == "" {
		return Payload{}, ErrInvalid
	}
	if kind == kindRefresh && parsed.ID == "" {
		return Payload{}, ErrInvalid
	}

	return Payload{
		UserID:   parsed.UserID,
		Username: parsed.Username,
		Email:    parsed.Email,
	}, nil
}
