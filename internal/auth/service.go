package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/abduss/postboard/internal/config"
	"github.com/abduss/postboard/internal/metrics"
	"github.com/abduss/postboard/internal/token"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// userStore abstracts the persistence layer.
type userStore interface {
	CreateUser(ctx context.Context, user User) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (User, error)
	FindUserByEmailOrUsername(ctx context.Context, email, username string) (User, error)
	AppendRefreshToken(ctx context.Context, userID uuid.UUID, tok string) error
	RemoveRefreshToken(ctx context.Context, userID uuid.UUID, tok string) (bool, error)
	ReplaceRefreshToken(ctx context.Context, userID uuid.UUID, oldTok, newTok string) (bool, error)
	ClearRefreshTokens(ctx context.Context, userID uuid.UUID) error
	PruneRefreshTokens(ctx context.Context, userID uuid.UUID, dead []string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash, refreshToken string) error
}

type tokenCodec interface {
	IssueAccess(p token.Payload) (string, error)
	IssueRefresh(p token.Payload) (string, error)
	VerifyAccess(tok string) (token.Payload, error)
	VerifyRefresh(tok string) (token.Payload, error)
}

// Service encapsulates authentication use cases: registration, login, logout,
// refresh-token rotation with reuse detection, and password changes.
type Service struct {
	store userStore
	codec tokenCodec
	cfg   config.AuthConfig
	log   *zap.Logger
	newID func() uuid.UUID
}

// NewService creates a Service with dependencies. A nil logger disables logging.
func NewService(store userStore, codec tokenCodec, cfg config.AuthConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: store,
		codec: codec,
		cfg:   cfg,
		log:   log.Named("auth"),
		newID: uuid.New,
	}
}

// RegisterInput carries data for user registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates a new user, hashing the password and opening the first session.
func (s *Service) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if username == "" || email == "" || input.Password == "" {
		return AuthResult{}, ErrMissingFields
	}
	if err := validateRegistration(username, email, input.Password); err != nil {
		return AuthResult{}, err
	}

	if _, err := s.store.FindUserByEmailOrUsername(ctx, email, username); err == nil {
		return AuthResult{}, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}

	user := User{
		ID:       s.newID(),
		Username: username,
		Email:    email,
	}
	if err := user.SetPassword(input.Password, s.cfg.BcryptCost); err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	pair, err := s.issuePair(payloadFor(user))
	if err != nil {
		return AuthResult{}, err
	}
	user.RefreshTokens = []string{pair.RefreshToken}

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return AuthResult{}, ErrUserExists
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	metrics.RecordSessionIssued("register")
	return AuthResult{User: created.Public(), Tokens: pair}, nil
}

// Login authenticates credentials and opens an additional session.
func (s *Service) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return AuthResult{}, ErrMissingFields
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			metrics.RecordAuthFailure("invalid_credentials")
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	if !user.ComparePassword(input.Password) {
		metrics.RecordAuthFailure("invalid_credentials")
		return AuthResult{}, ErrInvalidCredentials
	}

	if err := s.pruneDeadTokens(ctx, user); err != nil {
		return AuthResult{}, err
	}

	pair, err := s.issuePair(payloadFor(user))
	if err != nil {
		return AuthResult{}, err
	}
	if err := s.store.AppendRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("store refresh token: %w", err)
	}

	metrics.RecordSessionIssued("login")
	return AuthResult{User: user.Public(), Tokens: pair}, nil
}

// Logout removes a single refresh token from its owner's sequence.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	_, userID, err := s.verifyRefresh(refreshToken)
	if err != nil {
		return err
	}

	removed, err := s.store.RemoveRefreshToken(ctx, userID, refreshToken)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("remove refresh token: %w", err)
	}
	if !removed {
		return s.revokeAll(ctx, userID, "logout")
	}
	return nil
}

// Refresh rotates a live refresh token: the presented token is replaced in
// place by a new one and a new access token is minted. Presenting a token that
// verifies but is no longer live revokes every session of its owner.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	payload, userID, err := s.verifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	pair, err := s.issuePair(payload)
	if err != nil {
		return TokenPair{}, err
	}

	replaced, err := s.store.ReplaceRefreshToken(ctx, userID, refreshToken, pair.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !replaced {
		return TokenPair{}, s.revokeAll(ctx, userID, "refresh")
	}

	metrics.RecordSessionIssued("refresh")
	return pair, nil
}

// ChangePassword verifies the current password, stores the new hash and
// replaces every session with a single fresh one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) (TokenPair, error) {
	if current == "" || next == "" {
		return TokenPair{}, ErrMissingFields
	}
	if utf8.RuneCountInString(next) < minPasswordLength || len(next) > maxPasswordLength {
		return TokenPair{}, fmt.Errorf("%w: password must be %d-%d characters", ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("find user: %w", err)
	}
	if !user.ComparePassword(current) {
		metrics.RecordAuthFailure("invalid_credentials")
		return TokenPair{}, ErrInvalidCredentials
	}

	if err := user.SetPassword(next, s.cfg.BcryptCost); err != nil {
		return TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	pair, err := s.issuePair(payloadFor(user))
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.UpdatePassword(ctx, user.ID, user.PasswordHash, pair.RefreshToken); err != nil {
		return TokenPair{}, fmt.Errorf("update password: %w", err)
	}

	s.log.Info("password changed, sessions reset", zap.String("user_id", user.ID.String()))
	metrics.RecordSessionIssued("password_change")
	return pair, nil
}

// ValidateAccessToken verifies an access token and returns the principal it names.
func (s *Service) ValidateAccessToken(tokenString string) (Principal, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Principal{}, ErrTokenRequired
	}

	payload, err := s.codec.VerifyAccess(tokenString)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}

	return Principal{
		UserID:   userID,
		Username: payload.Username,
		Email:    payload.Email,
	}, nil
}

func (s *Service) verifyRefresh(refreshToken string) (token.Payload, uuid.UUID, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return token.Payload{}, uuid.Nil, ErrTokenRequired
	}

	payload, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		metrics.RecordAuthFailure("invalid_refresh_token")
		return token.Payload{}, uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return token.Payload{}, uuid.Nil, ErrInvalidToken
	}
	return payload, userID, nil
}

// revokeAll handles a verified refresh token that is absent from its owner's
// sequence: every live session of that user is dropped.
func (s *Service) revokeAll(ctx context.Context, userID uuid.UUID, flow string) error {
	if err := s.store.ClearRefreshTokens(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("clear refresh tokens: %w", err)
	}

	s.log.Warn("refresh token reuse detected, all sessions revoked",
		zap.String("user_id", userID.String()),
		zap.String("flow", flow),
	)
	metrics.RecordReuseDetected()
	return ErrTokenReuse
}

// pruneDeadTokens drops sequence entries that no longer verify, such as
// expired tokens or tokens signed with a retired secret.
func (s *Service) pruneDeadTokens(ctx context.Context, user User) error {
	var dead []string
	for _, tok := range user.RefreshTokens {
		if _, err := s.codec.VerifyRefresh(tok); err != nil {
			dead = append(dead, tok)
		}
	}
	if len(dead) == 0 {
		return nil
	}

	if err := s.store.PruneRefreshTokens(ctx, user.ID, dead); err != nil {
		return fmt.Errorf("prune refresh tokens: %w", err)
	}
	s.log.Debug("pruned dead refresh tokens",
		zap.String("user_id", user.ID.String()),
		zap.Int("count", len(dead)),
	)
	return nil
}

func (s *Service) issuePair(payload token.Payload) (TokenPair, error) {
	access, err := s.codec.IssueAccess(payload)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.codec.IssueRefresh(payload)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func payloadFor(user User) token.Payload {
	return token.Payload{
		UserID:   user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
	}
}

func validateRegistration(username, email, password string) error {
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidInput, minUsernameLength, maxUsernameLength)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: please enter a valid email address", ErrInvalidInput)
	}
	// the upper bound is bcrypt's byte limit
	if utf8.RuneCountInString(password) < minPasswordLength || len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be %d-%d characters", ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}
	return nil
}
