package user

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type repository interface {
	List(ctx context.Context) ([]Profile, error)
	Get(ctx context.Context, userID uuid.UUID) (Profile, error)
	Update(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (Profile, error)
	Delete(ctx context.Context, userID uuid.UUID) (Profile, error)
}

// AttachmentPurger removes stored objects that would be orphaned when an account goes away.
type AttachmentPurger interface {
	PurgeForAuthor(ctx context.Context, authorID uuid.UUID) error
}

// Service exposes profile operations.
type Service struct {
	repo        repository
	attachments AttachmentPurger
	log         *zap.Logger
}

// NewService constructs a profile service. attachments may be nil.
func NewService(repo repository, attachments AttachmentPurger, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, attachments: attachments, log: log.Named("user")}
}

// ListUsers returns every public profile.
func (s *Service) ListUsers(ctx context.Context) ([]Profile, error) {
	return s.repo.List(ctx)
}

// GetUser returns one public profile.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (Profile, error) {
	return s.repo.Get(ctx, userID)
}

// UpdateUser edits the caller's own profile. Passwords are changed through the auth endpoints only.
func (s *Service) UpdateUser(ctx context.Context, actorID, userID uuid.UUID, update ProfileUpdate) (Profile, error) {
	if actorID != userID {
		return Profile{}, ErrForbidden
	}

	update, err := normalizeUpdate(update)
	if err != nil {
		return Profile{}, err
	}
	if update.empty() {
		return s.repo.Get(ctx, userID)
	}
	return s.repo.Update(ctx, userID, update)
}

// DeleteUser removes the caller's own account and its attachment objects.
func (s *Service) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) (Profile, error) {
	if actorID != userID {
		return Profile{}, ErrForbidden
	}
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return Profile{}, err
	}

	if s.attachments != nil {
		if err := s.attachments.PurgeForAuthor(ctx, userID); err != nil {
			return Profile{}, fmt.Errorf("purge attachments: %w", err)
		}
	}

	profile, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	s.log.Info("account deleted", zap.String("user_id", userID.String()))
	return profile, nil
}

func normalizeUpdate(update ProfileUpdate) (ProfileUpdate, error) {
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if n := utf8.RuneCountInString(username); n < 3 || n > 30 {
			return ProfileUpdate{}, fmt.Errorf("%w: username must be between 3 and 30 characters", ErrInvalidProfile)
		}
		update.Username = &username
	}
	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if !emailPattern.MatchString(email) {
			return ProfileUpdate{}, fmt.Errorf("%w: please enter a valid email address", ErrInvalidProfile)
		}
		update.Email = &email
	}
	update.FirstName = trimmed(update.FirstName)
	update.LastName = trimmed(update.LastName)
	return update, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}
