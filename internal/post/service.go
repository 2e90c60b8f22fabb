package post

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type repository interface {
	Create(ctx context.Context, authorID uuid.UUID, title, content string) (Post, error)
	List(ctx context.Context, filter Filter) ([]Post, error)
	Get(ctx context.Context, postID uuid.UUID) (Post, error)
	Update(ctx context.Context, postID uuid.UUID, update Update) (Post, error)
	Delete(ctx context.Context, postID uuid.UUID) error
}

// AttachmentPurger removes the stored objects of a post before its rows cascade away.
type AttachmentPurger interface {
	PurgeForPost(ctx context.Context, postID uuid.UUID) error
}

// Service orchestrates post operations.
type Service struct {
	repo        repository
	attachments AttachmentPurger
}

// NewService constructs a post service. attachments may be nil.
func NewService(repo repository, attachments AttachmentPurger) *Service {
	return &Service{repo: repo, attachments: attachments}
}

// SetAttachmentPurger wires the attachment service after construction, since it depends on posts itself.
func (s *Service) SetAttachmentPurger(p AttachmentPurger) {
	s.attachments = p
}

// CreatePost publishes a post for the author.
func (s *Service) CreatePost(ctx context.Context, authorID uuid.UUID, title, content string) (Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Post{}, ErrTitleRequired
	}
	return s.repo.Create(ctx, authorID, title, content)
}

// ListPosts returns posts matching the filter.
func (s *Service) ListPosts(ctx context.Context, filter Filter) ([]Post, error) {
	return s.repo.List(ctx, filter)
}

// GetPost returns a single post.
func (s *Service) GetPost(ctx context.Context, postID uuid.UUID) (Post, error) {
	return s.repo.Get(ctx, postID)
}

// UpdatePost edits a post owned by actorID.
func (s *Service) UpdatePost(ctx context.Context, actorID, postID uuid.UUID, update Update) (Post, error) {
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return Post{}, ErrTitleRequired
		}
		update.Title = &title
	}

	current, err := s.repo.Get(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if !current.OwnedBy(actorID) {
		return Post{}, ErrForbidden
	}
	if update.Title == nil && update.Content == nil {
		return current, nil
	}
	return s.repo.Update(ctx, postID, update)
}

// DeletePost removes a post owned by actorID along with its attachment objects.
func (s *Service) DeletePost(ctx context.Context, actorID, postID uuid.UUID) error {
	current, err := s.repo.Get(ctx, postID)
	if err != nil {
		return err
	}
	if !current.OwnedBy(actorID) {
		return ErrForbidden
	}

	if s.attachments != nil {
		if err := s.attachments.PurgeForPost(ctx, postID); err != nil {
			return fmt.Errorf("purge attachments: %w", err)
		}
	}
	return s.repo.Delete(ctx, postID)
}
