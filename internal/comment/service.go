package comment

import (
	"context"
	"errors"
	"strings"

	"github.com/abduss/postboard/internal/post"
	"github.com/google/uuid"
)

type repository interface {
	Create(ctx context.Context, postID, authorID uuid.UUID, content string) (Comment, error)
	List(ctx context.Context, filter Filter) ([]Comment, error)
	Get(ctx context.Context, commentID uuid.UUID) (Comment, error)
	UpdateContent(ctx context.Context, commentID uuid.UUID, content string) (Comment, error)
	Delete(ctx context.Context, commentID uuid.UUID) error
}

type postLookup interface {
	GetPost(ctx context.Context, postID uuid.UUID) (post.Post, error)
}

// Service orchestrates comment operations.
type Service struct {
	repo  repository
	posts postLookup
}

// NewService constructs a comment service.
func NewService(repo repository, posts postLookup) *Service {
	return &Service{repo: repo, posts: posts}
}

// CreateComment adds a comment to an existing post.
func (s *Service) CreateComment(ctx context.Context, authorID, postID uuid.UUID, content string) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, ErrContentRequired
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return Comment{}, err
	}
	return s.repo.Create(ctx, postID, authorID, content)
}

// ListComments returns comments matching the filter.
func (s *Service) ListComments(ctx context.Context, filter Filter) ([]Comment, error) {
	return s.repo.List(ctx, filter)
}

// ListForPost returns the comments of a post, failing when the post is missing.
func (s *Service) ListForPost(ctx context.Context, postID uuid.UUID) ([]Comment, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, Filter{PostID: &postID})
}

// GetComment returns one comment.
func (s *Service) GetComment(ctx context.Context, commentID uuid.UUID) (Comment, error) {
	return s.repo.Get(ctx, commentID)
}

// UpdateComment replaces the content of a comment owned by actorID.
func (s *Service) UpdateComment(ctx context.Context, actorID, commentID uuid.UUID, content string) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, ErrContentRequired
	}
	if err := s.authorize(ctx, actorID, commentID); err != nil {
		return Comment{}, err
	}
	return s.repo.UpdateContent(ctx, commentID, content)
}

// DeleteComment removes a comment owned by actorID.
func (s *Service) DeleteComment(ctx context.Context, actorID, commentID uuid.UUID) error {
	if err := s.authorize(ctx, actorID, commentID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, commentID)
}

func (s *Service) authorize(ctx context.Context, actorID, commentID uuid.UUID) error {
	current, err := s.repo.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if current.Author.ID != actorID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) ensurePost(ctx context.Context, postID uuid.UUID) error {
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}
