package comment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

const selectComments = `
SELECT c.id, c.post_id, c.content, c.created_at, c.updated_at,
       u.id, u.username, u.email
FROM comments c
JOIN users u ON u.id = c.author_id`

// Repository persists comments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a comment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a comment and returns it with the author embedded.
func (r *Repository) Create(ctx context.Context, postID, authorID uuid.UUID, content string) (Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
WITH inserted AS (
    INSERT INTO comments (id, post_id, author_id, content)
    VALUES ($1, $2, $3, $4)
    RETURNING id, post_id, author_id, content, created_at, updated_at
)
SELECT c.id, c.post_id, c.content, c.created_at, c.updated_at,
       u.id, u.username, u.email
FROM inserted c
JOIN users u ON u.id = c.author_id;`

	comment, err := scanComment(r.pool.QueryRow(ctx, query, uuid.New(), postID, authorID, content))
	if err != nil {
		return Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// List returns comments in conversation order.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := selectComments + `
WHERE ($1::uuid IS NULL OR c.post_id = $1)
  AND ($2::uuid IS NULL OR c.author_id = $2)
ORDER BY c.created_at ASC;`

	rows, err := r.pool.Query(ctx, query, filter.PostID, filter.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// Get fetches one comment.
func (r *Repository) Get(ctx context.Context, commentID uuid.UUID) (Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	comment, err := scanComment(r.pool.QueryRow(ctx, selectComments+` WHERE c.id = $1;`, commentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrCommentNotFound
		}
		return Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return comment, nil
}

// UpdateContent replaces the comment body.
func (r *Repository) UpdateContent(ctx context.Context, commentID uuid.UUID, content string) (Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
WITH updated AS (
    UPDATE comments
    SET content = $2, updated_at = NOW()
    WHERE id = $1
    RETURNING id, post_id, author_id, content, created_at, updated_at
)
SELECT c.id, c.post_id, c.content, c.created_at, c.updated_at,
       u.id, u.username, u.email
FROM updated c
JOIN users u ON u.id = c.author_id;`

	comment, err := scanComment(r.pool.QueryRow(ctx, query, commentID, content))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrCommentNotFound
		}
		return Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

// Delete removes a comment.
func (r *Repository) Delete(ctx context.Context, commentID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1;`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
		&c.Author.ID, &c.Author.Username, &c.Author.Email)
	return c, err
}
