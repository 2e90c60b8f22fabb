package post

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

const selectPosts = `
SELECT p.id, p.title, p.content, p.created_at, p.updated_at,
       u.id, u.username, u.email
FROM posts p
JOIN users u ON u.id = p.author_id`

// Repository persists posts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a post repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a post and returns it with the author embedded.
func (r *Repository) Create(ctx context.Context, authorID uuid.UUID, title, content string) (Post, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
WITH inserted AS (
    INSERT INTO posts (id, author_id, title, content)
    VALUES ($1, $2, $3, $4)
    RETURNING id, author_id, title, content, created_at, updated_at
)
SELECT p.id, p.title, p.content, p.created_at, p.updated_at,
       u.id, u.username, u.email
FROM inserted p
JOIN users u ON u.id = p.author_id;`

	post, err := scanPost(r.pool.QueryRow(ctx, query, uuid.New(), authorID, title, content))
	if err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// List returns posts, newest first, optionally limited to one author.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Post, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := selectPosts + `
WHERE $1::uuid IS NULL OR p.author_id = $1
ORDER BY p.created_at DESC;`

	rows, err := r.pool.Query(ctx, query, filter.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// Get fetches a single post.
func (r *Repository) Get(ctx context.Context, postID uuid.UUID) (Post, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	post, err := scanPost(r.pool.QueryRow(ctx, selectPosts+` WHERE p.id = $1;`, postID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrPostNotFound
		}
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// Update applies the non-nil fields and returns the stored post.
func (r *Repository) Update(ctx context.Context, postID uuid.UUID, update Update) (Post, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
WITH updated AS (
    UPDATE posts
    SET title      = COALESCE($2, title),
        content    = COALESCE($3, content),
        updated_at = NOW()
    WHERE id = $1
    RETURNING id, author_id, title, content, created_at, updated_at
)
SELECT p.id, p.title, p.content, p.created_at, p.updated_at,
       u.id, u.username, u.email
FROM updated p
JOIN users u ON u.id = p.author_id;`

	post, err := scanPost(r.pool.QueryRow(ctx, query, postID, update.Title, update.Content))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrPostNotFound
		}
		return Post{}, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

// Delete removes a post. Its comments and attachment rows cascade.
func (r *Repository) Delete(ctx context.Context, postID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1;`, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.CreatedAt, &p.UpdatedAt,
		&p.Author.ID, &p.Author.Username, &p.Author.Email)
	return p, err
}
