package attachment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

const attachmentColumns = `id, post_id, object_name, filename, content_type, size_bytes, checksum, created_at`

// Repository stores attachment metadata.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds an attachment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts metadata for an uploaded object.
func (r *Repository) Create(ctx context.Context, a Attachment) (Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO attachments (id, post_id, object_name, filename, content_type, size_bytes, checksum)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + attachmentColumns + `;`

	stored, err := scanAttachment(r.pool.QueryRow(ctx, query,
		a.ID, a.PostID, a.ObjectName, a.Filename, a.ContentType, a.SizeBytes, a.Checksum))
	if err != nil {
		return Attachment{}, fmt.Errorf("create attachment: %w", err)
	}
	return stored, nil
}

// ListByPost returns a post's attachments in upload order.
func (r *Repository) ListByPost(ctx context.Context, postID uuid.UUID) ([]Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE post_id = $1 ORDER BY created_at ASC;`, postID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return collect(rows)
}

// ListByAuthor returns every attachment on posts written by the author.
func (r *Repository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT a.id, a.post_id, a.object_name, a.filename, a.content_type, a.size_bytes, a.checksum, a.created_at
FROM attachments a
JOIN posts p ON p.id = a.post_id
WHERE p.author_id = $1;`

	rows, err := r.pool.Query(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("list author attachments: %w", err)
	}
	return collect(rows)
}

// Get fetches one attachment of a post.
func (r *Repository) Get(ctx context.Context, postID, attachmentID uuid.UUID) (Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	a, err := scanAttachment(r.pool.QueryRow(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE id = $1 AND post_id = $2;`, attachmentID, postID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, ErrAttachmentNotFound
		}
		return Attachment{}, fmt.Errorf("get attachment: %w", err)
	}
	return a, nil
}

// Delete removes the metadata row and returns what was deleted.
func (r *Repository) Delete(ctx context.Context, postID, attachmentID uuid.UUID) (Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	a, err := scanAttachment(r.pool.QueryRow(ctx,
		`DELETE FROM attachments WHERE id = $1 AND post_id = $2 RETURNING `+attachmentColumns+`;`, attachmentID, postID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, ErrAttachmentNotFound
		}
		return Attachment{}, fmt.Errorf("delete attachment: %w", err)
	}
	return a, nil
}

func collect(rows pgx.Rows) ([]Attachment, error) {
	defer rows.Close()

	var list []Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return list, nil
}

func scanAttachment(row pgx.Row) (Attachment, error) {
	var a Attachment
	err := row.Scan(&a.ID, &a.PostID, &a.ObjectName, &a.Filename, &a.ContentType, &a.SizeBytes, &a.Checksum, &a.CreatedAt)
	return a, err
}
