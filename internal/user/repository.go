package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

const profileColumns = `id, username, email, first_name, last_name, bio, created_at, updated_at`

// Repository reads and edits account profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a profile repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns every profile, newest first.
func (r *Repository) List(ctx context.Context) ([]Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM users ORDER BY created_at DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return profiles, nil
}

// Get fetches one profile.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	profile, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE id = $1;`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("get user: %w", err)
	}
	return profile, nil
}

// Update applies the non-nil fields of the edit and returns the stored profile.
func (r *Repository) Update(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
UPDATE users
SET username   = COALESCE($2, username),
    email      = COALESCE($3, email),
    first_name = COALESCE($4, first_name),
    last_name  = COALESCE($5, last_name),
    bio        = COALESCE($6, bio),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + profileColumns + `;`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query,
		userID, update.Username, update.Email, update.FirstName, update.LastName, update.Bio))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Profile{}, ErrUserNotFound
		case isUniqueViolation(err):
			return Profile{}, ErrUserExists
		default:
			return Profile{}, fmt.Errorf("update user: %w", err)
		}
	}
	return profile, nil
}

// Delete removes the account. Posts, comments and attachment rows cascade.
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	profile, err := scanProfile(r.pool.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+profileColumns+`;`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("delete user: %w", err)
	}
	return profile, nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.FirstName, &p.LastName, &p.Bio, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
