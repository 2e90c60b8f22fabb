package auth

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

const defaultQueryTimeout = 5 * time.Second

const userColumns = `id, username, email, password_hash, refresh_tokens, first_name, last_name, bio, created_at, updated_at`

// Repository is the Postgres-backed credential store. Every mutation of the
// refresh-token sequence is a single conditional UPDATE on the user's row, so
// membership checks and rewrites cannot interleave between requests.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser persists a new user record together with its initial token sequence.
func (r *Repository) CreateUser(ctx context.Context, user User) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tokens := user.RefreshTokens
	if tokens == nil {
		tokens = []string{}
	}

	query := `
INSERT INTO users (id, username, email, password_hash, refresh_tokens)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns + `;`

	created, err := scanUser(r.pool.QueryRow(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, tokens))
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// FindUserByEmail fetches a user by email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

// FindUserByID fetches a user by identifier.
func (r *Repository) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindUserByEmailOrUsername returns any user holding either identifier.
func (r *Repository) FindUserByEmailOrUsername(ctx context.Context, email, username string) (User, error) {
	return r.findOne(ctx, `WHERE email = $1 OR username = $2 LIMIT 1`, email, username)
}

// AppendRefreshToken adds tok at the end of the user's sequence.
func (r *Repository) AppendRefreshToken(ctx context.Context, userID uuid.UUID, tok string) error {
	return r.execOnUser(ctx, "append refresh token", `
UPDATE users
SET refresh_tokens = array_append(refresh_tokens, $2), updated_at = NOW()
WHERE id = $1;`, userID, tok)
}

// RemoveRefreshToken removes tok if present and reports whether it was.
func (r *Repository) RemoveRefreshToken(ctx context.Context, userID uuid.UUID, tok string) (bool, error) {
	return r.execConditional(ctx, "remove refresh token", `
UPDATE users
SET refresh_tokens = array_remove(refresh_tokens, $2), updated_at = NOW()
WHERE id = $1 AND $2 = ANY(refresh_tokens);`, userID, tok)
}

// ReplaceRefreshToken swaps oldTok for newTok in place if oldTok is present.
func (r *Repository) ReplaceRefreshToken(ctx context.Context, userID uuid.UUID, oldTok, newTok string) (bool, error) {
	return r.execConditional(ctx, "replace refresh token", `
UPDATE users
SET refresh_tokens = array_replace(refresh_tokens, $2, $3), updated_at = NOW()
WHERE id = $1 AND $2 = ANY(refresh_tokens);`, userID, oldTok, newTok)
}

// ClearRefreshTokens empties the user's sequence.
func (r *Repository) ClearRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	return r.execOnUser(ctx, "clear refresh tokens", `
UPDATE users
SET refresh_tokens = '{}', updated_at = NOW()
WHERE id = $1;`, userID)
}

// PruneRefreshTokens drops the given entries while keeping the order of the rest.
func (r *Repository) PruneRefreshTokens(ctx context.Context, userID uuid.UUID, dead []string) error {
	if len(dead) == 0 {
		return nil
	}
	return r.execOnUser(ctx, "prune refresh tokens", `
UPDATE users
SET refresh_tokens = COALESCE((
        SELECT array_agg(t ORDER BY ord)
        FROM unnest(refresh_tokens) WITH ORDINALITY AS u(t, ord)
        WHERE NOT (t = ANY($2::text[]))
    ), '{}'),
    updated_at = NOW()
WHERE id = $1;`, userID, dead)
}

// UpdatePassword stores a new hash and resets the sequence to a single token.
func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash, refreshToken string) error {
	return r.execOnUser(ctx, "update password", `
UPDATE users
SET password_hash = $2, refresh_tokens = ARRAY[$3::text], updated_at = NOW()
WHERE id = $1;`, userID, passwordHash, refreshToken)
}

func (r *Repository) findOne(ctx context.Context, where string, args ...any) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users ` + where + `;`

	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *Repository) execOnUser(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repository) execConditional(ctx context.Context, op, query string, args ...any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.RefreshTokens,
		&user.FirstName,
		&user.LastName,
		&user.Bio,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
