package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt limit
	minUsernameLength = 3
	maxUsernameLength = 30
)

// User is the credential record persisted in the users table.
type User struct {
	ID            uuid.UUID
	Username      string
	Email         string
	PasswordHash  string
	RefreshTokens []string
	FirstName     *string
	LastName      *string
	Bio           *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SetPassword hashes plaintext and stores the hash on the user. It is the only
// place a password hash is produced.
func (u *User) SetPassword(plaintext string, cost int) error {
	if len(plaintext) > maxPasswordLength {
		return fmt.Errorf("password exceeds maximum length of %d characters", maxPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// ComparePassword reports whether candidate matches the stored hash.
func (u User) ComparePassword(candidate string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}

// HasRefreshToken reports whether tok is in the user's live sequence.
func (u User) HasRefreshToken(tok string) bool {
	for _, t := range u.RefreshTokens {
		if t == tok {
			return true
		}
	}
	return false
}

// Public strips credential material for response payloads.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// PublicUser is the user view returned by the auth endpoints.
type PublicUser struct {
	ID       uuid.UUID `json:"_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// TokenPair bundles access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult contains the public user view and a fresh token pair.
type AuthResult struct {
	User   PublicUser
	Tokens TokenPair
}
