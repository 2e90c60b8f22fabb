package user

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public view of an account. Credentials and refresh tokens never leave the auth package.
type Profile struct {
	ID        uuid.UUID `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName *string   `json:"firstName,omitempty"`
	LastName  *string   `json:"lastName,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is the author reference embedded in posts and comments.
type Summary struct {
	ID       uuid.UUID `json:"_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// ProfileUpdate carries the optional fields of a profile edit. Nil means unchanged.
type ProfileUpdate struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
}

func (u ProfileUpdate) empty() bool {
	return u.Username == nil && u.Email == nil && u.FirstName == nil && u.LastName == nil && u.Bio == nil
}
