package post

import (
	"time"

	"github.com/abduss/postboard/internal/user"
	"github.com/google/uuid"
)

// Post is a titled piece of content owned by one user.
type Post struct {
	ID        uuid.UUID    `json:"_id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Author    user.Summary `json:"author"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// OwnedBy reports whether userID authored the post.
func (p Post) OwnedBy(userID uuid.UUID) bool {
	return p.Author.ID == userID
}

// Filter narrows a post listing.
type Filter struct {
	AuthorID *uuid.UUID
}

// Update carries optional post edits.
type Update struct {
	Title   *string
	Content *string
}
