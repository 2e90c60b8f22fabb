package comment

import (
	"time"

	"github.com/abduss/postboard/internal/user"
	"github.com/google/uuid"
)

// Comment is a reply attached to a post.
type Comment struct {
	ID        uuid.UUID    `json:"_id"`
	PostID    uuid.UUID    `json:"postId"`
	Content   string       `json:"content"`
	Author    user.Summary `json:"author"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Filter narrows a comment listing. Zero value lists everything.
type Filter struct {
	PostID   *uuid.UUID
	AuthorID *uuid.UUID
}
