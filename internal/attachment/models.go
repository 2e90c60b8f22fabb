package attachment

import (
	"time"

	"github.com/google/uuid"
)

// Attachment describes a file stored alongside a post.
type Attachment struct {
	ID          uuid.UUID `json:"_id"`
	PostID      uuid.UUID `json:"postId"`
	ObjectName  string    `json:"-"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SignedURL is a time-limited direct download link.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
