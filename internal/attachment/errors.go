package attachment

import "errors"

var (
	// ErrAttachmentNotFound signals the attachment does not exist on the given post.
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrPostNotFound signals the parent post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrForbidden means the caller does not own the parent post.
	ErrForbidden = errors.New("forbidden")
	// ErrFileTooLarge signals the upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrMissingFile is returned when the multipart payload carries no file.
	ErrMissingFile = errors.New("missing file payload")
)
