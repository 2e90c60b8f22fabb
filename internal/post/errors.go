package post

import "errors"

var (
	// ErrPostNotFound indicates the requested post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrTitleRequired is returned when a post would end up without a title.
	ErrTitleRequired = errors.New("title is required")
	// ErrForbidden means the caller does not own the post.
	ErrForbidden = errors.New("forbidden")
)
