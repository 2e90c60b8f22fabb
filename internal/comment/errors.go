package comment

import "errors"

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrContentRequired = errors.New("content is required")
	ErrForbidden       = errors.New("forbidden")
)
