package user

import "errors"

var (
	// ErrUserNotFound indicates the requested account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when an edit collides with another account's username or email.
	ErrUserExists = errors.New("user with this email or username already exists")
	// ErrForbidden means the caller tried to modify someone else's account.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidProfile wraps field validation failures.
	ErrInvalidProfile = errors.New("invalid profile")
)
