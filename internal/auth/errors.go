package auth

import "errors"

var (
	// ErrMissingFields is returned when a required credential field is empty.
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidInput signals a field that is present but malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserExists indicates the email or username is already registered.
	ErrUserExists = errors.New("user with this email or username already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenRequired means no bearer token was supplied.
	ErrTokenRequired = errors.New("token required")
	// ErrInvalidToken covers bad signatures, expiry and unknown owners.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenReuse is returned after a verified refresh token was found absent
	// from its owner's sequence. Every session of that user has been revoked.
	ErrTokenReuse = errors.New("refresh token reuse detected")
)
