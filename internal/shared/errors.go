package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail occurs when registering an already known email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrTooManyAttempts occurs when the login throttle trips.
	ErrTooManyAttempts = errors.New("too many login attempts")
)
