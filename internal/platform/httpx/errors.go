package httpx

import (
	"errors"
	"net/http"

	"github.com/taskhive/taskhive/internal/shared"
)

// RespondError maps domain errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Message(w, http.StatusNotFound, "not found")
	case errors.Is(err, shared.ErrDuplicateEmail):
		Message(w, http.StatusBadRequest, "email already registered")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Message(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, shared.ErrTooManyAttempts):
		Message(w, http.StatusTooManyRequests, "too many login attempts")
	default:
		Failure(w, http.StatusInternalServerError, "internal server error", err)
	}
}
