package httpx

import (
	"errors"
	"net/http"

	"github.com/arbor-commerce/arbor/internal/shared"
)

// Sentinel errors for the transport layer.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("too many requests")
)

// RespondError maps domain errors to envelope responses. Unknown errors
// collapse to a generic 500 so internals never leak.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, "Resource not found.")
	case errors.Is(err, shared.ErrDuplicate), errors.Is(err, shared.ErrIdempotencyConflict):
		Fail(w, http.StatusConflict, "Resource already exists.")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Fail(w, http.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, shared.ErrForbidden):
		Fail(w, http.StatusForbidden, "Forbidden.")
	case errors.Is(err, ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, "Authentication required.")
	case errors.Is(err, ErrRateLimited):
		Fail(w, http.StatusTooManyRequests, "Too many requests.")
	default:
		Fail(w, http.StatusInternalServerError, "Something went wrong.")
	}
}
