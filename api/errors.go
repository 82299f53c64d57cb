package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Domain errors of the API surface. Handlers return these (optionally
// wrapped with a cause) and respondError maps them onto HTTP statuses.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	// ErrBidConflict means another bid was accepted between the caller
	// reading the lot and submitting. Retryable after refreshing.
	ErrBidConflict = errors.New("someone else bid first")
	ErrRateLimited = errors.New("upload limit reached, try again later")
)

// validationError attaches a human-readable cause to ErrValidation.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

type errorResponse struct {
	Error      string `json:"error"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

func mapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, ErrUnauthenticated.Error()
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, ErrForbidden.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrNotFound.Error()
	case errors.Is(err, ErrBidConflict):
		return http.StatusConflict, ErrBidConflict.Error()
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, ErrRateLimited.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// respondError writes the JSON error for err. Backend failures are logged
// with their cause and surfaced as an opaque 500, never retried here.
func respondError(c *gin.Context, op string, err error) {
	status, message := mapErrorToHTTP(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", slog.String("op", op), slog.Any("error", err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}
