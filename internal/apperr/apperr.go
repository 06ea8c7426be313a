// Package apperr defines the request-level error taxonomy and maps it to
// HTTP responses.
package apperr

import (
	"errors"
	"log/slog"
	"net/http"
)

var (
	// ErrNotFound is returned when an id or slug matches no record.
	ErrNotFound = errors.New("not found")
)

// ForbiddenError is a permission refusal carrying the reason shown to the user.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// Forbidden returns a ForbiddenError with the given message.
func Forbidden(msg string) error {
	return &ForbiddenError{Message: msg}
}

// Status maps an error to its HTTP status code and the body to send.
// Unknown errors are treated as infrastructure failures and never leak
// their text.
func Status(err error) (int, string) {
	var forbidden *ForbiddenError
	switch {
	case errors.As(err, &forbidden):
		return http.StatusForbidden, forbidden.Message
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Not Found"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// Write sends the response for err. Infrastructure errors are logged.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := Status(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
	}
	http.Error(w, msg, code)
}
