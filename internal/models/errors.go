package models

import "errors"

// Sentinel errors shared across repositories and services.
// Handlers translate these into HTTP status codes.
var (
	// ErrNotFound means the requested record does not exist. Callers must not
	// distinguish "never existed" from "deleted".
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness constraint was violated (slug or vote pair).
	ErrConflict = errors.New("conflict")

	// ErrForbidden means the request resolved to something the caller may not
	// access, e.g. a disk path outside the public root.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError describes rejected input. The message is safe to return to
// the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}
