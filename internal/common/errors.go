package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds surfaced by the service layer. Callers match them with errors.Is.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflicting concurrent update, refresh and retry")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrValidation         = errors.New("validation failed")
	ErrUnavailable        = errors.New("store unavailable")
	ErrTooManyAttempts    = errors.New("too many attempts, try again later")
)

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError wraps ErrNotFound with the name of the missing resource.
func NotFoundError(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// ErrorCode maps an error to the API error code and HTTP status.
func ErrorCode(err error) (string, int) {
	switch {
	case err == nil:
		return "", http.StatusOK
	case errors.Is(err, ErrDuplicateEmail):
		return "DUPLICATE_EMAIL", http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS", http.StatusUnauthorized
	case errors.Is(err, ErrWeakPassword):
		return "WEAK_PASSWORD", http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND", http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN", http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return "CONFLICT", http.StatusConflict
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE", http.StatusConflict
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR", http.StatusBadRequest
	case errors.Is(err, ErrTooManyAttempts):
		return "TOO_MANY_ATTEMPTS", http.StatusTooManyRequests
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE", http.StatusServiceUnavailable
	default:
		return "SERVER_ERROR", http.StatusInternalServerError
	}
}
