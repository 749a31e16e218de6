package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a unique constraint violation.
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated indicates the caller has no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized indicates the caller lacks a required permission.
	ErrUnauthorized = errors.New("not permitted")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrStorage indicates a store or transaction failure.
	ErrStorage = errors.New("storage failure")
	// ErrHashing indicates a credential digest could not be computed or evaluated.
	ErrHashing = errors.New("hashing failure")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// Validationf returns an ErrValidation carrying a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// UserSafeMessage returns a message suitable for API consumers. Internal
// failures collapse to a generic text.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid credentials"
	case errors.Is(err, ErrUnauthenticated):
		return "authentication required"
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrValidation):
		return err.Error()
	default:
		return "internal error"
	}
}
