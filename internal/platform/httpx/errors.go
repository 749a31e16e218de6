// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// RespondError maps error kinds to HTTP responses using RFC7807 and returns
// the status written. Authentication and authorization failures carry fixed
// messages only.
func RespondError(w http.ResponseWriter, err error) int {
	status, title := classify(err)
	Problem(w, status, title, shared.UserSafeMessage(err))
	return status
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest, "Validation Failed"
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}
