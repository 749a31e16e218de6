package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/orangethewell/orangethewell-web/internal/auth"
	"github.com/orangethewell/orangethewell-web/internal/platform/httpx"
	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers. It expects the
// identity to be resolved by auth.Guard.Middleware earlier in the chain.
type Middleware struct {
	Guard  *auth.Guard
	Logger *slog.Logger
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.IdentityFromContext(r.Context())
			if len(normalized) > 0 && !id.IsAuthenticated() {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			for _, perm := range normalized {
				if err := m.Guard.Require(r.Context(), id, perm); err != nil {
					if errors.Is(err, shared.ErrUnauthorized) {
						httpx.RespondError(w, err)
						return
					}
					m.fail(w, "rbac require all", err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) fail(w http.ResponseWriter, msg string, err error) {
	if m.Logger != nil {
		m.Logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func normalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
