package auth

import (
	"net/http"

	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// Middleware resolves the request identity from the session loaded by the
// session middleware and stores it in the request context.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := g.Resolve(shared.SessionFromContext(r.Context()))
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
	})
}
