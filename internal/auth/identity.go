package auth

import (
	"context"
	"strconv"
	"strings"
)

// Identity is the per-request authentication state: Anonymous or
// Authenticated(user id).
type Identity struct {
	userID        int64
	authenticated bool
}

// Anonymous returns the unauthenticated identity.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns the identity of a logged-in user.
func Authenticated(userID int64) Identity {
	return Identity{userID: userID, authenticated: true}
}

// IsAuthenticated reports whether a user id claim was present.
func (i Identity) IsAuthenticated() bool {
	return i.authenticated
}

// UserID returns the acting user id and whether the identity is authenticated.
func (i Identity) UserID() (int64, bool) {
	return i.userID, i.authenticated
}

// String renders the identity for logs.
func (i Identity) String() string {
	if !i.authenticated {
		return "anonymous"
	}
	return "user:" + strconv.FormatInt(i.userID, 10)
}

func parseUserClaim(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity stored in ctx, or Anonymous.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityContextKey{}).(Identity)
	return id
}
