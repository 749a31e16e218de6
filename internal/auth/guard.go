package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// PermissionChecker answers point permission queries for a user.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID int64, name string) (bool, error)
}

// Guard is the gate every mutating operation passes through.
type Guard struct {
	checker PermissionChecker
	logger  *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(checker PermissionChecker, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{checker: checker, logger: logger}
}

// Resolve reads the user id claim of the session. The claim is trusted as is;
// sessions are revoked by deletion or expiry only.
func (g *Guard) Resolve(sess *shared.Session) Identity {
	if sess == nil || sess.Destroyed() {
		return Anonymous()
	}
	id, ok := parseUserClaim(sess.User())
	if !ok {
		if sess.User() != "" {
			g.logger.Warn("auth: malformed session user claim", slog.String("session", sess.ID))
		}
		return Anonymous()
	}
	return Authenticated(id)
}

// RequireAuthenticated fails with ErrUnauthenticated for anonymous callers.
func (g *Guard) RequireAuthenticated(id Identity) (int64, error) {
	userID, ok := id.UserID()
	if !ok {
		return 0, shared.ErrUnauthenticated
	}
	return userID, nil
}

// Require fails closed: an anonymous caller and a caller lacking the
// permission both get ErrUnauthorized. A resolution error is returned as is and
// never treated as a grant.
func (g *Guard) Require(ctx context.Context, id Identity, permission string) error {
	userID, ok := id.UserID()
	if !ok {
		return shared.ErrUnauthorized
	}
	granted, err := g.checker.HasPermission(ctx, userID, permission)
	if err != nil {
		return fmt.Errorf("auth: resolve permissions: %w", err)
	}
	if !granted {
		g.logger.Debug("auth: permission denied", slog.Int64("user_id", userID))
		return shared.ErrUnauthorized
	}
	return nil
}

// RequireSelfOr lets the actor target themself, otherwise demands permission.
// Anonymous callers get ErrUnauthenticated.
func (g *Guard) RequireSelfOr(ctx context.Context, id Identity, targetID int64, permission string) error {
	actorID, err := g.RequireAuthenticated(id)
	if err != nil {
		return err
	}
	if actorID == targetID {
		return nil
	}
	return g.Require(ctx, id, permission)
}
