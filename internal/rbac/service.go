package rbac

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orangethewell/orangethewell-web/internal/auth"
	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// Service orchestrates catalog reads and user-role administration.
type Service struct {
	repo     Repository
	resolver *Resolver
	guard    *auth.Guard
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, resolver *Resolver, guard *auth.Guard, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, resolver: resolver, guard: guard, logger: logger}
}

// ListPermissions returns the whole catalog.
func (s *Service) ListPermissions(ctx context.Context, actor auth.Identity) ([]Permission, error) {
	if _, err := s.guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.repo.ListPermissions(ctx)
}

// GetPermission fetches one catalog entry.
func (s *Service) GetPermission(ctx context.Context, actor auth.Identity, id int64) (Permission, error) {
	if _, err := s.guard.RequireAuthenticated(actor); err != nil {
		return Permission{}, err
	}
	return s.repo.GetPermission(ctx, id)
}

// AssignRole grants a role to a user. Assigning a held role is a no-op.
func (s *Service) AssignRole(ctx context.Context, actor auth.Identity, userID, roleID int64) error {
	if err := s.guard.Require(ctx, actor, shared.PermModerate); err != nil {
		return err
	}
	created, err := s.repo.AssignRole(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if created {
		s.logger.Info("rbac: role assigned", slog.String("actor", actor.String()), slog.Int64("user_id", userID), slog.Int64("role_id", roleID))
	}
	return nil
}

// RevokeRole removes a role from a user. Revoking a role the user does not
// hold returns ErrNotFound.
func (s *Service) RevokeRole(ctx context.Context, actor auth.Identity, userID, roleID int64) error {
	if err := s.guard.Require(ctx, actor, shared.PermModerate); err != nil {
		return err
	}
	deleted, err := s.repo.RevokeRole(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("rbac: user %d does not hold role %d: %w", userID, roleID, shared.ErrNotFound)
	}
	s.logger.Info("rbac: role revoked", slog.String("actor", actor.String()), slog.Int64("user_id", userID), slog.Int64("role_id", roleID))
	return nil
}

// UserPermissions returns the effective permission set of a user.
func (s *Service) UserPermissions(ctx context.Context, actor auth.Identity, userID int64) ([]Permission, error) {
	if err := s.guard.RequireSelfOr(ctx, actor, userID, shared.PermModerate); err != nil {
		return nil, err
	}
	set, err := s.resolver.EffectivePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return set.Slice(), nil
}
