package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/orangethewell/orangethewell-web/internal/auth"
	"github.com/orangethewell/orangethewell-web/internal/rbac"
	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// Catalog resolves permission rows and user-role assignments.
type Catalog interface {
	GetPermission(ctx context.Context, id int64) (rbac.Permission, error)
	UserRoleIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Service implements the role engine.
type Service struct {
	repo      RepositoryPort
	catalog   Catalog
	guard     *auth.Guard
	validator *validator.Validate
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, catalog Catalog, guard *auth.Guard, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, catalog: catalog, guard: guard, validator: validator.New(), logger: logger}
}

// Create inserts a role and its permission associations in one transaction.
func (s *Service) Create(ctx context.Context, actor auth.Identity, in Input) (RoleWithPermissions, error) {
	if err := s.guard.Require(ctx, actor, shared.PermModerate); err != nil {
		return RoleWithPermissions{}, err
	}
	in, err := s.normalize(in)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	var created Role
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		role, err := tx.InsertRole(ctx, in.Name, in.Description)
		if err != nil {
			return err
		}
		for _, permID := range in.PermissionIDs {
			if err := tx.AttachPermission(ctx, role.ID, permID); err != nil {
				return err
			}
		}
		created = role
		return nil
	})
	if err != nil {
		return RoleWithPermissions{}, err
	}
	s.logger.Info("roles: created", slog.String("actor", actor.String()), slog.Int64("role_id", created.ID), slog.String("name", created.Name))
	return s.withPermissions(ctx, created)
}

// Update reconciles the role's permission set with in.PermissionIDs and
// rewrites its name and description, all in one transaction. Permissions kept
// by the update are not touched.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id int64, in Input) (RoleWithPermissions, error) {
	if err := s.guard.Require(ctx, actor, shared.PermModerate); err != nil {
		return RoleWithPermissions{}, err
	}
	in, err := s.normalize(in)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	var (
		updated Role
		rec     Reconciliation
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.LockRole(ctx, id); err != nil {
			return err
		}
		old, err := tx.RolePermissionIDs(ctx, id)
		if err != nil {
			return err
		}
		rec = Reconcile(old, in.PermissionIDs)
		for _, permID := range rec.Removed {
			if err := tx.DetachPermission(ctx, id, permID); err != nil {
				return err
			}
		}
		for _, permID := range rec.Added {
			if err := tx.AttachPermission(ctx, id, permID); err != nil {
				return err
			}
		}
		updated, err = tx.UpdateRole(ctx, id, in.Name, in.Description)
		return err
	})
	if err != nil {
		return RoleWithPermissions{}, err
	}
	s.logger.Info("roles: updated",
		slog.String("actor", actor.String()),
		slog.Int64("role_id", id),
		slog.Bool("permissions_changed", !rec.Empty()),
		slog.Any("removed", rec.Removed),
		slog.Any("added", rec.Added),
	)
	return s.withPermissions(ctx, updated)
}

// Delete removes a role and returns it. Associations cascade; users keep their
// accounts and simply lose the role.
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id int64) (Role, error) {
	if err := s.guard.Require(ctx, actor, shared.PermModerate); err != nil {
		return Role{}, err
	}
	var deleted Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		deleted, err = tx.DeleteRole(ctx, id)
		return err
	})
	if err != nil {
		return Role{}, err
	}
	s.logger.Info("roles: deleted", slog.String("actor", actor.String()), slog.Int64("role_id", id))
	return deleted, nil
}

// List returns every role with its permissions.
func (s *Service) List(ctx context.Context, actor auth.Identity) ([]RoleWithPermissions, error) {
	if _, err := s.guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	list, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoleWithPermissions, 0, len(list))
	for _, role := range list {
		rp, err := s.withPermissions(ctx, role)
		if err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, nil
}

// Get returns one role with its permissions.
func (s *Service) Get(ctx context.Context, actor auth.Identity, id int64) (RoleWithPermissions, error) {
	if _, err := s.guard.RequireAuthenticated(actor); err != nil {
		return RoleWithPermissions{}, err
	}
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	return s.withPermissions(ctx, role)
}

// UserRoles lists the roles held by a user. Readable by the user themself or a
// moderator.
func (s *Service) UserRoles(ctx context.Context, actor auth.Identity, userID int64) ([]RoleWithPermissions, error) {
	if err := s.guard.RequireSelfOr(ctx, actor, userID, shared.PermModerate); err != nil {
		return nil, err
	}
	ids, err := s.catalog.UserRoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]RoleWithPermissions, 0, len(ids))
	for _, id := range ids {
		role, err := s.repo.GetRole(ctx, id)
		if err != nil {
			return nil, err
		}
		rp, err := s.withPermissions(ctx, role)
		if err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, nil
}

func (s *Service) withPermissions(ctx context.Context, role Role) (RoleWithPermissions, error) {
	ids, err := s.repo.RolePermissionIDs(ctx, role.ID)
	if err != nil {
		return RoleWithPermissions{}, err
	}
	perms := make([]rbac.Permission, 0, len(ids))
	for _, id := range ids {
		p, err := s.catalog.GetPermission(ctx, id)
		if err != nil {
			return RoleWithPermissions{}, fmt.Errorf("roles: role %d permission %d: %w", role.ID, id, err)
		}
		perms = append(perms, p)
	}
	return RoleWithPermissions{Role: role, Permissions: perms}, nil
}

func (s *Service) normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validator.Struct(in); err != nil {
		return Input{}, shared.Validationf("role: %v", err)
	}
	in.PermissionIDs = dedupe(in.PermissionIDs)
	return in, nil
}
