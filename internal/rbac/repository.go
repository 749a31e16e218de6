package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/orangethewell/orangethewell-web/internal/platform/db"
	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// Repository exposes the permission catalog and user-role association storage.
type Repository interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	EnsurePermission(ctx context.Context, name, description string) (Permission, error)
	UserRoleIDs(ctx context.Context, userID int64) ([]int64, error)
	AssignRole(ctx context.Context, userID, roleID int64) (bool, error)
	RevokeRole(ctx context.Context, userID, roleID int64) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	q db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(q db.Querier) *PGRepository {
	return &PGRepository{q: q}
}

// ListPermissions returns the catalog ordered by name.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, db.Classify("rbac: list permissions", err)
	}
	perms, err := pgx.CollectRows(rows, scanPermission)
	if err != nil {
		return nil, db.Classify("rbac: list permissions", err)
	}
	return perms, nil
}

// GetPermission fetches a permission by id.
func (r *PGRepository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, description FROM permissions WHERE id = $1`, id)
	if err != nil {
		return Permission{}, db.Classify("rbac: get permission", err)
	}
	perm, err := pgx.CollectExactlyOneRow(rows, scanPermission)
	if err != nil {
		return Permission{}, db.Classify(fmt.Sprintf("rbac: permission %d", id), err)
	}
	return perm, nil
}

// EnsurePermission upserts a permission by name, refreshing its description.
func (r *PGRepository) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	var p Permission
	err := r.q.QueryRow(ctx, `
INSERT INTO permissions (name, description) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
RETURNING id, name, description`, strings.TrimSpace(name), strings.TrimSpace(description)).
		Scan(&p.ID, &p.Name, &p.Description)
	if err != nil {
		return Permission{}, db.Classify("rbac: ensure permission", err)
	}
	return p, nil
}

// UserRoleIDs lists the role ids held by a user.
func (r *PGRepository) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1 ORDER BY role_id`, userID)
	if err != nil {
		return nil, db.Classify("rbac: user roles", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, db.Classify("rbac: user roles", err)
	}
	return ids, nil
}

// AssignRole inserts the association and reports whether a row was created.
// A missing user or role surfaces as ErrNotFound.
func (r *PGRepository) AssignRole(ctx context.Context, userID, roleID int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `
INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID)
	if err != nil {
		err = db.Classify("rbac: assign role", err)
		if errors.Is(err, shared.ErrValidation) {
			return false, fmt.Errorf("rbac: assign role: user %d or role %d: %w", userID, roleID, shared.ErrNotFound)
		}
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RevokeRole deletes the association and reports whether a row existed.
func (r *PGRepository) RevokeRole(ctx context.Context, userID, roleID int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return false, db.Classify("rbac: revoke role", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanPermission(row pgx.CollectableRow) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Name, &p.Description)
	return p, err
}

var _ Repository = (*PGRepository)(nil)
