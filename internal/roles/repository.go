package roles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangethewell/orangethewell-web/internal/platform/db"
	"github.com/orangethewell/orangethewell-web/internal/rbac"
)

// RepositoryPort is the storage contract of the role engine.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	RolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error)
}

// TxRepository exposes the statements run inside a role transaction.
type TxRepository interface {
	InsertRole(ctx context.Context, name, description string) (Role, error)
	LockRole(ctx context.Context, id int64) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) (Role, error)
	RolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error)
	AttachPermission(ctx context.Context, roleID, permissionID int64) error
	DetachPermission(ctx context.Context, roleID, permissionID int64) error
}

// Repository implements RepositoryPort on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	queries
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, queries: queries{q: pool}}
}

// WithTx runs fn in a RepeatableRead transaction. fn's error rolls back.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, queries{q: tx})
	})
}

// ListRoles returns all roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, db.Classify("roles: list", err)
	}
	out, err := pgx.CollectRows(rows, scanRole)
	if err != nil {
		return nil, db.Classify("roles: list", err)
	}
	return out, nil
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	return r.getRole(ctx, `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id)
}

type queries struct {
	q db.Querier
}

func (q queries) InsertRole(ctx context.Context, name, description string) (Role, error) {
	rows, err := q.q.Query(ctx, `
INSERT INTO roles (name, description) VALUES ($1, $2)
RETURNING id, name, description, created_at, updated_at`, name, description)
	if err != nil {
		return Role{}, db.Classify("roles: insert", err)
	}
	role, err := pgx.CollectExactlyOneRow(rows, scanRole)
	if err != nil {
		return Role{}, db.Classify("roles: insert", err)
	}
	return role, nil
}

func (q queries) LockRole(ctx context.Context, id int64) (Role, error) {
	return q.getRole(ctx, `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1 FOR UPDATE`, id)
}

func (q queries) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	return q.getRole(ctx, `
UPDATE roles SET name = $2, description = $3, updated_at = NOW() WHERE id = $1
RETURNING id, name, description, created_at, updated_at`, id, name, description)
}

func (q queries) DeleteRole(ctx context.Context, id int64) (Role, error) {
	return q.getRole(ctx, `
DELETE FROM roles WHERE id = $1
RETURNING id, name, description, created_at, updated_at`, id)
}

func (q queries) RolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := q.q.Query(ctx, `SELECT permission_id FROM role_permissions WHERE role_id = $1 ORDER BY permission_id`, roleID)
	if err != nil {
		return nil, db.Classify("roles: permission ids", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, db.Classify("roles: permission ids", err)
	}
	return ids, nil
}

func (q queries) AttachPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := q.q.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, permissionID)
	return db.Classify(fmt.Sprintf("roles: attach permission %d", permissionID), err)
}

func (q queries) DetachPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := q.q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	return db.Classify(fmt.Sprintf("roles: detach permission %d", permissionID), err)
}

func (q queries) getRole(ctx context.Context, sql string, args ...any) (Role, error) {
	rows, err := q.q.Query(ctx, sql, args...)
	if err != nil {
		return Role{}, db.Classify("roles: get", err)
	}
	role, err := pgx.CollectExactlyOneRow(rows, scanRole)
	if err != nil {
		return Role{}, db.Classify(fmt.Sprintf("roles: role %v", args[0]), err)
	}
	return role, nil
}

func scanRole(row pgx.CollectableRow) (Role, error) {
	var r Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

var (
	_ RepositoryPort            = (*Repository)(nil)
	_ TxRepository              = queries{}
	_ rbac.RolePermissionSource = (*Repository)(nil)
)
