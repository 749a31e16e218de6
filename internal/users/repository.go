package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/orangethewell/orangethewell-web/internal/platform/db"
)

// Repository is the identity store contract.
type Repository interface {
	Insert(ctx context.Context, row Row) (Row, error)
	Get(ctx context.Context, id int64) (Row, error)
	List(ctx context.Context) ([]Row, error)
	Update(ctx context.Context, row Row) (Row, error)
	Delete(ctx context.Context, id int64) (Row, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	q db.Querier
}

// NewRepository constructs a PGRepository.
func NewRepository(q db.Querier) *PGRepository {
	return &PGRepository{q: q}
}

const userColumns = `id, username, email, password_hash, created_at, updated_at`

// Insert stores a new user. Duplicate username or email yields ErrConflict.
func (r *PGRepository) Insert(ctx context.Context, row Row) (Row, error) {
	return r.one(ctx, "users: insert", `
INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3)
RETURNING `+userColumns, row.Username, row.Email, row.PasswordHash)
}

// Get fetches a user by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Row, error) {
	return r.one(ctx, fmt.Sprintf("users: user %d", id), `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// List returns every user ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]Row, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, db.Classify("users: list", err)
	}
	out, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		return nil, db.Classify("users: list", err)
	}
	return out, nil
}

// Update rewrites the mutable columns and refreshes updated_at.
func (r *PGRepository) Update(ctx context.Context, row Row) (Row, error) {
	return r.one(ctx, fmt.Sprintf("users: update %d", row.ID), `
UPDATE users SET username = $2, email = $3, password_hash = $4, updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns, row.ID, row.Username, row.Email, row.PasswordHash)
}

// Delete removes a user and returns the deleted row. Roles and notifications
// cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) (Row, error) {
	return r.one(ctx, fmt.Sprintf("users: delete %d", id), `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id)
}

func (r *PGRepository) one(ctx context.Context, op, sql string, args ...any) (Row, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return Row{}, db.Classify(op, err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, scanRow)
	if err != nil {
		return Row{}, db.Classify(op, err)
	}
	return row, nil
}

func scanRow(row pgx.CollectableRow) (Row, error) {
	var u Row
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

var _ Repository = (*PGRepository)(nil)
