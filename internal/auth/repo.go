package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangethewell/orangethewell-web/internal/platform/db"
	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// Account is the credential view of a user used during login.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
}

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	var acc Account
	err := r.pool.QueryRow(ctx, `SELECT id, email, password_hash FROM users WHERE email = $1`, shared.NormalizeEmail(email)).
		Scan(&acc.ID, &acc.Email, &acc.PasswordHash)
	if err != nil {
		return Account{}, db.Classify("auth: find by email", err)
	}
	return acc, nil
}

var _ Repository = (*PGRepository)(nil)
