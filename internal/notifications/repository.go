package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orangethewell/orangethewell-web/internal/platform/db"
)

// RepositoryPort is the notification store contract.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Insert(ctx context.Context, n Notification) (Notification, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// TxRepository exposes the statements run while listing a recipient's inbox.
type TxRepository interface {
	ListByRecipient(ctx context.Context, recipientID int64) ([]Notification, error)
	MarkRead(ctx context.Context, recipientID int64, ids []int64) error
}

// Repository implements RepositoryPort on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn in a RepeatableRead transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, txQueries{q: tx})
	})
}

// Insert stores an unread notification. A missing recipient yields
// ErrValidation.
func (r *Repository) Insert(ctx context.Context, n Notification) (Notification, error) {
	err := r.pool.QueryRow(ctx, `
INSERT INTO notifications (title, description, recipient_id, created_at, read)
VALUES ($1, NULLIF($2, ''), $3, $4, FALSE)
RETURNING id, created_at`, n.Title, n.Description, n.RecipientID, n.CreatedAt).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return Notification{}, db.Classify(fmt.Sprintf("notifications: push to user %d", n.RecipientID), err)
	}
	n.Read = false
	return n, nil
}

// DeleteExpired removes read notifications created at or before cutoff.
func (r *Repository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE read AND created_at <= $1`, cutoff)
	if err != nil {
		return 0, db.Classify("notifications: sweep", err)
	}
	return tag.RowsAffected(), nil
}

type txQueries struct {
	q db.Querier
}

func (t txQueries) ListByRecipient(ctx context.Context, recipientID int64) ([]Notification, error) {
	rows, err := t.q.Query(ctx, `
SELECT id, title, COALESCE(description, ''), recipient_id, created_at, read
FROM notifications WHERE recipient_id = $1
ORDER BY created_at DESC, id DESC`, recipientID)
	if err != nil {
		return nil, db.Classify("notifications: list", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notification, error) {
		var n Notification
		err := row.Scan(&n.ID, &n.Title, &n.Description, &n.RecipientID, &n.CreatedAt, &n.Read)
		return n, err
	})
	if err != nil {
		return nil, db.Classify("notifications: list", err)
	}
	return out, nil
}

func (t txQueries) MarkRead(ctx context.Context, recipientID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := t.q.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND id = ANY($2)`, recipientID, ids)
	return db.Classify("notifications: mark read", err)
}

var _ RepositoryPort = (*Repository)(nil)
