package notifications

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/orangethewell/orangethewell-web/internal/auth"
	"github.com/orangethewell/orangethewell-web/internal/shared"
)

const sweepTimeout = 30 * time.Second

// Service implements the notification channel.
type Service struct {
	repo   RepositoryPort
	policy ExpiryPolicy
	guard  *auth.Guard
	logger *slog.Logger
	now    func() time.Time
	sweeps singleflight.Group
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, policy ExpiryPolicy, guard *auth.Guard, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		policy: policy,
		guard:  guard,
		logger: logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Push stores an unread notification for recipientID and then sweeps expired
// ones. Only the insert can fail the call.
func (s *Service) Push(ctx context.Context, recipientID int64, title, description string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.Validationf("notification title required")
	}
	n, err := s.repo.Insert(ctx, Notification{
		Title:       title,
		Description: strings.TrimSpace(description),
		RecipientID: recipientID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return err
	}
	s.logger.Debug("notifications: pushed", slog.Int64("id", n.ID), slog.Int64("recipient_id", recipientID))
	s.sweepAfter(ctx, "push")
	return nil
}

// ListFor returns every notification of userID and marks them read in the
// same transaction. The returned rows carry the read flag as it was before
// this call. Nothing is returned unless the transaction commits.
func (s *Service) ListFor(ctx context.Context, userID int64) ([]Notification, error) {
	var list []Notification
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		list, err = tx.ListByRecipient(ctx, userID)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(list))
		for _, n := range list {
			ids = append(ids, n.ID)
		}
		return tx.MarkRead(ctx, userID, ids)
	})
	if err != nil {
		return nil, err
	}
	s.sweepAfter(ctx, "list")
	if list == nil {
		list = []Notification{}
	}
	return list, nil
}

// ListMine lists the acting user's own notifications.
func (s *Service) ListMine(ctx context.Context, actor auth.Identity) ([]Notification, error) {
	userID, err := s.guard.RequireAuthenticated(actor)
	if err != nil {
		return nil, err
	}
	return s.ListFor(ctx, userID)
}

// Sweep deletes every read notification older than the retention. Concurrent
// callers share one store round trip, which runs detached from the caller's
// cancellation and bounded by sweepTimeout.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	v, err, _ := s.sweeps.Do("sweep", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sweepTimeout)
		defer cancel()
		return s.repo.DeleteExpired(ctx, s.policy.Cutoff(s.now()))
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (s *Service) sweepAfter(ctx context.Context, trigger string) {
	deleted, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Warn("notifications: sweep failed", slog.String("trigger", trigger), slog.Any("error", err))
		return
	}
	if deleted > 0 {
		s.logger.Info("notifications: swept", slog.String("trigger", trigger), slog.Int64("deleted", deleted))
	}
}
