package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/orangethewell/orangethewell-web/internal/jobs"
)

// Sweeper deletes expired notifications and reports how many were removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// NotificationSweepJob runs the notification expiry sweep on a schedule so an
// idle site still bounds its read backlog.
type NotificationSweepJob struct {
	Sweeper Sweeper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewNotificationSweepJob initialises the sweep handler.
func NewNotificationSweepJob(sweeper Sweeper, logger *slog.Logger, metrics *jobmetrics.Metrics) *NotificationSweepJob {
	return &NotificationSweepJob{Sweeper: sweeper, Logger: logger, Metrics: metrics}
}

// Handle executes one sweep.
func (j *NotificationSweepJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Sweeper == nil {
		return errors.New("notification sweep: handler not configured")
	}
	var payload NotificationSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	start := time.Now()
	tracker := j.metrics().Track(TaskNotificationSweep)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger()
	deleted, err := j.Sweeper.Sweep(ctx)
	if err != nil {
		logger.Error("sweep failed", slog.Any("error", err))
		return err
	}
	j.metrics().AddSwept(deleted)
	logger.Info("completed notification sweep",
		slog.Int64("deleted", deleted),
		slog.Time("scheduled_for", payload.ScheduledFor),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *NotificationSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskNotificationSweep))
	}
	return slog.Default().With(slog.String("job", TaskNotificationSweep))
}

func (j *NotificationSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
