package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/orangethewell/orangethewell-web/internal/app"
	"github.com/orangethewell/orangethewell-web/internal/auth"
	jobmetrics "github.com/orangethewell/orangethewell-web/internal/jobs"
	"github.com/orangethewell/orangethewell-web/internal/notifications"
	"github.com/orangethewell/orangethewell-web/internal/observability"
	"github.com/orangethewell/orangethewell-web/internal/platform/db"
	"github.com/orangethewell/orangethewell-web/internal/rbac"
	"github.com/orangethewell/orangethewell-web/internal/roles"
	"github.com/orangethewell/orangethewell-web/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.Postgres())
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// The sweep never consults permissions; the guard only satisfies the
	// service constructor.
	resolver := rbac.NewResolver(rbac.NewRepository(pool), roles.NewRepository(pool))
	notificationService := notifications.NewService(
		notifications.NewRepository(pool),
		notifications.ExpiryPolicy{Retention: cfg.NotificationRetention},
		auth.NewGuard(resolver, logger),
		logger,
	)

	metrics := observability.NewMetrics()
	sweepJob := jobs.NewNotificationSweepJob(notificationService, logger, jobmetrics.NewMetrics(metrics.Registerer()))

	sweepTask, err := jobs.NewNotificationSweepTask(time.Time{})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cfg.Redis().Asynq(),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskNotificationSweep, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.NotificationSweepCron, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
