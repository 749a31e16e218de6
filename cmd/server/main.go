package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/orangethewell/orangethewell-web/internal/app"
	"github.com/orangethewell/orangethewell-web/internal/auth"
	"github.com/orangethewell/orangethewell-web/internal/notifications"
	"github.com/orangethewell/orangethewell-web/internal/observability"
	"github.com/orangethewell/orangethewell-web/internal/platform/cache"
	"github.com/orangethewell/orangethewell-web/internal/platform/db"
	"github.com/orangethewell/orangethewell-web/internal/rbac"
	"github.com/orangethewell/orangethewell-web/internal/roles"
	"github.com/orangethewell/orangethewell-web/internal/shared"
	"github.com/orangethewell/orangethewell-web/internal/users"
	"github.com/orangethewell/orangethewell-web/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.Postgres())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if err := db.Migrate(ctx, dbpool); err != nil {
		logger.Error("migrate schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	hasher, err := auth.NewHasher(cfg.SecretKey)
	if err != nil {
		logger.Error("init password hasher", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "site_session", cfg.SecretKey, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()

	rbacRepo := rbac.NewRepository(dbpool)
	rolesRepo := roles.NewRepository(dbpool)
	resolver := rbac.NewResolver(rbacRepo, rolesRepo)
	guard := auth.NewGuard(resolver, logger)

	authService := auth.NewService(auth.NewRepository(dbpool), hasher, sessionManager, logger)
	authService.SetObserver(metrics)
	rbacService := rbac.NewService(rbacRepo, resolver, guard, logger)
	rolesService := roles.NewService(rolesRepo, rbacRepo, guard, logger)
	notificationService := notifications.NewService(
		notifications.NewRepository(dbpool),
		notifications.ExpiryPolicy{Retention: cfg.NotificationRetention},
		guard,
		logger,
	)
	usersService := users.NewService(users.NewRepository(dbpool), hasher, guard, notificationService, logger)

	inspector := asynq.NewInspector(cfg.Redis().Asynq())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("asynq inspector close", slog.Any("error", err))
		}
	}()

	jobsClient := jobs.NewClient(cfg.Redis().Asynq())
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		Guard:                guard,
		RBACMiddleware:       rbac.Middleware{Guard: guard, Logger: logger},
		AuthHandler:          auth.NewHandler(logger, authService, csrfManager),
		UsersHandler:         users.NewHandler(logger, usersService, rolesService, rbacService),
		RolesHandler:         roles.NewHandler(logger, rolesService),
		PermissionsHandler:   rbac.NewPermissionsHandler(logger, rbacService),
		NotificationsHandler: notifications.NewHandler(logger, notificationService),
		JobHandler:           jobs.NewHandler(inspector, jobsClient, logger),
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
