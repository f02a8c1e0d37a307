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

	"github.com/litex-portal/litex/internal/app"
	"github.com/litex-portal/litex/internal/audit"
	"github.com/litex-portal/litex/internal/auth"
	"github.com/litex-portal/litex/internal/authz"
	"github.com/litex-portal/litex/internal/companies"
	"github.com/litex-portal/litex/internal/documents"
	"github.com/litex-portal/litex/internal/jobs"
	"github.com/litex-portal/litex/internal/notifications"
	"github.com/litex-portal/litex/internal/observability"
	"github.com/litex-portal/litex/internal/platform/cache"
	"github.com/litex-portal/litex/internal/platform/db"
	"github.com/litex-portal/litex/internal/shared"
	"github.com/litex-portal/litex/internal/storage"
	"github.com/litex-portal/litex/internal/tasks"
	"github.com/litex-portal/litex/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Sessions and the permission cache live in Redis, so a failed ping is fatal.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	objectStore, err := storage.NewClient(ctx, storage.Config{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		logger.Error("init object storage", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "litex_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	auditSink := audit.NewPGSink(pool)
	recorder := audit.NewRecorder(auditSink, logger)
	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, recorder)
	identity := auth.IdentityMiddleware(authService, logger)

	authzRepo := authz.NewRepository(pool)
	authzService := authz.NewService(authzRepo)
	resolver := authz.NewResolver(authzRepo)
	gate := authz.NewGate(resolver, logger)
	permCache := authz.NewViewCache(redisClient, resolver, authzService, logger)
	authzHandler := authz.NewHandler(logger, authzService, permCache, gate)

	auditHandler := audit.NewHandler(logger, auditService, gate)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, gate)

	companiesRepo := companies.NewRepository(pool)
	companiesHandler := companies.NewHandler(logger, companiesRepo, gate)

	mailer := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := mailer.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	notificationsRepo := notifications.NewRepository(pool)
	notificationsService := notifications.NewService(notificationsRepo, mailer, logger)
	notificationsHandler := notifications.NewHandler(logger, notificationsService, gate)

	tasksRepo := tasks.NewRepository(pool)
	tasksService := tasks.NewService(tasksRepo, notificationsService)
	tasksHandler := tasks.NewHandler(logger, tasksService, gate)

	documentsRepo := documents.NewRepository(pool)
	documentsService := documents.NewService(documentsRepo, objectStore, notificationsService, recorder)
	documentsHandler := documents.NewHandler(logger, documentsService, gate)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		Identity:             identity,
		Recorder:             recorder,
		AuthHandler:          authHandler,
		AuthzHandler:         authzHandler,
		Gate:                 gate,
		UsersHandler:         usersHandler,
		CompaniesHandler:     companiesHandler,
		TasksHandler:         tasksHandler,
		DocumentsHandler:     documentsHandler,
		NotificationsHandler: notificationsHandler,
		AuditHandler:         auditHandler,
		JobHandler:           jobHandler,
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
