package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/litex-portal/litex/internal/app"
	"github.com/litex-portal/litex/internal/companies"
	"github.com/litex-portal/litex/internal/imports"
	"github.com/litex-portal/litex/internal/jobs"
	"github.com/litex-portal/litex/internal/platform/db"
	"github.com/litex-portal/litex/internal/tasks"
	"github.com/litex-portal/litex/internal/users"
)

type emailResolver struct {
	users *users.Service
}

func (r emailResolver) EmailForUser(ctx context.Context, userID int64) (string, error) {
	user, err := r.users.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

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

	usersService := users.NewService(users.NewRepository(pool))

	importService := imports.NewService(
		companies.NewRepository(pool),
		tasks.NewRepository(pool),
		imports.NewPGRunStore(pool),
		logger,
	)

	bmdTask, err := jobs.NewImportBMDTask()
	if err != nil {
		logger.Error("build bmd task", slog.Any("error", err))
		os.Exit(1)
	}
	finmaticsTask, err := jobs.NewImportFinmaticsTask()
	if err != nil {
		logger.Error("build finmatics task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: jobs.HandleSendEmail(emailResolver{users: usersService}, logger)},
			{Type: jobs.TaskTypeImportBMD, Handler: imports.HandleBMDTask(importService, cfg.ImportBMDPath, logger)},
			{Type: jobs.TaskTypeImportFinmatics, Handler: imports.HandleFinmaticsTask(importService, cfg.ImportFinmaticsPath, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ImportBMDCron, Task: bmdTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.ImportFinmaticsCron, Task: finmaticsTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
