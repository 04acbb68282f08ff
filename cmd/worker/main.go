package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/arbor-commerce/arbor/internal/app"
	"github.com/arbor-commerce/arbor/internal/orders"
	"github.com/arbor-commerce/arbor/internal/platform/db"
	"github.com/arbor-commerce/arbor/internal/shared"
	"github.com/arbor-commerce/arbor/jobs"
	"github.com/arbor-commerce/arbor/report"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var mailer jobs.Mailer
	if cfg.SMTPAddr != "" {
		mailer = jobs.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		mailer = jobs.LogMailer{Logger: logger}
	}

	// The worker only loads orders for invoice rendering, so the checkout
	// collaborators stay nil.
	ordersService := orders.NewService(orders.NewRepository(pool), nil, nil, nil, nil, nil, nil, logger)

	metrics := jobs.NewMetrics(nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Metrics:   metrics,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: jobs.NewSendEmailHandler(mailer)},
			{Type: jobs.TaskTypeRenderInvoice, Handler: jobs.NewRenderInvoiceHandler(jobs.InvoiceConfig{
				Orders:    ordersService,
				Renderer:  report.NewClient(cfg.GotenbergURL),
				OutputDir: cfg.InvoiceOutDir,
				Logger:    logger,
			})},
			{Type: jobs.TaskTypeCleanup, Handler: jobs.NewCleanupHandler(shared.NewIdempotencyStore(pool), logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 3 * * *", Task: jobs.NewCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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
