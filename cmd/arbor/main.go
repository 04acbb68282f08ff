package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/arbor-commerce/arbor/internal/admins"
	"github.com/arbor-commerce/arbor/internal/app"
	"github.com/arbor-commerce/arbor/internal/auth"
	"github.com/arbor-commerce/arbor/internal/blog"
	"github.com/arbor-commerce/arbor/internal/cart"
	"github.com/arbor-commerce/arbor/internal/catalog"
	"github.com/arbor-commerce/arbor/internal/observability"
	"github.com/arbor-commerce/arbor/internal/orders"
	"github.com/arbor-commerce/arbor/internal/otp"
	"github.com/arbor-commerce/arbor/internal/partners"
	"github.com/arbor-commerce/arbor/internal/platform/cache"
	"github.com/arbor-commerce/arbor/internal/platform/db"
	"github.com/arbor-commerce/arbor/internal/ratelimit"
	"github.com/arbor-commerce/arbor/internal/rbac"
	"github.com/arbor-commerce/arbor/internal/shared"
	"github.com/arbor-commerce/arbor/jobs"
	"github.com/arbor-commerce/arbor/report"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	metrics := observability.NewMetrics()

	guard := ratelimit.NewGuard(ratelimit.NewRedisStore(redisClient), logger)
	guard.OnDeny = metrics.RateLimitDenied

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("init token manager", slog.Any("error", err))
		os.Exit(1)
	}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService)

	rbacMiddleware := rbac.Middleware{
		Logger:           logger,
		SuperAdminBypass: true,
		OnDeny:           metrics.AuthDenied,
	}

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	adminsService := admins.NewService(admins.NewRepository(dbpool), auditLogger)
	adminsHandler := admins.NewHandler(logger, adminsService, rbacMiddleware)

	otpService := otp.NewService(authRepo, adminsService, otp.NewStore(redisClient), jobsClient, logger)
	otpHandler := otp.NewHandler(logger, otpService, validator.New())

	catalogService := catalog.NewService(
		catalog.NewProductRepository(dbpool),
		catalog.NewCategoryRepository(dbpool),
		cfg.CDNBaseURL,
		logger,
	)
	catalogHandler := catalog.NewHandler(logger, catalogService, rbacMiddleware)

	blogService := blog.NewService(blog.NewRepository(dbpool))
	blogHandler := blog.NewHandler(logger, blogService, rbacMiddleware)

	cartService := cart.NewService(cart.NewStore(redisClient), catalogService)
	cartHandler := cart.NewHandler(logger, cartService)

	partnersService := partners.NewService(partners.NewRepository(dbpool), logger)
	partnersHandler := partners.NewHandler(logger, partnersService, rbacMiddleware)

	ordersService := orders.NewService(
		orders.NewRepository(dbpool),
		cartService,
		idempotencyStore,
		jobsClient,
		jobsClient,
		partnersService,
		auditLogger,
		logger,
	)
	ordersHandler := orders.NewHandler(logger, ordersService, rbacMiddleware)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, ordersService, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Guard:           guard,
		AuthService:     authService,
		RBAC:            rbacMiddleware,
		AuthHandler:     authHandler,
		OTPHandler:      otpHandler,
		AdminsHandler:   adminsHandler,
		CatalogHandler:  catalogHandler,
		BlogHandler:     blogHandler,
		CartHandler:     cartHandler,
		OrdersHandler:   ordersHandler,
		PartnersHandler: partnersHandler,
		ReportHandler:   reportHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
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
