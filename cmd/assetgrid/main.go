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

	"github.com/assetgrid/assetgrid/internal/app"
	"github.com/assetgrid/assetgrid/internal/assets"
	"github.com/assetgrid/assetgrid/internal/authn"
	"github.com/assetgrid/assetgrid/internal/licenses"
	"github.com/assetgrid/assetgrid/internal/observability"
	"github.com/assetgrid/assetgrid/internal/platform/cache"
	"github.com/assetgrid/assetgrid/internal/platform/db"
	"github.com/assetgrid/assetgrid/internal/rbac"
	"github.com/assetgrid/assetgrid/internal/shared"
	"github.com/assetgrid/assetgrid/internal/users"
	"github.com/assetgrid/assetgrid/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	tokens, err := authn.NewTokenManager(authn.TokenConfig{
		Secret:   cfg.TokenSecret,
		Issuer:   cfg.TokenIssuer,
		Audience: cfg.TokenAudience,
		TTL:      cfg.TokenTTL,
		Leeway:   cfg.TokenLeeway,
	})
	if err != nil {
		logger.Error("init token manager", slog.Any("error", err))
		os.Exit(1)
	}

	revocations := authn.NewRevocationList(redisClient)
	authRepo := authn.NewRepository(pool)
	authService := authn.NewService(authRepo, tokens, revocations)

	auditLogger := shared.NewAuditLogger(pool)
	authHandler := authn.NewHandler(logger, authService, auditLogger)

	metrics := observability.NewMetrics()

	rbacStore := rbac.NewPGStore(pool)
	rbacService := rbac.NewService(rbacStore)
	rbacMiddleware := rbac.Middleware{
		Authn:         authService,
		Resolver:      rbac.NewResolver(rbacStore),
		Logger:        logger,
		Metrics:       metrics,
		Audit:         auditLogger,
		BypassSubject: cfg.AuthBypassSubject,
	}
	rbacHandler := rbac.NewHandler(logger, rbacService, rbacMiddleware)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, rbacService, rbacMiddleware)

	assetsRepo := assets.NewRepository(pool)
	assetsService := assets.NewService(assetsRepo)
	assetsHandler := assets.NewHandler(logger, assetsService, rbacMiddleware)

	licensesRepo := licenses.NewRepository(pool)
	licensesHandler := licenses.NewHandler(logger, licensesRepo, rbacMiddleware)

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
		AuthHandler:     authHandler,
		RBACHandler:     rbacHandler,
		UsersHandler:    usersHandler,
		AssetsHandler:   assetsHandler,
		LicensesHandler: licensesHandler,
		JobHandler:      jobHandler,
		RBACMiddleware:  rbacMiddleware,
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
