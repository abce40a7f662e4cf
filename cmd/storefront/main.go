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

	"github.com/binaragam/storefront/internal/apiclient"
	"github.com/binaragam/storefront/internal/app"
	"github.com/binaragam/storefront/internal/auth"
	"github.com/binaragam/storefront/internal/catalog"
	"github.com/binaragam/storefront/internal/observability"
	"github.com/binaragam/storefront/internal/platform/cache"
	"github.com/binaragam/storefront/internal/rbac"
	"github.com/binaragam/storefront/internal/session"
	"github.com/binaragam/storefront/internal/shared"
	"github.com/binaragam/storefront/internal/storefront"
	storefronthttp "github.com/binaragam/storefront/internal/storefront/http"
	"github.com/binaragam/storefront/internal/users"
	"github.com/binaragam/storefront/internal/view"
	"github.com/binaragam/storefront/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "br_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	backend := apiclient.New(cfg.BackendURL,
		apiclient.WithTimeout(cfg.BackendTimeout),
		apiclient.WithObserver(metrics),
		apiclient.WithLogger(logger),
	)
	catalogService := catalog.NewService(backend)
	usersService := users.NewService(users.NewBackendRepository(backend))
	authService := auth.NewService(backend)

	newStore := func(ctx context.Context, visitorID string, fresh bool) (*session.Store, error) {
		storage := session.NewRedisStorage(redisClient, visitorID, cfg.SessionTTL)
		opts := []session.Option{session.WithLogger(logger)}
		if fresh {
			opts = append(opts, session.SkipLoad())
		}
		return session.NewStore(ctx, storage, authService, opts...)
	}
	registry := storefront.NewRegistry(newStore, storefront.Backends{
		Catalog: catalogService,
		Users:   usersService,
	}, cfg.WorkspaceIdleTTL, logger)
	metrics.TrackWorkspaces(registry.Len)
	go registry.Run(ctx)

	queueOpts := cache.QueueOptions(redisClient)
	jobClient := jobs.NewClient(queueOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(queueOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)
	storefrontHandler := storefronthttp.NewHandler(storefronthttp.Config{
		Logger:    logger,
		Templates: templates,
		CSRF:      csrfManager,
		Registry:  registry,
		Auth:      authHandler,
		Contact:   jobClient,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		StorefrontHandler: storefrontHandler,
		RBACMiddleware:    rbac.Middleware{Logger: logger, Denied: storefrontHandler.Forbidden},
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
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
