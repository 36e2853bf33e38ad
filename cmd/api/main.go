package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"divyashree/internal/audit"
	"divyashree/internal/auth"
	"divyashree/internal/config"
	"divyashree/internal/database"
	"divyashree/internal/handler"
	"divyashree/internal/inventoryfeed"
	"divyashree/internal/notify"
	"divyashree/internal/repository"
	"divyashree/internal/router"
	"divyashree/internal/service"
	"divyashree/internal/tasks"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting DivyaShree API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	dispatcher := tasks.New(tasks.Config{
		Workers:     cfg.Tasks.Workers,
		QueueSize:   cfg.Tasks.QueueSize,
		MaxAttempts: cfg.Tasks.MaxAttempts,
		Backoff:     tasks.DefaultConfig().Backoff,
		TaskTimeout: tasks.DefaultConfig().TaskTimeout,
	}, logger)

	auditStore, closeAudit, err := newAuditStore(ctx, cfg.Audit, pool, logger)
	if err != nil {
		return err
	}
	recorder := audit.NewRecorder(auditStore, dispatcher, logger)

	notifier, err := notify.New(cfg.SMTP, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	feeds := newFeedLoader(ctx, cfg.S3, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	reviewRepo := repository.NewReviewRepository(pool, logger)
	permissionRepo := repository.NewPermissionRepository(pool, logger)

	// Initialize services
	authService := service.NewAuthService(userRepo, tokens, cfg.Auth.BcryptCost, logger)
	userService := service.NewUserService(userRepo, cartRepo, productRepo, logger)
	productService := service.NewProductService(productRepo, recorder, logger)
	inventoryService := service.NewInventoryService(productRepo, feeds, recorder, logger)
	reviewService := service.NewReviewService(reviewRepo, productRepo, orderRepo, userRepo, dispatcher, recorder, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, cartRepo, notifier, dispatcher, recorder, logger)
	adminService := service.NewAdminService(userRepo, recorder, logger)
	permissionService := service.NewPermissionService(permissionRepo, recorder, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Health:    handler.NewHealthHandler(pool, dispatcher, logger),
		Auth:      handler.NewAuthHandler(authService, logger),
		Product:   handler.NewProductHandler(productService, logger),
		Inventory: handler.NewInventoryHandler(inventoryService, logger),
		Review:    handler.NewReviewHandler(reviewService, logger),
		User:      handler.NewUserHandler(userService, logger),
		Order:     handler.NewOrderHandler(orderService, logger),
		Admin:     handler.NewAdminHandler(adminService, permissionService, logger),
	}

	// Initialize router
	mux := router.New(handlers, router.Deps{
		Tokens:      tokens,
		Users:       authService,
		Permissions: permissionService,
		FrontendURL: cfg.Server.FrontendURL,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		// Pending notifications and audit records drain before the pool closes.
		if err := dispatcher.Close(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("task dispatcher did not drain")
		}
		if err := closeAudit(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to close audit store")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	stats := dispatcher.Stats()
	logger.Info().
		Uint64("tasks_succeeded", stats.Succeeded).
		Uint64("tasks_dead_lettered", stats.DeadLettered).
		Msg("server shutdown completed")
	return nil
}

// newAuditStore keeps audit records in PostgreSQL unless a MongoDB URI is
// configured. The returned func releases the store.
func newAuditStore(ctx context.Context, cfg config.AuditConfig, pool *pgxpool.Pool, logger zerolog.Logger) (audit.Store, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if cfg.MongoURI == "" {
		logger.Info().Msg("audit records stored in PostgreSQL")
		return audit.NewPostgresStore(pool, logger), noop, nil
	}

	store, err := audit.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to initialize audit store: %w", err)
	}
	logger.Info().Str("database", cfg.MongoDatabase).Msg("audit records stored in MongoDB")
	return store, store.Close, nil
}

// newFeedLoader reads inventory feeds from S3 when enabled, falling back to
// the local directory.
func newFeedLoader(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) inventoryfeed.Loader {
	fileLoader := inventoryfeed.NewFileLoader(cfg.LocalDir, logger)
	if !cfg.Enabled {
		logger.Info().Str("dir", cfg.LocalDir).Msg("using local file system for inventory feeds (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := inventoryfeed.NewS3Loader(ctx, cfg.Bucket, cfg.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}
	return inventoryfeed.NewFallbackLoader(s3Loader, fileLoader, cfg.Prefix, true, logger)
}
