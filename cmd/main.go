package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"helpkart/internal/caching"
	"helpkart/internal/config"
	"helpkart/internal/handlers"
	"helpkart/internal/jobs/background"
	"helpkart/internal/logger"
	"helpkart/internal/middleware"
	"helpkart/internal/repositories"
	"helpkart/internal/services"
	"helpkart/pkg/database"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", os.Getenv("HELPKART_CONFIG"), "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "helpkart")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database.URL, zapLogger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	// Create repositories
	centerRepo := repositories.NewCenterRepo(pool)
	itemRepo := repositories.NewInventoryItemRepo(pool)
	requestRepo := repositories.NewRequestRepo(pool)
	txnRepo := repositories.NewTransactionRepo(pool)

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, zapLogger)

	var store services.SnapshotStore
	if cfg.MinioEnabled() {
		store, err = services.NewMinioSnapshotStore(services.SnapshotStoreOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
			Bucket:    cfg.Minio.Bucket,
			LinkTTL:   cfg.Minio.LinkTTL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize snapshot store: %w", err)
		}
	}

	// Create services
	authSvc := services.NewAuthService(centerRepo, txnRepo, cacheSvc, cfg.Auth.JWTSecret, services.AuthOptions{
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LoginWindow:      cfg.Auth.LoginWindow,
	}, zapLogger)
	inventorySvc := services.NewInventoryService(itemRepo, txnRepo, cacheSvc, zapLogger)
	requestSvc := services.NewRequestService(centerRepo, requestRepo, txnRepo, cacheSvc, zapLogger)
	browseSvc := services.NewBrowseService(centerRepo, itemRepo, requestRepo, zapLogger)
	transactionSvc := services.NewTransactionService(centerRepo, itemRepo, requestRepo, txnRepo, cacheSvc, zapLogger)
	dashboardSvc := services.NewDashboardService(centerRepo, itemRepo, requestRepo, txnRepo, cacheSvc, cfg.Dashboard.CacheTTL, zapLogger)
	exportSvc := services.NewExportService(centerRepo, itemRepo, requestRepo, txnRepo, store, cfg.Export.Retain, zapLogger)

	scheduler, err := background.NewJobScheduler(dashboardSvc, exportSvc, background.Options{
		RefreshInterval: cfg.Dashboard.RefreshInterval,
		ExportInterval:  cfg.Export.Interval,
		ExportDir:       cfg.Export.Dir,
		ExportFormat:    cfg.Export.Format,
	}, zapLogger)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.ErrorHandler(zapLogger)

	// Global middleware
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(zapLogger))
	e.Use(echoMiddleware.CORS())

	handlers.RegisterRoutes(e, &handlers.Handlers{
		Auth:         handlers.NewAuthHandlers(authSvc, cfg.Auth.SecureCookie),
		Inventory:    handlers.NewInventoryHandlers(inventorySvc),
		Requests:     handlers.NewRequestHandlers(requestSvc),
		Browse:       handlers.NewBrowseHandlers(browseSvc),
		Transactions: handlers.NewTransactionHandlers(transactionSvc),
		Dashboard:    handlers.NewDashboardHandlers(dashboardSvc),
		Health:       handlers.NewHealthHandlers(pool, cacheSvc, version),
	}, middleware.SessionMiddleware(authSvc))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	scheduler.Start()

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("HelpKart server starting",
			zap.String("version", version),
			zap.Int("port", cfg.Server.Port),
			zap.String("environment", cfg.Environment),
			zap.Bool("minio", store != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			_ = scheduler.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		zapLogger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	if err := scheduler.Stop(); err != nil {
		zapLogger.Error("Failed to stop job scheduler", zap.Error(err))
	}
	zapLogger.Info("Server stopped")
	return nil
}
