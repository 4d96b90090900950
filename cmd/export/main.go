// Command export writes a single snapshot of the store to disk and, when
// MinIO is configured, uploads it and prints a download link.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"helpkart/internal/config"
	"helpkart/internal/logger"
	"helpkart/internal/repositories"
	"helpkart/internal/services"
	"helpkart/pkg/database"
)

func main() {
	configPath := flag.String("config", os.Getenv("HELPKART_CONFIG"), "path to a TOML config file")
	dir := flag.String("dir", "", "output directory (defaults to export.dir)")
	format := flag.String("format", "", "json, xlsx or pdf (defaults to export.format)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *dir != "" {
		cfg.Export.Dir = *dir
	}
	if *format != "" {
		cfg.Export.Format = *format
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "helpkart-export")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	result, err := export(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Export failed", zap.Error(err))
	}
	fmt.Println(result.Path)
	if result.Stored != nil {
		fmt.Printf("%s (expires %s)\n", result.Stored.DownloadURL, result.Stored.ExpiresAt.Format(time.RFC3339))
	}
}

func export(cfg *config.Config, zapLogger *zap.Logger) (*services.ExportResult, error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database.URL, zapLogger)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

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
			return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
		}
	}

	exportSvc := services.NewExportService(
		repositories.NewCenterRepo(pool),
		repositories.NewInventoryItemRepo(pool),
		repositories.NewRequestRepo(pool),
		repositories.NewTransactionRepo(pool),
		store,
		cfg.Export.Retain,
		zapLogger,
	)
	return exportSvc.Export(ctx, cfg.Export.Dir, cfg.Export.Format)
}
