// Command migrate-storage copies every document blob from one storage provider
// to another and verifies the copies. It never modifies document records.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"simpledms/internal/config"
	"simpledms/internal/database"
	"simpledms/internal/logging"
	"simpledms/internal/repository/postgres"
	"simpledms/internal/service"
	"simpledms/internal/storage"
)

func main() {
	source := flag.String("source", "", "source storage provider (minio, s3)")
	target := flag.String("target", "", "target storage provider (minio, s3)")
	batchSize := flag.Int("batch-size", 10, "blobs copied per batch")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.Location())
	slog.SetDefault(logger)

	ok, err := run(cfg, logger, *source, *target, *batchSize)
	if err != nil {
		logger.Error("storage migration aborted", "error", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(2)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger, source, target string, batchSize int) (bool, error) {
	if source == "" || target == "" {
		return false, fmt.Errorf("both --source and --target are required")
	}
	if source == target {
		return false, fmt.Errorf("source and target must differ, got %q twice", source)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := storage.New(ctx, source, cfg.Storage)
	if err != nil {
		return false, fmt.Errorf("source provider: %w", err)
	}
	dst, err := storage.New(ctx, target, cfg.Storage)
	if err != nil {
		return false, fmt.Errorf("target provider: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return false, err
	}
	defer db.Close()

	m := service.NewMigrationService(src, dst, postgres.NewDocumentPostgres(db), logger)

	report, err := m.MigrateDocumentFiles(ctx, batchSize)
	if err != nil {
		return false, err
	}
	logger.Info("migration finished",
		"total", report.Total,
		"success", report.Success,
		"failed", report.Failed,
		"failed_keys", report.FailedKeys,
	)

	verify, err := m.VerifyMigration(ctx)
	if err != nil {
		return false, err
	}
	logger.Info("verification finished",
		"total", verify.Total,
		"verified", verify.Verified,
		"missing", verify.Missing,
		"missing_keys", verify.MissingKeys,
	)

	return report.Failed == 0 && verify.Missing == 0, nil
}
