package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"simpledms/docs"
	"simpledms/internal/config"
	"simpledms/internal/database"
	"simpledms/internal/database/migration"
	handlers "simpledms/internal/http/handler"
	"simpledms/internal/http/middleware"
	"simpledms/internal/logging"
	"simpledms/internal/otel"
	"simpledms/internal/repository/postgres"
	"simpledms/internal/service"
	"simpledms/internal/shortener"
	"simpledms/internal/storage"
	"simpledms/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// @title       SimpleDMS API
// @version     1.0
// @description Document upload, metadata, share links and storage maintenance.
// @BasePath    /
func main() {
	cfg := config.Load()
	loc := cfg.Location()
	logger := logging.New(cfg.LogLevel, loc)
	slog.SetDefault(logger)

	if err := run(cfg, loc, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, loc *time.Location, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return err
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.Up(cfg.Database, logger); err != nil {
		return err
	}

	store, err := storage.New(ctx, cfg.Storage.Provider, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("storage provider ready", "provider", cfg.Storage.Provider)

	docRepo := postgres.NewDocumentPostgres(db)
	shareRepo := postgres.NewSharePostgres(db)
	shareCache := service.NewShareCache(cfg.Share.CacheSize, config.Seconds(cfg.Share.CacheTTLSec))

	var short shortener.Shortener
	if cfg.Shortener.Enabled {
		short = shortener.NewIsGd(cfg.Shortener.Endpoint, config.Seconds(cfg.Shortener.TimeoutSec))
	}

	docSvc := service.NewDocumentService(store, docRepo, shareRepo, shareCache, logger,
		service.WithDownloadURLExpiry(config.Seconds(cfg.DownloadURLExpiry)))
	shareSvc := service.NewShareService(docSvc, store, shareRepo, short, shareCache, logger)
	catalogSvc := service.NewCatalogService(postgres.NewCategoryPostgres(db), postgres.NewTagPostgres(db))

	sweeper := worker.New(
		config.Seconds(cfg.Sweep.IntervalSec),
		config.Seconds(cfg.Sweep.RetryBackoffSec),
		logger,
		worker.Task{Name: "orphaned_documents", Run: docSvc.CleanupOrphanedDocuments},
		worker.Task{Name: "expired_shares", Run: shareSvc.CleanupExpiredShares},
	)
	if cfg.Sweep.Enabled {
		sweeper.Start(ctx)
	}

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.LoggerWithWriter(os.Stdout, loc))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, db, handlers.Services{
		Documents:        docSvc,
		Shares:           shareSvc,
		Catalog:          catalogSvc,
		Sweeper:          sweeper,
		DefaultOwner:     cfg.DefaultOwnerID,
		DefaultShareDays: cfg.Share.DefaultExpiryDays,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}
		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}
		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err = <-errCh:
		sweeper.Stop()
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown", "error", err)
	}
	return nil
}
