package migration

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"simpledms/internal/config"
	"simpledms/internal/database"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// migrator is the subset of *migrate.Migrate used here.
type migrator interface {
	Up() error
	Version() (uint, bool, error)
	Close() (error, error)
}

var newMigrator = func(dbURL string) (migrator, error) {
	source, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", source, dbURL)
}

// Up applies every pending embedded migration. An up-to-date schema is not an error.
func Up(c config.DatabaseConfig, logger *slog.Logger) error {
	start := time.Now()
	logger = logger.With(slog.String("component", "database"), slog.String("db_host", c.Host))
	logger.Info("db_migration_start", slog.String("status", "in_progress"))

	dbURL, err := database.MigrationURL(c)
	if err != nil {
		return err
	}

	m, err := newMigrator(dbURL)
	if err != nil {
		logger.Error("db_migration_failed",
			slog.String("status", "error"),
			slog.String("error_message", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("db_migration_skip",
				slog.String("status", "success"),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
			return nil
		}
		logger.Error("db_migration_failed",
			slog.String("status", "error"),
			slog.String("error_message", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("db_migration_success",
		slog.String("status", "success"),
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
