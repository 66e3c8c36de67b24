package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations brings the ledger schema up to date. migrationsPath may be a
// plain directory or an explicit file:// URL.
func RunMigrations(logger *slog.Logger, databaseURL, migrationsPath string) error {
	sourceURL, err := migrationSourceURL(migrationsPath)
	if err != nil {
		return err
	}
	if databaseURL == "" {
		return errors.New("database URL cannot be empty")
	}

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil || dbErr != nil {
			logger.Warn("Failed to close migrator", "source_error", sourceErr, "db_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("No migrations found", "source", sourceURL)
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case dirty:
		return fmt.Errorf("schema version %d is dirty", version)
	default:
		logger.Info("Database schema ready", "version", version)
	}

	return nil
}

func migrationSourceURL(migrationsPath string) (string, error) {
	path := strings.TrimSpace(migrationsPath)
	if path == "" {
		return "", errors.New("migrations path cannot be empty")
	}
	if strings.Contains(path, "://") {
		if !strings.HasPrefix(path, "file://") {
			return "", fmt.Errorf("unsupported migrations source %q", path)
		}
		return path, nil
	}
	return "file://" + path, nil
}
