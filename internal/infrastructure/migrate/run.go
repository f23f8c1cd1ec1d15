package migrate

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LavaJover/storefront-attribution-service/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const migrationsTable = "attribution_schema_migrations"

// RunMigrations brings the attribution schema up to date. An empty dir
// applies the migrations embedded in the binary.
func RunMigrations(db *gorm.DB, dir string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("creating postgres driver: %w", err)
	}

	m, err := newMigrator(dir, driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading migration version: %w", err)
	}
	slog.Info("attribution schema ready", "version", version, "dirty", dirty, "source", sourceName(dir))
	return nil
}

func newMigrator(dir string, driver database.Driver) (*migrate.Migrate, error) {
	if dir == "" {
		src, err := iofs.New(migrations.FS, ".")
		if err != nil {
			return nil, err
		}
		return migrate.NewWithInstance("iofs", src, "postgres", driver)
	}
	return migrate.NewWithDatabaseInstance(sourceURL(dir), "postgres", driver)
}

func sourceURL(dir string) string {
	if strings.Contains(dir, "://") {
		return dir
	}
	return "file://" + dir
}

func sourceName(dir string) string {
	if dir == "" {
		return "embedded"
	}
	return sourceURL(dir)
}
