package database

import (
	"embed"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func newMigrate(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrationsWithURL applies all pending migrations against the given
// database. Used by the migrate subcommand and by integration tests before
// they open a pool.
func RunMigrationsWithURL(databaseURL string) error {
	m, err := newMigrate(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrateUp runs all pending migrations using DATABASE_URL.
func MigrateUp() error {
	if err := RunMigrationsWithURL(os.Getenv("DATABASE_URL")); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}

// MigrateDown rolls back a single migration.
func MigrateDown() error {
	m, err := newMigrate(os.Getenv("DATABASE_URL"))
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	log.Info("rolled back one migration")
	return nil
}

// MigrateStatus logs the current migration version.
func MigrateStatus() error {
	m, err := newMigrate(os.Getenv("DATABASE_URL"))
	if err != nil {
		return err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		log.Info("no migrations applied yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	log.WithFields(log.Fields{"version": version, "dirty": dirty}).Info("migration status")
	return nil
}
