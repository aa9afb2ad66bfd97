package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrationsFS holds the schema for both backends. New tables are added as
// the next numbered migration, never by editing an applied one.
//
//go:embed migrations
var migrationsFS embed.FS

// migrate applies pending SQLite migrations to d.
func (d *DB) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	defer src.Close()

	driver, err := sqlite.WithInstance(d.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	// m.Close is not called: it would close d.DB through the driver.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version.
func (d *DB) SchemaVersion() (uint, error) {
	var v uint
	var dirty bool
	err := d.QueryRow("SELECT version, dirty FROM schema_migrations LIMIT 1").Scan(&v, &dirty)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("schema version %d is dirty", v)
	}
	return v, nil
}
