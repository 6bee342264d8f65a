package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// newMigrator builds a migrator over a dedicated handle: closing the
// migrator also closes the database it was given.
func newMigrator(dbPath string) (*migrate.Migrate, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s for migration: %w", dbPath, err)
	}
	target, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite migration driver: %w", err)
	}
	scripts, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", scripts, "sqlite", target)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// RunMigrations applies pending schema changes to the database at dbPath
// and returns the resulting schema version.
func RunMigrations(dbPath string) (uint, error) {
	m, err := newMigrator(dbPath)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
	case err != nil:
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)
	return version, nil
}
