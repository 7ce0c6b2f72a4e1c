package storage

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// runMigrations applies the embedded schema for the given dialect. A
// dedicated connection is opened so the repository's pool is not disturbed.
func runMigrations(driverName, dsn string, d dialect) error {
	migrateDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	var driver database.Driver
	switch d.name() {
	case "postgres":
		driver, err = migratepg.WithInstance(migrateDB, &migratepg.Config{})
	case "sqlite":
		driver, err = migratesqlite.WithInstance(migrateDB, &migratesqlite.Config{})
	default:
		return fmt.Errorf("unknown dialect %q", d.name())
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", d.name(), err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+d.name())
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, d.name(), driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
