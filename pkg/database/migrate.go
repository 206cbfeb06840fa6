package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending embedded migration for the handle's dialect.
// It borrows a single connection so the shared pool stays open afterwards.
func Migrate(ctx context.Context, db *sqlx.DB) (uint, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire migration connection: %w", err)
	}

	var (
		driver migratedb.Driver
		dir    string
	)
	switch db.DriverName() {
	case driverPGX:
		driver, err = migratepg.WithConnection(ctx, conn, &migratepg.Config{})
		dir = "migrations/" + DialectPostgres
	case driverMySQL:
		driver, err = migratemysql.WithConnection(ctx, conn, &migratemysql.Config{})
		dir = "migrations/" + DialectMySQL
	default:
		conn.Close()
		return 0, fmt.Errorf("no migrations for driver %q", db.DriverName())
	}
	if err != nil {
		conn.Close()
		return 0, fmt.Errorf("init migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		driver.Close()
		return 0, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.DriverName(), driver)
	if err != nil {
		src.Close()
		driver.Close()
		return 0, fmt.Errorf("create migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, err
	}
	return version, nil
}
