package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const migrationsTable = "pos_schema_migrations"

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending up migration for opts.Driver over a
// dedicated connection that is closed before returning.
func Migrate(opts Options) error {
	sqlDB, err := openSQL(opts)
	if err != nil {
		return err
	}

	src, err := iofs.New(migrationsFS, "migrations/"+opts.Driver)
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("could not load migrations: %w", err)
	}

	var driver migratedb.Driver
	switch opts.Driver {
	case DriverPostgres:
		driver, err = migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{MigrationsTable: migrationsTable})
	case DriverMySQL:
		driver, err = migratemysql.WithInstance(sqlDB, &migratemysql.Config{MigrationsTable: migrationsTable})
	}
	if err != nil {
		_ = src.Close()
		_ = sqlDB.Close()
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, opts.Driver, driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}
