package repos

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations
var migrations embed.FS

// migrateUp applies the embedded migrations for the connected dialect.
// The migrate instance is not closed: closing it would close db.
func migrateUp(db *sqlx.DB) error {
	var (
		driver  database.Driver
		dialect string
		err     error
	)
	switch db.DriverName() {
	case "pgx":
		dialect = "postgres"
		driver, err = pgxmigrate.WithInstance(db.DB, &pgxmigrate.Config{})
	default:
		dialect = "sqlite"
		driver, err = sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
	}
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}

	src, err := iofs.New(migrations, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
