package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// schemaFS holds the versioned DDL for the expenses table.
//
//go:embed migrations/*.sql
var schemaFS embed.FS

// RunMigrations brings the ledger database at dbPath up to the latest schema
// version, creating the expenses table on first use. An up-to-date database
// is not an error.
//
// The migrator owns its own connection: closing it must not close the pool
// the repository reads and writes through.
func RunMigrations(dbPath string) error {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open ledger schema connection: %w", err)
	}
	defer conn.Close()

	target, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare ledger schema target: %w", err)
	}
	source, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return fmt.Errorf("read embedded ledger schema: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return fmt.Errorf("init ledger schema migrator: %w", err)
	}
	defer migrator.Close()

	switch err := migrator.Up(); {
	case err == nil, errors.Is(err, migrate.ErrNoChange):
		return nil
	default:
		return fmt.Errorf("apply ledger schema to %s: %w", dbPath, err)
	}
}
