// Package store persists the file index, activity log, undo history and
// rule metadata in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/TheMichaelB/dirsort/internal/events"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the SQLite database. All methods are safe for concurrent
// use; sql.DB handles connection pooling.
type Store struct {
	db     *sql.DB
	path   string
	logger *events.Logger
}

// Open opens (or creates) the database at dbPath and applies pending
// migrations.
func Open(dbPath string, logger *events.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{
		db:     db,
		path:   dbPath,
		logger: logger.WithField("component", "store"),
	}, nil
}

func migrate(db *sql.DB) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	return goose.UpContext(context.Background(), db, "migrations")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
