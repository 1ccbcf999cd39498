// Package storage is the SQLite-backed relational store. Array-valued and
// nested rom fields are kept as JSON TEXT columns and queried with the
// json_each/json_extract helpers.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sethvargo/go-retry"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS roms (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT UNIQUE,
			console TEXT,
			image TEXT,
			gallery TEXT,
			base_game TEXT,
			language TEXT,
			status TEXT,
			content TEXT,
			version TEXT,
			author TEXT,
			date_updated TEXT,
			features TEXT,
			links TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_roms_name ON roms(name)`,
		`CREATE INDEX IF NOT EXISTS idx_roms_slug ON roms(slug)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS identities (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			subject TEXT NOT NULL,
			user_id TEXT NOT NULL REFERENCES users(id),
			linked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(provider, subject)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_identities_user ON identities(user_id)`,
		`CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			rom_id INTEGER NOT NULL REFERENCES roms(id),
			notes TEXT,
			added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, rom_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_collections_user ON collections(user_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// withRetry runs fn with bounded exponential backoff, retrying only the
// transient SQLite errors (busy, locked).
func (s *Store) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func isTransient(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
