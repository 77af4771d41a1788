// Package db provides SQLite storage for recorded bus captures.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/tOgg1/busview/internal/logging"
)

// Config configures a capture database.
type Config struct {
	// Path is the SQLite file path. ":memory:" opens a private in-memory database.
	Path string

	// BusyTimeoutMs is how long to wait for a locked database.
	BusyTimeoutMs int
}

// DB wraps the SQLite handle.
type DB struct {
	*sql.DB
	path   string
	logger zerolog.Logger
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS captures (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		source_path TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS can_events (
		capture_id TEXT NOT NULL REFERENCES captures(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		source INTEGER NOT NULL,
		address INTEGER NOT NULL,
		mono_time INTEGER NOT NULL,
		data BLOB NOT NULL,
		PRIMARY KEY (capture_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS can_events_time_idx ON can_events(capture_id, mono_time, seq)`,
}

// Open opens (and if needed creates) the capture database.
func Open(cfg Config) (*DB, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	busy := cfg.BusyTimeoutMs
	if busy <= 0 {
		busy = 5000
	}

	var dsn string
	if path == ":memory:" {
		dsn = fmt.Sprintf("file::memory:?_pragma=busy_timeout(%d)&_pragma=foreign_keys(ON)", busy)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", path, busy)
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to capture database: %w", err)
	}

	db := &DB{DB: sqlDB, path: path, logger: logging.Component("db")}
	if err := db.migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	db.logger.Debug().Str("path", path).Msg("capture database opened")
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize capture schema: %w", err)
		}
	}
	return nil
}

// Transaction runs fn inside a transaction, committing on success.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
