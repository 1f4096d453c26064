// Package db opens the SQLite database behind the key-value collections and
// the audit trail, and keeps its schema current.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// DB is a migrated SQLite handle.
type DB struct {
	*sql.DB
	path string
}

// Open opens the database file at path, creating it and its directory.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	return open(path, path+"?"+pragmas+"&_pragma=journal_mode(WAL)", 0)
}

// OpenMemory opens a private in-memory database for tests and one-off runs.
func OpenMemory() (*DB, error) {
	// Each pooled connection would otherwise see its own empty database.
	return open(":memory:", ":memory:?"+pragmas, 1)
}

func open(path, dsn string, maxConns int) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return d, nil
}

// Path returns the database file path, or ":memory:".
func (d *DB) Path() string {
	return d.path
}

// Version is the schema version recorded in the file.
func (d *DB) Version() (int, error) {
	var v int
	err := d.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}

// migrate applies every migration newer than user_version, each in its own
// transaction.
func (d *DB) migrate() error {
	current, err := d.Version()
	if err != nil {
		return err
	}
	for i := current; i < len(migrations); i++ {
		tx, err := d.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

// migrations are append-only. Never edit a released step.
var migrations = []string{
	`CREATE TABLE kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
	);`,

	`CREATE TABLE audit_entries (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL DEFAULT (datetime('now')),
		actor_type TEXT NOT NULL CHECK(actor_type IN ('user','admin','anonymous','system')),
		actor_id TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL CHECK(outcome IN ('success','failure','rejected','stale')),
		summary TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX idx_audit_timestamp ON audit_entries(timestamp);
	CREATE INDEX idx_audit_actor ON audit_entries(actor_id);
	CREATE INDEX idx_audit_action ON audit_entries(action, outcome);`,
}
