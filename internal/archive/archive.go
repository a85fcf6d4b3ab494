// Package archive records tool invocations in a local SQLite database.
// It is an audit log, not session storage: rows carry timing and outcome
// metadata, never conversation text, so brainstorm state still lives
// entirely in the caller-supplied history.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// migrations is an ordered list of schema migrations, applied in order
// starting from version 0. Never modify an existing migration, only add
// new ones.
var migrations = []func(*sql.Tx) error{
	migrateV0,
}

func migrateV0(tx *sql.Tx) error {
	schema := `
CREATE TABLE IF NOT EXISTS invocations (
    id TEXT PRIMARY KEY,
    tool TEXT NOT NULL,
    round INTEGER DEFAULT 0,
    duration_ms INTEGER NOT NULL,
    is_error INTEGER NOT NULL DEFAULT 0,
    detail TEXT DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool);
`
	_, err := tx.ExecContext(context.Background(), schema)
	return err
}

// Invocation is one recorded tool call.
type Invocation struct {
	ID       string
	Tool     string
	Round    int
	Duration time.Duration
	IsError  bool
	// Detail is a short note (error message or response size), truncated
	// by the caller. Never full prompt or response text.
	Detail string
}

// Stats summarizes the archive for the status tool.
type Stats struct {
	Total  int
	Errors int
}

// Archive is a handle to the invocation database. A nil *Archive is a
// valid no-op recorder, so callers never branch on whether archiving is
// enabled.
type Archive struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive database at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaVersionTable); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var current int
	err := db.QueryRow(`SELECT COALESCE(MAX(version), -1) FROM schema_version`).Scan(&current)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for v := current + 1; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", v, err)
		}
		if err := migrations[v](tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", v, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`,
			v, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", v, err)
		}
	}
	return nil
}

// Record stores one invocation. No-op on a nil archive.
func (a *Archive) Record(inv Invocation) error {
	if a == nil {
		return nil
	}
	isError := 0
	if inv.IsError {
		isError = 1
	}
	_, err := a.db.Exec(
		`INSERT INTO invocations (id, tool, round, duration_ms, is_error, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Tool, inv.Round, inv.Duration.Milliseconds(), isError, inv.Detail,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record invocation %s: %w", inv.ID, err)
	}
	return nil
}

// Stats returns invocation counters. Zero on a nil archive.
func (a *Archive) Stats() (Stats, error) {
	if a == nil {
		return Stats{}, nil
	}
	var s Stats
	err := a.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(is_error), 0) FROM invocations`,
	).Scan(&s.Total, &s.Errors)
	if err != nil {
		return Stats{}, fmt.Errorf("read archive stats: %w", err)
	}
	return s, nil
}

// Enabled reports whether the archive is backed by a database.
func (a *Archive) Enabled() bool {
	return a != nil
}

// Close releases the database handle. No-op on a nil archive.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	return a.db.Close()
}
