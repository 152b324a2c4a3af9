// Package sqlite provides SQLite-based persistent storage for Stride.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/stride-labs/stride/internal/domain"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx, so every repository
// method works identically inside and outside a transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// queries hosts all repository methods over either a connection or a
// transaction handle.
type queries struct {
	q dbtx
}

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	queries
	conn *sql.DB
}

// Tx is an open transaction exposing the same repository methods as DB.
type Tx struct {
	queries
	tx *sql.Tx
}

// Open creates or opens the SQLite database at dir/stride.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "stride.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	conn.SetMaxOpenConns(1) // SQLite is single-writer
	conn.SetMaxIdleConns(1)

	d := &DB{queries: queries{q: conn}, conn: conn}
	if err := d.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.conn.Ping()
}

// WithTx runs fn inside a transaction. Any error aborts all steps; the
// single-writer connection gives read-your-writes isolation within the
// transaction, which the commit pipeline's duplicate re-check relies on.
// Busy/locked failures are surfaced as domain.ErrStoreBusy so the caller
// can retry at its own boundary.
func (d *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return mapBusy(fmt.Errorf("begin tx: %w", err))
	}

	if err := fn(&Tx{queries: queries{q: tx}, tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapBusy(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// mapBusy folds SQLite busy/locked conditions into the transient sentinel.
func mapBusy(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "busy") || strings.Contains(msg, "locked") {
		return fmt.Errorf("%w: %v", domain.ErrStoreBusy, err)
	}
	return err
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                 TEXT PRIMARY KEY,
			name               TEXT NOT NULL DEFAULT '',
			timezone           TEXT NOT NULL DEFAULT 'UTC',
			total_xp           INTEGER NOT NULL DEFAULT 0,
			level              INTEGER NOT NULL DEFAULT 1,
			forgiveness_tokens INTEGER NOT NULL DEFAULT 0,
			forgiveness_opt_in BOOLEAN NOT NULL DEFAULT 1,
			created_at         INTEGER NOT NULL,
			updated_at         INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS habits (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL REFERENCES users(id),
			name              TEXT NOT NULL,
			category          TEXT NOT NULL DEFAULT '',
			cadence           TEXT NOT NULL,
			days_of_week      TEXT NOT NULL DEFAULT '',
			times_per_week    INTEGER NOT NULL DEFAULT 0,
			current_streak    INTEGER NOT NULL DEFAULT 0,
			longest_streak    INTEGER NOT NULL DEFAULT 0,
			total_completions INTEGER NOT NULL DEFAULT 0,
			consistency_rate  INTEGER NOT NULL DEFAULT 0,
			active            BOOLEAN NOT NULL DEFAULT 1,
			created_at        INTEGER NOT NULL,
			updated_at        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id)`,

		// Completions are append-only; moderation flags are the only
		// mutable columns besides the provisional xp_earned patch.
		`CREATE TABLE IF NOT EXISTS completions (
			id               TEXT PRIMARY KEY,
			habit_id         TEXT NOT NULL REFERENCES habits(id),
			user_id          TEXT NOT NULL REFERENCES users(id),
			completed_at     INTEGER NOT NULL,
			device_timezone  TEXT NOT NULL DEFAULT '',
			xp_earned        INTEGER NOT NULL DEFAULT 0,
			forgiveness_used BOOLEAN NOT NULL DEFAULT 0,
			edited           BOOLEAN NOT NULL DEFAULT 0,
			created_at       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_completions_habit ON completions(habit_id, completed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_completions_user ON completions(user_id, completed_at)`,

		// XP ledger — append-only audit trail. Refunds are negative
		// entries, never deletions.
		`CREATE TABLE IF NOT EXISTS xp_ledger (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     TEXT NOT NULL REFERENCES users(id),
			habit_id    TEXT,
			amount      INTEGER NOT NULL,
			source      TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			metadata    TEXT NOT NULL DEFAULT '',
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_user ON xp_ledger(user_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL REFERENCES users(id),
			kind       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			metadata   TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			shown      BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_user ON notifications(user_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := d.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
