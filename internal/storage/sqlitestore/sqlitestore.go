// Package sqlitestore is the reference storage.Driver implementation:
// an embedded SQLite database reached through database/sql, migrated
// with an ordered statement list the way store.New does in the
// teacher's server/store package, adapted from its settings/channels/
// files/audit schema to wamble's sessions/boards/moves/payouts schema.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"github.com/Fsmount/wamble/internal/storage"
)

// migrations holds the ordered DDL list; index i is schema version i+1.
// Append, never edit or reorder, exactly as the teacher's store package
// documents.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		token       BLOB PRIMARY KEY,
		player_id   INTEGER NOT NULL DEFAULT 0,
		public_key  BLOB,
		persistent  INTEGER NOT NULL DEFAULT 0,
		games_played INTEGER NOT NULL DEFAULT 0,
		trust_tier  INTEGER NOT NULL DEFAULT 0,
		score       REAL NOT NULL DEFAULT 0,
		rating      REAL NOT NULL DEFAULT 1200,
		last_seen   INTEGER NOT NULL DEFAULT (unixepoch())
	)`,
	`CREATE TABLE IF NOT EXISTS boards (
		board_id     INTEGER PRIMARY KEY,
		fen          TEXT NOT NULL,
		status       TEXT NOT NULL,
		last_assignment_time INTEGER NOT NULL DEFAULT (unixepoch())
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		board_id        INTEGER PRIMARY KEY,
		token           BLOB NOT NULL,
		timeout_seconds INTEGER NOT NULL,
		created_at      INTEGER NOT NULL DEFAULT (unixepoch())
	)`,
	`CREATE TABLE IF NOT EXISTS moves (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		board_id   INTEGER NOT NULL,
		token      BLOB NOT NULL,
		uci        TEXT NOT NULL,
		move_number INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS game_results (
		board_id     INTEGER PRIMARY KEY,
		winning_side TEXT NOT NULL,
		recorded_at  INTEGER NOT NULL DEFAULT (unixepoch())
	)`,
	`CREATE TABLE IF NOT EXISTS payouts (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		board_id INTEGER NOT NULL,
		token    BLOB NOT NULL,
		points   REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_moves_board ON moves(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payouts_board ON payouts(board_id)`,
	`PRAGMA journal_mode=WAL`,
}

// Driver implements storage.Driver on top of an embedded SQLite file.
type Driver struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies any pending
// migrations, mirroring the teacher's store.New lifecycle.
func Open(dsn string) (*Driver, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		log.Printf("[sqlitestore] WAL mode: %v (non-fatal)", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		log.Printf("[sqlitestore] busy_timeout: %v (non-fatal)", err)
	}
	d := &Driver{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: migrate: %w", err)
	}
	return d, nil
}

func (d *Driver) migrate() error {
	_, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	var current int
	if err := d.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for i, stmt := range migrations {
		v := i + 1
		if v <= current {
			continue
		}
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", v, err)
		}
		if _, err := d.db.Exec(`INSERT INTO schema_migrations(version) VALUES(?)`, v); err != nil {
			return fmt.Errorf("record migration %d: %w", v, err)
		}
		log.Printf("[sqlitestore] applied migration v%d", v)
	}
	return nil
}

func (d *Driver) Close() error { return d.db.Close() }

var _ storage.Driver = (*Driver)(nil)
