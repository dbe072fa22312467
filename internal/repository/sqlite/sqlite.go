// Package sqlite implements the repository interfaces on SQLite.
//
// The driver is modernc.org/sqlite, a pure Go translation of SQLite: no
// CGo, no C toolchain, cross-compiles everywhere Go does. database/sql
// gives us the connection pool; the pool is the only shared mutable state
// the request handlers touch, and it is safe for concurrent use.
//
// The driver import is a side-effect import: its init() registers the
// "sqlite" driver name with database/sql. We also import the package by
// name to inspect its typed errors, which is how uniqueness violations are
// told apart from other failures (the OAuth provisioning retry depends on
// that distinction).
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// DB wraps the sql.DB pool shared by the per-entity repositories.
// It is constructed once in server.New and closed on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens the database, configures pragmas, and runs migrations.
//
// dbPath may be a file path or ":memory:" (used by tests). WAL mode lets
// reads proceed during a write, which matters once multiple requests share
// the pool. Foreign keys are off by default in SQLite and the favorites
// table depends on them.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time, and a :memory: database exists
	// per connection, so the pool is pinned to a single connection. The
	// pragmas below also apply to exactly that connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every boot; the google_id/password shape matches what the schema
// update scripts of earlier deployments converged on (nullable password,
// unique-when-present google_id).
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			username   TEXT NOT NULL UNIQUE,
			email      TEXT NOT NULL UNIQUE,
			password   TEXT,
			google_id  TEXT UNIQUE,
			avatar     TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			type        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date        DATETIME NOT NULL,
			end_date    DATETIME,
			location    TEXT NOT NULL,
			capacity    INTEGER NOT NULL DEFAULT 100,
			price       REAL NOT NULL DEFAULT 0,
			status      TEXT NOT NULL DEFAULT 'upcoming',
			image       TEXT,
			creator_id  INTEGER REFERENCES users(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
		CREATE INDEX IF NOT EXISTS idx_events_creator_id ON events(creator_id);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS favorites (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL REFERENCES users(id),
			event_id   INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, event_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating favorites table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS scraped_venues (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			address    TEXT,
			rating     REAL,
			city       TEXT NOT NULL,
			keyword    TEXT NOT NULL,
			scraped_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scraped_venues_city ON scraped_venues(city);
	`)
	if err != nil {
		return fmt.Errorf("creating scraped_venues table: %w", err)
	}

	return nil
}

// uniqueViolation reports whether err is a uniqueness-constraint failure
// and, if so, which column collided ("users.username", "users.email", ...).
//
// modernc's error message carries the constraint detail, e.g.
//
//	constraint failed: UNIQUE constraint failed: users.username (2067)
//
// The column name is the only reliable way to tell a username collision
// (retryable during OAuth provisioning) from an email collision (a bug).
func uniqueViolation(err error) (column string, ok bool) {
	var se *sqlite3.Error
	if !errors.As(err, &se) {
		return "", false
	}
	if se.Code() != sqlite3lib.SQLITE_CONSTRAINT_UNIQUE &&
		se.Code() != sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY {
		return "", false
	}

	msg := se.Error()
	const marker = "UNIQUE constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return "", true
	}
	column = msg[i+len(marker):]
	if j := strings.IndexAny(column, " ,("); j >= 0 {
		column = column[:j]
	}
	return column, true
}
