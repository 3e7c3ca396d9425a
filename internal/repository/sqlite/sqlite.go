// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// The user record came from a document store, so two of its fields don't
// map to flat columns: the avatar reference (an arbitrary image-host
// response object) and the two favorites lists. Those are stored as JSON
// TEXT columns and (un)marshalled at the repository boundary — nothing
// above this package knows or cares.
//
// modernc.org/sqlite is a pure Go translation of SQLite — no CGo, no C
// compiler, trivial cross-compilation. The blank import registers it with
// database/sql as the driver named "sqlite".
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements repository.UserRepository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway in-memory database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each pool connection to ":memory:" gets its OWN empty database, so
	// the pool must stay at a single connection or tables vanish between
	// queries.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// sql.Open is lazy — Ping forces a real connection so a bad path
	// surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — needed for a
	// web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer it next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent — safe on every startup.
//
// NOTE: email carries NO unique constraint. The original system did a
// lookup-then-insert duplicate check in the service layer, which leaves a
// window where two concurrent signups with the same email both succeed.
// That behavior is reproduced here on purpose; see DESIGN.md.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			username       TEXT NOT NULL,
			avatar         TEXT,
			email          TEXT NOT NULL,
			salt           TEXT NOT NULL,
			hash           TEXT NOT NULL,
			token          TEXT NOT NULL,
			fav_characters TEXT,
			fav_comics     TEXT,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE INDEX IF NOT EXISTS idx_users_token ON users(token);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	return nil
}
