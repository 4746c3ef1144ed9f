package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer; one connection serializes transactions
	// so the attendance toggle cannot interleave.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT,
		is_guest INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		location TEXT NOT NULL,
		category TEXT NOT NULL,
		date_ms INTEGER NOT NULL, -- unix millis, UTC
		image TEXT,
		organizer_id TEXT NOT NULL REFERENCES users(id),
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_date ON events(date_ms DESC);

	-- rowid keeps insertion order for rendering
	CREATE TABLE IF NOT EXISTS event_attendees (
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		joined_at INTEGER NOT NULL,
		UNIQUE(event_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_attendees_user ON event_attendees(user_id);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
