// Package persistence provides SQLite-based shelf state storage.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/session"
)

// Reserved meta keys. Session state keys are stored under statePrefix.
const (
	metaLastFrame = "last_frame"
	statePrefix   = "state."
)

// DB wraps a SQLite connection for shelf state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shelf_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		frame INTEGER NOT NULL,
		kind TEXT NOT NULL,
		cell INTEGER NOT NULL,
		subject TEXT NOT NULL,
		value REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_frame ON events(frame);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMeta stores a key-value pair in shelf metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO shelf_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM shelf_meta WHERE key = ?", key)
	return value, err
}

// SaveShelf replaces the stored session state and records the frame it
// was taken at.
func (db *DB) SaveShelf(state session.State, frame uint64) error {
	slog.Debug("saving shelf state", "keys", len(state), "frame", frame)

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM shelf_meta WHERE key LIKE ?", statePrefix+"%"); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	for k, v := range state {
		if _, err := tx.Exec(
			"INSERT INTO shelf_meta (key, value) VALUES (?, ?)",
			statePrefix+k, v,
		); err != nil {
			return fmt.Errorf("insert state %q: %w", k, err)
		}
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO shelf_meta (key, value) VALUES (?, ?)",
		metaLastFrame, strconv.FormatUint(frame, 10),
	); err != nil {
		return fmt.Errorf("save last frame: %w", err)
	}

	return tx.Commit()
}

// LoadShelf returns the stored session state and the frame it was saved at.
// An empty database yields an empty state.
func (db *DB) LoadShelf() (session.State, uint64, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.conn.Select(&rows,
		"SELECT key, value FROM shelf_meta WHERE key LIKE ?", statePrefix+"%",
	); err != nil {
		return nil, 0, fmt.Errorf("load state: %w", err)
	}

	state := make(session.State, len(rows))
	for _, r := range rows {
		state[strings.TrimPrefix(r.Key, statePrefix)] = r.Value
	}

	var frame uint64
	v, err := db.GetMeta(metaLastFrame)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, 0, fmt.Errorf("load last frame: %w", err)
	default:
		frame, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("parse last frame %q: %w", v, err)
		}
	}
	return state, frame, nil
}

// HasShelfState reports whether a shelf has been saved before.
func (db *DB) HasShelfState() bool {
	var count int
	err := db.conn.Get(&count, "SELECT COUNT(*) FROM shelf_meta WHERE key = ?", metaLastFrame)
	return err == nil && count > 0
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.NamedExec(
			`INSERT INTO events (frame, kind, cell, subject, value)
			 VALUES (:frame, :kind, :cell, :subject, :value)`,
			e,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.Kind, err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]event.Event, error) {
	var events []event.Event
	err := db.conn.Select(&events,
		"SELECT frame, kind, cell, subject, value FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// PruneEvents keeps only the newest keep events and returns how many were
// removed.
func (db *DB) PruneEvents(keep int) (int64, error) {
	res, err := db.conn.Exec(
		"DELETE FROM events WHERE id NOT IN (SELECT id FROM events ORDER BY id DESC LIMIT ?)",
		keep,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
