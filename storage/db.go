package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type DB struct {
	conn *sql.DB
}

// Open opens the database and initializes the schema
func Open(configDir string) (*DB, error) {
	dbPath := filepath.Join(configDir, "snipai.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the database schema
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cycles (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,

		-- Capture
		source_window_title TEXT NOT NULL,
		captured_chars INTEGER NOT NULL,

		-- Conversation / injection counts
		turn_count INTEGER NOT NULL,
		paste_count INTEGER NOT NULL,
		undo_count INTEGER NOT NULL,

		-- Timing metrics
		capture_latency_ms INTEGER NOT NULL,
		total_duration_ms INTEGER NOT NULL,

		-- Status
		outcome TEXT NOT NULL,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);
	CREATE INDEX IF NOT EXISTS idx_cycles_outcome ON cycles(outcome);
	`

	_, err := db.conn.Exec(schema)
	return err
}
