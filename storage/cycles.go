package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// timeLayout matches SQLite's own datetime() output, so DATE() grouping and
// datetime('now', ...) window comparisons work on the stored values.
const timeLayout = "2006-01-02 15:04:05"

// Cycle is one recorded capture→chat→paste→undo cycle
type Cycle struct {
	ID                string
	StartedAt         time.Time
	SourceWindowTitle string
	CapturedChars     int
	TurnCount         int
	PasteCount        int
	UndoCount         int
	CaptureLatencyMs  int64
	TotalDurationMs   int64
	Outcome           string
	ErrorMessage      string
}

// SaveCycle saves a cycle summary to the database
func (db *DB) SaveCycle(c *Cycle) error {
	query := `
		INSERT INTO cycles (
			id, started_at, source_window_title, captured_chars,
			turn_count, paste_count, undo_count,
			capture_latency_ms, total_duration_ms,
			outcome, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.Exec(query,
		c.ID, c.StartedAt.UTC().Format(timeLayout), c.SourceWindowTitle, c.CapturedChars,
		c.TurnCount, c.PasteCount, c.UndoCount,
		c.CaptureLatencyMs, c.TotalDurationMs,
		c.Outcome, c.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save cycle: %w", err)
	}
	return nil
}

// GetCycles retrieves cycles with pagination, newest first
func (db *DB) GetCycles(limit, offset int) ([]Cycle, error) {
	query := `
		SELECT
			id, started_at, source_window_title, captured_chars,
			turn_count, paste_count, undo_count,
			capture_latency_ms, total_duration_ms,
			outcome, error_message
		FROM cycles
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var c Cycle
		var startedAt string
		var errorMessage sql.NullString

		err := rows.Scan(
			&c.ID, &startedAt, &c.SourceWindowTitle, &c.CapturedChars,
			&c.TurnCount, &c.PasteCount, &c.UndoCount,
			&c.CaptureLatencyMs, &c.TotalDurationMs,
			&c.Outcome, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}

		c.StartedAt, err = time.ParseInLocation(timeLayout, startedAt, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cycle timestamp: %w", err)
		}

		if errorMessage.Valid {
			c.ErrorMessage = errorMessage.String
		}

		cycles = append(cycles, c)
	}

	return cycles, rows.Err()
}

// GetCycleCount returns the total number of recorded cycles
func (db *DB) GetCycleCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM cycles").Scan(&count)
	return count, err
}
