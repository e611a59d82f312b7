package storage

import (
	"fmt"
)

// DailyStats represents cycle statistics for a single day
type DailyStats struct {
	Date        string
	TotalCycles int
	PasteCount  int
	UndoCount   int
	Completed   int
	NoSelection int
	Errors      int
}

// OverallStats represents overall statistics
type OverallStats struct {
	TotalCycles        int
	TotalCapturedChars int64
	TotalTurns         int
	TotalPastes        int
	TotalUndos         int
	Completed          int
	NoSelection        int
	Errors             int
	AvgCaptureMs       float64
	AvgDurationMs      float64
}

// GetDailyStats retrieves statistics grouped by date for the last N days
func (db *DB) GetDailyStats(days int) ([]DailyStats, error) {
	query := `
		SELECT
			DATE(started_at) as date,
			COUNT(*) as total_cycles,
			COALESCE(SUM(paste_count), 0) as paste_count,
			COALESCE(SUM(undo_count), 0) as undo_count,
			COALESCE(SUM(CASE WHEN outcome = 'completed' THEN 1 ELSE 0 END), 0) as completed,
			COALESCE(SUM(CASE WHEN outcome = 'no_selection' THEN 1 ELSE 0 END), 0) as no_selection,
			COALESCE(SUM(CASE WHEN outcome = 'error' THEN 1 ELSE 0 END), 0) as errors
		FROM cycles
		WHERE started_at >= datetime('now', '-' || ? || ' days')
		GROUP BY DATE(started_at)
		ORDER BY date DESC
	`

	rows, err := db.conn.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStats
	for rows.Next() {
		var s DailyStats
		err := rows.Scan(&s.Date, &s.TotalCycles, &s.PasteCount, &s.UndoCount, &s.Completed, &s.NoSelection, &s.Errors)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetOverallStats retrieves overall statistics for the last N days
func (db *DB) GetOverallStats(days int) (*OverallStats, error) {
	query := `
		SELECT
			COUNT(*) as total_cycles,
			COALESCE(SUM(captured_chars), 0) as total_captured_chars,
			COALESCE(SUM(turn_count), 0) as total_turns,
			COALESCE(SUM(paste_count), 0) as total_pastes,
			COALESCE(SUM(undo_count), 0) as total_undos,
			COALESCE(SUM(CASE WHEN outcome = 'completed' THEN 1 ELSE 0 END), 0) as completed,
			COALESCE(SUM(CASE WHEN outcome = 'no_selection' THEN 1 ELSE 0 END), 0) as no_selection,
			COALESCE(SUM(CASE WHEN outcome = 'error' THEN 1 ELSE 0 END), 0) as errors,
			COALESCE(AVG(capture_latency_ms), 0) as avg_capture_ms,
			COALESCE(AVG(total_duration_ms), 0) as avg_duration_ms
		FROM cycles
		WHERE started_at >= datetime('now', '-' || ? || ' days')
	`

	var stats OverallStats
	err := db.conn.QueryRow(query, days).Scan(
		&stats.TotalCycles,
		&stats.TotalCapturedChars,
		&stats.TotalTurns,
		&stats.TotalPastes,
		&stats.TotalUndos,
		&stats.Completed,
		&stats.NoSelection,
		&stats.Errors,
		&stats.AvgCaptureMs,
		&stats.AvgDurationMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}

	return &stats, nil
}
