package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleCycle(outcome string, started time.Time) *Cycle {
	return &Cycle{
		ID:                uuid.NewString(),
		StartedAt:         started,
		SourceWindowTitle: "Editor",
		CapturedChars:     13,
		TurnCount:         3,
		PasteCount:        1,
		UndoCount:         0,
		CaptureLatencyMs:  120,
		TotalDurationMs:   9500,
		Outcome:           outcome,
	}
}

func TestSaveAndGetCycles(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()

	older := sampleCycle("completed", now.Add(-time.Hour))
	newer := sampleCycle("closed", now)
	newer.ErrorMessage = ""
	require.NoError(t, db.SaveCycle(older))
	require.NoError(t, db.SaveCycle(newer))

	cycles, err := db.GetCycles(10, 0)
	require.NoError(t, err)
	require.Len(t, cycles, 2)

	assert.Equal(t, newer.ID, cycles[0].ID, "newest first")
	assert.Equal(t, older.ID, cycles[1].ID)
	assert.WithinDuration(t, newer.StartedAt, cycles[0].StartedAt, time.Second,
		"timestamps must survive the SQLite round-trip")
	assert.Equal(t, "Editor", cycles[0].SourceWindowTitle)
	assert.Equal(t, 13, cycles[0].CapturedChars)
	assert.Equal(t, 3, cycles[0].TurnCount)
	assert.Equal(t, int64(120), cycles[0].CaptureLatencyMs)

	count, err := db.GetCycleCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGetCyclesPagination(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		c := sampleCycle("completed", now.Add(-time.Duration(i)*time.Minute))
		c.SourceWindowTitle = fmt.Sprintf("win-%d", i)
		require.NoError(t, db.SaveCycle(c))
	}

	page, err := db.GetCycles(2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "win-2", page[0].SourceWindowTitle)
	assert.Equal(t, "win-3", page[1].SourceWindowTitle)
}

func TestSaveCycleWithError(t *testing.T) {
	db := openTestDB(t)

	c := sampleCycle("error", time.Now().UTC())
	c.ErrorMessage = "clipboard unavailable"
	require.NoError(t, db.SaveCycle(c))

	cycles, err := db.GetCycles(1, 0)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, "error", cycles[0].Outcome)
	assert.Equal(t, "clipboard unavailable", cycles[0].ErrorMessage)
}

func TestOverallStatsEmpty(t *testing.T) {
	db := openTestDB(t)

	stats, err := db.GetOverallStats(30)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalCycles)
	assert.Equal(t, int64(0), stats.TotalCapturedChars)
	assert.Equal(t, 0, stats.TotalPastes)
	assert.Equal(t, float64(0), stats.AvgCaptureMs)
}

func TestOverallStats(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()

	completed := sampleCycle("completed", now)
	completed.UndoCount = 1
	noSel := sampleCycle("no_selection", now.Add(-time.Minute))
	noSel.PasteCount = 0
	noSel.TurnCount = 0
	failed := sampleCycle("error", now.Add(-2*time.Minute))
	failed.ErrorMessage = "window gone"

	for _, c := range []*Cycle{completed, noSel, failed} {
		require.NoError(t, db.SaveCycle(c))
	}

	stats, err := db.GetOverallStats(30)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalCycles)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.NoSelection)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 2, stats.TotalPastes)
	assert.Equal(t, 1, stats.TotalUndos)
	assert.Equal(t, 6, stats.TotalTurns)
	assert.InDelta(t, 120, stats.AvgCaptureMs, 0.01)
}

func TestDailyStats(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()

	require.NoError(t, db.SaveCycle(sampleCycle("completed", now)))
	require.NoError(t, db.SaveCycle(sampleCycle("no_selection", now)))

	days, err := db.GetDailyStats(7)
	require.NoError(t, err)
	require.Len(t, days, 1)

	assert.Equal(t, 2, days[0].TotalCycles)
	assert.Equal(t, 1, days[0].Completed)
	assert.Equal(t, 1, days[0].NoSelection)
	assert.Equal(t, 2, days[0].PasteCount)
}

func TestDailyStatsWindow(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()

	require.NoError(t, db.SaveCycle(sampleCycle("completed", now)))
	require.NoError(t, db.SaveCycle(sampleCycle("completed", now.AddDate(0, 0, -30))))

	days, err := db.GetDailyStats(7)
	require.NoError(t, err)
	require.Len(t, days, 1, "cycles outside the window are excluded")
	assert.Equal(t, 1, days[0].TotalCycles)
}
