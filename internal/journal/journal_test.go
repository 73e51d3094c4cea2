package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediabot/internal/models"
)

func openTest(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(filepath.Join(t.TempDir(), "data", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	return j
}

func TestTotalsEmpty(t *testing.T) {
	j := openTest(t)

	totals, err := j.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Totals{}, totals)
}

func TestRecordAndTotals(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	runs := []models.BatchRun{
		{UserID: 1, Kind: models.RunBulk, Outcome: models.BulkOutcome{Total: 3, Succeeded: 2, Failed: 1}, StartedAt: start, FinishedAt: start.Add(time.Minute)},
		{UserID: 1, Kind: models.RunSingle, Outcome: models.BulkOutcome{Total: 1, Succeeded: 1}, StartedAt: start.Add(time.Hour), FinishedAt: start.Add(time.Hour)},
		{UserID: 2, Kind: models.RunChannel, Outcome: models.BulkOutcome{Total: 5, Failed: 5}, StartedAt: start, FinishedAt: start},
	}
	for _, r := range runs {
		require.NoError(t, j.Record(ctx, r))
	}

	all, err := j.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Totals{Runs: 3, Total: 9, Succeeded: 3, Failed: 6}, all)

	mine, err := j.UserTotals(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.Totals{Runs: 2, Total: 4, Succeeded: 3, Failed: 1}, mine)

	recent, err := j.Recent(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.RunSingle, recent[0].Kind)
	assert.NotEmpty(t, recent[0].ID)
	assert.True(t, recent[1].StartedAt.Equal(start))
}

func TestRecordRejectsDuplicateID(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	run := models.BatchRun{ID: "fixed", UserID: 1, Kind: models.RunBulk, StartedAt: time.Now(), FinishedAt: time.Now()}

	require.NoError(t, j.Record(ctx, run))
	assert.Error(t, j.Record(ctx, run))
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, models.BatchRun{UserID: 5, Kind: models.RunBulk, Outcome: models.BulkOutcome{Total: 1, Succeeded: 1}, StartedAt: time.Now(), FinishedAt: time.Now()}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	totals, err := j.UserTotals(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Runs)
}
