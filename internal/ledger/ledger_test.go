package ledger_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/synthsales/internal/ledger"
)

func openLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(context.Background(), filepath.Join(t.TempDir(), "nested", "runs.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordAndList(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := l.Record(ctx, ledger.Run{
		Command:   "generate",
		StartedAt: base,
		Duration:  3 * time.Second,
		Status:    ledger.StatusSucceeded,
		Detail:    "10 rows",
	})
	require.NoError(t, err)
	assert.Len(t, first.ID, 26)

	_, err = l.Record(ctx, ledger.Run{
		Command:   "generate",
		StartedAt: base.Add(time.Minute),
		Duration:  time.Second,
		Status:    ledger.StatusFailed,
		Detail:    "1/3 batches failed",
	})
	require.NoError(t, err)

	runs, err := l.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, ledger.StatusFailed, runs[0].Status)
	assert.Equal(t, "1/3 batches failed", runs[0].Detail)
	assert.Equal(t, first.ID, runs[1].ID)
	assert.True(t, base.Equal(runs[1].StartedAt))
	assert.Equal(t, 3*time.Second, runs[1].Duration)
}

func TestList_Limit(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()
	for i := range 5 {
		_, err := l.Record(ctx, ledger.Run{
			Command:   "transform",
			StartedAt: time.Unix(int64(i), 0),
			Status:    ledger.StatusSucceeded,
		})
		require.NoError(t, err)
	}

	runs, err := l.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(4), runs[0].StartedAt.Unix())

	runs, err = l.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}

func TestRecord_DefaultsStartTime(t *testing.T) {
	l := openLedger(t)
	before := time.Now()

	run, err := l.Record(context.Background(), ledger.Run{Command: "upload", Status: ledger.StatusCancelled})
	require.NoError(t, err)
	assert.False(t, run.StartedAt.Before(before))
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	l, err := ledger.Open(ctx, path, zerolog.Nop())
	require.NoError(t, err)
	_, err = l.Record(ctx, ledger.Run{Command: "generate", Status: ledger.StatusSucceeded})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = ledger.Open(ctx, path, zerolog.Nop())
	require.NoError(t, err)
	defer l.Close()
	runs, err := l.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestClosedLedger(t *testing.T) {
	l := openLedger(t)
	require.NoError(t, l.Close())

	_, err := l.Record(context.Background(), ledger.Run{Command: "generate"})
	require.ErrorIs(t, err, ledger.ErrClosed)
	_, err = l.List(context.Background(), 1)
	require.ErrorIs(t, err, ledger.ErrClosed)
	require.NoError(t, l.Close())
}
