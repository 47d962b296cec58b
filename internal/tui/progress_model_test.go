package tui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/synthsales/internal/engine/batch"
)

func snapshot(done, failed, total int, rows int64) batch.ProgressSnapshot {
	return batch.ProgressSnapshot{
		TotalRows:        int64(total) * 1000,
		ProcessedRows:    rows,
		TotalBatches:     total,
		CompletedBatches: done,
		FailedBatches:    failed,
		PercentComplete:  float64(done) / float64(total) * 100,
		ElapsedTime:      2 * time.Second,
		RowsPerSecond:    float64(rows) / 2,
	}
}

func TestProgressModel_ProgressUpdatesView(t *testing.T) {
	m := NewProgressModel("Generating dataset")

	updated, cmd := m.Update(ProgressMsg(snapshot(3, 1, 10, 2000)))
	require.NotNil(t, cmd)
	view := updated.View()

	assert.Contains(t, view, "Generating dataset")
	assert.Contains(t, view, "3/10")
	assert.Contains(t, view, "1 failed")
	assert.Contains(t, view, "2,000")
	assert.Contains(t, view, "eta")
}

func TestProgressModel_DoneQuits(t *testing.T) {
	m := NewProgressModel("Generating dataset")
	next, _ := m.Update(ProgressMsg(snapshot(10, 0, 10, 10000)))

	final, cmd := next.Update(DoneMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Contains(t, final.View(), "done in 2s")
	assert.NotContains(t, final.View(), "eta")
}

func TestProgressModel_DoneWithError(t *testing.T) {
	m := NewProgressModel("Generating dataset")
	final, _ := m.Update(DoneMsg{Err: errors.New("1/3 batches failed")})

	pm, ok := final.(ProgressModel)
	require.True(t, ok)
	require.Error(t, pm.Err())
	assert.Contains(t, pm.View(), "failed: 1/3 batches failed")
}

func TestProgressModel_WindowResize(t *testing.T) {
	m := NewProgressModel("x")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	pm, ok := next.(ProgressModel)
	require.True(t, ok)
	assert.Equal(t, 26, pm.bar.Width)

	next, _ = pm.Update(tea.WindowSizeMsg{Width: 500})
	assert.Equal(t, maxBarWidth, next.(ProgressModel).bar.Width)
}

func TestRemaining(t *testing.T) {
	assert.Zero(t, remaining(batch.ProgressSnapshot{}))
	assert.Equal(t, 4*time.Second, remaining(batch.ProgressSnapshot{
		TotalRows:     1000,
		ProcessedRows: 200,
		RowsPerSecond: 200,
	}))
}

func TestShouldRender(t *testing.T) {
	assert.False(t, ShouldRender(nil, false))
	assert.False(t, ShouldRender(nil, true))
}

func TestRunWithProgress_ReturnsWorkError(t *testing.T) {
	var out bytes.Buffer
	wantErr := errors.New("disk full")

	err := RunWithProgress(context.Background(), &out, "Generating", func(_ context.Context, report func(batch.ProgressSnapshot)) error {
		report(snapshot(1, 0, 2, 1000))
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestRunWithProgress_Success(t *testing.T) {
	var out bytes.Buffer

	err := RunWithProgress(context.Background(), &out, "Generating", func(_ context.Context, report func(batch.ProgressSnapshot)) error {
		report(snapshot(1, 0, 2, 1000))
		report(snapshot(2, 0, 2, 2000))
		return nil
	})
	require.NoError(t, err)
}
