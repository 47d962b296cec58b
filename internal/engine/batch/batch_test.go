package batch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitioner_Ranges(t *testing.T) {
	p, err := NewPartitioner(10)
	require.NoError(t, err)

	var got []Range
	for i, r := range p.Ranges(25) {
		assert.Equal(t, len(got), i)
		got = append(got, r)
	}

	require.Len(t, got, 3)
	assert.Equal(t, Range{0, 10}, got[0])
	assert.Equal(t, Range{10, 20}, got[1])
	assert.Equal(t, Range{20, 25}, got[2])
	assert.Equal(t, int64(5), got[2].Len())
	assert.Equal(t, int64(10), p.BatchSize())
}

func TestPartitioner_RangesStopEarly(t *testing.T) {
	p, _ := NewPartitioner(1)
	seen := 0
	for range p.Ranges(100) {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
}

func TestPartitioner_Count(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int64
		total     int64
		want      int
	}{
		{"exact multiple", 5, 10, 2},
		{"remainder", 3, 10, 4},
		{"single batch", 10, 10, 1},
		{"zero total", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPartitioner(tt.batchSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Count(tt.total))
		})
	}
}

func TestPartitioner_Validation(t *testing.T) {
	_, err := NewPartitioner(0)
	require.ErrorIs(t, err, ErrInvalidBatchSize)

	p, _ := NewPartitioner(20)
	assert.ErrorIs(t, p.Validate(0), ErrInvalidTotal)
	assert.ErrorIs(t, p.Validate(10), ErrBatchExceedsTotal)
	assert.NoError(t, p.Validate(20))
}

func TestProgress(t *testing.T) {
	p := NewProgress(100, 4)

	assert.Equal(t, 0.0, p.PercentComplete())
	assert.False(t, p.IsComplete())
	assert.Zero(t, p.EstimatedTimeRemaining())

	p.AddCompleted(25)
	p.AddFailed()
	assert.Equal(t, 50.0, p.PercentComplete())

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.AddCompleted(25)
		}()
	}
	wg.Wait()

	assert.True(t, p.IsComplete())

	snap := p.Snapshot()
	assert.Equal(t, int64(75), snap.ProcessedRows)
	assert.Equal(t, 4, snap.CompletedBatches)
	assert.Equal(t, 1, snap.FailedBatches)
	assert.InDelta(t, 1.0, snap.Ratio(), 1e-9)
}
