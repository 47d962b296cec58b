package batch

import (
	"sync"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Progress tracks a batched run: rows emitted, batches finished and batches failed.
// All methods are safe for concurrent use.
type Progress struct {
	totalRows        int64
	processedRows    int64
	totalBatches     int
	completedBatches int
	failedBatches    int
	startTime        time.Time
	lastUpdateTime   time.Time

	mu sync.RWMutex
}

// NewProgress creates a new progress tracker.
func NewProgress(totalRows int64, totalBatches int) *Progress {
	now := time.Now()
	return &Progress{
		totalRows:      totalRows,
		totalBatches:   totalBatches,
		startTime:      now,
		lastUpdateTime: now,
	}
}

// AddCompleted records a batch that produced rows.
func (p *Progress) AddCompleted(rows int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processedRows += rows
	p.completedBatches++
	p.lastUpdateTime = time.Now()
}

// AddFailed records a batch that produced no rows.
func (p *Progress) AddFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completedBatches++
	p.failedBatches++
	p.lastUpdateTime = time.Now()
}

// PercentComplete returns the share of finished batches (0-100), failed ones included.
func (p *Progress) PercentComplete() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.percentCompleteUnsafe()
}

// IsComplete reports whether every batch has finished.
func (p *Progress) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.completedBatches >= p.totalBatches
}

// EstimatedTimeRemaining extrapolates from the average batch duration so far.
// Returns 0 before the first batch finishes.
func (p *Progress) EstimatedTimeRemaining() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.completedBatches == 0 {
		return 0
	}
	avg := time.Since(p.startTime) / time.Duration(p.completedBatches)
	return avg * time.Duration(p.totalBatches-p.completedBatches)
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elapsed := time.Since(p.startTime)
	var rate float64
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(p.processedRows) / secs
	}

	return ProgressSnapshot{
		TotalRows:        p.totalRows,
		ProcessedRows:    p.processedRows,
		TotalBatches:     p.totalBatches,
		CompletedBatches: p.completedBatches,
		FailedBatches:    p.failedBatches,
		StartTime:        p.startTime,
		LastUpdateTime:   p.lastUpdateTime,
		PercentComplete:  p.percentCompleteUnsafe(),
		ElapsedTime:      elapsed,
		RowsPerSecond:    rate,
	}
}

// ProgressSnapshot is an immutable snapshot of progress state.
type ProgressSnapshot struct {
	TotalRows        int64
	ProcessedRows    int64
	TotalBatches     int
	CompletedBatches int
	FailedBatches    int
	StartTime        time.Time
	LastUpdateTime   time.Time
	PercentComplete  float64
	ElapsedTime      time.Duration
	RowsPerSecond    float64
}

// Ratio returns PercentComplete scaled to [0, 1].
func (s ProgressSnapshot) Ratio() float64 {
	return s.PercentComplete / percentMultiplier
}

// percentCompleteUnsafe must be called with the lock held.
func (p *Progress) percentCompleteUnsafe() float64 {
	if p.totalBatches == 0 {
		return 0
	}
	return (float64(p.completedBatches) / float64(p.totalBatches)) * percentMultiplier
}
