package batch

import (
	"errors"
	"fmt"
	"iter"
)

// Common partitioning errors.
var (
	ErrInvalidBatchSize  = errors.New("batch size must be positive")
	ErrInvalidTotal      = errors.New("total must be positive")
	ErrBatchExceedsTotal = errors.New("batch size exceeds total")
)

// Range is a half-open [Start, End) interval of record offsets.
type Range struct {
	Start int64
	End   int64
}

// Len returns the number of offsets in the range.
func (r Range) Len() int64 {
	return r.End - r.Start
}

// Partitioner splits totals into fixed-size ranges.
type Partitioner struct {
	// batchSize is the number of offsets per range; only the last range may be shorter.
	batchSize int64
}

// NewPartitioner creates a partitioner with the given batch size.
func NewPartitioner(batchSize int64) (*Partitioner, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Partitioner{batchSize: batchSize}, nil
}

// BatchSize returns the configured batch size.
func (p *Partitioner) BatchSize() int64 {
	return p.batchSize
}

// Validate checks that total can be partitioned with this batch size.
func (p *Partitioner) Validate(total int64) error {
	if total < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidTotal, total)
	}
	if p.batchSize > total {
		return fmt.Errorf("%w: %d > %d", ErrBatchExceedsTotal, p.batchSize, total)
	}
	return nil
}

// Count returns ceil(total / batchSize).
func (p *Partitioner) Count(total int64) int {
	if total <= 0 {
		return 0
	}
	n := total / p.batchSize
	if total%p.batchSize > 0 {
		n++
	}
	return int(n)
}

// Ranges lazily yields (index, range) pairs covering [0, total) in index order.
// The final range is clipped to total.
func (p *Partitioner) Ranges(total int64) iter.Seq2[int, Range] {
	return func(yield func(int, Range) bool) {
		for i := range p.Count(total) {
			start := int64(i) * p.batchSize
			end := min(start+p.batchSize, total)
			if !yield(i, Range{Start: start, End: end}) {
				return
			}
		}
	}
}
