package dataset

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// Sale quantity bounds, both inclusive.
const (
	MinQuantity int64 = 10
	MaxQuantity int64 = 10_000
)

// pcgStream is the second PCG word for per-batch generators; the batch seed is the first.
const pcgStream uint64 = 0x9e3779b97f4a7c15

// bytesPerRow approximates one generated row: two int64, a time.Time and two string headers.
const bytesPerRow uint64 = 8*2 + 24 + 16*2

// Batch holds generated rows column by column. All slices have the same length.
type Batch struct {
	CustomerIDs []int64
	Dates       []time.Time
	Quantities  []int64
	Categories  []string
	Regions     []string
}

// Len returns the number of rows.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.CustomerIDs)
}

// RowGenerator produces the rows for one plan. Implementations must be safe to call
// from several goroutines at once.
type RowGenerator interface {
	Generate(ctx context.Context, plan BatchPlan) (*Batch, error)
}

// MemoryCheck returns an error when need bytes cannot be allocated.
type MemoryCheck func(need uint64) error

// RandomRows draws rows uniformly from fixed vocabularies.
type RandomRows struct {
	Categories []string
	Regions    []string
	Dates      []time.Time

	// CheckMemory runs before a batch is allocated. Nil disables the check.
	CheckMemory MemoryCheck
}

// NewRandomRows returns a generator over cfg's vocabularies that refuses batches
// larger than the memory currently available on the host.
func NewRandomRows(cfg GenerationConfig) *RandomRows {
	return &RandomRows{
		Categories:  cfg.Categories(),
		Regions:     cfg.Regions(),
		Dates:       cfg.Dates(),
		CheckMemory: SystemMemoryCheck,
	}
}

// Generate implements RowGenerator. A fresh PCG source seeded from plan.Seed makes the
// result independent of which worker runs the plan and when. A started batch always
// runs to completion; cancellation is applied before dispatch.
func (g *RandomRows) Generate(_ context.Context, plan BatchPlan) (*Batch, error) {
	switch {
	case len(g.Categories) == 0:
		return nil, fmt.Errorf("%w: categories", ErrEmptyVocabulary)
	case len(g.Regions) == 0:
		return nil, fmt.Errorf("%w: regions", ErrEmptyVocabulary)
	case len(g.Dates) == 0:
		return nil, fmt.Errorf("%w: dates", ErrEmptyVocabulary)
	}

	n := plan.Rows()
	if n <= 0 {
		return &Batch{}, nil
	}
	if g.CheckMemory != nil {
		if err := g.CheckMemory(uint64(n) * bytesPerRow); err != nil {
			return nil, err
		}
	}
	r := rand.New(rand.NewPCG(plan.Seed, pcgStream)) //nolint:gosec // reproducible synthetic data
	b := &Batch{
		CustomerIDs: make([]int64, n),
		Dates:       make([]time.Time, n),
		Quantities:  make([]int64, n),
		Categories:  make([]string, n),
		Regions:     make([]string, n),
	}

	for i := range n {
		b.CustomerIDs[i] = plan.StartID + i
	}
	for i := range n {
		b.Dates[i] = g.Dates[r.IntN(len(g.Dates))]
	}
	for i := range n {
		b.Quantities[i] = MinQuantity + r.Int64N(MaxQuantity-MinQuantity+1)
	}
	for i := range n {
		b.Categories[i] = g.Categories[r.IntN(len(g.Categories))]
	}
	for i := range n {
		b.Regions[i] = g.Regions[r.IntN(len(g.Regions))]
	}

	return b, nil
}

// SystemMemoryCheck compares need against the memory the OS reports as available.
// If the OS cannot be queried the check passes.
func SystemMemoryCheck(need uint64) error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil //nolint:nilerr // an unreadable meminfo must not block generation
	}
	if need > vm.Available {
		return fmt.Errorf("%w: need %d MiB, %d MiB available",
			ErrInsufficientMemory, need>>20, vm.Available>>20)
	}
	return nil
}
