package dataset

import (
	"iter"
	"math/rand/v2"
)

// BatchPlan describes one unit of work: customer ids [StartID, EndID) and the seed
// its rows are drawn from.
type BatchPlan struct {
	Index   int
	StartID int64
	EndID   int64
	Seed    uint64
}

// Rows returns the number of rows the batch produces.
func (p BatchPlan) Rows() int64 {
	return p.EndID - p.StartID
}

// PlanSeq lazily yields one plan per batch in index order.
//
// Seeds come from a single generator seeded with the master seed and are drawn in
// index order on the calling goroutine, so they never depend on how many workers
// later execute the plans. A draw that repeats an earlier seed is discarded.
func PlanSeq(cfg GenerationConfig) iter.Seq[BatchPlan] {
	return func(yield func(BatchPlan) bool) {
		if cfg.partitioner == nil {
			return
		}
		master := rand.New(rand.NewPCG(cfg.seed, cfg.seed)) //nolint:gosec // reproducible synthetic data
		used := make(map[uint64]struct{}, cfg.NumberOfBatches())

		for i, r := range cfg.partitioner.Ranges(cfg.records) {
			seed := master.Uint64()
			for {
				if _, dup := used[seed]; !dup {
					break
				}
				seed = master.Uint64()
			}
			used[seed] = struct{}{}

			plan := BatchPlan{
				Index:   i,
				StartID: r.Start + 1,
				EndID:   r.End + 1,
				Seed:    seed,
			}
			if !yield(plan) {
				return
			}
		}
	}
}

// Plan returns every plan of the run.
func Plan(cfg GenerationConfig) []BatchPlan {
	plans := make([]BatchPlan, 0, cfg.NumberOfBatches())
	for p := range PlanSeq(cfg) {
		plans = append(plans, p)
	}
	return plans
}
