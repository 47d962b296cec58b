package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/synthsales/internal/engine/batch"
	"github.com/rshade/synthsales/internal/logging"
)

// BatchResult is what a worker hands back for one plan: either rows or an error.
type BatchResult struct {
	Plan  BatchPlan
	Batch *Batch
	Err   error
}

// BatchFailure records a batch that produced no rows.
type BatchFailure struct {
	Index int
	Err   error
}

// Summary describes a finished run.
type Summary struct {
	TotalBatches   int
	WrittenBatches int
	FailedBatches  int
	// UnwrittenBatches counts generated batches the sink rejected.
	UnwrittenBatches int
	// SkippedBatches counts batches never started or dropped after the run stopped.
	SkippedBatches int
	RowsWritten    int64
	Failures       []BatchFailure
	Duration       time.Duration
}

// ProgressCallback receives a snapshot after every finished batch.
type ProgressCallback func(batch.ProgressSnapshot)

// Generator runs the batches of one GenerationConfig against one Sink.
type Generator struct {
	cfg        GenerationConfig
	sink       Sink
	rows       RowGenerator
	logger     *zerolog.Logger
	onProgress ProgressCallback
}

// NewGenerator creates a generator that draws rows with NewRandomRows(cfg).
func NewGenerator(cfg GenerationConfig, sink Sink) *Generator {
	return &Generator{
		cfg:  cfg,
		sink: sink,
		rows: NewRandomRows(cfg),
	}
}

// WithRowGenerator replaces the row generator.
func (g *Generator) WithRowGenerator(rows RowGenerator) *Generator {
	g.rows = rows
	return g
}

// WithLogger sets the logger; by default the context logger is used.
func (g *Generator) WithLogger(l zerolog.Logger) *Generator {
	g.logger = &l
	return g
}

// WithProgressCallback sets a progress callback, invoked on the Run goroutine.
func (g *Generator) WithProgressCallback(cb ProgressCallback) *Generator {
	g.onProgress = cb
	return g
}

// Run generates every batch and streams results to the sink as they complete.
//
// The header is written before any batch is dispatched. Batch failures are logged
// and collected; when any occurred Run returns the summary together with an error
// wrapping ErrBatchesFailed. A sink failure stops dispatch of remaining batches and
// is returned as a *WriteError; the rejected batch counts as unwritten. Cancelling
// ctx likewise stops dispatch; batches already running finish and are written, and
// batches never started count as skipped rather than failed.
func (g *Generator) Run(ctx context.Context) (Summary, error) {
	log := g.logger
	if log == nil {
		log = logging.FromContext(ctx)
	}

	start := time.Now()
	total := g.cfg.NumberOfBatches()
	summary := Summary{TotalBatches: total}
	progress := batch.NewProgress(g.cfg.Records(), total)

	if err := g.sink.WriteHeader(); err != nil {
		return summary, asWriteError(err, g.cfg.Output())
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := g.dispatch(runCtx)

	log.Info().
		Int("batches", total).
		Int("workers", g.cfg.Workers()).
		Int64("records", g.cfg.Records()).
		Msg("generation started")

	var writeErr error
	for res := range results {
		if res.Err != nil && runCtx.Err() != nil && isCancellation(res.Err) {
			// Cancelled before producing rows: counted as skipped.
			log.Debug().Err(res.Err).Int("batch", res.Plan.Index).Msg("batch cancelled")
			continue
		}
		if res.Err != nil {
			summary.FailedBatches++
			summary.Failures = append(summary.Failures, BatchFailure{Index: res.Plan.Index, Err: res.Err})
			progress.AddFailed()
			log.Error().Err(res.Err).
				Int("batch", res.Plan.Index).
				Int64("start_id", res.Plan.StartID).
				Int64("end_id", res.Plan.EndID).
				Msg("batch generation failed")
		} else if writeErr == nil {
			if err := g.sink.WriteBatch(res.Batch); err != nil {
				summary.UnwrittenBatches++
				writeErr = asWriteError(err, g.cfg.Output())
				cancel()
				log.Error().Err(writeErr).Int("batch", res.Plan.Index).Msg("sink write failed, aborting run")
				continue
			}
			rows := int64(res.Batch.Len())
			summary.WrittenBatches++
			summary.RowsWritten += rows
			progress.AddCompleted(rows)
			log.Debug().
				Int("batch", res.Plan.Index).
				Int64("rows", rows).
				Msgf("batch %d/%d written", progress.Snapshot().CompletedBatches, total)
		}

		if g.onProgress != nil {
			g.onProgress(progress.Snapshot())
		}
	}

	summary.SkippedBatches = total - summary.WrittenBatches - summary.FailedBatches - summary.UnwrittenBatches
	summary.Duration = time.Since(start)

	if writeErr != nil {
		return summary, writeErr
	}
	if err := ctx.Err(); err != nil {
		log.Warn().Int("skipped", summary.SkippedBatches).Msg("generation cancelled")
		return summary, fmt.Errorf("generation cancelled: %w", err)
	}
	if summary.FailedBatches > 0 {
		log.Warn().
			Int("failed", summary.FailedBatches).
			Int("total", total).
			Msgf("%d/%d batches failed", summary.FailedBatches, total)
		return summary, fmt.Errorf("%w: %d/%d", ErrBatchesFailed, summary.FailedBatches, total)
	}

	log.Info().
		Int64("rows", summary.RowsWritten).
		Dur("duration", summary.Duration).
		Msg("generation completed")
	return summary, nil
}

// dispatch queues every plan, starts the worker pool and returns the completion
// channel. Results arrive in completion order; the channel closes once every worker
// has exited. Workers skip plans once ctx is done.
func (g *Generator) dispatch(ctx context.Context) <-chan BatchResult {
	total := g.cfg.NumberOfBatches()
	workers := min(g.cfg.Workers(), max(total, 1))

	jobs := make(chan BatchPlan, total)
	for plan := range PlanSeq(g.cfg) {
		jobs <- plan
	}
	close(jobs)

	results := make(chan BatchResult, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for plan := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results <- g.generate(ctx, plan)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// generate runs one plan and converts every failure, panics included, into a
// GenerationError on the result.
func (g *Generator) generate(ctx context.Context, plan BatchPlan) (res BatchResult) {
	res.Plan = plan
	defer func() {
		if r := recover(); r != nil {
			res.Batch = nil
			res.Err = &GenerationError{BatchIndex: plan.Index, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	b, err := g.rows.Generate(ctx, plan)
	if err == nil && int64(b.Len()) != plan.Rows() {
		err = fmt.Errorf("%w: got %d, want %d", ErrRowCountMismatch, b.Len(), plan.Rows())
	}
	if err != nil {
		res.Err = &GenerationError{BatchIndex: plan.Index, Err: err}
		return res
	}
	res.Batch = b
	return res
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
