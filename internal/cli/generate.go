package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/synthsales/internal/config"
	"github.com/rshade/synthsales/internal/dataset"
	"github.com/rshade/synthsales/internal/engine/batch"
	"github.com/rshade/synthsales/internal/logging"
	"github.com/rshade/synthsales/internal/tui"
)

// generateParams holds the flags of the generate command.
type generateParams struct {
	records    int64
	batchSize  int64
	workers    int
	seed       uint64
	output     string
	startDate  string
	endDate    string
	noProgress bool
}

// NewGenerateCmd creates the generate command, which writes a synthetic sales CSV
// in independently seeded batches on a fixed worker pool.
//
// Flags override the generation section of the configuration only when set.
func NewGenerateCmd() *cobra.Command {
	var params generateParams

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic sales dataset as CSV",
		Long: `Generate a synthetic sales dataset in batches.

Every batch draws its rows from its own seed, derived from the master seed, so the
set of rows is reproducible for a given seed and batch size regardless of the number
of workers. Batches are written as they complete; with one worker the file is in
batch order.

If any batch fails the remaining batches are still written, and the command exits
with status 1 reporting "<failed>/<total> batches failed".`,
		Example: generateExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeGenerate(cmd, params)
		},
	}

	defaults := config.New().Generation
	cmd.Flags().Int64Var(&params.records, "records", defaults.Records, "total number of rows to generate")
	cmd.Flags().Int64Var(&params.batchSize, "batch-size", defaults.BatchSize, "rows per batch")
	cmd.Flags().IntVar(&params.workers, "workers", defaults.Workers, "worker goroutines (0 = one per CPU)")
	cmd.Flags().Uint64Var(&params.seed, "seed", defaults.Seed, "master seed for batch seed derivation")
	cmd.Flags().StringVarP(&params.output, "output", "o", defaults.Output, "output CSV path")
	cmd.Flags().StringVar(&params.startDate, "start-date", defaults.StartDate, "first transaction date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&params.endDate, "end-date", defaults.EndDate, "end of the date range, exclusive (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&params.noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}

const generateExample = `  # Reference dataset: 10M rows in batches of 1M
  synthsales generate

  # Small run with a fixed seed and deterministic row order
  synthsales generate --records 5000 --batch-size 1000 --workers 1 --seed 42 -o sales.csv

  # One year of 2024 transactions
  synthsales generate --start-date 2024-01-01 --end-date 2025-01-01`

// applyGenerateFlags overlays the flags the user set onto the generation config.
func applyGenerateFlags(cmd *cobra.Command, gen config.GenerationConfig, p generateParams) config.GenerationConfig {
	flags := cmd.Flags()
	if flags.Changed("records") {
		gen.Records = p.records
	}
	if flags.Changed("batch-size") {
		gen.BatchSize = p.batchSize
	}
	if flags.Changed("workers") {
		gen.Workers = p.workers
	}
	if flags.Changed("seed") {
		gen.Seed = p.seed
	}
	if flags.Changed("output") {
		gen.Output = p.output
	}
	if flags.Changed("start-date") {
		gen.StartDate = p.startDate
	}
	if flags.Changed("end-date") {
		gen.EndDate = p.endDate
	}
	return gen
}

// executeGenerate builds the generation config, opens the CSV sink and runs the
// generator, rendering a progress bar when stderr is a terminal.
func executeGenerate(cmd *cobra.Command, params generateParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	record := newRunRecord("generate")

	gen := applyGenerateFlags(cmd, config.FromContext(ctx).Generation, params)
	genParams, err := gen.GenerationParams()
	if err != nil {
		record.finish(ctx, "", err)
		return err
	}
	genCfg, err := dataset.NewGenerationConfig(genParams)
	if err != nil {
		record.finish(ctx, "", err)
		return err
	}

	sink, err := dataset.CreateCSVSink(genCfg.Output())
	if err != nil {
		record.finish(ctx, "", err)
		return err
	}

	log.Debug().Ctx(ctx).
		Int64("records", genCfg.Records()).
		Int64("batch_size", genCfg.BatchSize()).
		Int("workers", genCfg.Workers()).
		Uint64("seed", genCfg.Seed()).
		Str("output", genCfg.Output()).
		Msg("generation configured")

	var summary dataset.Summary
	work := func(ctx context.Context, report func(batch.ProgressSnapshot)) error {
		g := dataset.NewGenerator(genCfg, sink).WithLogger(*log)
		if report != nil {
			g.WithProgressCallback(report)
		}
		var runErr error
		summary, runErr = g.Run(ctx)
		return runErr
	}

	var runErr error
	if tui.ShouldRender(os.Stderr, params.noProgress) {
		runErr = tui.RunWithProgress(ctx, cmd.ErrOrStderr(), "Generating "+genCfg.Output(), work)
	} else {
		runErr = work(ctx, nil)
	}

	if closeErr := sink.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}

	return finishGenerate(cmd, record, summary, runErr)
}

// finishGenerate prints the run summary, records it, and maps batch failures to
// exit status 1.
func finishGenerate(cmd *cobra.Command, record *runRecord, summary dataset.Summary, runErr error) error {
	ctx := cmd.Context()
	detail := fmt.Sprintf("%d rows in %d/%d batches", summary.RowsWritten, summary.WrittenBatches, summary.TotalBatches)

	if errors.Is(runErr, dataset.ErrBatchesFailed) {
		reason := fmt.Sprintf("%d/%d batches failed", summary.FailedBatches, summary.TotalBatches)
		record.finish(ctx, reason, runErr)
		cmd.Printf("Wrote %d rows; %s\n", summary.RowsWritten, reason)
		return &ExitError{Code: 1, Reason: reason}
	}
	record.finish(ctx, detail, runErr)
	if runErr != nil {
		return runErr
	}

	cmd.Printf("Wrote %d rows in %d batches (%s)\n",
		summary.RowsWritten, summary.WrittenBatches, summary.Duration.Round(time.Millisecond))
	return nil
}
