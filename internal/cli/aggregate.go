package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/synthsales/internal/aggregate"
	"github.com/rshade/synthsales/internal/logging"
)

// aggregateParams holds the flags of the aggregate command.
type aggregateParams struct {
	engine string
	output string
}

// NewAggregateCmd creates the aggregate command, which reads a CSV file or Parquet
// dataset, totals quantity per category, averages it per region and reports the
// time spent in each phase.
func NewAggregateCmd() *cobra.Command {
	var params aggregateParams

	cmd := &cobra.Command{
		Use:   "aggregate <path>",
		Short: "Aggregate a dataset and time the read and process phases",
		Long: `Read a generated dataset and aggregate it.

Reports the total quantity sold per product category and the average quantity per
region, together with read and processing times. The csv engine reads the generated
CSV; the parquet engine reads a single .parquet file or every .parquet file under a
dataset directory. auto picks parquet for directories and .parquet files.`,
		Example: aggregateExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeAggregate(cmd, args[0], params)
		},
	}

	cmd.Flags().StringVar(&params.engine, "engine", aggregate.EngineAuto, "read engine: csv, parquet or auto")
	cmd.Flags().StringVar(&params.output, "output", outputTable, "output format: table or json")

	return cmd
}

const aggregateExample = `  # Aggregate the generated CSV
  synthsales aggregate dataset_base.csv

  # Aggregate a partitioned Parquet dataset
  synthsales aggregate dataset_parquet --engine parquet

  # Machine-readable output
  synthsales aggregate dataset_parquet --output json`

// executeAggregate runs the benchmark and renders it.
func executeAggregate(cmd *cobra.Command, path string, params aggregateParams) error {
	ctx := cmd.Context()
	if err := validateOutputFormat(params.output); err != nil {
		return err
	}
	record := newRunRecord("aggregate")

	proc, err := aggregate.NewProcessor(params.engine, path)
	if err != nil {
		return err
	}

	bench, err := aggregate.Run(ctx, proc)
	if err != nil {
		logging.FromContext(ctx).Error().Ctx(ctx).Err(err).Str("path", path).Msg("aggregation failed")
		record.finish(ctx, "", err)
		return fmt.Errorf("aggregating %s: %w", path, err)
	}
	record.finish(ctx, fmt.Sprintf("%s engine, %d rows", bench.Engine, bench.Rows), nil)

	out := cmd.OutOrStdout()
	if params.output == outputJSON {
		return aggregate.RenderJSON(out, bench)
	}
	return aggregate.RenderTable(out, bench, styledOutput(out))
}
