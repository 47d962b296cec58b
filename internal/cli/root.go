package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/synthsales/internal/config"
	"github.com/rshade/synthsales/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the synthsales CLI.
// It loads configuration, wires up logging and tracing, and registers the
// generate, transform, aggregate, upload, runs and config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:     "synthsales",
		Short:   "Synthetic sales dataset toolkit",
		Long:    "synthsales: generate reproducible synthetic sales datasets, convert them to Parquet, aggregate and publish them",
		Version: ver,
		Example: rootCmdExample,
		// Errors are printed once by main.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			cmd.SetContext(config.ContextWithConfig(cmd.Context(), cfg))

			result := setupLogging(cmd, cfg)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().String("config", "", "path to config file (default $SYNTHSALES_HOME/config.yaml)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging to stderr")
	cmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "", "log format: console or json")
	cmd.AddCommand(
		NewGenerateCmd(), NewTransformCmd(), NewAggregateCmd(), NewUploadCmd(),
		newRunsCmd(), newConfigCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Generate the reference dataset (10M rows, 1M per batch)
  synthsales generate

  # Small reproducible dataset with four workers
  synthsales generate --records 100000 --batch-size 10000 --workers 4 --seed 7 --output sales.csv

  # Convert to Parquet partitioned by region
  synthsales transform sales.csv -o sales_parquet -p region_de_venta

  # Aggregate with the Parquet engine
  synthsales aggregate sales_parquet --engine parquet

  # Upload the Parquet dataset to S3
  synthsales upload -d sales_parquet -n my-sales-bucket

  # Show recent runs
  synthsales runs list`

// newRunsCmd creates the runs command group.
func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "runs", Short: "Run history commands"}
	cmd.AddCommand(NewRunsListCmd())
	return cmd
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd(), NewConfigShowCmd())
	return cmd
}
