package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/synthsales/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration: the config file merged over the defaults,
with environment overrides applied.

This includes:
- Schema version compatibility
- Generation settings (record and batch counts, date range, vocabularies)
- Transform, upload, logging and ledger settings`,
		Example: `  # Validate current configuration
  synthsales config validate

  # Validate and show detailed information
  synthsales config validate --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.FromContext(cmd.Context())

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("✅ Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}
	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	gen := cfg.Generation
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Schema version: %s\n", cfg.SchemaVersion)
	cmd.Printf("  Records: %d in batches of %d\n", gen.Records, gen.BatchSize)
	if gen.Workers == 0 {
		cmd.Println("  Workers: one per CPU")
	} else {
		cmd.Printf("  Workers: %d\n", gen.Workers)
	}
	cmd.Printf("  Dates: %s to %s (exclusive)\n", gen.StartDate, gen.EndDate)
	cmd.Printf("  Categories: %d, regions: %d\n", len(gen.Categories), len(gen.Regions))
	cmd.Printf("  Parquet compression: %s\n", cfg.Transform.Compression)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Log file: %s\n", cfg.Logging.File)

	printUploadDetails(cmd, cfg)
	if cfg.Ledger.Enabled {
		cmd.Printf("  Run ledger: %s\n", cfg.Ledger.Path)
	} else {
		cmd.Println("  Run ledger: disabled")
	}
}

// printUploadDetails prints the object storage settings.
func printUploadDetails(cmd *cobra.Command, cfg *config.Config) {
	if cfg.Upload.Bucket == "" {
		cmd.Println("  No default upload bucket configured")
		return
	}
	cmd.Printf("  Upload bucket: %s (%s, %s)\n", cfg.Upload.Bucket, cfg.Upload.Region, cfg.Upload.StorageClass)
}
