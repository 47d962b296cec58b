package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/synthsales/internal/config"
)

// NewConfigInitCmd creates the config init command, which writes a configuration
// file populated with the defaults.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values.

The file is written to --config when given, otherwise to $SYNTHSALES_HOME/config.yaml
(~/.synthsales/config.yaml by default).`,
		Example: `  # Create the default configuration
  synthsales config init

  # Create configuration, overwriting existing
  synthsales config init --force

  # Write to a custom location
  synthsales config init --config ./synthsales.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")

	return cmd
}

// configPath returns the --config flag value or the default config location.
func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	if path := os.Getenv(config.EnvConfig); path != "" {
		return path, nil
	}
	return config.DefaultConfigPath()
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	path, err := configPath(cmd)
	if err != nil {
		return err
	}

	// Check if config already exists and force isn't set
	if !force {
		if _, statErr := os.Stat(path); statErr == nil {
			return errors.New("configuration file already exists, use --force to overwrite")
		} else if !os.IsNotExist(statErr) {
			return fmt.Errorf("cannot access config path %s: %w", path, statErr)
		}
	}

	if err = config.New().Save(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", path)
	return nil
}
