package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/synthsales/internal/config"
)

// NewConfigShowCmd creates the config show command, which prints the effective
// configuration as YAML.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration as YAML: the config file merged over the
defaults, with environment overrides applied.`,
		Example: `  # Show configuration
  synthsales config show

  # Show the configuration a specific file produces
  synthsales config show --config ./synthsales.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(config.FromContext(cmd.Context())); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
