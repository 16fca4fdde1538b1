package cmd

import (
	"github.com/spf13/cobra"
	"github.com/will-wright-eng/social-signals/internal/outwriter"
)

// configCmd groups configuration inspection.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print weights, ceilings, TTL, timeouts and store locations",
	Long: `Print the configuration after merging defaults, .sosig.yaml, SOSIG_* environment
variables and flags. The GitHub token is masked.`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := outwriter.NewOutWriter().WriteConfig(cfg); err != nil {
			fatal("Failed to write configuration", err)
		}
	},
}
