package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/will-wright-eng/social-signals/internal/outwriter"
)

// analyzeCmd scores one or more local checkouts.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path...]",
	Short: "Collect metrics and score the social signal of local repositories.",
	Long: `Analyze each repository checkout and store its metrics record.

For every path sosig gathers:
- Age, update frequency, contributors, commits and lines of code from Git
- Stars, owner and open issues from the hosting service (origin remote)

It normalizes each metric against its ceiling, combines them with the configured
weights into a 0-100 social signal, and upserts one record per absolute path.
A record analyzed within --cache-ttl is reused unless --force is given.

One failing path never stops the others. The command exits non-zero only when
every path failed.

Examples:
  # Analyze the current directory
  sosig analyze

  # Analyze every checkout under ~/src with four workers
  sosig analyze ~/src/* --workers 4

  # Re-collect and label the records
  sosig analyze ~/src/tools/* --force --group tools

  # Export the batch summary as JSON
  sosig analyze . --output json --output-file batch.json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if len(args) == 0 {
			args = []string{"."}
		}

		analyzer, err := newAnalyzer()
		if err != nil {
			fatal("Cannot create analyzer", err)
		}

		result := analyzer.AnalyzeBatch(rootCtx, args, cfg.Force)
		if err := outwriter.NewOutWriter().WriteBatch(result, cfg); err != nil {
			fatal("Cannot write analysis results", err)
		}
		if result.Succeeded() == 0 && len(result.Failures) > 0 {
			fatal("All repositories failed", fmt.Errorf("%d of %d paths failed", len(result.Failures), result.Total()))
		}
	},
}
