package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/will-wright-eng/social-signals/internal/iocache"
)

// runsCmd groups batch run history management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage batch run history",
	Long: `Manage the optional batch run history.

When --runs-backend is set, every 'sosig analyze' records a run (id, start and end
time, duration, counts and scoring configuration) and the outcome of each path.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)`,
}

var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run history statistics and connection details",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := stores.GetRunStore().GetStatus(rootCtx)
		if err != nil {
			fatal("Failed to get run history status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all batch run history",
	Long: `Delete all stored runs and per-path outcomes.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the run tables`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearRuns(rootCtx, cfg.RunsBackend, cfg.RunsConnect); err != nil {
			fatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}
