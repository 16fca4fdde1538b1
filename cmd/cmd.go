// Package cmd defines the command-line interface for sosig.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbShowCmd)
	dbCmd.AddCommand(dbGetCmd)
	dbCmd.AddCommand(dbRemoveCmd)
	dbCmd.AddCommand(dbClearCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(dbVacuumCmd)
	dbCmd.AddCommand(dbExportCmd)
	dbCmd.AddCommand(dbMigrateCmd)

	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsClearCmd)

	configCmd.AddCommand(configShowCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "How long a stored record stays fresh")
	rootCmd.PersistentFlags().String("command-timeout", contract.DefaultCommandTimeout.String(), "Timeout for each git command")
	rootCmd.PersistentFlags().String("remote-timeout", contract.DefaultRemoteTimeout.String(), "Timeout for each hosting service request")
	rootCmd.PersistentFlags().String("github-api-url", "", "GitHub Enterprise API base URL (default api.github.com)")
	rootCmd.PersistentFlags().Bool("allow-missing-remote", false, "Use zero stars and issues when remote metadata is unavailable")
	rootCmd.PersistentFlags().String("db-backend", string(schema.SQLiteBackend), "Metrics backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("db-connect", "", "Metrics database file (sqlite) or connection string")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-connect", "", "Run history database file (sqlite) or connection string")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	analyzeCmd.Flags().Bool("force", false, "Re-collect even when a fresh record exists")
	analyzeCmd.Flags().String("group", "", "Label stored with each analyzed record")
	analyzeCmd.Flags().Int("workers", contract.DefaultWorkers, "Number of repositories analyzed concurrently")
	if err := viper.BindPFlags(analyzeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analyze flags", err)
	}

	for _, c := range []*cobra.Command{dbListCmd, dbShowCmd} {
		c.Flags().String("sort", string(schema.SortSocialSignal), "Record attribute to sort by (descending)")
		c.Flags().IntP("limit", "l", contract.DefaultResultLimit, "Number of records to display (0 = all)")
	}
	// list and show share the sort/limit keys, so each binds its own flags at run time.

	dbMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	dbMigrateCmd.Flags().String("set", "all", "Which schema to migrate: metrics or runs or all")
	if err := viper.BindPFlags(dbMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding migrate flags", err)
	}
}
