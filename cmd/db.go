package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/will-wright-eng/social-signals/core"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/internal/iocache"
	"github.com/will-wright-eng/social-signals/internal/outwriter"
	"github.com/will-wright-eng/social-signals/schema"
)

// dbCmd groups metrics store management.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Query and manage stored repository records",
	Long: `Query and manage the repository metrics store.

Each analyzed checkout has exactly one record keyed by its absolute path.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  list    - Ranked records (default by social signal)
  show    - Every field of every record
  get     - One record by path
  remove  - Delete one record
  clear   - Delete all records
  stats   - Store statistics
  vacuum  - Reclaim unused storage
  export  - Write records and run history to Parquet
  migrate - Run schema migrations`,
}

var dbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored records ranked by a record attribute",
	Long: `List stored records ordered descending by --sort.

Any record attribute can be used: ` + fmt.Sprint(schema.SortFieldNames()) + `

Examples:
  sosig db list
  sosig db list --sort stars --limit 10
  sosig db list --output csv --output-file repos.csv`,
	PreRunE: listSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runList(false)
	},
}

var dbShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show every field of every stored record",
	PreRunE: listSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runList(true)
	},
}

func runList(detail bool) {
	records, err := stores.GetMetricsStore().ListAll(rootCtx, cfg.SortBy, cfg.Limit)
	if err != nil {
		fatal("Failed to list records", err)
	}
	if err := outwriter.NewOutWriter().WriteRecords(records, cfg, detail); err != nil {
		fatal("Failed to write records", err)
	}
}

var dbGetCmd = &cobra.Command{
	Use:     "get <path>",
	Short:   "Print the stored record for a repository path",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		key, err := core.RecordKey(args[0])
		if err != nil {
			fatal("Invalid path", err)
		}
		record, found, err := stores.GetMetricsStore().GetByPath(rootCtx, key)
		if err != nil {
			fatal("Failed to read record", err)
		}
		if !found {
			fatal("Cannot get record", fmt.Errorf("%s: %w", key, contract.ErrNotFound))
		}
		if err := outwriter.NewOutWriter().WriteRecords([]schema.MetricsRecord{record}, cfg, true); err != nil {
			fatal("Failed to write record", err)
		}
	},
}

var dbRemoveCmd = &cobra.Command{
	Use:     "remove <path>",
	Short:   "Delete the stored record for a repository path",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		key, err := core.RecordKey(args[0])
		if err != nil {
			fatal("Invalid path", err)
		}
		removed, err := stores.GetMetricsStore().Remove(rootCtx, key)
		if err != nil {
			fatal("Failed to remove record", err)
		}
		if !removed {
			fmt.Printf("No record for %s.\n", key)
			return
		}
		fmt.Printf("Removed %s.\n", key)
	},
}

var dbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored record",
	Long: `Delete every record from the metrics store. This cannot be undone.

Examples:
  # Export before clearing
  sosig db export --output-file backup
  sosig db clear`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		count, err := stores.GetMetricsStore().ClearAll(rootCtx)
		if err != nil {
			fatal("Failed to clear records", err)
		}
		fmt.Printf("Removed %d records.\n", count)
	},
}

var dbStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Display metrics store statistics and connection details",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := stores.GetMetricsStore().GetStatus(rootCtx)
		if err != nil {
			fatal("Failed to get store status", err)
		}
		if err := outwriter.NewOutWriter().WriteStoreStatus(status, cfg); err != nil {
			fatal("Failed to write store status", err)
		}
	},
}

var dbVacuumCmd = &cobra.Command{
	Use:     "vacuum",
	Short:   "Reclaim unused storage in the metrics store",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := stores.GetMetricsStore().Vacuum(rootCtx); err != nil {
			fatal("Failed to vacuum store", err)
		}
		fmt.Println("Vacuum completed.")
	},
}

var dbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records and run history to Parquet for analytics",
	Long: `Export stored records to Parquet for DuckDB, pandas, Spark or BI tools.

Writes <output-file>.repositories.parquet, plus <output-file>.runs.parquet and
<output-file>.run_paths.parquet when run history is enabled.

Requires: --output-file parameter

Examples:
  sosig db export --output-file sosig
  duckdb -c "SELECT name, social_signal FROM 'sosig.repositories.parquet' ORDER BY 2 DESC"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		files, err := iocache.ExportParquet(rootCtx, stores.GetMetricsStore(), stores.GetRunStore(), cfg.OutputFile)
		if err != nil {
			fatal("Failed to export data", err)
		}
		for _, f := range files {
			fmt.Printf("💾 Wrote %d rows to %s\n", f.Rows, f.Path)
		}
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the metrics store and the run history store.

By default, migrates both to the latest version. Use --set to pick one store and
--target-version for a specific version.

Examples:
  # Migrate everything to latest
  sosig db migrate

  # Roll the metrics schema back to version 1
  sosig db migrate --set metrics --target-version 1`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		type target struct {
			set     iocache.MigrationSet
			backend schema.DatabaseBackend
			connStr string
		}
		var targets []target
		switch set := viper.GetString("set"); set {
		case "all":
			targets = append(targets, target{iocache.MetricsMigrations, cfg.DBBackend, cfg.DBConnect})
			if cfg.RunsBackend != schema.NoneBackend {
				targets = append(targets, target{iocache.RunsMigrations, cfg.RunsBackend, cfg.RunsConnect})
			}
		case string(iocache.MetricsMigrations):
			targets = append(targets, target{iocache.MetricsMigrations, cfg.DBBackend, cfg.DBConnect})
		case string(iocache.RunsMigrations):
			targets = append(targets, target{iocache.RunsMigrations, cfg.RunsBackend, cfg.RunsConnect})
		default:
			fatal("Invalid migration set", &contract.ValidationError{Field: "set", Value: set, Message: "must be metrics, runs or all"})
		}

		for _, t := range targets {
			result, err := iocache.Migrate(rootCtx, t.set, t.backend, t.connStr, targetVersion)
			if err != nil {
				fatal("Failed to run migrations", err)
			}
			if !result.Changed {
				fmt.Printf("%s: no migration needed (version %d)\n", t.set, result.To)
				continue
			}
			fmt.Printf("%s: migrated from version %d to %d\n", t.set, result.From, result.To)
		}
	},
}
