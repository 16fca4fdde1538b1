package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/will-wright-eng/social-signals/core"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/internal/hostclient"
	"github.com/will-wright-eng/social-signals/internal/iocache"
	"github.com/will-wright-eng/social-signals/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// stores is the persistence manager opened by sharedSetup.
var stores *iocache.StoreManagerImpl

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "sosig",
	Short: "Score the social signal of local Git repositories.",
	Long: `sosig measures how alive a repository is. It reads local Git history and the
hosting service's metadata, turns them into a 0-100 social signal, and keeps one
record per checkout so you can rank everything you have cloned.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".sosig")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("SOSIG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// The conventional token variable works too.
	_ = viper.BindEnv("github-token", "SOSIG_GITHUB_TOKEN", "GITHUB_TOKEN")

	viper.SetDefault("cache-ttl", contract.DefaultCacheTTL.String())
	viper.SetDefault("command-timeout", contract.DefaultCommandTimeout.String())
	viper.SetDefault("remote-timeout", contract.DefaultRemoteTimeout.String())
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("db-backend", schema.SQLiteBackend)
	viper.SetDefault("db-connect", "")
	viper.SetDefault("runs-backend", "")
	viper.SetDefault("runs-connect", "")
	viper.SetDefault("sort", schema.SortSocialSignal)
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("color", "yes")
}

// loadConfig merges defaults, file, env, and flags, then validates them into cfg.
func loadConfig() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	contract.SetDebug(cfg.Debug)
	color.NoColor = color.NoColor || !cfg.UseColors
	return nil
}

// sharedSetup validates configuration and opens the stores.
func sharedSetup(ctx context.Context) error {
	if err := loadConfig(); err != nil {
		return err
	}

	mgr, err := iocache.OpenStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	stores = mgr
	contract.Logger().Debug("Stores opened", "db_backend", cfg.DBBackend, "runs_backend", cfg.RunsBackend)
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(_ *cobra.Command, _ []string) error {
	return sharedSetup(rootCtx)
}

// listSetupWrapper binds the running command's sort/limit flags before setup.
func listSetupWrapper(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return sharedSetup(rootCtx)
}

// configSetupWrapper validates configuration without opening any store.
func configSetupWrapper(_ *cobra.Command, _ []string) error {
	return loadConfig()
}

// newAnalyzer wires the analyzer from the validated config and open stores.
func newAnalyzer() (*core.Analyzer, error) {
	host, err := hostclient.NewGitHubClient(cfg.GitHubToken, cfg.GitHubAPIURL, cfg.RemoteTimeout)
	if err != nil {
		return nil, err
	}
	git := contract.NewLocalGitClient(cfg.CommandTimeout)
	return core.NewAnalyzer(cfg, git, host, stores), nil
}

// fatal closes the stores, then logs and exits.
func fatal(msg string, err error) {
	_ = Shutdown()
	contract.LogFatal(msg, err)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Shutdown closes any stores opened by the executed command.
func Shutdown() error {
	if stores == nil {
		return nil
	}
	mgr := stores
	stores = nil
	return mgr.Close()
}
