package contract

import (
	"fmt"
	"maps"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/will-wright-eng/social-signals/schema"
)

// Default values for configuration.
const (
	DefaultCacheTTL       = 24 * time.Hour
	DefaultCommandTimeout = 60 * time.Second
	DefaultRemoteTimeout  = 30 * time.Second
	DefaultWorkers        = 1
	DefaultPrecision      = 1
	DefaultResultLimit    = 0 // no limit
	MaxWorkers            = 64

	// WeightSumTolerance is how far configured weights may drift from 1.0.
	WeightSumTolerance = 1e-9
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	Weights  map[schema.MetricKey]float64
	Ceilings map[schema.MetricKey]float64
	CacheTTL time.Duration

	CommandTimeout time.Duration
	RemoteTimeout  time.Duration

	GitHubToken        string // Please use env var as this is plaintext
	GitHubAPIURL       string
	AllowMissingRemote bool

	DBBackend schema.DatabaseBackend
	DBConnect string // Please use env var as this is plaintext

	RunsBackend schema.DatabaseBackend
	RunsConnect string // Please use env var as this is plaintext

	Workers int
	Force   bool
	Group   string

	SortBy schema.SortField
	Limit  int

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Debug      bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Scoring, from the config file ---
	Weights  map[string]float64 `mapstructure:"weights"`
	Ceilings map[string]float64 `mapstructure:"ceilings"`

	// --- Fields from rootCmd.PersistentFlags() ---
	CacheTTL       string `mapstructure:"cache-ttl"`
	CommandTimeout string `mapstructure:"command-timeout"`
	RemoteTimeout  string `mapstructure:"remote-timeout"`
	DBBackend      string `mapstructure:"db-backend"`
	DBConnect      string `mapstructure:"db-connect"`
	RunsBackend    string `mapstructure:"runs-backend"`
	RunsConnect    string `mapstructure:"runs-connect"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	Debug          bool   `mapstructure:"debug"`

	// --- Remote host ---
	GitHubToken        string `mapstructure:"github-token"`
	GitHubAPIURL       string `mapstructure:"github-api-url"`
	AllowMissingRemote bool   `mapstructure:"allow-missing-remote"`

	// --- Fields from analyzeCmd.Flags() ---
	Workers int    `mapstructure:"workers"`
	Force   bool   `mapstructure:"force"`
	Group   string `mapstructure:"group"`

	// --- Fields from dbListCmd.Flags() ---
	Sort  string `mapstructure:"sort"`
	Limit int    `mapstructure:"limit"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Weights != nil {
		clone.Weights = maps.Clone(c.Weights)
	}
	if c.Ceilings != nil {
		clone.Ceilings = maps.Clone(c.Ceilings)
	}
	return &clone
}

// ScoringParams returns the scoring inputs in a form suitable for run history.
func (c *Config) ScoringParams() map[string]any {
	weights := make(map[string]float64, len(c.Weights))
	for k, v := range c.Weights {
		weights[string(k)] = v
	}
	ceilings := make(map[string]float64, len(c.Ceilings))
	for k, v := range c.Ceilings {
		ceilings[string(k)] = v
	}
	return map[string]any{
		"weights":   weights,
		"ceilings":  ceilings,
		"cache_ttl": c.CacheTTL.String(),
		"force":     c.Force,
		"group":     c.Group,
		"workers":   c.Workers,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. Every failure is a *ConfigurationError.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	if err := processWeights(cfg, input); err != nil {
		return err
	}
	if err := processCeilings(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Debug = input.Debug
	cfg.Force = input.Force
	cfg.Group = strings.TrimSpace(input.Group)
	cfg.GitHubToken = strings.TrimSpace(input.GitHubToken)
	cfg.GitHubAPIURL = strings.TrimSpace(input.GitHubAPIURL)
	cfg.AllowMissingRemote = input.AllowMissingRemote

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return configErr("color", "%v", err)
	}
	cfg.UseColors = colors

	if input.Workers < 1 || input.Workers > MaxWorkers {
		return configErr("workers", "must be between 1 and %d (received %d)", MaxWorkers, input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > 2 {
		return configErr("precision", "must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return configErr("output", "invalid format '%s'. must be text, csv, json", input.Output)
	}

	if input.Limit < 0 {
		return configErr("limit", "cannot be negative (received %d)", input.Limit)
	}
	cfg.Limit = input.Limit

	cfg.SortBy = schema.SortSocialSignal
	if input.Sort != "" {
		field, ok := schema.ParseSortField(input.Sort)
		if !ok {
			return configErr("sort", "unknown field '%s'. must be one of %s", input.Sort, strings.Join(schema.SortFieldNames(), ", "))
		}
		cfg.SortBy = field
	}
	return nil
}

// processDurations parses TTL and timeout strings.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	fields := []struct {
		name string
		raw  string
		def  time.Duration
		dst  *time.Duration
	}{
		{"cache-ttl", input.CacheTTL, DefaultCacheTTL, &cfg.CacheTTL},
		{"command-timeout", input.CommandTimeout, DefaultCommandTimeout, &cfg.CommandTimeout},
		{"remote-timeout", input.RemoteTimeout, DefaultRemoteTimeout, &cfg.RemoteTimeout},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			*f.dst = f.def
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(f.raw))
		if err != nil {
			return configErr(f.name, "expected a duration like 24h or 90s: %v", err)
		}
		if d <= 0 {
			return configErr(f.name, "must be positive (received %s)", d)
		}
		*f.dst = d
	}
	return nil
}

// ProcessWeights validates a user weights block. An empty block yields the defaults.
// A non-empty block must name every canonical metric and sum to 1.0.
func ProcessWeights(raw map[string]float64) (map[schema.MetricKey]float64, error) {
	if len(raw) == 0 {
		return maps.Clone(schema.DefaultWeights), nil
	}

	weights := make(map[schema.MetricKey]float64, len(raw))
	for k, v := range raw {
		key, err := parseMetricKey("weights", k)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, configErr("weights."+k, "must be a finite non-negative number (received %v)", v)
		}
		weights[key] = v
	}

	sum := 0.0
	for _, m := range schema.AllMetrics {
		w, ok := weights[m]
		if !ok {
			return nil, configErr("weights", "missing weight for metric '%s'", m)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return nil, configErr("weights", "must sum to 1.0, got %.12f", sum)
	}
	return weights, nil
}

// ProcessCeilings merges user ceilings over the defaults and checks each is positive.
func ProcessCeilings(raw map[string]float64) (map[schema.MetricKey]float64, error) {
	ceilings := maps.Clone(schema.DefaultCeilings)
	for k, v := range raw {
		key, err := parseMetricKey("ceilings", k)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return nil, configErr("ceilings."+k, "must be a finite number greater than 0 (received %v)", v)
		}
		ceilings[key] = v
	}
	return ceilings, nil
}

func processWeights(cfg *Config, input *ConfigRawInput) error {
	weights, err := ProcessWeights(input.Weights)
	if err != nil {
		return err
	}
	cfg.Weights = weights
	return nil
}

func processCeilings(cfg *Config, input *ConfigRawInput) error {
	ceilings, err := ProcessCeilings(input.Ceilings)
	if err != nil {
		return err
	}
	cfg.Ceilings = ceilings
	return nil
}

// parseMetricKey maps a config key to a canonical metric.
func parseMetricKey(section, raw string) (schema.MetricKey, error) {
	key := schema.MetricKey(strings.ToLower(strings.TrimSpace(raw)))
	if !slices.Contains(schema.AllMetrics, key) {
		names := make([]string, 0, len(schema.AllMetrics))
		for _, m := range schema.AllMetrics {
			names = append(names, string(m))
		}
		return "", configErr(section, "unknown metric '%s'. must be one of %s", raw, strings.Join(names, ", "))
	}
	return key, nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates metrics and run-history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Metrics Backend Validation ---
	cfg.DBBackend = schema.DatabaseBackend(strings.ToLower(input.DBBackend))
	if cfg.DBBackend == "" {
		cfg.DBBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.DBBackend]; !ok || cfg.DBBackend == schema.NoneBackend {
		return configErr("db-backend", "invalid backend '%s'. must be sqlite, mysql, postgresql", input.DBBackend)
	}
	cfg.DBConnect = input.DBConnect
	if cfg.DBBackend == schema.SQLiteBackend && cfg.DBConnect == "" {
		cfg.DBConnect = GetDBFilePath()
	}
	if err := ValidateDatabaseConnectionString(cfg.DBBackend, cfg.DBConnect); err != nil {
		return configErr("db-connect", "%v", err)
	}

	// --- Run History Backend Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend == "" || cfg.RunsBackend == schema.NoneBackend {
		cfg.RunsBackend = schema.NoneBackend
		cfg.RunsConnect = ""
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return configErr("runs-backend", "invalid backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsConnect = input.RunsConnect
	if cfg.RunsBackend == schema.SQLiteBackend && cfg.RunsConnect == "" {
		cfg.RunsConnect = GetRunsDBFilePath()
	}
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsConnect); err != nil {
		return configErr("runs-connect", "%v", err)
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.DBBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		if filepath.Clean(cfg.DBConnect) == filepath.Clean(cfg.RunsConnect) {
			return configErr("runs-connect", "metrics and run history must use different SQLite database files. Both resolve to %q", cfg.DBConnect)
		}
	}
	return nil
}
