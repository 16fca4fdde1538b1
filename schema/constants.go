package schema

// Custom string types for type safety.
type (
	// MetricKey names one of the raw signals that feed the social signal.
	MetricKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string

	// RunOutcome is the result of analyzing one path inside a batch.
	RunOutcome string
)

// Metric keys used for weights, ceilings and normalization.
const (
	MetricAge             MetricKey = "age"
	MetricUpdateFrequency MetricKey = "update_frequency"
	MetricContributors    MetricKey = "contributors"
	MetricStars           MetricKey = "stars"
	MetricCommits         MetricKey = "commits"
	MetricLinesOfCode     MetricKey = "lines_of_code"
	MetricOpenIssues      MetricKey = "open_issues"
)

// AllMetrics lists the canonical metric set in display order.
var AllMetrics = []MetricKey{
	MetricAge,
	MetricUpdateFrequency,
	MetricContributors,
	MetricStars,
	MetricCommits,
	MetricLinesOfCode,
	MetricOpenIssues,
}

// InvertedMetrics are metrics where a lower raw value is healthier.
var InvertedMetrics = map[MetricKey]struct{}{
	MetricUpdateFrequency: {},
}

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	CSVOut  OutputMode = "csv"
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Batch outcomes.
const (
	OutcomeOK     RunOutcome = "ok"
	OutcomeCached RunOutcome = "cached"
	OutcomeError  RunOutcome = "error"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	CSVOut:  {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// DefaultWeights are the metric weights used when none are configured. They sum to 1.
var DefaultWeights = map[MetricKey]float64{
	MetricAge:             0.15,
	MetricUpdateFrequency: 0.25,
	MetricContributors:    0.15,
	MetricStars:           0.15,
	MetricCommits:         0.10,
	MetricLinesOfCode:     0.10,
	MetricOpenIssues:      0.10,
}

// DefaultCeilings are the raw values at which each metric saturates to 1.
var DefaultCeilings = map[MetricKey]float64{
	MetricAge:             1825,
	MetricUpdateFrequency: 30,
	MetricContributors:    50,
	MetricStars:           1000,
	MetricCommits:         1000,
	MetricLinesOfCode:     1_000_000,
	MetricOpenIssues:      1000,
}
