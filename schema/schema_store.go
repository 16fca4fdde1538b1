package schema

import "time"

// RunRecord represents a row from the sosig_runs table.
type RunRecord struct {
	RunID        string
	StartTime    time.Time
	EndTime      *time.Time
	DurationMs   *int64
	TotalPaths   int
	Succeeded    int
	Failed       int
	ConfigParams *string
}

// RunPathRecord represents a row from the sosig_run_paths table.
type RunPathRecord struct {
	RunID        string
	Path         string
	AnalyzedAt   time.Time
	Outcome      RunOutcome
	SocialSignal *float64
	ErrorMessage *string
}

// PathFailure describes why one path in a batch could not be analyzed.
type PathFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// BatchResult collects the outcome of analyzing several paths.
type BatchResult struct {
	RunID    string          `json:"run_id,omitempty"`
	Records  []MetricsRecord `json:"records"`
	Failures []PathFailure   `json:"failures"`
	Cached   int             `json:"cached"`
	Duration time.Duration   `json:"duration"`
}

// Succeeded returns the number of paths that produced a record.
func (b BatchResult) Succeeded() int {
	return len(b.Records)
}

// Total returns the number of paths attempted.
func (b BatchResult) Total() int {
	return len(b.Records) + len(b.Failures)
}
