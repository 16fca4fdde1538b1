package schema

import "time"

// StoreStatus represents the status of the metrics store.
type StoreStatus struct {
	Backend            string    `json:"backend"`
	Connected          bool      `json:"connected"`
	TotalRecords       int       `json:"total_records"`
	AverageSignal      float64   `json:"average_signal"`
	AverageStars       float64   `json:"average_stars"`
	LastAnalyzedTime   time.Time `json:"last_analyzed_time"`
	OldestAnalyzedTime time.Time `json:"oldest_analyzed_time"`
	TableSizeBytes     int64     `json:"table_size_bytes"`
}

// RunStatus represents the status of the run history store.
type RunStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     string           `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalPaths    int              `json:"total_paths"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
