// Package parquet exports stored repository metrics and run history to Parquet
// files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/will-wright-eng/social-signals/schema"
)

// Repository is one row of the sosig_repositories table.
type Repository struct {
	Path                string    `parquet:"path,snappy"`
	Name                string    `parquet:"name,snappy"`
	Username            *string   `parquet:"username,optional,snappy"`
	AgeDays             float64   `parquet:"age_days,snappy"`
	UpdateFrequencyDays float64   `parquet:"update_frequency_days,snappy"`
	ContributorCount    int32     `parquet:"contributor_count,snappy"`
	Stars               int32     `parquet:"stars,snappy"`
	CommitCount         int32     `parquet:"commit_count,snappy"`
	LinesOfCode         int64     `parquet:"lines_of_code,snappy"`
	OpenIssues          int32     `parquet:"open_issues,snappy"`
	SocialSignal        float64   `parquet:"social_signal,snappy"`
	Group               *string   `parquet:"group,optional,snappy"`
	LastAnalyzed        time.Time `parquet:"last_analyzed,snappy"`
	DateCreated         time.Time `parquet:"date_created,snappy"`
}

// Run is one batch run from the sosig_runs table.
type Run struct {
	RunID        string     `parquet:"run_id,snappy"`
	StartTime    time.Time  `parquet:"start_time,snappy"`
	EndTime      *time.Time `parquet:"end_time,optional,snappy"`
	DurationMs   *int64     `parquet:"run_duration_ms,optional,snappy"`
	TotalPaths   int32      `parquet:"total_paths,snappy"`
	Succeeded    int32      `parquet:"succeeded,snappy"`
	Failed       int32      `parquet:"failed,snappy"`
	ConfigParams *string    `parquet:"config_params,optional,snappy"`
}

// RunPath is the outcome of one path inside a run.
type RunPath struct {
	RunID        string    `parquet:"run_id,snappy"`
	Path         string    `parquet:"path,snappy"`
	AnalyzedAt   time.Time `parquet:"analyzed_at,snappy"`
	Outcome      string    `parquet:"outcome,snappy"`
	SocialSignal *float64  `parquet:"social_signal,optional,snappy"`
	ErrorMessage *string   `parquet:"error_message,optional,snappy"`
}

// WriteRepositoriesParquet writes repository rows to a Parquet file.
func WriteRepositoriesParquet(data []Repository, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRunsParquet writes run rows to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRunPathsParquet writes per-path run outcomes to a Parquet file.
func WriteRunPathsParquet(data []RunPath, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows with a schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes the footer, so its error matters.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ConvertRepositories converts stored metrics records to Parquet rows.
func ConvertRepositories(records []schema.MetricsRecord) []Repository {
	result := make([]Repository, 0, len(records))
	for _, r := range records {
		result = append(result, Repository{
			Path:                r.Path,
			Name:                r.Name,
			Username:            optionalString(r.Username),
			AgeDays:             r.AgeDays,
			UpdateFrequencyDays: r.UpdateFrequencyDays,
			ContributorCount:    int32(r.ContributorCount),
			Stars:               int32(r.Stars),
			CommitCount:         int32(r.CommitCount),
			LinesOfCode:         int64(r.LinesOfCode),
			OpenIssues:          int32(r.OpenIssues),
			SocialSignal:        r.SocialSignal,
			Group:               optionalString(r.Group),
			LastAnalyzed:        r.LastAnalyzed,
			DateCreated:         r.DateCreated,
		})
	}
	return result
}

// ConvertRuns converts run records to Parquet rows.
func ConvertRuns(records []schema.RunRecord) []Run {
	result := make([]Run, 0, len(records))
	for _, r := range records {
		result = append(result, Run{
			RunID:        r.RunID,
			StartTime:    r.StartTime,
			EndTime:      r.EndTime,
			DurationMs:   r.DurationMs,
			TotalPaths:   int32(r.TotalPaths),
			Succeeded:    int32(r.Succeeded),
			Failed:       int32(r.Failed),
			ConfigParams: r.ConfigParams,
		})
	}
	return result
}

// ConvertRunPaths converts per-path run outcomes to Parquet rows.
func ConvertRunPaths(records []schema.RunPathRecord) []RunPath {
	result := make([]RunPath, 0, len(records))
	for _, r := range records {
		result = append(result, RunPath{
			RunID:        r.RunID,
			Path:         r.Path,
			AnalyzedAt:   r.AnalyzedAt,
			Outcome:      string(r.Outcome),
			SocialSignal: r.SocialSignal,
			ErrorMessage: r.ErrorMessage,
		})
	}
	return result
}
