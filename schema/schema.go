// Package schema has models, enums and shared value types for all parts of sosig.
package schema

import "time"

// MetricsRecord is the persisted health snapshot of one repository checkout.
// Records are keyed by Path and handed out as plain values; mutating a copy
// never affects stored state.
type MetricsRecord struct {
	Name                string    `json:"name"`                  // Display name (last path segment)
	Path                string    `json:"path"`                  // Absolute checkout path, unique key
	Username            string    `json:"username"`              // Owner account on the hosting service
	AgeDays             float64   `json:"age_days"`              // Days since the root commit
	UpdateFrequencyDays float64   `json:"update_frequency_days"` // Mean days between commits
	ContributorCount    int       `json:"contributor_count"`     // Distinct commit authors
	Stars               int       `json:"stars"`                 // Stargazers on the hosting service
	CommitCount         int       `json:"commit_count"`          // Commits reachable from HEAD
	LinesOfCode         int       `json:"lines_of_code"`         // Sum of tracked file line counts
	OpenIssues          int       `json:"open_issues"`           // Open issues on the hosting service
	SocialSignal        float64   `json:"social_signal"`         // Composite score in [0, 100]
	Group               string    `json:"group"`                 // Optional user label
	LastAnalyzed        time.Time `json:"last_analyzed"`
	DateCreated         time.Time `json:"date_created"`
}

// RawMetrics holds the seven raw measurements gathered for a repository.
type RawMetrics struct {
	AgeDays             float64 `json:"age_days"`
	UpdateFrequencyDays float64 `json:"update_frequency_days"`
	ContributorCount    int     `json:"contributor_count"`
	Stars               int     `json:"stars"`
	CommitCount         int     `json:"commit_count"`
	LinesOfCode         int     `json:"lines_of_code"`
	OpenIssues          int     `json:"open_issues"`
}

// Values returns the raw measurements keyed by metric.
func (r RawMetrics) Values() map[MetricKey]float64 {
	return map[MetricKey]float64{
		MetricAge:             r.AgeDays,
		MetricUpdateFrequency: r.UpdateFrequencyDays,
		MetricContributors:    float64(r.ContributorCount),
		MetricStars:           float64(r.Stars),
		MetricCommits:         float64(r.CommitCount),
		MetricLinesOfCode:     float64(r.LinesOfCode),
		MetricOpenIssues:      float64(r.OpenIssues),
	}
}

// NormalizedMetrics maps each metric to its normalized value in [0, 1].
type NormalizedMetrics map[MetricKey]float64

// RepoMetadata is what the hosting service reports about a repository.
type RepoMetadata struct {
	Owner      string `json:"owner"`
	Stars      int    `json:"stars"`
	OpenIssues int    `json:"open_issues"`
}

// RepoIdentifier names a repository on the hosting service.
type RepoIdentifier struct {
	Owner string
	Repo  string
}

// String returns the owner/repo form.
func (id RepoIdentifier) String() string {
	return id.Owner + "/" + id.Repo
}

// Analysis is the record produced by a single analyze call plus how it was obtained.
type Analysis struct {
	Record MetricsRecord `json:"record"`
	Cached bool          `json:"cached"` // True when a fresh stored record was reused
}
