package schema

import (
	"cmp"
	"strings"
)

// SortField is a record attribute that listings can be ordered by.
type SortField string

// Every record attribute is a permitted sort field.
const (
	SortSocialSignal    SortField = "social_signal" // default
	SortName            SortField = "name"
	SortPath            SortField = "path"
	SortUsername        SortField = "username"
	SortAgeDays         SortField = "age_days"
	SortUpdateFrequency SortField = "update_frequency_days"
	SortContributors    SortField = "contributor_count"
	SortStars           SortField = "stars"
	SortCommitCount     SortField = "commit_count"
	SortLinesOfCode     SortField = "lines_of_code"
	SortOpenIssues      SortField = "open_issues"
	SortGroup           SortField = "group"
	SortLastAnalyzed    SortField = "last_analyzed"
	SortDateCreated     SortField = "date_created"
)

// sortSpec binds a sort field to its storage column and an in-memory comparator.
type sortSpec struct {
	column  string
	compare func(a, b MetricsRecord) int
}

var sortSpecs = map[SortField]sortSpec{
	SortSocialSignal: {"social_signal", func(a, b MetricsRecord) int { return cmp.Compare(a.SocialSignal, b.SocialSignal) }},
	SortName:         {"name", func(a, b MetricsRecord) int { return strings.Compare(a.Name, b.Name) }},
	SortPath:         {"path", func(a, b MetricsRecord) int { return strings.Compare(a.Path, b.Path) }},
	SortUsername:     {"username", func(a, b MetricsRecord) int { return strings.Compare(a.Username, b.Username) }},
	SortAgeDays:      {"age_days", func(a, b MetricsRecord) int { return cmp.Compare(a.AgeDays, b.AgeDays) }},
	SortUpdateFrequency: {"update_frequency_days", func(a, b MetricsRecord) int {
		return cmp.Compare(a.UpdateFrequencyDays, b.UpdateFrequencyDays)
	}},
	SortContributors: {"contributor_count", func(a, b MetricsRecord) int { return cmp.Compare(a.ContributorCount, b.ContributorCount) }},
	SortStars:        {"stars", func(a, b MetricsRecord) int { return cmp.Compare(a.Stars, b.Stars) }},
	SortCommitCount:  {"commit_count", func(a, b MetricsRecord) int { return cmp.Compare(a.CommitCount, b.CommitCount) }},
	SortLinesOfCode:  {"lines_of_code", func(a, b MetricsRecord) int { return cmp.Compare(a.LinesOfCode, b.LinesOfCode) }},
	SortOpenIssues:   {"open_issues", func(a, b MetricsRecord) int { return cmp.Compare(a.OpenIssues, b.OpenIssues) }},
	SortGroup:        {"group_name", func(a, b MetricsRecord) int { return strings.Compare(a.Group, b.Group) }},
	SortLastAnalyzed: {"last_analyzed", func(a, b MetricsRecord) int { return a.LastAnalyzed.Compare(b.LastAnalyzed) }},
	SortDateCreated:  {"date_created", func(a, b MetricsRecord) int { return a.DateCreated.Compare(b.DateCreated) }},
}

// AllSortFields lists the permitted sort fields in display order.
var AllSortFields = []SortField{
	SortSocialSignal, SortName, SortPath, SortUsername, SortAgeDays, SortUpdateFrequency,
	SortContributors, SortStars, SortCommitCount, SortLinesOfCode, SortOpenIssues,
	SortGroup, SortLastAnalyzed, SortDateCreated,
}

// ParseSortField returns the sort field for s, or false when s is not a record attribute.
func ParseSortField(s string) (SortField, bool) {
	f := SortField(strings.ToLower(strings.TrimSpace(s)))
	_, ok := sortSpecs[f]
	return f, ok
}

// Valid reports whether f is a permitted sort field.
func (f SortField) Valid() bool {
	_, ok := sortSpecs[f]
	return ok
}

// Column returns the storage column backing f. It is empty for unknown fields.
func (f SortField) Column() string {
	return sortSpecs[f].column
}

// Compare orders two records ascending by f. Unknown fields compare equal.
func (f SortField) Compare(a, b MetricsRecord) int {
	spec, ok := sortSpecs[f]
	if !ok {
		return 0
	}
	return spec.compare(a, b)
}

// SortFieldNames returns the permitted sort fields as strings.
func SortFieldNames() []string {
	names := make([]string, 0, len(AllSortFields))
	for _, f := range AllSortFields {
		names = append(names, string(f))
	}
	return names
}
