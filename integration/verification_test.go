//go:build integration

// Package integration contains integration tests for sosig.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
// Or use: make test-integration
package integration

import (
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedRecord struct {
	Path             string  `json:"path"`
	Name             string  `json:"name"`
	CommitCount      int     `json:"commit_count"`
	ContributorCount int     `json:"contributor_count"`
	LinesOfCode      int     `json:"lines_of_code"`
	SocialSignal     float64 `json:"social_signal"`
	Label            string  `json:"label"`
}

// TestAnalyzeVerification analyzes a fresh repository and verifies the stored counts against git.
func TestAnalyzeVerification(t *testing.T) {
	repo := initRepo(t, 4)
	work := t.TempDir()
	t.Setenv("SOSIG_DB_CONNECT", filepath.Join(work, "metrics.db"))
	t.Setenv("SOSIG_ALLOW_MISSING_REMOTE", "true")

	_, err := runSosig(t, work, "analyze", repo)
	require.NoError(t, err)

	out, err := runSosig(t, work, "db", "get", repo, "--output", "json")
	require.NoError(t, err)

	var records []storedRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	rec := records[0]

	gitCount, err := exec.Command("git", "-C", repo, "rev-list", "--count", "HEAD").Output()
	require.NoError(t, err)
	want, err := strconv.Atoi(strings.TrimSpace(string(gitCount)))
	require.NoError(t, err)

	assert.Equal(t, want, rec.CommitCount)
	assert.Equal(t, 1, rec.ContributorCount)
	assert.Equal(t, 8, rec.LinesOfCode) // four files of two lines
	assert.Equal(t, filepath.Base(repo), rec.Name)
	assert.GreaterOrEqual(t, rec.SocialSignal, 0.0)
	assert.LessOrEqual(t, rec.SocialSignal, 100.0)
	assert.NotEmpty(t, rec.Label)
}

// TestAnalyzeMixedBatch checks that one bad path neither aborts the batch nor fails the exit code.
func TestAnalyzeMixedBatch(t *testing.T) {
	repo := initRepo(t, 2)
	work := t.TempDir()
	t.Setenv("SOSIG_DB_CONNECT", filepath.Join(work, "metrics.db"))
	t.Setenv("SOSIG_ALLOW_MISSING_REMOTE", "true")

	missing := filepath.Join(work, "does-not-exist")
	out, err := runSosig(t, work, "analyze", repo, missing, "--output", "json", "--workers", "2")
	require.NoError(t, err)

	var result struct {
		Records   []storedRecord `json:"records"`
		Failures  []struct{ Path, Error string }
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, missing, result.Failures[0].Path)

	// Every path failing exits non-zero.
	_, err = runSosig(t, work, "analyze", missing)
	assert.Error(t, err)
}
