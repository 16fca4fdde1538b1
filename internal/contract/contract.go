// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/will-wright-eng/social-signals/schema"
)

// GitClient defines the read-only version-control queries the collector needs.
// This allows the core analysis logic to be tested without needing a real git executable.
type GitClient interface {
	// --- Generic / Low-Level ---

	// Run executes a git command and returns its standard output.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// --- History ---

	// GetRootCommitTimes returns the committer timestamps of every root commit reachable from HEAD.
	GetRootCommitTimes(ctx context.Context, repoPath string) ([]time.Time, error)

	// GetCommitTimes returns the timestamps of every commit reachable from HEAD, newest first.
	GetCommitTimes(ctx context.Context, repoPath string) ([]time.Time, error)

	// GetAuthors returns one author name per commit across all branches.
	GetAuthors(ctx context.Context, repoPath string) ([]string, error)

	// GetCommitCount returns the number of commits reachable from HEAD.
	GetCommitCount(ctx context.Context, repoPath string) (int, error)

	// --- Working Tree ---

	// ListTrackedFiles returns the repository-relative paths of all tracked files.
	ListTrackedFiles(ctx context.Context, repoPath string) ([]string, error)

	// CountFileLines returns the line count of a tracked file in the working tree.
	CountFileLines(ctx context.Context, repoPath string, file string) (int, error)

	// GetRemoteURL returns the configured URL of the named remote.
	GetRemoteURL(ctx context.Context, repoPath string, remote string) (string, error)
}

// RepoHost queries the hosted-repository service for repository metadata.
type RepoHost interface {
	// ResolveRemote maps a git remote URL to a repository identifier on this host.
	ResolveRemote(remoteURL string) (schema.RepoIdentifier, error)

	// GetRepoMetadata returns stars, owner and open issue count for a repository.
	GetRepoMetadata(ctx context.Context, id schema.RepoIdentifier) (schema.RepoMetadata, error)
}

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetMetricsStore() MetricsStore
	GetRunStore() RunStore
}

// MetricsStore persists one metrics record per repository path.
type MetricsStore interface {
	// GetByPath returns the record for path and whether it exists.
	GetByPath(ctx context.Context, path string) (schema.MetricsRecord, bool, error)

	// Upsert creates or replaces the record for path atomically and returns the stored record.
	// DateCreated is kept from the first insert; LastAnalyzed is set to the store clock.
	Upsert(ctx context.Context, path string, record schema.MetricsRecord) (schema.MetricsRecord, error)

	// ListAll returns records ordered descending by field. A limit of 0 returns every record.
	ListAll(ctx context.Context, field schema.SortField, limit int) ([]schema.MetricsRecord, error)

	// Remove deletes the record for path and reports whether one existed.
	Remove(ctx context.Context, path string) (bool, error)

	// ClearAll deletes every record and returns how many were removed.
	ClearAll(ctx context.Context) (int, error)

	// GetStatus returns aggregate information about the store.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Vacuum reclaims unused storage.
	Vacuum(ctx context.Context) error

	// Close closes the underlying connection
	Close() error
}

// RunStore tracks batch analysis runs and their per-path outcomes.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(ctx context.Context, startTime time.Time, configParams map[string]any) (string, error)

	// RecordPath stores the outcome of one path within a run
	RecordPath(ctx context.Context, record schema.RunPathRecord) error

	// EndRun updates the run with completion data
	EndRun(ctx context.Context, runID string, endTime time.Time, succeeded, failed int) error

	// GetStatus returns status information about the run store
	GetStatus(ctx context.Context) (schema.RunStatus, error)

	// GetAllRuns returns every run ordered by start time
	GetAllRuns(ctx context.Context) ([]schema.RunRecord, error)

	// GetAllRunPaths returns every per-path outcome ordered by run and path
	GetAllRunPaths(ctx context.Context) ([]schema.RunPathRecord, error)

	// Close closes the underlying connection
	Close() error
}
