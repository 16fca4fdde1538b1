package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
	"golang.org/x/sync/errgroup"
)

// originRemote is the remote whose URL identifies the hosted repository.
const originRemote = "origin"

const hoursPerDay = 24.0

// Collector gathers raw metrics from a local checkout and its hosted counterpart.
type Collector struct {
	git                contract.GitClient
	host               contract.RepoHost
	allowMissingRemote bool
	now                func() time.Time
}

// NewCollector creates a Collector. When allowMissingRemote is set, remote
// metadata failures yield zero stars and issues instead of an error.
func NewCollector(git contract.GitClient, host contract.RepoHost, allowMissingRemote bool) *Collector {
	return &Collector{git: git, host: host, allowMissingRemote: allowMissingRemote, now: time.Now}
}

// Collection is everything gathered for one repository.
type Collection struct {
	Raw   schema.RawMetrics
	Owner string
}

// Collect queries git and the hosting service concurrently and returns the raw metrics.
func (c *Collector) Collect(ctx context.Context, repoPath string) (Collection, error) {
	var (
		raw  schema.RawMetrics
		meta schema.RepoMetadata
		now  = c.now()
	)
	// The first failure cancels the remaining queries.
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		roots, err := c.git.GetRootCommitTimes(ctx, repoPath)
		if err != nil {
			return err
		}
		raw.AgeDays = ageDays(roots, now)
		return nil
	})
	group.Go(func() error {
		times, err := c.git.GetCommitTimes(ctx, repoPath)
		if err != nil {
			return err
		}
		raw.UpdateFrequencyDays = updateFrequencyDays(times)
		return nil
	})
	group.Go(func() error {
		authors, err := c.git.GetAuthors(ctx, repoPath)
		if err != nil {
			return err
		}
		raw.ContributorCount = distinctCount(authors)
		return nil
	})
	group.Go(func() error {
		count, err := c.git.GetCommitCount(ctx, repoPath)
		if err != nil {
			return err
		}
		raw.CommitCount = count
		return nil
	})
	group.Go(func() error {
		raw.LinesOfCode = c.linesOfCode(ctx, repoPath)
		return nil
	})
	group.Go(func() error {
		var err error
		meta, err = c.remoteMetadata(ctx, repoPath)
		return err
	})

	if err := group.Wait(); err != nil {
		return Collection{}, err
	}

	raw.Stars = meta.Stars
	raw.OpenIssues = meta.OpenIssues
	return Collection{Raw: raw, Owner: meta.Owner}, nil
}

// linesOfCode sums tracked file line counts. Files that cannot be read count as zero.
func (c *Collector) linesOfCode(ctx context.Context, repoPath string) int {
	logger := contract.Logger()
	files, err := c.git.ListTrackedFiles(ctx, repoPath)
	if err != nil {
		logger.Warn("Could not list tracked files; lines of code set to 0", "path", repoPath, "err", err)
		return 0
	}

	total := 0
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		n, err := c.git.CountFileLines(ctx, repoPath, file)
		if err != nil {
			logger.Debug("Skipping file line count", "file", file, "err", err)
			continue
		}
		total += n
	}
	return total
}

// remoteMetadata resolves the origin remote and queries the host for it.
func (c *Collector) remoteMetadata(ctx context.Context, repoPath string) (schema.RepoMetadata, error) {
	meta, err := c.fetchRemoteMetadata(ctx, repoPath)
	if err == nil {
		return meta, nil
	}

	var remoteErr *contract.RemoteMetadataError
	if c.allowMissingRemote && errors.As(err, &remoteErr) {
		contract.Logger().Warn("Remote metadata unavailable; using zero stars and issues", "path", repoPath, "err", err)
		return schema.RepoMetadata{}, nil
	}
	return schema.RepoMetadata{}, err
}

func (c *Collector) fetchRemoteMetadata(ctx context.Context, repoPath string) (schema.RepoMetadata, error) {
	if c.host == nil {
		return schema.RepoMetadata{}, &contract.RemoteMetadataError{
			Endpoint: repoPath,
			Message:  "no repository host configured",
		}
	}

	remoteURL, err := c.git.GetRemoteURL(ctx, repoPath, originRemote)
	if err != nil {
		return schema.RepoMetadata{}, &contract.RemoteMetadataError{
			Endpoint: "remote " + originRemote,
			Message:  "repository has no usable origin remote",
			Err:      fmt.Errorf("%w: %w", contract.ErrMalformedResponse, err),
		}
	}

	id, err := c.host.ResolveRemote(remoteURL)
	if err != nil {
		return schema.RepoMetadata{}, err
	}
	return c.host.GetRepoMetadata(ctx, id)
}

// ageDays is the fractional number of days since the earliest root commit.
func ageDays(roots []time.Time, now time.Time) float64 {
	if len(roots) == 0 {
		return 0
	}
	first := roots[0]
	for _, t := range roots[1:] {
		if t.Before(first) {
			first = t
		}
	}
	return now.Sub(first).Hours() / hoursPerDay
}

// updateFrequencyDays is the mean number of days between consecutive commits.
// Fewer than two commits give 0.
func updateFrequencyDays(times []time.Time) float64 {
	if len(times) < 2 {
		return 0
	}
	earliest, latest := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(earliest) {
			earliest = t
		}
		if t.After(latest) {
			latest = t
		}
	}
	return latest.Sub(earliest).Hours() / hoursPerDay / float64(len(times)-1)
}

func distinctCount(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}
