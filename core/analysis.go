package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
	"golang.org/x/sync/errgroup"
)

// Analyzer runs the collect, normalize, score and upsert pipeline.
type Analyzer struct {
	cfg       *contract.Config
	collector *Collector
	metrics   contract.MetricsStore
	runs      contract.RunStore
	now       func() time.Time
	locks     *pathLocks
}

// AnalyzerOption customizes an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithNow replaces the clock used for freshness checks, age and run timing.
func WithNow(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.now = now
		a.collector.now = now
	}
}

// NewAnalyzer wires an Analyzer from validated configuration and its collaborators.
func NewAnalyzer(cfg *contract.Config, git contract.GitClient, host contract.RepoHost, mgr contract.StoreManager, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		cfg:       cfg,
		collector: NewCollector(git, host, cfg.AllowMissingRemote),
		metrics:   mgr.GetMetricsStore(),
		runs:      mgr.GetRunStore(),
		now:       time.Now,
		locks:     &pathLocks{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithGroup returns an Analyzer that labels new records with group. It shares
// stores and per-path serialization with a.
func (a *Analyzer) WithGroup(group string) *Analyzer {
	cfg := a.cfg.Clone()
	cfg.Group = group
	clone := *a
	clone.cfg = cfg
	return &clone
}

// ResolvePath turns a user-supplied path into the absolute key records are stored under.
func ResolvePath(path string) (string, error) {
	abs, err := RecordKey(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", &contract.ValidationError{Field: "path", Value: path, Message: "path does not exist"}
	}
	if !info.IsDir() {
		return "", &contract.ValidationError{Field: "path", Value: path, Message: "path is not a directory"}
	}
	return abs, nil
}

// RecordKey returns the absolute, cleaned form of path used as the store key.
// Unlike ResolvePath it does not require the path to exist.
func RecordKey(path string) (string, error) {
	if path == "" {
		return "", &contract.ValidationError{Field: "path", Value: path, Message: "path cannot be empty"}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &contract.ValidationError{Field: "path", Value: path, Message: err.Error()}
	}
	return abs, nil
}

// Analyze returns the record for path, reusing a fresh stored record unless force is set.
// On failure nothing is written and any prior record stays as it was.
func (a *Analyzer) Analyze(ctx context.Context, path string, force bool) (schema.Analysis, error) {
	key, err := ResolvePath(path)
	if err != nil {
		return schema.Analysis{}, err
	}

	unlock := a.locks.lock(key)
	defer unlock()

	logger := contract.Logger()
	existing, found, err := a.metrics.GetByPath(ctx, key)
	if err != nil {
		return schema.Analysis{}, err
	}
	if !force && found && IsFresh(existing, a.cfg.CacheTTL, a.now()) {
		logger.Info("Using cached analysis", "path", key, "last_analyzed", existing.LastAnalyzed)
		return schema.Analysis{Record: existing, Cached: true}, nil
	}

	logger.Debug("Collecting metrics", "path", key, "force", force)
	collected, err := a.collector.Collect(ctx, key)
	if err != nil {
		return schema.Analysis{}, fmt.Errorf("failed to collect metrics for %s: %w", key, err)
	}

	normalized, err := Normalize(collected.Raw, a.cfg.Ceilings)
	if err != nil {
		return schema.Analysis{}, err
	}
	signal, err := Score(normalized, a.cfg.Weights)
	if err != nil {
		return schema.Analysis{}, err
	}

	group := a.cfg.Group
	if group == "" && found {
		group = existing.Group
	}

	record := schema.MetricsRecord{
		Name:                filepath.Base(key),
		Path:                key,
		Username:            collected.Owner,
		AgeDays:             collected.Raw.AgeDays,
		UpdateFrequencyDays: collected.Raw.UpdateFrequencyDays,
		ContributorCount:    collected.Raw.ContributorCount,
		Stars:               collected.Raw.Stars,
		CommitCount:         collected.Raw.CommitCount,
		LinesOfCode:         collected.Raw.LinesOfCode,
		OpenIssues:          collected.Raw.OpenIssues,
		SocialSignal:        signal,
		Group:               group,
	}
	stored, err := a.metrics.Upsert(ctx, key, record)
	if err != nil {
		return schema.Analysis{}, err
	}
	logger.Debug("Stored record", "path", key, "social_signal", stored.SocialSignal)
	return schema.Analysis{Record: stored}, nil
}

// pathOutcome is the result of one entry in a batch.
type pathOutcome struct {
	analysis schema.Analysis
	err      error
}

// AnalyzeBatch analyzes every path, isolating failures so one bad path never
// stops the rest. Paths run one at a time unless more workers are configured.
// Results keep input order.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, paths []string, force bool) schema.BatchResult {
	logger := contract.Logger()
	start := a.now()

	runID, err := a.runs.BeginRun(ctx, start, a.cfg.ScoringParams())
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		runID = ""
	}
	ctx = withRunID(ctx, runID)

	workers := max(a.cfg.Workers, 1)
	outcomes := make([]pathOutcome, len(paths))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = pathOutcome{err: err}
			} else {
				analysis, err := a.Analyze(ctx, path, force)
				outcomes[i] = pathOutcome{analysis: analysis, err: err}
			}
			a.recordOutcome(ctx, path, outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	result := schema.BatchResult{RunID: runID}
	for i, outcome := range outcomes {
		if outcome.err != nil {
			logger.Error("Analysis failed", "path", paths[i], "error", outcome.err)
			result.Failures = append(result.Failures, schema.PathFailure{Path: paths[i], Error: outcome.err.Error()})
			continue
		}
		if outcome.analysis.Cached {
			result.Cached++
		}
		result.Records = append(result.Records, outcome.analysis.Record)
	}

	end := a.now()
	result.Duration = end.Sub(start)
	if err := a.runs.EndRun(ctx, runID, end, result.Succeeded(), len(result.Failures)); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
	return result
}

// recordOutcome stores one path's result in the run history.
func (a *Analyzer) recordOutcome(ctx context.Context, path string, outcome pathOutcome) {
	runID := runIDFromContext(ctx)
	if runID == "" {
		return
	}

	rec := schema.RunPathRecord{RunID: runID, Path: path, AnalyzedAt: a.now()}
	switch {
	case outcome.err != nil:
		rec.Outcome = schema.OutcomeError
		msg := outcome.err.Error()
		rec.ErrorMessage = &msg
	case outcome.analysis.Cached:
		rec.Outcome = schema.OutcomeCached
		rec.SocialSignal = &outcome.analysis.Record.SocialSignal
	default:
		rec.Outcome = schema.OutcomeOK
		rec.SocialSignal = &outcome.analysis.Record.SocialSignal
	}
	if outcome.err == nil {
		rec.Path = outcome.analysis.Record.Path
	}

	// History writes must not fail the batch, including after cancellation.
	if err := a.runs.RecordPath(context.WithoutCancel(ctx), rec); err != nil {
		contract.LogWarn("Failed to record path outcome", err)
	}
}
