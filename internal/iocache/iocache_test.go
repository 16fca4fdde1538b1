package iocache

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

func testConfig(t *testing.T, runs schema.DatabaseBackend) *contract.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &contract.Config{
		DBBackend:   schema.SQLiteBackend,
		DBConnect:   filepath.Join(dir, "metrics.db"),
		RunsBackend: runs,
	}
	if runs == schema.SQLiteBackend {
		cfg.RunsConnect = filepath.Join(dir, "runs.db")
	}
	return cfg
}

func TestOpenStores(t *testing.T) {
	mgr, err := OpenStores(context.Background(), testConfig(t, schema.SQLiteBackend))
	require.NoError(t, err)

	assert.NotNil(t, mgr.GetMetricsStore())
	assert.NotNil(t, mgr.GetRunStore())

	// Close is idempotent
	assert.NoError(t, mgr.Close())
	assert.NoError(t, mgr.Close())
}

func TestOpenStores_BadMetricsBackend(t *testing.T) {
	cfg := testConfig(t, schema.NoneBackend)
	cfg.DBBackend = schema.NoneBackend
	_, err := OpenStores(context.Background(), cfg)
	assert.Error(t, err)
}

func TestStoreManager_CloseJoinsErrors(t *testing.T) {
	metrics := new(MockMetricsStore)
	runs := new(MockRunStore)
	metrics.On("Close").Return(assert.AnError).Once()
	runs.On("Close").Return(nil).Once()

	mgr := NewStoreManager(metrics, runs)
	assert.ErrorIs(t, mgr.Close(), assert.AnError)
	assert.ErrorIs(t, mgr.Close(), assert.AnError)
	metrics.AssertExpectations(t)
	runs.AssertExpectations(t)
}

func TestClearRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := NewRunStore(ctx, schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.FileExists(t, path)

	require.NoError(t, ClearRuns(ctx, schema.SQLiteBackend, path))
	assert.NoFileExists(t, path)

	// Missing file and none backend are no-ops
	assert.NoError(t, ClearRuns(ctx, schema.SQLiteBackend, path))
	assert.NoError(t, ClearRuns(ctx, schema.NoneBackend, ""))
	assert.Error(t, ClearRuns(ctx, schema.SQLiteBackend, ""))
	assert.Error(t, ClearRuns(ctx, "oracle", "x"))
}

func TestExportParquet(t *testing.T) {
	ctx := context.Background()
	mgr, err := OpenStores(ctx, testConfig(t, schema.SQLiteBackend))
	require.NoError(t, err)
	defer func() { _ = mgr.Close() }()

	out := filepath.Join(t.TempDir(), "export")

	_, err = ExportParquet(ctx, mgr.GetMetricsStore(), mgr.GetRunStore(), out)
	assert.Error(t, err, "empty store has nothing to export")

	_, err = ExportParquet(ctx, mgr.GetMetricsStore(), mgr.GetRunStore(), "")
	assert.Error(t, err)

	_, err = mgr.GetMetricsStore().Upsert(ctx, "/src/a", sampleRecord("a", 10))
	require.NoError(t, err)

	files, err := ExportParquet(ctx, mgr.GetMetricsStore(), mgr.GetRunStore(), out)
	require.NoError(t, err)
	require.Len(t, files, 1, "runs are skipped while history is empty")
	assert.Equal(t, out+".repositories.parquet", files[0].Path)
	assert.Equal(t, 1, files[0].Rows)

	runs := mgr.GetRunStore()
	runID, err := runs.BeginRun(ctx, time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, runs.RecordPath(ctx, schema.RunPathRecord{RunID: runID, Path: "/src/a", AnalyzedAt: time.Now(), Outcome: schema.OutcomeOK}))
	require.NoError(t, runs.EndRun(ctx, runID, time.Now(), 1, 0))

	files, err = ExportParquet(ctx, mgr.GetMetricsStore(), runs, out)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		assert.FileExists(t, f.Path)
	}
}

func TestPrintRunStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintRunStatus(&buf, schema.RunStatus{Backend: "none"})
	assert.Contains(t, buf.String(), "Runs Backend: none")
	assert.NotContains(t, buf.String(), "Total Runs")

	buf.Reset()
	PrintRunStatus(&buf, schema.RunStatus{
		Backend: "sqlite", Connected: true, TotalRuns: 2, LastRunID: "abc", TotalPaths: 5,
		TableSizes: map[string]int64{runsTable: 4096, runPathsTable: 8192},
	})
	out := buf.String()
	assert.Contains(t, out, "Last Run ID: abc")
	assert.Contains(t, out, "Total Paths Analyzed: 5")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(runPathsTable)), bytes.Index(buf.Bytes(), []byte(runsTable+":")))
}
