package mcp_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/will-wright-eng/social-signals/core"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/internal/iocache"
	mcp_internal "github.com/will-wright-eng/social-signals/internal/mcp"
	"github.com/will-wright-eng/social-signals/schema"
)

func newTestServer(t *testing.T) (*server.MCPServer, contract.MetricsStore) {
	t.Helper()
	ctx := context.Background()
	metrics, err := iocache.NewMetricsStore(ctx, schema.SQLiteBackend, filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	runs, err := iocache.NewRunStore(ctx, schema.NoneBackend, "")
	require.NoError(t, err)
	mgr := iocache.NewStoreManager(metrics, runs)
	t.Cleanup(func() { _ = mgr.Close() })

	cfg := &contract.Config{
		Weights:  schema.DefaultWeights,
		Ceilings: schema.DefaultCeilings,
		CacheTTL: time.Hour,
		Workers:  1,
	}
	analyzer := core.NewAnalyzer(cfg, &contract.MockGitClient{}, &contract.MockRepoHost{}, mgr)
	return mcp_internal.NewMCPServer(cfg, analyzer, mgr), metrics
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)
	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "tool failures are reported in the result, not as raw errors")
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("analyze_repository missing path", func(t *testing.T) {
		res := callTool(t, s, "analyze_repository", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "path is required")
	})

	t.Run("analyze_repository nonexistent path", func(t *testing.T) {
		res := callTool(t, s, "analyze_repository", map[string]any{"path": filepath.Join(t.TempDir(), "missing")})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "path does not exist")
	})

	t.Run("get_repository unknown path", func(t *testing.T) {
		res := callTool(t, s, "get_repository", map[string]any{"path": "/nowhere"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "no record")
	})

	t.Run("list_repositories unknown sort", func(t *testing.T) {
		res := callTool(t, s, "list_repositories", map[string]any{"sort_by": "__class__"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "invalid sort_by")
	})

	t.Run("list_repositories negative limit", func(t *testing.T) {
		res := callTool(t, s, "list_repositories", map[string]any{"limit": -1.0})
		assert.True(t, res.IsError)
	})
}

func TestMCPServerHandlers_StoredRecords(t *testing.T) {
	s, metrics := newTestServer(t)
	ctx := context.Background()

	for path, signal := range map[string]float64{"/src/a": 20, "/src/b": 90, "/src/c": 55} {
		_, err := metrics.Upsert(ctx, path, schema.MetricsRecord{Name: filepath.Base(path), Stars: int(signal), SocialSignal: signal})
		require.NoError(t, err)
	}

	t.Run("get_repository", func(t *testing.T) {
		res := callTool(t, s, "get_repository", map[string]any{"path": "/src/b"})
		require.False(t, res.IsError, resultText(res))

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
		assert.Equal(t, "/src/b", got["path"])
		assert.Equal(t, "Thriving", got["label"])
	})

	t.Run("list_repositories", func(t *testing.T) {
		res := callTool(t, s, "list_repositories", map[string]any{"sort_by": "stars", "limit": 2.0})
		require.False(t, res.IsError, resultText(res))

		var got []map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "/src/b", got[0]["path"])
		assert.Equal(t, "/src/c", got[1]["path"])
		assert.Equal(t, "Moderate", got[1]["label"])
	})
}
