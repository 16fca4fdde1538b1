package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/will-wright-eng/social-signals/core"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg  *contract.Config
	analyzer *core.Analyzer
	mgr      contract.StoreManager
}

// labeledRecord adds the plain signal label to a record.
type labeledRecord struct {
	Label string `json:"label"`
	schema.MetricsRecord
}

func withLabel(r schema.MetricsRecord) labeledRecord {
	return labeledRecord{Label: contract.GetPlainLabel(r.SocialSignal), MetricsRecord: r}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleAnalyzeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	force := request.GetBool("force", false)

	analyzer := h.analyzer
	if group := request.GetString("group", ""); group != "" {
		analyzer = analyzer.WithGroup(group)
	}

	analysis, err := analyzer.Analyze(ctx, path, force)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	return jsonResult(struct {
		Cached bool `json:"cached"`
		labeledRecord
	}{Cached: analysis.Cached, labeledRecord: withLabel(analysis.Record)})
}

func (h *toolHandler) handleGetRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := core.RecordKey(request.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	record, found, err := h.mgr.GetMetricsStore().GetByPath(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("no record for %s", key)), nil
	}
	return jsonResult(withLabel(record))
}

func (h *toolHandler) handleListRepositories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sortBy := schema.SortSocialSignal
	if s := request.GetString("sort_by", ""); s != "" {
		field, ok := schema.ParseSortField(s)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid sort_by %q: must be one of %v", s, schema.SortFieldNames())), nil
		}
		sortBy = field
	}
	limit := request.GetInt("limit", h.baseCfg.Limit)

	records, err := h.mgr.GetMetricsStore().ListAll(ctx, sortBy, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing failed: %v", err)), nil
	}

	output := make([]labeledRecord, len(records))
	for i, r := range records {
		output[i] = withLabel(r)
	}
	return jsonResult(output)
}
