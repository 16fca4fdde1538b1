// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/will-wright-eng/social-signals/core"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// NewMCPServer initializes and configures the sosig MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, analyzer *core.Analyzer, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Social Signal Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg:  baseCfg,
		analyzer: analyzer,
		mgr:      mgr,
	}

	s.AddTool(mcp.NewTool("analyze_repository",
		mcp.WithDescription("Collect metrics for a local git checkout, score its social signal and store the record. Returns the cached record when it is still fresh."),
		mcp.WithString("path", mcp.Description("Path to the local repository checkout."), mcp.Required()),
		mcp.WithBoolean("force", mcp.Description("Re-collect even when a fresh record exists.")),
		mcp.WithString("group", mcp.Description("Optional label stored with the record.")),
	), h.handleAnalyzeRepository)

	s.AddTool(mcp.NewTool("get_repository",
		mcp.WithDescription("Return the stored record for a repository path without collecting anything."),
		mcp.WithString("path", mcp.Description("Path the repository was analyzed under."), mcp.Required()),
	), h.handleGetRepository)

	s.AddTool(mcp.NewTool("list_repositories",
		mcp.WithDescription("List stored records ordered descending by a record attribute."),
		mcp.WithString("sort_by", mcp.Description("Record attribute to sort by. Defaults to 'social_signal'."), mcp.Enum(schema.SortFieldNames()...)),
		mcp.WithNumber("limit", mcp.Description("Maximum number of records returned (0 for all).")),
	), h.handleListRepositories)

	return s
}

// StartMCPServer starts the sosig MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, analyzer *core.Analyzer, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, analyzer, mgr)
	return server.ServeStdio(s)
}
