package cmd

import (
	"github.com/spf13/cobra"
	"github.com/will-wright-eng/social-signals/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:     "mcp",
	Short:   "Start the sosig MCP server",
	Long:    `Launch an MCP server over stdio that lets AI agents analyze, get and list repositories.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		analyzer, err := newAnalyzer()
		if err != nil {
			return err
		}
		return mcp.StartMCPServer(rootCtx, cfg, analyzer, stores)
	},
}
