package cmd

import (
	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the coverwatch MCP server",
	Long:  `Launch an MCP server on stdio that allows AI agents to run coverage analyses via standard tools.`,
	// Logs go to stderr, leaving stdio to the protocol.
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := mcp.StartMCPServer(rootCtx, newAnalyzer(), version); err != nil {
			return contract.WithExitCode(contract.ExitError, err)
		}
		return nil
	},
}
