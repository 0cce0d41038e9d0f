package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/typeahead/logger"
	"github.com/teranos/typeahead/mcp"
)

// MCPCmd serves the typeahead tools to MCP clients over stdio
var MCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve typeahead tools over MCP (stdio)",
	Long: `Serve typeahead_suggest, typeahead_tokenize, typeahead_select and
search_suggest to an MCP client on stdin/stdout. Logs go to stderr.`,
	RunE: runMCP,
}

var mcpAs string

func init() {
	MCPCmd.Flags().StringVar(&mcpAs, "as", "", "Default user for tool calls (default typeahead.current_user)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer ws.Close()

	defaultUser := mcpAs
	if defaultUser == "" {
		defaultUser = ws.cfg.Typeahead.CurrentUser
	}

	return mcp.NewServer(ws.dir, ws.dispatcher, defaultUser, logger.ComponentLogger("mcp")).Serve()
}
