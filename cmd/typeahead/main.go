package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/typeahead/cmd/typeahead/commands"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/logger"
)

var rootCmd = &cobra.Command{
	Use:   "typeahead",
	Short: "typeahead - compose box autocomplete",
	Long: `typeahead - Autocomplete for chat compose boxes.

Suggests people, groups, channels, topics, emoji, slash commands, code block
languages and times while a message is being typed, and renders the chosen
suggestion back into the message.

Available commands:
  serve    - Start the HTTP, WebSocket LSP and JSON API server
  suggest  - Show suggestions for a piece of compose box text
  tokenize - Show the token a completion would replace
  search   - Suggest search queries
  db       - Migrate and seed the directory database
  am       - Manage configuration ("I am")
  mcp      - Serve the typeahead tools over MCP (stdio)

Examples:
  typeahead db seed --demo
  typeahead suggest "hello @oth" --stream Denmark --as iago@zulip.com
  typeahead search "channel:Den"
  typeahead serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// MCP speaks JSON-RPC on stdout; logs go to stderr either way
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		logger.SetLevel(logger.VerbosityToLevel(verbosity))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
	rootCmd.PersistentFlags().StringVar(&commands.DBPathFlag, "db-path", "", "Custom database path (overrides config)")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.MCPCmd)
	rootCmd.AddCommand(commands.SearchCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.SuggestCmd)
	rootCmd.AddCommand(commands.TokenizeCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
