package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/typeahead/display"
	"github.com/teranos/typeahead/search"
)

// SearchCmd suggests completed search queries
var SearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Suggest search queries",
	Long: `Suggest completions for a search bar query such as "channel:Den" or
"dm:oth". Each suggestion is a full query with a description.

Examples:
  typeahead search "channel:Den"
  typeahead search "is:" --limit 3
  typeahead search "sender:cor" --as hamlet@zulip.com`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchAs    string
	searchLimit int
)

func init() {
	SearchCmd.Flags().StringVar(&searchAs, "as", "", "Search as this user (email or id, default typeahead.current_user)")
	SearchCmd.Flags().IntVar(&searchLimit, "limit", search.DefaultLimit, "Maximum number of suggestions")
	SearchCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer ws.Close()

	return searchSuggest(cmd.OutOrStdout(), ws, args[0], searchAs, searchLimit, display.ShouldOutputJSON(cmd))
}

func searchSuggest(w io.Writer, ws *workspace, query, as string, limit int, asJSON bool) error {
	snap := ws.dir.Snapshot()

	// Suggestions without a viewer still work; they just skip subscriptions
	var viewerID int64
	f := composeFlags{as: as}
	if cctx, err := f.context(snap, ws.cfg.Typeahead.CurrentUser); err == nil {
		viewerID = cctx.CurrentUserID
	} else if as != "" {
		return err
	}

	suggestions := search.Suggest(query, snap, viewerID, limit)
	if asJSON {
		return display.WriteJSON(w, suggestions)
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "No suggestions")
		return nil
	}
	for _, s := range suggestions {
		fmt.Fprintf(w, "%-40s %s\n", s.Search, pterm.Gray(s.Description))
	}
	return nil
}
