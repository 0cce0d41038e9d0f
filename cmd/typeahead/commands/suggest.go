package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/display"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/sym"
	"github.com/teranos/typeahead/typeahead"
)

// SuggestCmd prints the suggestions for a piece of compose box text
var SuggestCmd = &cobra.Command{
	Use:   "suggest <text>",
	Short: "Show suggestions for compose box text",
	Long: `Show the ranked suggestions for the token left of the cursor.

With --select the chosen suggestion is rendered back into the text, the way
pressing Enter in the compose box would.

Examples:
  typeahead suggest "hello @oth" --stream Denmark --as iago@zulip.com
  typeahead suggest "#**Denmark>ca" --as 1
  typeahead suggest "@gaë" --stream 1 --select 0
  typeahead suggest ":octo" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

// TokenizeCmd prints the token a completion would replace
var TokenizeCmd = &cobra.Command{
	Use:   "tokenize <text>",
	Short: "Show the token left of the cursor",
	Long: `Show which completion kind the text left of the cursor opens, and the
query the matchers would see. Nothing is looked up.`,
	Args: cobra.ExactArgs(1),
	RunE: runTokenize,
}

var (
	suggestFlags  composeFlags
	suggestSelect int

	tokenizeCursor          int
	tokenizeCodeBlockButton bool
)

func init() {
	suggestFlags.register(SuggestCmd)
	SuggestCmd.Flags().IntVar(&suggestSelect, "select", -1, "Render suggestion N into the text")
	SuggestCmd.Flags().BoolP("json", "j", false, "Output as JSON")

	TokenizeCmd.Flags().IntVar(&tokenizeCursor, "cursor", -1, "Cursor position in characters (default: end of text)")
	TokenizeCmd.Flags().BoolVar(&tokenizeCodeBlockButton, "code-block-button", false, "Treat a bare ``` as inserted by the code block button")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer ws.Close()

	return suggest(cmd.Context(), cmd.OutOrStdout(), ws, args[0], suggestFlags, suggestSelect, display.ShouldOutputJSON(cmd))
}

type suggestionJSON struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

type suggestOutput struct {
	Token       *typeahead.Token     `json:"token"`
	Suggestions []suggestionJSON     `json:"suggestions"`
	Selection   *typeahead.Selection `json:"selection,omitempty"`
}

func suggest(ctx context.Context, w io.Writer, ws *workspace, text string, f composeFlags, selectIndex int, asJSON bool) error {
	cctx, err := f.context(ws.dir.Snapshot(), ws.cfg.Typeahead.CurrentUser)
	if err != nil {
		return err
	}
	cursor := f.cursorIn(text)

	res := ws.dispatcher.GetCandidates(ctx, text, cursor, cctx)

	out := suggestOutput{Suggestions: []suggestionJSON{}}
	if !res.Token.IsZero() {
		out.Token = &res.Token
	}
	for i, c := range res.Candidates {
		out.Suggestions = append(out.Suggestions, suggestionJSON{
			Index:  i,
			Kind:   string(c.Kind()),
			Label:  c.Label(),
			Detail: c.Detail(),
		})
	}
	if selectIndex >= 0 {
		if selectIndex >= len(res.Candidates) {
			return errors.NewNotFoundError("no suggestion %d (%d available)", selectIndex, len(res.Candidates))
		}
		sel := typeahead.ContentTypeaheadSelected(res.Candidates[selectIndex], text, cursor, res.Token)
		out.Selection = &sel
	}

	if asJSON {
		return display.WriteJSON(w, out)
	}

	if out.Token == nil {
		fmt.Fprintln(w, "Nothing to complete at the cursor")
		return nil
	}

	fmt.Fprintf(w, "%s %s %s\n", sym.Trigger(string(res.Token.Kind)), sym.Label(string(res.Token.Kind)), pterm.Gray(fmt.Sprintf("query=%q", res.Token.Query)))
	if len(out.Suggestions) == 0 {
		fmt.Fprintln(w, "  no suggestions")
	}
	for _, s := range out.Suggestions {
		if s.Detail != "" {
			fmt.Fprintf(w, "  %2d  %-10s %s  %s\n", s.Index, s.Kind, s.Label, pterm.Gray(s.Detail))
		} else {
			fmt.Fprintf(w, "  %2d  %-10s %s\n", s.Index, s.Kind, s.Label)
		}
	}
	if out.Selection != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s\n", out.Selection.Text)
		fmt.Fprintf(w, "%s\n", pterm.Gray(fmt.Sprintf("cursor=%d", out.Selection.Cursor)))
	}
	return nil
}

func runTokenize(cmd *cobra.Command, args []string) error {
	text := args[0]
	cursor := tokenizeCursor
	if cursor < 0 {
		cursor = len([]rune(text))
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	return tokenize(cmd.OutOrStdout(), text, cursor, typeahead.TokenizeOptions{
		Lookback:        cfg.GetTypeaheadConfig().Lookback,
		CodeBlockButton: tokenizeCodeBlockButton,
	})
}

func tokenize(w io.Writer, text string, cursor int, opts typeahead.TokenizeOptions) error {
	tok, ok := typeahead.TokenizeWithOptions(text, cursor, opts)
	if !ok {
		fmt.Fprintln(w, "Nothing to complete at the cursor")
		return nil
	}

	fmt.Fprintf(w, "kind:   %s\n", tok.Kind)
	fmt.Fprintf(w, "query:  %q\n", tok.Query)
	fmt.Fprintf(w, "raw:    %q\n", tok.Raw)
	fmt.Fprintf(w, "range:  %d-%d\n", tok.Start, tok.End)
	if tok.Stream != "" {
		fmt.Fprintf(w, "stream: %s\n", tok.Stream)
	}
	if tok.Silent {
		fmt.Fprintln(w, "silent: true")
	}
	return nil
}
