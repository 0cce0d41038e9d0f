package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/typeahead/directory"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/typeahead"
)

// composeFlags describe the compose box a one-shot command pretends to type in.
type composeFlags struct {
	cursor          int // -1 = end of text
	stream          string
	topic           string
	to              string
	as              string
	codeBlockButton bool
}

func (f *composeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.cursor, "cursor", -1, "Cursor position in characters (default: end of text)")
	cmd.Flags().StringVar(&f.stream, "stream", "", "Channel being composed to (name or id)")
	cmd.Flags().StringVar(&f.topic, "topic", "", "Topic being composed to")
	cmd.Flags().StringVar(&f.to, "to", "", "Direct message recipients (comma-separated emails or ids)")
	cmd.Flags().StringVar(&f.as, "as", "", "Compose as this user (email or id, default typeahead.current_user)")
	cmd.Flags().BoolVar(&f.codeBlockButton, "code-block-button", false, "Treat a bare ``` as inserted by the code block button")
}

// cursorIn resolves the cursor against text.
func (f composeFlags) cursorIn(text string) int {
	n := len([]rune(text))
	if f.cursor < 0 || f.cursor > n {
		return n
	}
	return f.cursor
}

// context builds a compose context from the flags. defaultUser is used
// when --as is not given.
func (f composeFlags) context(snap *directory.Snapshot, defaultUser string) (typeahead.Context, error) {
	ref := f.as
	if ref == "" {
		ref = defaultUser
	}
	if ref == "" {
		return typeahead.Context{}, errors.WithHint(
			errors.NewInvalidRequestError("no current user"),
			"pass --as or set typeahead.current_user in am.toml",
		)
	}
	me, ok := snap.LookupUser(ref)
	if !ok {
		return typeahead.Context{}, errors.NewNotFoundError("user %s", ref)
	}

	cctx := typeahead.Context{
		MessageType:     typeahead.StreamMessage,
		CurrentUserID:   me.ID,
		Topic:           f.topic,
		CodeBlockButton: f.codeBlockButton,
	}

	if f.stream != "" {
		stream, ok := lookupStream(snap, f.stream)
		if !ok {
			return typeahead.Context{}, errors.NewNotFoundError("channel %s", f.stream)
		}
		cctx.StreamID = stream.ID
	}

	if f.to != "" {
		if f.stream != "" {
			return typeahead.Context{}, errors.NewInvalidRequestError("--stream and --to are mutually exclusive")
		}
		cctx.MessageType = typeahead.DirectMessage
		for _, ref := range strings.Split(f.to, ",") {
			ref = strings.TrimSpace(ref)
			if ref == "" {
				continue
			}
			u, ok := snap.LookupUser(ref)
			if !ok {
				return typeahead.Context{}, errors.NewNotFoundError("recipient %s", ref)
			}
			if u.ID != me.ID {
				cctx.Recipients = append(cctx.Recipients, u.ID)
			}
		}
	}
	return cctx, nil
}

func lookupStream(snap *directory.Snapshot, ref string) (directory.Stream, bool) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return snap.StreamByID(id)
	}
	return snap.StreamByName(ref)
}
