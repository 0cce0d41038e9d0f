package server

import (
	"time"

	"github.com/teranos/typeahead/directory"
	"github.com/teranos/typeahead/search"
	"github.com/teranos/typeahead/typeahead"
)

// ComposeRequest is the common shape of compose box requests. Cursor is a
// rune offset; when omitted the cursor is at the end of Text. Narrow, when
// set, derives the compose context from a search narrow such as
// "channel:Denmark topic:castle" and replaces Context.
type ComposeRequest struct {
	Text    string            `json:"text"`
	Cursor  *int              `json:"cursor,omitempty"`
	Context typeahead.Context `json:"context"`
	Narrow  string            `json:"narrow,omitempty"`
}

// cursor resolves the request cursor
func (r ComposeRequest) cursor() int {
	if r.Cursor == nil {
		return len([]rune(r.Text))
	}
	return *r.Cursor
}

// CandidatesResponse lists suggestions for the token left of the cursor.
// Token is nil when nothing is being completed.
type CandidatesResponse struct {
	Token      *typeahead.Token `json:"token"`
	Candidates []CandidateJSON  `json:"candidates"`
}

// CandidateJSON is a suggestion as shown in a list.
type CandidateJSON struct {
	Kind   typeahead.CandidateKind `json:"kind"`
	Label  string                  `json:"label"`
	Detail string                  `json:"detail,omitempty"`
	// ID is the user, group or stream id
	ID int64 `json:"id,omitempty"`
	// Emoji is the rendered glyph of a unicode emoji
	Emoji string `json:"emoji,omitempty"`
	// Selection is the compose box after picking this candidate
	Selection *typeahead.Selection `json:"selection,omitempty"`
	// Recipients is the recipient field after picking this candidate
	Recipients string `json:"recipients,omitempty"`
}

// SelectRequest picks the candidate at Index.
type SelectRequest struct {
	ComposeRequest
	Index int `json:"index"`
}

// TokenizeRequest asks for the token left of the cursor.
type TokenizeRequest struct {
	ComposeRequest
	CodeBlockButton bool `json:"code_block_button,omitempty"`
}

// TokenizeResponse describes the token. Window is the raw completion
// candidate found by scanning back from the cursor.
type TokenizeResponse struct {
	Token  *typeahead.Token `json:"token"`
	Window string           `json:"window"`
}

// RecipientsRequest completes a comma-separated recipient field.
type RecipientsRequest struct {
	Field   string            `json:"field"`
	Context typeahead.Context `json:"context"`
}

// RecipientsResponse lists people for the last entry of the field.
type RecipientsResponse struct {
	Candidates []CandidateJSON `json:"candidates"`
}

// SearchSuggestionsResponse lists search bar completions.
type SearchSuggestionsResponse struct {
	Suggestions []search.Suggestion `json:"suggestions"`
}

// SearchContextResponse is the compose context a narrow implies.
type SearchContextResponse struct {
	Terms   []search.Term     `json:"terms"`
	Context typeahead.Context `json:"context"`
}

// DirectoryResponse summarizes the active snapshot.
type DirectoryResponse struct {
	LoadedAt time.Time      `json:"loaded_at"`
	Counts   map[string]int `json:"counts"`
}

func tokenPtr(tok typeahead.Token) *typeahead.Token {
	if tok.IsZero() {
		return nil
	}
	return &tok
}

// toCandidateJSON renders c. When tok is set the selection preview is filled in.
func toCandidateJSON(c typeahead.Candidate, text string, cursor int, tok typeahead.Token) CandidateJSON {
	out := CandidateJSON{
		Kind:   c.Kind(),
		Label:  c.Label(),
		Detail: c.Detail(),
	}
	switch v := c.(type) {
	case typeahead.UserCandidate:
		out.ID = v.User.ID
	case typeahead.GroupCandidate:
		out.ID = v.Group.ID
	case typeahead.StreamCandidate:
		out.ID = v.Stream.ID
	case typeahead.TopicCandidate:
		out.ID = v.StreamID
	case typeahead.EmojiCandidate:
		if v.Emoji.ReactionType == directory.UnicodeEmoji {
			out.Emoji = directory.EmojiChar(v.Emoji.Code)
		}
	}
	if !tok.IsZero() {
		sel := typeahead.ContentTypeaheadSelected(c, text, cursor, tok)
		out.Selection = &sel
	}
	return out
}
