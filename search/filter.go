// Package search parses narrow queries such as `channel:Denmark topic:"ghost
// sightings" -is:resolved` and suggests completions for the last operand.
package search

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/typeahead/directory"
	"github.com/teranos/typeahead/typeahead"
)

// Operators understood in narrow queries
const (
	OpChannel     = "channel"
	OpTopic       = "topic"
	OpDM          = "dm"
	OpDMIncluding = "dm-including"
	OpSender      = "sender"
	OpIs          = "is"
	OpHas         = "has"
	OpNear        = "near"
	OpID          = "id"
	OpSearch      = "search" // free text
)

// legacy spellings still accepted in queries
var operatorAliases = map[string]string{
	"stream":  OpChannel,
	"pm-with": OpDM,
	"from":    OpSender,
	"subject": OpTopic,
}

var operators = map[string]string{
	OpChannel:     "Messages in a channel",
	OpTopic:       "Messages in a topic",
	OpDM:          "Direct messages with",
	OpDMIncluding: "Direct messages including",
	OpSender:      "Messages sent by",
	OpIs:          "Messages that are",
	OpHas:         "Messages that have",
	OpNear:        "Messages around",
	OpID:          "Message with id",
}

// Term is one operator/operand pair. Free text has Operator OpSearch.
type Term struct {
	Operator string `json:"operator"`
	Operand  string `json:"operand"`
	Negated  bool   `json:"negated,omitempty"`
}

func (t Term) String() string {
	s := t.Operand
	if t.Operator != OpSearch {
		s = t.Operator + ":" + t.Operand
	}
	if t.Negated {
		s = "-" + s
	}
	return s
}

// Filter is a parsed narrow.
type Filter struct {
	Terms []Term `json:"terms"`
}

// Parse splits query into terms, honouring shell-style quotes. Unbalanced
// quotes fall back to whitespace splitting.
func Parse(query string) Filter {
	var f Filter
	for _, arg := range splitQuery(query) {
		f.Terms = append(f.Terms, parseTerm(arg))
	}
	return f
}

func splitQuery(query string) []string {
	args, err := shellquote.Split(query)
	if err != nil {
		args = strings.Fields(query)
	}
	return args
}

func parseTerm(arg string) Term {
	negated := false
	body := arg
	if strings.HasPrefix(body, "-") && strings.Contains(body, ":") {
		negated = true
		body = body[1:]
	}
	op, operand, found := strings.Cut(body, ":")
	if !found {
		return Term{Operator: OpSearch, Operand: arg}
	}
	op = canonicalOperator(op)
	if _, known := operators[op]; !known {
		return Term{Operator: OpSearch, Operand: arg}
	}
	return Term{Operator: op, Operand: operand, Negated: negated}
}

func canonicalOperator(op string) string {
	op = strings.ToLower(op)
	if alias, ok := operatorAliases[op]; ok {
		return alias
	}
	return op
}

// String renders the filter back into a query.
func (f Filter) String() string {
	words := make([]string, 0, len(f.Terms))
	for _, t := range f.Terms {
		words = append(words, t.String())
	}
	return shellquote.Join(words...)
}

// Operand returns the operand of the first non-negated term with operator op
func (f Filter) Operand(op string) (string, bool) {
	for _, t := range f.Terms {
		if t.Operator == op && !t.Negated {
			return t.Operand, true
		}
	}
	return "", false
}

// ComposeContext is the compose box a reply from this narrow opens: a
// channel and topic, or a direct message. Narrows that name neither give a
// channel context without a channel.
func (f Filter) ComposeContext(snap *directory.Snapshot, currentUserID int64) typeahead.Context {
	ctx := typeahead.Context{MessageType: typeahead.StreamMessage, CurrentUserID: currentUserID}

	if operand, ok := f.Operand(OpDM); ok {
		ctx.MessageType = typeahead.DirectMessage
		for _, email := range strings.Split(operand, ",") {
			if u, ok := snap.UserByEmail(strings.TrimSpace(email)); ok && u.ID != currentUserID {
				ctx.Recipients = append(ctx.Recipients, u.ID)
			}
		}
		return ctx
	}

	if name, ok := f.Operand(OpChannel); ok {
		if s, ok := snap.StreamByName(name); ok {
			ctx.StreamID = s.ID
			ctx.Topic, _ = f.Operand(OpTopic)
		}
	}
	return ctx
}
