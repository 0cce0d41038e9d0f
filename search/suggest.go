package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/typeahead/directory"
	"github.com/teranos/typeahead/typeahead"
)

// DefaultLimit caps suggestions when the caller passes no limit
const DefaultLimit = 10

var (
	operatorOrder = []string{OpChannel, OpTopic, OpSender, OpDM, OpDMIncluding, OpIs, OpHas, OpNear, OpID}
	isValues      = []string{"dm", "starred", "mentioned", "alerted", "unread", "resolved", "followed", "muted"}
	hasValues     = []string{"link", "image", "attachment", "reaction"}
)

// Suggestion is a complete query the user can switch to.
type Suggestion struct {
	Search      string `json:"search"`
	Description string `json:"description"`
}

// Suggest completes the last word of query against snap, as seen by
// viewerID. Earlier words are kept as typed, normalized.
func Suggest(query string, snap *directory.Snapshot, viewerID int64, limit int) []Suggestion {
	if limit <= 0 {
		limit = DefaultLimit
	}

	args := splitQuery(query)
	last := ""
	if len(args) > 0 && !endsWithSpace(query) {
		last = args[len(args)-1]
		args = args[:len(args)-1]
	}

	var prior Filter
	for _, arg := range args {
		prior.Terms = append(prior.Terms, parseTerm(arg))
	}
	prefix := ""
	if len(prior.Terms) > 0 {
		prefix = prior.String() + " "
	}

	negated := false
	word := last
	if strings.HasPrefix(word, "-") {
		negated = true
		word = word[1:]
	}

	var terms []suggested
	if op, operand, ok := strings.Cut(word, ":"); ok {
		terms = suggestOperand(canonicalOperator(op), operand, prior, snap, viewerID)
	} else {
		terms = suggestWord(word, snap, viewerID)
	}

	out := make([]Suggestion, 0, limit)
	for _, s := range terms {
		if len(out) == limit {
			break
		}
		s.term.Negated = negated
		out = append(out, Suggestion{
			Search:      prefix + shellquote.Join(s.term.String()),
			Description: s.description,
		})
	}
	return out
}

type suggested struct {
	term        Term
	description string
}

func endsWithSpace(s string) bool {
	if s == "" {
		return true
	}
	r := []rune(s)
	return unicode.IsSpace(r[len(r)-1])
}

// suggestWord handles a word without an operator: the word as free text,
// operators it begins, then channels and people it names.
func suggestWord(word string, snap *directory.Snapshot, viewerID int64) []suggested {
	var out []suggested
	if word != "" {
		out = append(out, suggested{Term{Operator: OpSearch, Operand: word}, "Search for " + word})
	}
	for _, op := range operatorOrder {
		if strings.HasPrefix(op, strings.ToLower(word)) {
			out = append(out, suggested{Term{Operator: op}, operators[op]})
		}
	}
	if word == "" {
		return out
	}
	out = append(out, channelSuggestions(word, snap, viewerID)...)
	out = append(out, personSuggestions(OpSender, word, nil, snap, viewerID)...)
	return out
}

func suggestOperand(op, operand string, prior Filter, snap *directory.Snapshot, viewerID int64) []suggested {
	switch op {
	case OpChannel:
		return channelSuggestions(operand, snap, viewerID)

	case OpTopic:
		name, ok := prior.Operand(OpChannel)
		if !ok {
			return nil
		}
		stream, ok := snap.StreamByName(name)
		if !ok {
			return nil
		}
		var out []suggested
		for _, t := range snap.TopicsForStream(stream.ID) {
			if typeahead.QueryMatchesTopic(operand, t.Name) {
				out = append(out, suggested{Term{Operator: OpTopic, Operand: t.Name}, "Topic " + t.Name + " in #" + stream.Name})
			}
		}
		return out

	case OpSender, OpDMIncluding:
		return personSuggestions(op, operand, nil, snap, viewerID)

	case OpDM:
		// dm:alice@example.com,bo completes the last address
		parts := strings.Split(operand, ",")
		return personSuggestions(op, parts[len(parts)-1], parts[:len(parts)-1], snap, viewerID)

	case OpIs:
		return fixedSuggestions(op, operand, isValues)
	case OpHas:
		return fixedSuggestions(op, operand, hasValues)
	}
	return nil
}

func channelSuggestions(query string, snap *directory.Snapshot, viewerID int64) []suggested {
	viewer, _ := snap.UserByID(viewerID)

	type entry struct {
		stream     directory.Stream
		subscribed bool
	}
	var matched []entry
	for _, s := range snap.Streams() {
		if s.IsArchived {
			continue
		}
		subscribed := snap.IsSubscribed(s.ID, viewerID)
		if !subscribed && (s.InviteOnly || viewer.IsGuest()) {
			continue
		}
		if typeahead.QueryMatchesStream(query, s) {
			matched = append(matched, entry{s, subscribed})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].subscribed != matched[j].subscribed {
			return matched[i].subscribed
		}
		return strings.ToLower(matched[i].stream.Name) < strings.ToLower(matched[j].stream.Name)
	})

	out := make([]suggested, 0, len(matched))
	for _, m := range matched {
		out = append(out, suggested{Term{Operator: OpChannel, Operand: m.stream.Name}, "Messages in #" + m.stream.Name})
	}
	return out
}

// personSuggestions lists people matching query. chosen holds addresses
// already in a dm: operand; they are kept in front and not suggested again.
func personSuggestions(op, query string, chosen []string, snap *directory.Snapshot, viewerID int64) []suggested {
	taken := make(map[string]bool, len(chosen))
	for _, email := range chosen {
		taken[strings.ToLower(strings.TrimSpace(email))] = true
	}
	lead := ""
	if len(chosen) > 0 {
		lead = strings.Join(chosen, ",") + ","
	}

	var out []suggested
	for _, u := range snap.Users() {
		if !u.IsActive || taken[strings.ToLower(u.Email)] {
			continue
		}
		if op == OpDM && u.ID == viewerID {
			continue
		}
		if snap.IsMuted(viewerID, u.ID) || !snap.CanAccessUser(viewerID, u.ID) {
			continue
		}
		if !typeahead.QueryMatchesPerson(query, u) {
			continue
		}
		out = append(out, suggested{Term{Operator: op, Operand: lead + u.Email}, operators[op] + " " + u.FullName})
	}
	return out
}

func fixedSuggestions(op, query string, values []string) []suggested {
	var out []suggested
	for _, v := range values {
		if strings.HasPrefix(v, strings.ToLower(query)) {
			out = append(out, suggested{Term{Operator: op, Operand: v}, operators[op] + " " + v})
		}
	}
	return out
}
