package typeahead

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/teranos/typeahead/sym"
)

// spoilerPlaceholder is inserted and highlighted after ```spoiler
const spoilerPlaceholder = "Header"

var (
	// characters that break #**stream>topic** syntax
	unsafeLinkRegex = regexp.MustCompile("[`>*&\\[\\]]|\\$\\$")
	jumpCloseRegex  = regexp.MustCompile(`\*\*\s?>$`)

	linkTextEscaper = strings.NewReplacer(
		"`", "&#96;",
		">", "&gt;",
		"*", "&#42;",
		"&", "&amp;",
		"$$", "&#36;&#36;",
		"[", "&#91;",
		"]", "&#93;",
	)
)

// Selection is the compose box after a candidate was picked. Offsets are
// rune offsets; a highlight is present when HighlightEnd > HighlightStart.
type Selection struct {
	Text           string `json:"text"`
	Cursor         int    `json:"cursor"`
	HighlightStart int    `json:"highlight_start,omitempty"`
	HighlightEnd   int    `json:"highlight_end,omitempty"`
}

// HasHighlight reports whether a placeholder should be selected
func (s Selection) HasHighlight() bool {
	return s.HighlightEnd > s.HighlightStart
}

// MentionSyntax renders a user mention. Duplicate names carry the user id
// so the mention stays unambiguous.
func MentionSyntax(fullName string, userID int64, silent, duplicate bool) string {
	var b strings.Builder
	b.WriteString(sym.Mention)
	if silent {
		b.WriteString("_")
	}
	b.WriteString("**")
	b.WriteString(fullName)
	if duplicate {
		b.WriteString("|")
		b.WriteString(strconv.FormatInt(userID, 10))
	}
	b.WriteString("**")
	return b.String()
}

// ContentTypeaheadSelected splices the markup for c into text, replacing
// the token left of cursor, and places the cursor after the insertion.
// Text after the cursor is preserved.
func ContentTypeaheadSelected(c Candidate, text string, cursor int, tok Token) Selection {
	runes := []rune(text)
	if cursor < 0 || cursor > len(runes) || tok.Start < 0 || tok.Start > cursor {
		return Selection{Text: text, Cursor: cursor}
	}
	prefix := string(runes[:tok.Start])
	rest := string(runes[cursor:])
	var hlStart, hlEnd int

	var beginning string
	switch c := c.(type) {
	case UserCandidate:
		beginning = prefix + MentionSyntax(c.User.FullName, c.User.ID, c.Silent, c.DuplicateName) + " "

	case BroadcastCandidate:
		beginning = prefix + MentionSyntax(c.Name, 0, tok.Silent, false) + " "

	case GroupCandidate:
		opener := sym.GroupOpen
		if c.Silent {
			opener = sym.SilentMention + "*"
		}
		beginning = prefix + opener + c.Group.Name + sym.GroupClose + " "

	case StreamCandidate:
		if IsUnsafeLinkName(c.Stream.Name) {
			beginning = prefix + StreamLink(c.Stream.ID, c.Stream.Name) + " "
		} else {
			beginning = prefix + sym.StreamOpen + c.Stream.Name + sym.TopicSep
		}

	case TopicCandidate:
		if IsUnsafeLinkName(c.StreamName) || IsUnsafeLinkName(c.Topic) {
			beginning = prefix + TopicLink(c.StreamID, c.StreamName, c.Topic) + " "
		} else {
			// the channel part is already typed; replace only the partial topic
			start := cursor - utf8.RuneCountInString(tok.Query)
			if start < tok.Start {
				start = tok.Start
			}
			beginning = string(runes[:start]) + c.Topic + sym.StreamClose + " "
		}

	case TopicJumpCandidate:
		before := string(runes[:cursor])
		loc := jumpCloseRegex.FindStringIndex(before)
		if loc == nil {
			return Selection{Text: text, Cursor: cursor}
		}
		beginning = before[:loc[0]] + sym.TopicSep

	case EmojiCandidate:
		lead := ""
		if tok.Start > 0 && runes[tok.Start-1] != ' ' && runes[tok.Start-1] != '\n' {
			lead = " "
		}
		beginning = prefix + lead + sym.Emoji + c.Emoji.Name + sym.Emoji + " "

	case SlashCandidate:
		beginning = prefix + sym.Slash + c.Command.Name
		if c.Command.Placeholder != "" {
			hlStart = utf8.RuneCountInString(beginning) + 1
			beginning += " " + c.Command.Placeholder
			hlEnd = utf8.RuneCountInString(beginning)
		}

	case LanguageCandidate:
		fence := sym.Fence
		if raw := []rune(tok.Raw); len(raw) >= 3 {
			fence = string(raw[:3])
		}
		beginning = prefix + fence + c.Language.Name
		if c.Language.Name == "spoiler" {
			hlStart = utf8.RuneCountInString(beginning) + 1
			beginning += " " + spoilerPlaceholder
			hlEnd = utf8.RuneCountInString(beginning)
		}
		// close the block when nothing follows
		if rest == "" {
			beginning += "\n"
			rest = "\n" + fence
		}

	case TimeJumpCandidate:
		t := c.Time
		if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(tok.Query)); err == nil {
			t = parsed
		}
		beginning = prefix + fmt.Sprintf("%s%s> ", sym.Time, t.Format(time.RFC3339))

	default:
		return Selection{Text: text, Cursor: cursor}
	}

	return Selection{
		Text:           beginning + rest,
		Cursor:         utf8.RuneCountInString(beginning),
		HighlightStart: hlStart,
		HighlightEnd:   hlEnd,
	}
}

// RecipientTypeaheadSelected replaces the partial last entry of a
// comma-separated recipient field with email.
func RecipientTypeaheadSelected(field, email string) string {
	if i := strings.LastIndex(field, ","); i >= 0 {
		return field[:i+1] + " " + email + ", "
	}
	return email + ", "
}

// IsUnsafeLinkName reports whether name cannot appear inside #**...** markup
func IsUnsafeLinkName(name string) bool {
	return unsafeLinkRegex.MatchString(name)
}

// StreamLink renders a markdown link to a channel.
func StreamLink(streamID int64, name string) string {
	return fmt.Sprintf("[#%s](%s)", linkTextEscaper.Replace(name), StreamNarrowURL(streamID, name))
}

// TopicLink renders a markdown link to a topic.
func TopicLink(streamID int64, streamName, topic string) string {
	return fmt.Sprintf("[#%s > %s](%s/topic/%s)",
		linkTextEscaper.Replace(streamName), linkTextEscaper.Replace(topic),
		StreamNarrowURL(streamID, streamName), EncodeHashComponent(topic))
}

// StreamNarrowURL is the fragment that narrows to a channel, e.g.
// "#narrow/channel/5-Lots-of-*stars*".
func StreamNarrowURL(streamID int64, name string) string {
	slug := EncodeHashComponent(strings.ReplaceAll(name, " ", "-"))
	return fmt.Sprintf("#narrow/channel/%d-%s", streamID, slug)
}

// EncodeHashComponent percent-encodes s like encodeURIComponent and then
// swaps "%" for "." so the result survives in a URL fragment.
func EncodeHashComponent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '(':
			b.WriteString(".28")
		case c == ')':
			b.WriteString(".29")
		case c == '.':
			b.WriteString(".2E")
		case isURIUnreserved(c):
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, ".%02X", c)
		}
	}
	return b.String()
}

// isURIUnreserved matches the bytes encodeURIComponent leaves alone
func isURIUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
