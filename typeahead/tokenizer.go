package typeahead

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/teranos/typeahead/sym"
)

// DefaultLookback is how many runes left of the cursor are searched for a trigger.
const DefaultLookback = 40

// preTrigger are the punctuation runes that may directly precede a trigger
const preTrigger = `"'(/<[{`

// terminals may directly follow the cursor without suppressing completion
const terminals = ",.;?!()[]>\"' \n\t"

var (
	// #**stream** > at the end of the text
	topicJumpRegex = regexp.MustCompile(`#\*\*([^*>]+)\*\*\s?>$`)
	// #**stream>partial topic at the end of the text
	topicListRegex = regexp.MustCompile(`#\*\*([^*>]+)>([^*\n]*)$`)
	timeJumpRegex  = regexp.MustCompile(`<time(:([^>]*?)>?)?$`)
	emoticonRegex  = regexp.MustCompile(`^:-.?$|^:[^+a-z]?$`)
)

// TokenizeOptions tunes Tokenize.
type TokenizeOptions struct {
	// Lookback overrides DefaultLookback when positive
	Lookback int
	// CodeBlockButton is set when the fence was inserted by the code block
	// button; a bare fence then opens the language list.
	CodeBlockButton bool
}

// TokenizeComposeStr returns the completion candidate at the end of s, with
// its trigger, or "" when there is none.
//
//	TokenizeComposeStr("foo bar [#alic") == "#alic"
//	TokenizeComposeStr("1/3") == ""
func TokenizeComposeStr(s string) string {
	return string(tokenizeComposeStr([]rune(s), DefaultLookback))
}

func tokenizeComposeStr(s []rune, lookback int) []rune {
	i := len(s)
	minI := len(s) - lookback
	if minI < 0 {
		minI = 0
	}

	for i > minI {
		i--
		switch s[i] {
		case '`', '~':
			// fences only open at the start of a line
			if i == 2 {
				return s
			} else if i > 2 && s[i-3] == '\n' {
				return s[i-2:]
			}
		case '/':
			if isBlank(s[:i]) {
				return s[i:]
			}
		case '<':
			if strings.HasPrefix(string(s[i:]), sym.Time) {
				return s[i:]
			}
		case '#', '@', '_', ':':
			if i == 0 || isPreTrigger(s[i-1]) {
				return s[i:]
			}
		}
	}
	return nil
}

// Tokenize finds the completion token left of cursor, a rune offset into text.
func Tokenize(text string, cursor int) (Token, bool) {
	return TokenizeWithOptions(text, cursor, TokenizeOptions{})
}

// TokenizeWithOptions is Tokenize with explicit options.
func TokenizeWithOptions(text string, cursor int, opts TokenizeOptions) (Token, bool) {
	runes := []rune(text)
	if cursor < 0 || cursor > len(runes) {
		return Token{}, false
	}
	lookback := opts.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	before, rest := runes[:cursor], runes[cursor:]
	raw := tokenizeComposeStr(before, lookback)
	if len(raw) == 0 {
		return Token{}, false
	}

	// cursor in the middle of a word or of already completed markup
	if len(rest) > 0 && !isTerminal(rest[0]) {
		return Token{}, false
	}

	tok := Token{Raw: string(raw), Start: cursor - len(raw), End: cursor}
	beforeStr := string(before)

	if len(raw) >= 3 && (string(raw[:3]) == sym.Fence || string(raw[:3]) == sym.TildeFence) {
		return tokenizeSyntax(tok, raw, rest, opts)
	}

	switch raw[0] {
	case ':':
		return tokenizeEmoji(tok, raw)
	case '@':
		return tokenizeMention(tok, raw)
	case '/':
		tok.Kind = KindSlash
		tok.Query = string(raw[1:])
		return tok, true
	}

	if m := topicJumpRegex.FindStringSubmatchIndex(beforeStr); m != nil {
		tok.Kind = KindTopicJump
		tok.Query = sym.TopicSep
		tok.Stream = beforeStr[m[2]:m[3]]
		return rebase(tok, beforeStr, m[0]), true
	}

	if m := topicListRegex.FindStringSubmatchIndex(beforeStr); m != nil {
		topic := beforeStr[m[4]:m[5]]
		if strings.HasPrefix(topic, " ") {
			return Token{}, false
		}
		tok.Kind = KindTopicList
		tok.Query = topic
		tok.Stream = beforeStr[m[2]:m[3]]
		return rebase(tok, beforeStr, m[0]), true
	}

	if raw[0] == '#' {
		return tokenizeStream(tok, raw)
	}

	if m := timeJumpRegex.FindStringSubmatchIndex(beforeStr); m != nil {
		tok.Kind = KindTimeJump
		if m[4] >= 0 {
			tok.Query = strings.TrimSuffix(beforeStr[m[4]:m[5]], ">")
		}
		return rebase(tok, beforeStr, m[0]), true
	}

	return Token{}, false
}

func tokenizeSyntax(tok Token, raw, rest []rune, opts TokenizeOptions) (Token, bool) {
	if len(raw) == 3 && !opts.CodeBlockButton {
		return Token{}, false
	}
	query := string(raw[3:])
	if query == " " {
		return Token{}, false
	}
	query = strings.TrimPrefix(query, " ")

	// ```python print("hi") is not a language being typed
	line := string(rest)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.TrimSpace(line) != "" {
		return Token{}, false
	}

	tok.Kind = KindSyntax
	tok.Query = query
	return tok, true
}

func tokenizeEmoji(tok Token, raw []rune) (Token, bool) {
	s := string(raw)
	// emoticons such as :P or :-p, or a bare colon
	if emoticonRegex.MatchString(s) {
		return Token{}, false
	}
	if raw[1] == ' ' {
		return Token{}, false
	}
	query := string(raw[1:])
	// :smile: is already complete
	if strings.Contains(query, ":") {
		return Token{}, false
	}
	tok.Kind = KindEmoji
	tok.Query = query
	return tok, true
}

func tokenizeMention(tok Token, raw []rune) (Token, bool) {
	query := string(raw[1:])
	tok.Kind = KindMention
	if strings.HasPrefix(query, "_") {
		tok.Kind = KindSilentMention
		tok.Silent = true
		query = query[1:]
	}

	switch {
	case strings.HasPrefix(query, "**"):
		query = query[2:]
		tok.Enumerate = true
	case strings.HasPrefix(query, "*"):
		query = query[1:]
		tok.Enumerate = true
	}
	// closed markup, or a space right after the opener
	if strings.Contains(query, "*") || strings.HasPrefix(query, " ") {
		return Token{}, false
	}

	tok.Query = query
	return tok, true
}

func tokenizeStream(tok Token, raw []rune) (Token, bool) {
	if len(raw) == 1 {
		return Token{}, false
	}
	query := strings.TrimPrefix(string(raw[1:]), "**")
	if strings.HasPrefix(query, " ") {
		return Token{}, false
	}
	// #**name** is complete
	if strings.Contains(query, "**") || strings.Contains(query, sym.TopicSep) {
		return Token{}, false
	}
	tok.Kind = KindStream
	tok.Query = query
	return tok, true
}

// rebase moves the token start to a regex match at byte offset in before.
func rebase(tok Token, before string, byteOffset int) Token {
	tok.Start = utf8.RuneCountInString(before[:byteOffset])
	tok.Raw = before[byteOffset:]
	return tok
}

func isPreTrigger(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(preTrigger, r)
}

func isTerminal(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(terminals, r)
}

func isBlank(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
