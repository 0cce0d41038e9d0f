package typeahead

import (
	"strings"

	"github.com/teranos/typeahead/directory"
)

// Matcher decides whether a candidate matches a query.
type Matcher func(query string, c Candidate) bool

// QueryMatchesPerson matches a word prefix of the full name or a prefix of
// the email address. Non-breaking spaces count as spaces.
func QueryMatchesPerson(query string, u directory.User) bool {
	query = strings.ReplaceAll(query, nbsp, " ")
	name := strings.ReplaceAll(u.FullName, nbsp, " ")
	if QueryMatchesStringInOrder(query, name, " ") {
		return true
	}
	return emailMatches(query, u)
}

func emailMatches(query string, u directory.User) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	if strings.HasPrefix(strings.ToLower(u.Email), q) {
		return true
	}
	return u.DeliveryEmail != "" && strings.HasPrefix(strings.ToLower(u.DeliveryEmail), q)
}

// QueryMatchesEmoji matches the canonical name or any alias at an underscore
// boundary, or the emoji character itself. Spaces in the query act as
// underscores. It returns the name that matched.
func QueryMatchesEmoji(query string, e directory.Emoji) (string, bool) {
	q := strings.ReplaceAll(query, " ", "_")
	if QueryMatchesStringInOrder(q, e.Name, "_") {
		return e.Name, true
	}
	for _, alias := range e.Aliases {
		if QueryMatchesStringInOrder(q, alias, "_") {
			return alias, true
		}
	}
	if e.ReactionType == directory.UnicodeEmoji && query != "" && query == directory.EmojiChar(e.Code) {
		return e.Name, true
	}
	return "", false
}

// QueryMatchesSlash matches a prefix of the command name or an alias
func QueryMatchesSlash(query string, cmd directory.SlashCommand) bool {
	return hasFoldPrefix(cmd.Name, query) || anyFoldPrefix(cmd.Aliases, query)
}

// QueryMatchesLanguage matches a prefix of the language name or an alias
func QueryMatchesLanguage(query string, lang directory.Language) bool {
	return hasFoldPrefix(lang.Name, query) || anyFoldPrefix(lang.Aliases, query)
}

// QueryMatchesGroup matches a word prefix of the group name. Permission to
// mention the group is checked separately.
func QueryMatchesGroup(query string, g directory.UserGroup) bool {
	return QueryMatchesStringInOrder(query, g.Name, " ")
}

// QueryMatchesStream matches a word prefix of the channel name. The
// description never participates in matching.
func QueryMatchesStream(query string, s directory.Stream) bool {
	return QueryMatchesStringInOrder(query, s.Name, " ")
}

// QueryMatchesTopic matches a word prefix of a topic name
func QueryMatchesTopic(query, topic string) bool {
	return QueryMatchesStringInOrder(query, topic, " ")
}

// matchCandidate applies the matcher of c's variant.
func matchCandidate(query string, c Candidate) bool {
	switch c := c.(type) {
	case UserCandidate:
		return QueryMatchesPerson(query, c.User)
	case BroadcastCandidate:
		return QueryMatchesStringInOrder(query, c.Name, " ")
	case GroupCandidate:
		return QueryMatchesGroup(query, c.Group)
	case StreamCandidate:
		return QueryMatchesStream(query, c.Stream)
	case TopicCandidate:
		return c.IsNew || QueryMatchesTopic(query, c.Topic)
	case SlashCandidate:
		return QueryMatchesSlash(query, c.Command)
	case LanguageCandidate:
		return c.Language.Name == "" || QueryMatchesLanguage(query, c.Language)
	case EmojiCandidate:
		_, ok := QueryMatchesEmoji(query, c.Emoji)
		return ok
	case TopicJumpCandidate, TimeJumpCandidate:
		return true
	}
	return false
}

func hasFoldPrefix(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

func anyFoldPrefix(ss []string, prefix string) bool {
	for _, s := range ss {
		if hasFoldPrefix(s, prefix) {
			return true
		}
	}
	return false
}
