// Package sym defines the canonical trigger markers of compose-box markup.
// These markers are stable across the typeahead pipeline, the CLI and the
// LSP surface, and double as the `symbol` field in structured logs.
package sym

// Trigger markers typed by the user to open a completion.
const (
	Mention       = "@"      // @alice, @*group*
	SilentMention = "@_"     // @_alice, no notification
	Stream        = "#"      // #**channel
	TopicSep      = ">"      // #**channel>topic
	Emoji         = ":"      // :smile
	Slash         = "/"      // /poll, message-initial only
	Fence         = "```"    // ```python
	TildeFence    = "~~~"    // ~~~python
	Time          = "<time:" // <time:2024-01-01T00:00:00Z>
)

// Delimiters of completed markup.
const (
	MentionOpen  = "@**"
	MentionClose = "**"
	GroupOpen    = "@*"
	GroupClose   = "*"
	StreamOpen   = "#**"
	StreamClose  = "**"
)

// System markers used in logs.
const (
	DB        = "⊔" // directory storage
	Refresh   = "⟳" // background directory refresh
	Transport = "⇄" // http, websocket and stdio surfaces
)

// entry binds a token kind name to its trigger, label and description.
type entry struct {
	kind        string
	trigger     string
	label       string
	description string
}

// registry is the canonical mapping between token kinds and their markers.
var registry = []entry{
	{"mention", Mention, "Mention", "Notify a person, group, or everyone"},
	{"silent_mention", SilentMention, "Silent mention", "Reference someone without notifying them"},
	{"stream", Stream, "Channel", "Link to a channel"},
	{"topic_list", TopicSep, "Topic", "Link to a topic in a channel"},
	{"topic_jump", TopicSep, "Topic", "Continue a channel link with a topic"},
	{"emoji", Emoji, "Emoji", "Insert an emoji"},
	{"slash", Slash, "Command", "Run a slash command"},
	{"syntax", Fence, "Code block", "Pick a language for a code block"},
	{"time_jump", Time, "Time", "Insert a global time"},
}

var (
	kindToEntry    map[string]entry
	triggerToKinds map[string][]string
)

func init() {
	kindToEntry = make(map[string]entry, len(registry))
	triggerToKinds = make(map[string][]string, len(registry))
	for _, e := range registry {
		kindToEntry[e.kind] = e
		triggerToKinds[e.trigger] = append(triggerToKinds[e.trigger], e.kind)
	}
}

// Trigger returns the marker that opens completions of the given kind.
func Trigger(kind string) string {
	return kindToEntry[kind].trigger
}

// Label returns the human-readable label for a kind, or the kind itself.
func Label(kind string) string {
	if e, ok := kindToEntry[kind]; ok {
		return e.label
	}
	return kind
}

// Description returns a one-line description for a kind.
func Description(kind string) string {
	return kindToEntry[kind].description
}

// KindsForTrigger returns every kind opened by the given marker.
func KindsForTrigger(trigger string) []string {
	return triggerToKinds[trigger]
}

// TriggerCharacters lists the single characters that may open a completion.
// Editors use this to decide when to ask for suggestions.
var TriggerCharacters = []string{"@", "#", ":", "/", "`", "~", "<", ">", "*", "_"}
