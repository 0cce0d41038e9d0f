package typeahead

import (
	"time"

	"github.com/teranos/typeahead/directory"
)

// CandidateKind tags a Candidate variant.
type CandidateKind string

const (
	CandidateUser      CandidateKind = "user"
	CandidateBroadcast CandidateKind = "broadcast"
	CandidateGroup     CandidateKind = "user_group"
	CandidateStream    CandidateKind = "stream"
	CandidateTopic     CandidateKind = "topic_list"
	CandidateTopicJump CandidateKind = "topic_jump"
	CandidateSlash     CandidateKind = "slash"
	CandidateSyntax    CandidateKind = "syntax"
	CandidateEmoji     CandidateKind = "emoji"
	CandidateTimeJump  CandidateKind = "time_jump"
)

// Candidate is one possible completion. The set of implementations is
// closed; switch on the concrete type.
type Candidate interface {
	Kind() CandidateKind
	// Label is the primary text shown in a suggestion list
	Label() string
	// Detail is secondary text such as an email or description
	Detail() string
	candidate()
}

// UserCandidate is a person or bot.
type UserCandidate struct {
	User   directory.User
	Silent bool
	// DuplicateName is set when another active user shares the full name
	DuplicateName bool
}

// BroadcastCandidate is a wildcard mention such as @**all**.
type BroadcastCandidate struct {
	Name        string
	Description string
}

// GroupCandidate is a user group.
type GroupCandidate struct {
	Group  directory.UserGroup
	Silent bool
}

// StreamCandidate is a channel.
type StreamCandidate struct {
	Stream     directory.Stream
	Subscribed bool
}

// TopicCandidate is a topic of the channel named in the token. IsNew marks
// the typed text offered as a topic that does not exist yet.
type TopicCandidate struct {
	StreamID   int64
	StreamName string
	Topic      string
	IsNew      bool
}

// TopicJumpCandidate continues a completed channel link with a topic.
type TopicJumpCandidate struct{}

// SlashCandidate is a message-initial command.
type SlashCandidate struct {
	Command directory.SlashCommand
}

// LanguageCandidate is a code block language. A zero Language is the
// plain code block offered by the code block button.
type LanguageCandidate struct {
	Language directory.Language
}

// EmojiCandidate is an emoji. MatchedName is the name or alias the query
// matched; the inserted markup always uses the canonical name.
type EmojiCandidate struct {
	Emoji       directory.Emoji
	MatchedName string
}

// TimeJumpCandidate inserts a global time.
type TimeJumpCandidate struct {
	Time time.Time
}

func (UserCandidate) Kind() CandidateKind      { return CandidateUser }
func (BroadcastCandidate) Kind() CandidateKind { return CandidateBroadcast }
func (GroupCandidate) Kind() CandidateKind     { return CandidateGroup }
func (StreamCandidate) Kind() CandidateKind    { return CandidateStream }
func (TopicCandidate) Kind() CandidateKind     { return CandidateTopic }
func (TopicJumpCandidate) Kind() CandidateKind { return CandidateTopicJump }
func (SlashCandidate) Kind() CandidateKind     { return CandidateSlash }
func (LanguageCandidate) Kind() CandidateKind  { return CandidateSyntax }
func (EmojiCandidate) Kind() CandidateKind     { return CandidateEmoji }
func (TimeJumpCandidate) Kind() CandidateKind  { return CandidateTimeJump }

func (c UserCandidate) Label() string      { return c.User.FullName }
func (c BroadcastCandidate) Label() string { return c.Name }
func (c GroupCandidate) Label() string     { return c.Group.Name }
func (c StreamCandidate) Label() string    { return c.Stream.Name }
func (c TopicCandidate) Label() string     { return c.Topic }
func (TopicJumpCandidate) Label() string   { return "Jump to topic list" }
func (c SlashCandidate) Label() string     { return "/" + c.Command.Name }
func (c LanguageCandidate) Label() string  { return c.Language.Name }
func (c EmojiCandidate) Label() string     { return c.Emoji.Name }
func (TimeJumpCandidate) Label() string    { return "Mention a time-zone-aware time" }

func (c UserCandidate) Detail() string {
	if c.User.DeliveryEmail != "" {
		return c.User.DeliveryEmail
	}
	return c.User.Email
}
func (c BroadcastCandidate) Detail() string { return c.Description }
func (c GroupCandidate) Detail() string     { return c.Group.Description }
func (c StreamCandidate) Detail() string    { return c.Stream.Description }
func (c TopicCandidate) Detail() string {
	if c.IsNew {
		return "New topic"
	}
	return c.StreamName
}
func (TopicJumpCandidate) Detail() string { return "" }
func (c SlashCandidate) Detail() string   { return c.Command.Info }
func (LanguageCandidate) Detail() string  { return "" }
func (c EmojiCandidate) Detail() string {
	if c.MatchedName != "" && c.MatchedName != c.Emoji.Name {
		return ":" + c.MatchedName + ":"
	}
	return ""
}
func (c TimeJumpCandidate) Detail() string {
	if c.Time.IsZero() {
		return ""
	}
	return c.Time.Format(time.RFC3339)
}

func (UserCandidate) candidate()      {}
func (BroadcastCandidate) candidate() {}
func (GroupCandidate) candidate()     {}
func (StreamCandidate) candidate()    {}
func (TopicCandidate) candidate()     {}
func (TopicJumpCandidate) candidate() {}
func (SlashCandidate) candidate()     {}
func (LanguageCandidate) candidate()  {}
func (EmojiCandidate) candidate()     {}
func (TimeJumpCandidate) candidate()  {}

// View is the wire form of a Candidate.
type View struct {
	Kind      CandidateKind `json:"kind"`
	Label     string        `json:"label"`
	Detail    string        `json:"detail,omitempty"`
	ID        int64         `json:"id,omitempty"`
	EmojiCode string        `json:"emoji_code,omitempty"`
	IsBot     bool          `json:"is_bot,omitempty"`
	Silent    bool          `json:"silent,omitempty"`
}

// NewView flattens c for JSON transports.
func NewView(c Candidate) View {
	v := View{Kind: c.Kind(), Label: c.Label(), Detail: c.Detail()}
	switch c := c.(type) {
	case UserCandidate:
		v.ID = c.User.ID
		v.IsBot = c.User.IsBot
		v.Silent = c.Silent
	case GroupCandidate:
		v.ID = c.Group.ID
		v.Silent = c.Silent
	case StreamCandidate:
		v.ID = c.Stream.ID
	case TopicCandidate:
		v.ID = c.StreamID
	case EmojiCandidate:
		v.EmojiCode = c.Emoji.Code
	}
	return v
}

// Views flattens a candidate list
func Views(cs []Candidate) []View {
	out := make([]View, 0, len(cs))
	for _, c := range cs {
		out = append(out, NewView(c))
	}
	return out
}
