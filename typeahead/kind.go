package typeahead

import "github.com/teranos/typeahead/sym"

// Kind is the grammar class of a token.
type Kind string

const (
	KindMention       Kind = "mention"
	KindSilentMention Kind = "silent_mention"
	KindStream        Kind = "stream"
	KindTopicList     Kind = "topic_list"
	KindTopicJump     Kind = "topic_jump"
	KindEmoji         Kind = "emoji"
	KindSlash         Kind = "slash"
	KindSyntax        Kind = "syntax"
	KindTimeJump      Kind = "time_jump"
)

// Kinds lists every token kind.
var Kinds = []Kind{
	KindMention, KindSilentMention, KindStream, KindTopicList, KindTopicJump,
	KindEmoji, KindSlash, KindSyntax, KindTimeJump,
}

func (k Kind) String() string {
	return string(k)
}

// Trigger returns the marker that opens this kind, e.g. "@" for mentions.
func (k Kind) Trigger() string {
	return sym.Trigger(string(k))
}

// IsMention reports whether k completes people, groups or broadcasts
func (k Kind) IsMention() bool {
	return k == KindMention || k == KindSilentMention
}
