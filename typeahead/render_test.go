package typeahead

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/typeahead/directory"
)

var (
	othello  = member(2, "othello@zulip.com", "Othello, the Moor of Venice")
	gael     = member(9, "gael2@zulip.com", "Gaël Twin")
	denmark  = directory.Stream{ID: 1, Name: "Denmark"}
	stars    = directory.Stream{ID: 5, Name: "Lots of *stars*"}
	smile    = directory.Emoji{Name: "smile", Code: "1f604", ReactionType: directory.UnicodeEmoji}
	poll     = directory.SlashCommand{Name: "poll", Placeholder: "Question"}
	dark     = directory.SlashCommand{Name: "dark", Aliases: []string{"night"}}
	python   = directory.Language{Name: "python", Priority: 40, Aliases: []string{"py"}}
	spoiler  = directory.Language{Name: "spoiler", Priority: 9}
	meetTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

// selectAt tokenizes text at cursor and applies c.
func selectAt(t *testing.T, c Candidate, text string, cursor int) Selection {
	t.Helper()
	tok, ok := Tokenize(text, cursor)
	require.True(t, ok, "no token in %q", text)
	return ContentTypeaheadSelected(c, text, cursor, tok)
}

func selectAtEnd(t *testing.T, c Candidate, text string) Selection {
	t.Helper()
	return selectAt(t, c, text, utf8.RuneCountInString(text))
}

func TestContentTypeaheadSelected(t *testing.T) {
	tests := []struct {
		name string
		text string
		c    Candidate
		want string
	}{
		{"user", "hi @oth", UserCandidate{User: othello}, "hi @**Othello, the Moor of Venice** "},
		{"silent user", "hi @_oth", UserCandidate{User: othello, Silent: true}, "hi @_**Othello, the Moor of Venice** "},
		{"duplicate name carries id", "@gaë", UserCandidate{User: gael, DuplicateName: true}, "@**Gaël Twin|9** "},
		{"broadcast", "@**al", BroadcastCandidate{Name: "all"}, "@**all** "},
		{"group", "@ham", GroupCandidate{Group: directory.UserGroup{Name: "hamletcharacters"}}, "@*hamletcharacters* "},
		{"silent group", "@_back", GroupCandidate{Group: directory.UserGroup{Name: "backend"}, Silent: true}, "@_*backend* "},
		{"stream", "see #den", StreamCandidate{Stream: denmark}, "see #**Denmark>"},
		{"unsafe stream", "#lots", StreamCandidate{Stream: stars}, "[#Lots of &#42;stars&#42;](#narrow/channel/5-Lots-of-*stars*) "},
		{"topic", "#**Denmark>gh", TopicCandidate{StreamID: 1, StreamName: "Denmark", Topic: "ghost sightings"}, "#**Denmark>ghost sightings** "},
		{"new topic", "#**Denmark>moat", TopicCandidate{StreamID: 1, StreamName: "Denmark", Topic: "moat", IsNew: true}, "#**Denmark>moat** "},
		{"unsafe topic", "#**Denmark>pl", TopicCandidate{StreamID: 1, StreamName: "Denmark", Topic: "plot > intrigue"},
			"[#Denmark > plot &gt; intrigue](#narrow/channel/1-Denmark/topic/plot.20.3E.20intrigue) "},
		{"topic jump", "#**Denmark** >", TopicJumpCandidate{}, "#**Denmark>"},
		{"emoji after space", "nice :smi", EmojiCandidate{Emoji: smile}, "nice :smile: "},
		{"emoji after bracket", "(:smi", EmojiCandidate{Emoji: smile}, "( :smile: "},
		{"emoji on new line", "ok\n:smi", EmojiCandidate{Emoji: smile}, "ok\n:smile: "},
		{"slash without placeholder", "/da", SlashCandidate{Command: dark}, "/dark"},
		{"language closes the block", "```py", LanguageCandidate{Language: python}, "```python\n\n```"},
		{"tilde fence", "~~~py", LanguageCandidate{Language: python}, "~~~python\n\n~~~"},
		{"time", "meet at <time:", TimeJumpCandidate{Time: meetTime}, "meet at <time:2024-05-01T10:00:00Z> "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectAtEnd(t, tt.c, tt.text)
			assert.Equal(t, tt.want, got.Text)
			assert.False(t, got.HasHighlight())
			if tt.c.Kind() != CandidateSyntax {
				assert.Equal(t, utf8.RuneCountInString(tt.want), got.Cursor)
			}
		})
	}
}

func TestContentTypeaheadSelected_Placeholders(t *testing.T) {
	got := selectAtEnd(t, SlashCandidate{Command: poll}, "/po")
	assert.Equal(t, "/poll Question", got.Text)
	assert.Equal(t, 14, got.Cursor)
	assert.Equal(t, 6, got.HighlightStart)
	assert.Equal(t, 14, got.HighlightEnd)

	got = selectAtEnd(t, LanguageCandidate{Language: spoiler}, "```spo")
	assert.Equal(t, "```spoiler Header\n\n```", got.Text)
	assert.Equal(t, 18, got.Cursor)
	assert.Equal(t, 11, got.HighlightStart)
	assert.Equal(t, 17, got.HighlightEnd)
}

func TestContentTypeaheadSelected_PreservesTextAfterCursor(t *testing.T) {
	text := "hi @oth and more"
	got := selectAt(t, UserCandidate{User: othello}, text, 7)
	assert.Equal(t, "hi @**Othello, the Moor of Venice**  and more", got.Text)
	assert.Equal(t, 36, got.Cursor)

	got = selectAt(t, LanguageCandidate{Language: python}, "```py\nprint(1)\n```", 5)
	assert.Equal(t, "```python\nprint(1)\n```", got.Text)
	assert.Equal(t, 9, got.Cursor)

	got = selectAtEnd(t, LanguageCandidate{Language: python}, "```py")
	assert.Equal(t, 10, got.Cursor)
}

func TestContentTypeaheadSelected_TimeFromQuery(t *testing.T) {
	got := selectAtEnd(t, TimeJumpCandidate{Time: meetTime}, "<time:2030-01-02T03:04:00Z")
	assert.Equal(t, "<time:2030-01-02T03:04:00Z> ", got.Text)
}

func TestContentTypeaheadSelected_InvalidCursor(t *testing.T) {
	tok := Token{Kind: KindMention, Query: "oth", Start: 3, End: 7}
	got := ContentTypeaheadSelected(UserCandidate{User: othello}, "hi @oth", 99, tok)
	assert.Equal(t, Selection{Text: "hi @oth", Cursor: 99}, got)
}

// Completed markup must not reopen a suggestion list.
func TestContentTypeaheadSelected_NoSuggestionAfterSelect(t *testing.T) {
	tests := []struct {
		name string
		text string
		c    Candidate
	}{
		{"user", "hi @oth", UserCandidate{User: othello}},
		{"duplicate", "@gaë", UserCandidate{User: gael, DuplicateName: true}},
		{"group", "@ham", GroupCandidate{Group: directory.UserGroup{Name: "hamletcharacters"}}},
		{"broadcast", "@**ev", BroadcastCandidate{Name: "everyone"}},
		{"emoji", "nice :smi", EmojiCandidate{Emoji: smile}},
		{"topic", "#**Denmark>gh", TopicCandidate{StreamID: 1, StreamName: "Denmark", Topic: "ghost sightings"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectAtEnd(t, tt.c, tt.text)
			_, ok := Tokenize(got.Text, got.Cursor)
			assert.False(t, ok, "%q reopened a suggestion", got.Text)
		})
	}
}

func TestRecipientTypeaheadSelected(t *testing.T) {
	assert.Equal(t, "alice@zulip.com, ", RecipientTypeaheadSelected("ali", "alice@zulip.com"))
	assert.Equal(t, "alice@zulip.com, bob@zulip.com, ", RecipientTypeaheadSelected("alice@zulip.com, bo", "bob@zulip.com"))
}

func TestLinks(t *testing.T) {
	assert.True(t, IsUnsafeLinkName("a*b"))
	assert.True(t, IsUnsafeLinkName("cost $$"))
	assert.False(t, IsUnsafeLinkName("cost $5"))
	assert.False(t, IsUnsafeLinkName("Denmark"))

	assert.Equal(t, "#narrow/channel/3-Verona", StreamNarrowURL(3, "Verona"))
	assert.Equal(t, "#narrow/channel/9-a.2Eb.28c.29", StreamNarrowURL(9, "a.b(c)"))
	assert.Equal(t, "plot.20.3E.20intrigue", EncodeHashComponent("plot > intrigue"))
	assert.Equal(t, "caf.C3.A9", EncodeHashComponent("café"))
}

func TestMentionSyntax(t *testing.T) {
	assert.Equal(t, "@**Iago**", MentionSyntax("Iago", 1, false, false))
	assert.Equal(t, "@_**Iago|1**", MentionSyntax("Iago", 1, true, true))
}
