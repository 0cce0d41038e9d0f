package typeahead

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/typeahead/directory"
)

func TestQueryMatchesStringInOrder(t *testing.T) {
	tests := []struct {
		query  string
		source string
		want   bool
	}{
		{"ab", "abc", true},
		{"AB", "abc", true},
		{"bc", "abc", false},
		{"cd", "ab cd", true},
		{"ab c", "ab cd ef", true},
		{"b cd", "ab cd ef", false},
		{"", "anything", true},
		{"gael", "Gaël Twin", true},
		{"twin", "Gaël Twin", true},
		{"gaël", "Gael Twin", false},
		{"GAËL", "gaël", true},
	}
	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, QueryMatchesStringInOrder(tt.query, tt.source, " "))
		})
	}
}

func TestQueryMatchesPerson(t *testing.T) {
	othello := member(2, "othello@zulip.com", "Othello, the Moor of Venice")
	hamlet := member(4, "hamlet@zulip.com", "King Hamlet")
	hamlet.DeliveryEmail = "prince@denmark.example"

	tests := []struct {
		name  string
		query string
		user  directory.User
		want  bool
	}{
		{"name prefix", "oth", othello, true},
		{"later word", "moor", othello, true},
		{"inside a word", "thello", othello, false},
		{"email prefix", "othello@", othello, true},
		{"email domain", "zulip", othello, false},
		{"delivery email", "prince@", hamlet, true},
		{"non-breaking space", "king\u00a0ha", hamlet, true},
		{"two words", "king ham", hamlet, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QueryMatchesPerson(tt.query, tt.user))
		})
	}
}

func TestQueryMatchesEmoji(t *testing.T) {
	office := directory.Emoji{Name: "japanese_post_office", Code: "1f3e3", ReactionType: directory.UnicodeEmoji}
	thumbs := directory.Emoji{Name: "+1", Aliases: []string{"thumbs_up"}, Code: "1f44d", ReactionType: directory.UnicodeEmoji}

	tests := []struct {
		name      string
		query     string
		emoji     directory.Emoji
		want      bool
		wantMatch string
	}{
		{"underscore prefix", "japanese_post_", office, true, "japanese_post_office"},
		{"space normalized", "japanese post ", office, true, "japanese_post_office"},
		{"case folded", "JAPANESE_POST_", office, true, "japanese_post_office"},
		{"segment", "post_", office, true, "japanese_post_office"},
		{"last segment", "office", office, true, "japanese_post_office"},
		{"mid segment", "ost", office, false, ""},
		{"literal character", "🏣", office, true, "japanese_post_office"},
		{"alias", "thumbs", thumbs, true, "thumbs_up"},
		{"alias segment", "up", thumbs, true, "thumbs_up"},
		{"canonical", "+", thumbs, true, "+1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := QueryMatchesEmoji(tt.query, tt.emoji)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.wantMatch, name)
		})
	}
}

func TestPrefixMatchers(t *testing.T) {
	dark := directory.SlashCommand{Name: "dark", Aliases: []string{"night"}}
	assert.True(t, QueryMatchesSlash("da", dark))
	assert.True(t, QueryMatchesSlash("NI", dark))
	assert.False(t, QueryMatchesSlash("ark", dark))

	golang := directory.Language{Name: "go", Aliases: []string{"golang"}}
	assert.True(t, QueryMatchesLanguage("gol", golang))
	assert.False(t, QueryMatchesLanguage("lang", golang))

	backend := directory.UserGroup{Name: "backend team"}
	assert.True(t, QueryMatchesGroup("back", backend))
	assert.True(t, QueryMatchesGroup("team", backend))

	denmark := directory.Stream{Name: "Denmark", Description: "Cultural events"}
	assert.True(t, QueryMatchesStream("den", denmark))
	assert.False(t, QueryMatchesStream("cult", denmark), "descriptions are not matched")

	assert.True(t, QueryMatchesTopic("sigh", "ghost sightings"))
}

func TestMatcherFor(t *testing.T) {
	d, _ := newTestDispatcher(t, testData())
	ctx := iagoInStream(1)

	backend := GroupCandidate{Group: directory.UserGroup{ID: 11, Name: "backend", CanMentionGroupID: 11}}
	hamlet := GroupCandidate{Group: directory.UserGroup{ID: 12, Name: "hamletcharacters", CanMentionGroupID: 10}}

	mention := d.MatcherFor(KindMention, ctx)
	assert.False(t, mention("back", backend), "iago may not notify backend")
	assert.True(t, mention("ham", hamlet))
	assert.True(t, mention("al", BroadcastCandidate{Name: "all"}))
	assert.False(t, mention("den", StreamCandidate{Stream: directory.Stream{Name: "Denmark"}}))

	silent := d.MatcherFor(KindSilentMention, ctx)
	assert.True(t, silent("back", backend), "silent mentions skip the permission check")
	assert.False(t, silent("al", BroadcastCandidate{Name: "all"}))

	stream := d.MatcherFor(KindStream, ctx)
	assert.True(t, stream("den", StreamCandidate{Stream: directory.Stream{Name: "Denmark"}}))
	assert.False(t, stream("den", TopicCandidate{Topic: "dentist"}))
}
