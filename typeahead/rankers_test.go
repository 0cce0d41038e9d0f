package typeahead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/directory"
)

func userCandidates(users ...directory.User) []Candidate {
	out := make([]Candidate, 0, len(users))
	for _, u := range users {
		out = append(out, UserCandidate{User: u})
	}
	return out
}

func TestSortMentions_TierOrder(t *testing.T) {
	snap := directory.NewSnapshot(directory.Data{})
	env := rankEnv{snap: snap, ctx: iagoInStream(0)}

	got := env.sortMentions("ha", userCandidates(
		member(4, "hamlet@zulip.com", "King Hamlet"),
		member(5, "harry@zulip.com", "Harry"),
		member(6, "hal@zulip.com", "hal"),
		member(7, "ha@zulip.com", "Ha"),
		member(8, "nobody@zulip.com", "Nobody"),
		member(9, "hamnet@zulip.com", "Rosencrantz"),
	))

	// exact, case-sensitive prefix, prefix, word boundary, email, no match
	assert.Equal(t, []int64{7, 6, 5, 4, 9, 8}, userIDs(got))
}

func TestSortMentions_TieBreaks(t *testing.T) {
	aliceBot := bot(4, "alice-bot@zulip.com", "Alice Bot")
	snap := directory.NewSnapshot(directory.Data{
		Users: []directory.User{
			member(1, "me@zulip.com", "Me"),
			member(2, "a@zulip.com", "Alice A"),
			member(3, "b@zulip.com", "Alice B"),
			aliceBot,
			member(5, "c@zulip.com", "Alice C"),
			member(6, "d@zulip.com", "Alice D"),
		},
		Streams:         []directory.Stream{{ID: 1, Name: "general"}},
		Subscriptions:   []directory.Subscription{{StreamID: 1, UserID: 1}, {StreamID: 1, UserID: 3}},
		DMConversations: []directory.DMConversation{{UserIDs: []int64{1, 2}, MaxMessageID: 50}},
	})
	env := rankEnv{snap: snap, ctx: iagoInStream(1)}

	u := func(id int64) directory.User {
		user, ok := snap.UserByID(id)
		require.True(t, ok)
		return user
	}
	group := GroupCandidate{Group: directory.UserGroup{ID: 20, Name: "Alice fans"}}
	input := append(userCandidates(u(2), u(3), aliceBot, u(5), u(6)), group)

	got := env.sortMentions("alice", input)

	assert.Equal(t, []string{"Alice B", "Alice A", "Alice D", "Alice C", "Alice fans", "Alice Bot"}, labels(got))
}

func TestSortMentions_BroadcastsKeepInputOrder(t *testing.T) {
	env := rankEnv{snap: directory.NewSnapshot(directory.Data{}), ctx: iagoInStream(0)}
	got := env.sortMentions("", []Candidate{
		BroadcastCandidate{Name: BroadcastAll},
		BroadcastCandidate{Name: BroadcastTopic},
		GroupCandidate{Group: directory.UserGroup{ID: 1, Name: "alpha"}},
		GroupCandidate{Group: directory.UserGroup{ID: 2, Name: "beta"}},
	})
	assert.Equal(t, []string{"all", "topic", "alpha", "beta"}, labels(got))
}

func streamCandidates(snap *directory.Snapshot, viewer int64) []Candidate {
	var out []Candidate
	for _, s := range snap.Streams() {
		if s.IsArchived || s.InviteOnly {
			continue
		}
		out = append(out, StreamCandidate{Stream: s, Subscribed: snap.IsSubscribed(s.ID, viewer)})
	}
	return out
}

func TestSortStreams(t *testing.T) {
	snap := directory.NewSnapshot(testData())
	env := rankEnv{snap: snap, ctx: iagoInStream(0), cfg: am.TypeaheadConfig{DemoteInactiveStreams: am.DemoteNever}}
	universe := streamCandidates(snap, 1)

	t.Run("case-sensitive prefix first", func(t *testing.T) {
		got := env.sortStreams("d", filter("d", universe, matchCandidate))
		assert.Equal(t, []string{"design", "Denmark"}, labels(got))

		got = env.sortStreams("De", filter("De", universe, matchCandidate))
		assert.Equal(t, []string{"Denmark", "design"}, labels(got))
	})

	t.Run("exact name wins", func(t *testing.T) {
		got := env.sortStreams("denmark", universe)
		require.NotEmpty(t, got)
		assert.Equal(t, "Denmark", got[0].Label())
	})

	t.Run("pinned and subscribed lead", func(t *testing.T) {
		got := labels(env.sortStreams("", universe))
		require.Len(t, got, 5)
		assert.Equal(t, "Sweden", got[0], "pinned")
		assert.Less(t, indexOf(got, "Verona"), indexOf(got, "design"), "subscribed before unsubscribed")
	})

	t.Run("inactive demoted", func(t *testing.T) {
		demoting := env
		demoting.cfg.DemoteInactiveStreams = am.DemoteAlways
		got := labels(demoting.sortStreams("", universe))
		assert.Equal(t, []string{"Sweden", "Denmark"}, got[:2])
		assert.Greater(t, indexOf(got, "Verona"), indexOf(got, "Denmark"))
	})

	t.Run("description breaks ties", func(t *testing.T) {
		got := env.sortStreams("x", []Candidate{
			StreamCandidate{Stream: directory.Stream{ID: 20, Name: "xa", Description: "nothing here"}},
			StreamCandidate{Stream: directory.Stream{ID: 21, Name: "xb", Description: "x marks the spot"}},
		})
		assert.Equal(t, []string{"xb", "xa"}, labels(got))
	})
}

func TestDemoteInactive_Automatic(t *testing.T) {
	data := directory.Data{Users: []directory.User{member(1, "me@zulip.com", "Me")}}
	for i := int64(1); i <= demoteThreshold; i++ {
		data.Streams = append(data.Streams, directory.Stream{ID: i, Name: "s"})
		data.Subscriptions = append(data.Subscriptions, directory.Subscription{StreamID: i, UserID: 1})
	}
	env := rankEnv{snap: directory.NewSnapshot(data), ctx: iagoInStream(0)}
	assert.True(t, env.demoteInactive())

	env.snap = directory.NewSnapshot(testData())
	assert.False(t, env.demoteInactive())
}

func emojiCandidates(snap *directory.Snapshot) []Candidate {
	return emojiUniverse(snap)
}

func TestSortEmoji(t *testing.T) {
	snap := directory.NewSnapshot(testData())
	plain := rankEnv{snap: snap, cfg: am.TypeaheadConfig{PopularEmoji: []string{}}}
	popular := rankEnv{snap: snap, cfg: am.TypeaheadConfig{PopularEmoji: am.DefaultPopularEmoji}}
	universe := emojiCandidates(snap)

	t.Run("canonical name before alias", func(t *testing.T) {
		got := plain.sortEmoji("lo", filter("lo", universe, matchCandidate))
		require.Equal(t, []string{"lollipop", "heart"}, labels(got))
		heart := got[1].(EmojiCandidate)
		assert.Equal(t, "love", heart.MatchedName)
		assert.Equal(t, ":love:", heart.Detail())
	})

	t.Run("custom emoji break ties", func(t *testing.T) {
		got := plain.sortEmoji("oct", filter("oct", universe, matchCandidate))
		assert.Equal(t, []string{"octopus_party", "octopus"}, labels(got))
	})

	t.Run("popular emoji first", func(t *testing.T) {
		got := popular.sortEmoji("oct", filter("oct", universe, matchCandidate))
		assert.Equal(t, []string{"octopus", "octopus_party"}, labels(got))
	})

	t.Run("exact match beats prefix", func(t *testing.T) {
		got := plain.sortEmoji("smile", filter("smile", universe, matchCandidate))
		assert.Equal(t, []string{"smile", "smiley"}, labels(got))
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		dup := EmojiCandidate{Emoji: directory.Emoji{Name: "thumbs_up", Code: "1f44d", ReactionType: directory.UnicodeEmoji}}
		got := plain.sortEmoji("thumbs", append(filter("thumbs", universe, matchCandidate), dup))
		assert.Len(t, got, 1)
	})
}

func languageCandidates(snap *directory.Snapshot, blank bool) []Candidate {
	var out []Candidate
	if blank {
		out = append(out, LanguageCandidate{})
	}
	for _, l := range snap.Languages() {
		out = append(out, LanguageCandidate{Language: l})
	}
	return out
}

func TestSortLanguages(t *testing.T) {
	snap := directory.NewSnapshot(testData())

	tests := []struct {
		name  string
		query string
		blank bool
		want  []string
	}{
		{"names by popularity then aliases", "p", false, []string{"python", "php", "perl", "diff", "text"}},
		{"alias of a name match appears once", "py", false, []string{"python"}},
		{"exact name first", "perl", false, []string{"perl"}},
		{"exact name", "text", false, []string{"text"}},
		{"blank option leads", "", true, []string{"", "python", "javascript", "php", "perl", "diff", "text", "spoiler"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := filter(tt.query, languageCandidates(snap, tt.blank), matchCandidate)
			assert.Equal(t, tt.want, labels(sortLanguages(tt.query, cs)))
		})
	}
}

func TestSortLanguages_ExactNamePulledUp(t *testing.T) {
	cs := []Candidate{
		LanguageCandidate{Language: directory.Language{Name: "javascript", Priority: 39}},
		LanguageCandidate{Language: directory.Language{Name: "java", Priority: 38}},
	}
	assert.Equal(t, []string{"java", "javascript"}, labels(sortLanguages("java", cs)))
}

func TestSortSlash(t *testing.T) {
	var universe []Candidate
	for _, cmd := range directory.DefaultSlashCommands() {
		universe = append(universe, SlashCandidate{Command: cmd})
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"d", []string{"/dark", "/light"}},
		{"n", []string{"/dark"}},
		{"f", []string{"/fixed-width", "/fluid-width"}},
		{"po", []string{"/poll"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := sortSlash(tt.query, filter(tt.query, universe, matchCandidate))
			assert.Equal(t, tt.want, labels(got))
		})
	}
}

func TestSortTopics(t *testing.T) {
	cs := []Candidate{
		TopicCandidate{StreamID: 1, Topic: "castle"},
		TopicCandidate{StreamID: 1, Topic: "ghost sightings"},
		TopicCandidate{StreamID: 1, Topic: "sigh", IsNew: true},
		TopicCandidate{StreamID: 1, Topic: "sighs of relief"},
	}
	got := sortTopics("sigh", cs)
	assert.Equal(t, []string{"sigh", "sighs of relief", "ghost sightings", "castle"}, labels(got))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
