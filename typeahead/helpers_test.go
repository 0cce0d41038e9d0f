package typeahead

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/directory"
)

// fakeDirectory serves a fixed snapshot and records topic history requests.
type fakeDirectory struct {
	snap      *directory.Snapshot
	requested []int64
}

func (f *fakeDirectory) Snapshot() *directory.Snapshot { return f.snap }

func (f *fakeDirectory) RequestTopicHistory(streamID int64) {
	f.requested = append(f.requested, streamID)
}

func member(id int64, email, name string) directory.User {
	return directory.User{ID: id, Email: email, FullName: name, IsActive: true, Role: directory.RoleMember}
}

func bot(id int64, email, name string) directory.User {
	u := member(id, email, name)
	u.IsBot = true
	return u
}

// testData is a small organization: Iago (admin, id 1) composes.
func testData() directory.Data {
	iago := member(1, "iago@zulip.com", "Iago")
	iago.Role = directory.RoleAdmin

	return directory.Data{
		Users: []directory.User{
			iago,
			member(2, "othello@zulip.com", "Othello, the Moor of Venice"),
			member(3, "cordelia@zulip.com", "Cordelia, Lear's daughter"),
			bot(100, "welcome-bot@zulip.com", "Welcome Bot"),
			bot(101, "notification-bot@zulip.com", "Notification Bot"),
		},
		Streams: []directory.Stream{
			{ID: 1, Name: "Denmark", Description: "Cultural events and activities in Denmark", IsRecentlyActive: true},
			{ID: 2, Name: "Sweden", Description: "Cold, mountains and home decor", IsRecentlyActive: true},
			{ID: 3, Name: "Verona", Description: "Romeo and Juliet's fair city"},
			{ID: 4, Name: "design", Description: "UI and UX discussions", IsRecentlyActive: true},
			{ID: 5, Name: "Lots of *stars*", Description: "Breaks link syntax", IsRecentlyActive: true},
			{ID: 6, Name: "secret", InviteOnly: true, IsRecentlyActive: true},
			{ID: 7, Name: "Old archives", IsArchived: true},
		},
		Subscriptions: []directory.Subscription{
			{StreamID: 1, UserID: 1},
			{StreamID: 1, UserID: 2},
			{StreamID: 2, UserID: 1, PinToTop: true},
			{StreamID: 3, UserID: 1},
		},
		Groups: []directory.UserGroup{
			{ID: 10, Name: "role:members", IsSystemGroup: true, Members: []int64{1, 2, 3}, CanMentionGroupID: 10},
			{ID: 11, Name: "backend", Description: "Backend team", Members: []int64{2}, CanMentionGroupID: 11},
			{ID: 12, Name: "hamletcharacters", Description: "Characters of Hamlet", Members: []int64{3}, CanMentionGroupID: 10},
		},
		Emoji: []directory.Emoji{
			{Name: "octopus_party", Code: "2", ReactionType: directory.RealmEmoji},
			{Name: "retired", Code: "3", ReactionType: directory.RealmEmoji, Deactivated: true},
			{Name: "+1", Aliases: []string{"thumbs_up", "thumbsup"}, Code: "1f44d", ReactionType: directory.UnicodeEmoji},
			{Name: "japanese_post_office", Code: "1f3e3", ReactionType: directory.UnicodeEmoji},
			{Name: "smile", Code: "1f604", ReactionType: directory.UnicodeEmoji},
			{Name: "smiley", Code: "1f603", ReactionType: directory.UnicodeEmoji},
			{Name: "octopus", Code: "1f419", ReactionType: directory.UnicodeEmoji},
			{Name: "heart", Aliases: []string{"love"}, Code: "2764", ReactionType: directory.UnicodeEmoji},
			{Name: "lollipop", Code: "1f36d", ReactionType: directory.UnicodeEmoji},
		},
		Topics: []directory.Topic{
			{StreamID: 1, Name: "castle", MaxMessageID: 420},
			{StreamID: 1, Name: "ghost sightings", MaxMessageID: 401},
			{StreamID: 1, Name: "plot > intrigue", MaxMessageID: 377},
		},
		SlashCommands: directory.DefaultSlashCommands(),
		Languages: []directory.Language{
			{Name: "python", Priority: 40, Aliases: []string{"py"}},
			{Name: "javascript", Priority: 39, Aliases: []string{"js"}},
			{Name: "php", Priority: 28},
			{Name: "perl", Priority: 17, Aliases: []string{"pl"}},
			{Name: "diff", Priority: 13, Aliases: []string{"patch"}},
			{Name: "text", Priority: 12, Aliases: []string{"plaintext"}},
			{Name: "spoiler", Priority: 9},
		},
	}
}

func iagoInStream(streamID int64) Context {
	return Context{MessageType: StreamMessage, StreamID: streamID, CurrentUserID: 1}
}

func newTestDispatcher(t *testing.T, data directory.Data) (*Dispatcher, *fakeDirectory) {
	t.Helper()
	dir := &fakeDirectory{snap: directory.NewSnapshot(data)}
	d := NewDispatcher(dir, Options{Logger: zaptest.NewLogger(t).Sugar()})
	require.NotNil(t, d)
	return d, dir
}

func newTestDispatcherWithConfig(t *testing.T, data directory.Data, cfg am.TypeaheadConfig) *Dispatcher {
	t.Helper()
	dir := &fakeDirectory{snap: directory.NewSnapshot(data)}
	return NewDispatcher(dir, Options{Config: cfg, Logger: zaptest.NewLogger(t).Sugar()})
}

func labels(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Label())
	}
	return out
}

func userIDs(cs []Candidate) []int64 {
	var out []int64
	for _, c := range cs {
		if uc, ok := c.(UserCandidate); ok {
			out = append(out, uc.User.ID)
		}
	}
	return out
}
