package typeahead

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/directory"
)

func recipientData() directory.Data {
	retired := member(7, "retired@corp.example", "Retired Person")
	retired.IsActive = false
	retired.DeliveryEmail = "old@corp.example"

	return directory.Data{
		Users: []directory.User{
			member(1, "me@corp.example", "Me Myself"),
			member(2, "alice@corp.example", "Alice"),
			member(3, "bob@corp.example", "Bob"),
			member(4, "carol@corp.example", "Carol"),
			member(5, "dave@corp.example", "Dave"),
			member(6, "erin@corp.example", "Erin"),
			retired,
			member(8, "mallory@corp.example", "Mallory"),
		},
		DMConversations: []directory.DMConversation{
			{UserIDs: []int64{1, 2, 3, 4}, MaxMessageID: 100},
			{UserIDs: []int64{1, 2, 3, 5, 6}, MaxMessageID: 200},
			{UserIDs: []int64{1, 6}, MaxMessageID: 300},
			{UserIDs: []int64{1, 5}, MaxMessageID: 50},
		},
		Mutes: []directory.Mute{{Muter: 1, Muted: 8}},
	}
}

func TestGetRecipientCandidates(t *testing.T) {
	d, _ := newTestDispatcher(t, recipientData())
	me := Context{MessageType: DirectMessage, CurrentUserID: 1}

	tests := []struct {
		name  string
		field string
		ctx   Context
		want  []int64
	}{
		{"group conversations first", "alice@corp.example, bob@corp.example, ", me, []int64{4, 6, 5}},
		{"recipients from context", "", Context{MessageType: DirectMessage, CurrentUserID: 1, Recipients: []int64{2, 3}}, []int64{4, 6, 5}},
		{"single recipient ranks by recency", "alice@corp.example, ", me, []int64{6, 5, 3, 4}},
		{"query filters", "alice@corp.example, bob@corp.example, da", me, []int64{5}},
		{"email prefix", "car", me, []int64{4}},
		{"current user excluded", "me", me, nil},
		{"muted excluded", "mal", me, nil},
		{"deactivated needs the exact address", "old@corp", me, nil},
		{"deactivated by delivery email", "old@corp.example", me, []int64{7}},
		{"deactivated by email", "RETIRED@corp.example", me, []int64{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.GetRecipientCandidates(context.Background(), tt.field, tt.ctx)
			assert.Equal(t, tt.want, userIDs(got))
		})
	}
}

func TestGetRecipientCandidates_Limit(t *testing.T) {
	d := newTestDispatcherWithConfig(t, recipientData(), am.TypeaheadConfig{MaxRecipients: 2})
	got := d.GetRecipientCandidates(context.Background(), "", Context{MessageType: DirectMessage, CurrentUserID: 1})
	assert.Len(t, got, 2)
}
