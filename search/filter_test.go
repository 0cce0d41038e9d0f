package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/typeahead/directory"
	"github.com/teranos/typeahead/typeahead"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []Term
	}{
		{"empty", "", nil},
		{"quoted operand", `channel:Denmark topic:"ghost sightings"`, []Term{
			{Operator: OpChannel, Operand: "Denmark"},
			{Operator: OpTopic, Operand: "ghost sightings"},
		}},
		{"aliases and negation", "stream:Denmark -is:resolved hello", []Term{
			{Operator: OpChannel, Operand: "Denmark"},
			{Operator: OpIs, Operand: "resolved", Negated: true},
			{Operator: OpSearch, Operand: "hello"},
		}},
		{"legacy dm", "pm-with:iago@zulip.com", []Term{{Operator: OpDM, Operand: "iago@zulip.com"}}},
		{"operator case", "Channel:design", []Term{{Operator: OpChannel, Operand: "design"}}},
		{"unknown operator is text", "foo:bar", []Term{{Operator: OpSearch, Operand: "foo:bar"}}},
		{"dash without operator is text", "-hello", []Term{{Operator: OpSearch, Operand: "-hello"}}},
		{"unbalanced quote", `topic:"castle`, []Term{{Operator: OpTopic, Operand: `"castle`}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.query).Terms)
		})
	}
}

func TestFilterStringRoundTrip(t *testing.T) {
	for _, q := range []string{
		`channel:Denmark topic:"ghost sightings"`,
		`-is:resolved has:link`,
		`"two words" sender:iago@zulip.com`,
	} {
		t.Run(q, func(t *testing.T) {
			f := Parse(q)
			assert.Equal(t, f, Parse(f.String()))
		})
	}
}

func TestComposeContext(t *testing.T) {
	snap := directory.NewSnapshot(searchData())

	tests := []struct {
		name  string
		query string
		want  typeahead.Context
	}{
		{"channel and topic", `channel:Denmark topic:castle`,
			typeahead.Context{MessageType: typeahead.StreamMessage, StreamID: 1, Topic: "castle", CurrentUserID: 1}},
		{"channel name is case-insensitive", `channel:denmark`,
			typeahead.Context{MessageType: typeahead.StreamMessage, StreamID: 1, CurrentUserID: 1}},
		{"unknown channel", `channel:Elsinore topic:castle`,
			typeahead.Context{MessageType: typeahead.StreamMessage, CurrentUserID: 1}},
		{"negated channel ignored", `-channel:Denmark`,
			typeahead.Context{MessageType: typeahead.StreamMessage, CurrentUserID: 1}},
		{"direct message", `dm:othello@zulip.com,iago@zulip.com,cordelia@zulip.com`,
			typeahead.Context{MessageType: typeahead.DirectMessage, CurrentUserID: 1, Recipients: []int64{2, 3}}},
		{"free text", `castle`,
			typeahead.Context{MessageType: typeahead.StreamMessage, CurrentUserID: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.query).ComposeContext(snap, 1))
		})
	}
}
