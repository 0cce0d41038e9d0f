package typeahead

import (
	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/directory"
)

// MessageType is where the message being composed goes.
type MessageType string

const (
	StreamMessage MessageType = "stream"
	DirectMessage MessageType = "direct"
)

// Context describes the compose box a completion is computed for.
type Context struct {
	MessageType   MessageType `json:"message_type"`
	StreamID      int64       `json:"stream_id,omitempty"`
	Topic         string      `json:"topic,omitempty"`
	CurrentUserID int64       `json:"current_user_id"`
	// Recipients are the direct message recipients already chosen
	Recipients      []int64 `json:"recipients,omitempty"`
	CodeBlockButton bool    `json:"code_block_button,omitempty"`
	// TopicParticipantCount is the number of people who posted in Topic
	TopicParticipantCount int `json:"topic_participant_count,omitempty"`
}

// IsDirect reports whether the message is a direct message
func (c Context) IsDirect() bool {
	return c.MessageType == DirectMessage
}

// Policy is the organization's wildcard mention policy.
type Policy struct {
	WildcardMention      string
	LargeStreamThreshold int
}

// PolicyFromConfig builds a Policy from realm settings.
func PolicyFromConfig(cfg am.RealmConfig) Policy {
	p := Policy{
		WildcardMention:      cfg.WildcardMentionPolicy,
		LargeStreamThreshold: cfg.WildcardMentionLargeStreamThreshold,
	}
	if p.WildcardMention == "" {
		p.WildcardMention = am.WildcardMembers
	}
	if p.LargeStreamThreshold <= 0 {
		p.LargeStreamThreshold = 15
	}
	return p
}

// StreamWildcardAllowed reports whether @**all** and its synonyms may be
// used. Direct messages always allow them.
func (p Policy) StreamWildcardAllowed(snap *directory.Snapshot, ctx Context) bool {
	if ctx.IsDirect() {
		return true
	}
	user, _ := snap.UserByID(ctx.CurrentUserID)

	switch p.WildcardMention {
	case am.WildcardEveryone:
		return true
	case am.WildcardMembers:
		if user.IsGuest() {
			return false
		}
		return snap.SubscriberCount(ctx.StreamID) <= p.LargeStreamThreshold ||
			user.Role.AtLeast(directory.RoleModerator)
	case am.WildcardModerators:
		return user.Role.AtLeast(directory.RoleModerator)
	case am.WildcardAdmins:
		return user.Role.AtLeast(directory.RoleAdmin)
	default:
		return false
	}
}

// TopicWildcardAllowed reports whether @**topic** may be used. It is
// never offered in direct messages.
func (p Policy) TopicWildcardAllowed(snap *directory.Snapshot, ctx Context) bool {
	if ctx.IsDirect() {
		return false
	}
	return ctx.TopicParticipantCount <= p.LargeStreamThreshold || p.StreamWildcardAllowed(snap, ctx)
}

// CanMentionGroup reports whether the current user may notify group.
func CanMentionGroup(snap *directory.Snapshot, ctx Context, group directory.UserGroup) bool {
	if group.CanMentionGroupID == 0 {
		return false
	}
	return snap.IsUserInGroup(group.CanMentionGroupID, ctx.CurrentUserID)
}
