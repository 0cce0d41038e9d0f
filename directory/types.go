package directory

// Role is an organization role. Roles are ordered: owner outranks admin,
// admin outranks moderator, and so on down to guest.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
	RoleGuest     Role = "guest"
)

var roleRank = map[Role]int{
	RoleOwner:     5,
	RoleAdmin:     4,
	RoleModerator: 3,
	RoleMember:    2,
	RoleGuest:     1,
}

// AtLeast reports whether r is at or above other. Unknown roles rank lowest.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// User is a person or bot in the organization.
type User struct {
	ID            int64  `json:"user_id"`
	Email         string `json:"email"`
	DeliveryEmail string `json:"delivery_email,omitempty"`
	FullName      string `json:"full_name"`
	IsBot         bool   `json:"is_bot"`
	IsActive      bool   `json:"is_active"`
	Role          Role   `json:"role"`
}

// IsGuest reports whether the user has the guest role
func (u User) IsGuest() bool {
	return u.Role == RoleGuest
}

// Stream is a channel.
type Stream struct {
	ID               int64  `json:"stream_id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	InviteOnly       bool   `json:"invite_only"`
	IsArchived       bool   `json:"is_archived"`
	IsRecentlyActive bool   `json:"is_recently_active"`
}

// UserGroup is a named set of users and subgroups.
type UserGroup struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	IsSystemGroup     bool    `json:"is_system_group"`
	Deactivated       bool    `json:"deactivated"`
	CanMentionGroupID int64   `json:"can_mention_group,omitempty"` // 0 = nobody
	Members           []int64 `json:"members"`
	DirectSubgroups   []int64 `json:"direct_subgroup_ids"`
}

// ReactionType distinguishes where an emoji image comes from
type ReactionType string

const (
	UnicodeEmoji ReactionType = "unicode_emoji"
	RealmEmoji   ReactionType = "realm_emoji"
	ZulipExtra   ReactionType = "zulip_extra_emoji"
)

// Emoji is one emoji with its canonical name and aliases.
// Unicode emoji sharing a code point are a single Emoji.
type Emoji struct {
	Name         string       `json:"emoji_name"`
	Aliases      []string     `json:"aliases,omitempty"`
	Code         string       `json:"emoji_code"` // hex code points joined by "-" for unicode, id for realm
	ReactionType ReactionType `json:"reaction_type"`
	Deactivated  bool         `json:"deactivated,omitempty"`
}

// IsRealm reports whether the emoji was uploaded to the organization
func (e Emoji) IsRealm() bool {
	return e.ReactionType == RealmEmoji
}

// Topic is a topic that has seen messages in a stream.
type Topic struct {
	StreamID     int64  `json:"stream_id"`
	Name         string `json:"name"`
	MaxMessageID int64  `json:"max_id"`
}

// DMConversation summarizes a direct message thread. UserIDs are sorted
// and include every participant.
type DMConversation struct {
	UserIDs      []int64 `json:"user_ids"`
	MaxMessageID int64   `json:"max_message_id"`
}

// Mute records that Muter does not want to see Muted.
type Mute struct {
	Muter int64
	Muted int64
}

// Subscription links a user to a stream.
type Subscription struct {
	StreamID int64
	UserID   int64
	PinToTop bool
}

// SlashCommand is a message-initial command such as /poll.
type SlashCommand struct {
	Name        string   `json:"name" toml:"name"`
	Aliases     []string `json:"aliases,omitempty" toml:"aliases"`
	Info        string   `json:"info" toml:"info"`
	Placeholder string   `json:"placeholder,omitempty" toml:"placeholder"`
}

// Language is a code block language. Higher Priority is more popular.
type Language struct {
	Name     string   `json:"name" toml:"name"`
	Priority int      `json:"priority" toml:"priority"`
	Aliases  []string `json:"aliases,omitempty" toml:"aliases"`
}
