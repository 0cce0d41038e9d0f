package directory

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/teranos/typeahead/errors"
)

// Loader reads directory tables from SQLite.
type Loader struct {
	db *sql.DB
}

// NewLoader creates a loader over an open, migrated database
func NewLoader(db *sql.DB) *Loader {
	return &Loader{db: db}
}

// Load reads every table the directory is built from. Emoji holds only the
// organization's custom emoji; the unicode catalogue is added by the caller.
func (l *Loader) Load(ctx context.Context) (Data, error) {
	var data Data
	var err error

	if data.Users, err = l.loadUsers(ctx); err != nil {
		return Data{}, errors.Wrap(err, "failed to load users")
	}
	if data.Streams, err = l.loadStreams(ctx); err != nil {
		return Data{}, errors.Wrap(err, "failed to load streams")
	}
	if data.Subscriptions, err = l.loadSubscriptions(ctx); err != nil {
		return Data{}, errors.Wrap(err, "failed to load subscriptions")
	}
	if data.Groups, err = l.loadGroups(ctx); err != nil {
		return Data{}, errors.Wrap(err, "failed to load user groups")
	}
	if data.Emoji, err = l.loadRealmEmoji(ctx); err != nil {
		return Data{}, errors.Wrap(err, "failed to load realm emoji")
	}
	if data.Topics, err = l.loadTopics(ctx, 0); err != nil {
		return Data{}, errors.Wrap(err, "failed to load topics")
	}
	if data.DMConversations, err = l.loadDMConversations(ctx); err != nil {
		return Data{}, errors.Wrap(err, "failed to load direct message history")
	}
	if data.Mutes, err = l.loadMutes(ctx); err != nil {
		return Data{}, errors.Wrap(err, "failed to load muted users")
	}

	return data, nil
}

// LoadTopics reads the topic history of a single stream
func (l *Loader) LoadTopics(ctx context.Context, streamID int64) ([]Topic, error) {
	topics, err := l.loadTopics(ctx, streamID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load topics for stream %d", streamID)
	}
	return topics, nil
}

func (l *Loader) loadUsers(ctx context.Context) ([]User, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, email, delivery_email, full_name, is_bot, is_active, role
		FROM users
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.DeliveryEmail, &u.FullName, &u.IsBot, &u.IsActive, &role); err != nil {
			return nil, err
		}
		u.Role = Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (l *Loader) loadStreams(ctx context.Context) ([]Stream, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, name, description, invite_only, is_archived, is_recently_active
		FROM streams
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var streams []Stream
	for rows.Next() {
		var s Stream
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.InviteOnly, &s.IsArchived, &s.IsRecentlyActive); err != nil {
			return nil, err
		}
		streams = append(streams, s)
	}
	return streams, rows.Err()
}

func (l *Loader) loadSubscriptions(ctx context.Context) ([]Subscription, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT stream_id, user_id, pin_to_top
		FROM subscriptions
		ORDER BY stream_id, user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.StreamID, &s.UserID, &s.PinToTop); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (l *Loader) loadGroups(ctx context.Context) ([]UserGroup, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, name, description, is_system_group, deactivated, can_mention_group_id
		FROM user_groups
		ORDER BY id`)
	if err != nil {
		return nil, err
	}

	var groups []UserGroup
	index := make(map[int64]int)
	for rows.Next() {
		var g UserGroup
		var canMention sql.NullInt64
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.IsSystemGroup, &g.Deactivated, &canMention); err != nil {
			rows.Close()
			return nil, err
		}
		g.CanMentionGroupID = canMention.Int64
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	members, err := l.loadPairs(ctx, `SELECT group_id, user_id FROM user_group_members ORDER BY group_id, user_id`)
	if err != nil {
		return nil, errors.Wrap(err, "members")
	}
	for _, p := range members {
		if i, ok := index[p[0]]; ok {
			groups[i].Members = append(groups[i].Members, p[1])
		}
	}

	subgroups, err := l.loadPairs(ctx, `SELECT group_id, subgroup_id FROM user_group_subgroups ORDER BY group_id, subgroup_id`)
	if err != nil {
		return nil, errors.Wrap(err, "subgroups")
	}
	for _, p := range subgroups {
		if i, ok := index[p[0]]; ok {
			groups[i].DirectSubgroups = append(groups[i].DirectSubgroups, p[1])
		}
	}

	return groups, nil
}

func (l *Loader) loadPairs(ctx context.Context, query string) ([][2]int64, error) {
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs [][2]int64
	for rows.Next() {
		var p [2]int64
		if err := rows.Scan(&p[0], &p[1]); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (l *Loader) loadRealmEmoji(ctx context.Context) ([]Emoji, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, name, deactivated
		FROM realm_emoji
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emoji []Emoji
	for rows.Next() {
		var id int64
		e := Emoji{ReactionType: RealmEmoji}
		if err := rows.Scan(&id, &e.Name, &e.Deactivated); err != nil {
			return nil, err
		}
		e.Code = strconv.FormatInt(id, 10)
		emoji = append(emoji, e)
	}
	return emoji, rows.Err()
}

// loadTopics reads topics for one stream, or all streams when streamID is 0.
func (l *Loader) loadTopics(ctx context.Context, streamID int64) ([]Topic, error) {
	query := `SELECT stream_id, name, max_message_id FROM topics`
	var args []any
	if streamID != 0 {
		query += ` WHERE stream_id = ?`
		args = append(args, streamID)
	}
	query += ` ORDER BY stream_id, max_message_id DESC`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.StreamID, &t.Name, &t.MaxMessageID); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (l *Loader) loadDMConversations(ctx context.Context) ([]DMConversation, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT user_ids, max_message_id
		FROM dm_conversations
		ORDER BY max_message_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []DMConversation
	for rows.Next() {
		var key string
		var c DMConversation
		if err := rows.Scan(&key, &c.MaxMessageID); err != nil {
			return nil, err
		}
		ids, err := parseUserIDs(key)
		if err != nil {
			return nil, err
		}
		c.UserIDs = ids
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (l *Loader) loadMutes(ctx context.Context) ([]Mute, error) {
	pairs, err := l.loadPairs(ctx, `SELECT muter_id, muted_id FROM muted_users ORDER BY muter_id, muted_id`)
	if err != nil {
		return nil, err
	}
	mutes := make([]Mute, 0, len(pairs))
	for _, p := range pairs {
		mutes = append(mutes, Mute{Muter: p[0], Muted: p[1]})
	}
	return mutes, nil
}

// parseUserIDs decodes a comma-separated participant key such as "1,4,9".
func parseUserIDs(key string) ([]int64, error) {
	if key == "" {
		return nil, nil
	}
	parts := strings.Split(key, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid participant list %q", key)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
