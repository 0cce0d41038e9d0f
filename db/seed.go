package db

import (
	"context"
	"database/sql"
	_ "embed"
	"io"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teranos/typeahead/errors"
)

//go:embed fixtures/demo_realm.yaml
var demoRealm []byte

// Fixture is a YAML description of an organization's directory: people,
// channels, groups, custom emoji and message history summaries.
type Fixture struct {
	Users           []FixtureUser   `yaml:"users"`
	Streams         []FixtureStream `yaml:"streams"`
	Groups          []FixtureGroup  `yaml:"groups"`
	RealmEmoji      []FixtureEmoji  `yaml:"realm_emoji"`
	DMConversations []FixtureDM     `yaml:"dm_conversations"`
	MutedUsers      []FixtureMute   `yaml:"muted_users"`
}

type FixtureUser struct {
	ID            int64  `yaml:"id"`
	Email         string `yaml:"email"`
	DeliveryEmail string `yaml:"delivery_email"`
	FullName      string `yaml:"full_name"`
	IsBot         bool   `yaml:"is_bot"`
	Deactivated   bool   `yaml:"deactivated"`
	Role          string `yaml:"role"`
}

type FixtureStream struct {
	ID          int64          `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	InviteOnly  bool           `yaml:"invite_only"`
	Archived    bool           `yaml:"archived"`
	Inactive    bool           `yaml:"inactive"`
	Subscribers []int64        `yaml:"subscribers"`
	PinnedBy    []int64        `yaml:"pinned_by"`
	Topics      []FixtureTopic `yaml:"topics"`
}

type FixtureTopic struct {
	Name         string `yaml:"name"`
	MaxMessageID int64  `yaml:"max_message_id"`
}

type FixtureGroup struct {
	ID          int64    `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	System      bool     `yaml:"system"`
	Deactivated bool     `yaml:"deactivated"`
	CanMention  string   `yaml:"can_mention"` // group name; empty = nobody
	Members     []int64  `yaml:"members"`
	Subgroups   []string `yaml:"subgroups"`
}

type FixtureEmoji struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	SourceURL   string `yaml:"source_url"`
	Deactivated bool   `yaml:"deactivated"`
}

type FixtureDM struct {
	UserIDs      []int64 `yaml:"user_ids"`
	MaxMessageID int64   `yaml:"max_message_id"`
}

type FixtureMute struct {
	Muter int64 `yaml:"muter"`
	Muted int64 `yaml:"muted"`
}

// ParseFixture decodes a YAML fixture, rejecting unknown keys.
func ParseFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "failed to parse fixture")
	}
	return &f, nil
}

// DemoFixture returns the built-in demo organization.
func DemoFixture() (*Fixture, error) {
	return ParseFixture(strings.NewReader(string(demoRealm)))
}

// DMKey encodes a participant set the way dm_conversations stores it.
func DMKey(userIDs []int64) string {
	ids := append([]int64(nil), userIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, 0, len(ids))
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

// Seed writes a fixture into the database in a single transaction.
// Rows with existing keys are replaced.
func Seed(ctx context.Context, db *sql.DB, f *Fixture) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin seed tx")
	}
	defer tx.Rollback()

	if err := seedUsers(ctx, tx, f.Users); err != nil {
		return err
	}
	if err := seedStreams(ctx, tx, f.Streams); err != nil {
		return err
	}
	if err := seedGroups(ctx, tx, f.Groups); err != nil {
		return err
	}

	for _, e := range f.RealmEmoji {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO realm_emoji (id, name, source_url, deactivated) VALUES (?, ?, ?, ?)`,
			e.ID, e.Name, e.SourceURL, e.Deactivated); err != nil {
			return errors.Wrapf(err, "insert realm emoji %q", e.Name)
		}
	}

	for _, dm := range f.DMConversations {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO dm_conversations (user_ids, max_message_id) VALUES (?, ?)`,
			DMKey(dm.UserIDs), dm.MaxMessageID); err != nil {
			return errors.Wrap(err, "insert dm conversation")
		}
	}

	for _, m := range f.MutedUsers {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO muted_users (muter_id, muted_id) VALUES (?, ?)`,
			m.Muter, m.Muted); err != nil {
			return errors.Wrapf(err, "insert mute %d -> %d", m.Muter, m.Muted)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit seed")
	}
	return nil
}

func seedUsers(ctx context.Context, tx *sql.Tx, users []FixtureUser) error {
	for _, u := range users {
		role := u.Role
		if role == "" {
			role = "member"
		}
		delivery := u.DeliveryEmail
		if delivery == "" {
			delivery = u.Email
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO users (id, email, delivery_email, full_name, is_bot, is_active, role)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Email, delivery, u.FullName, u.IsBot, !u.Deactivated, role); err != nil {
			return errors.Wrapf(err, "insert user %q", u.Email)
		}
	}
	return nil
}

func seedStreams(ctx context.Context, tx *sql.Tx, streams []FixtureStream) error {
	for _, s := range streams {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO streams (id, name, description, invite_only, is_archived, is_recently_active)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID, s.Name, s.Description, s.InviteOnly, s.Archived, !s.Inactive); err != nil {
			return errors.Wrapf(err, "insert stream %q", s.Name)
		}

		pinned := make(map[int64]bool, len(s.PinnedBy))
		for _, id := range s.PinnedBy {
			pinned[id] = true
		}
		for _, userID := range s.Subscribers {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO subscriptions (stream_id, user_id, pin_to_top) VALUES (?, ?, ?)`,
				s.ID, userID, pinned[userID]); err != nil {
				return errors.Wrapf(err, "subscribe user %d to %q", userID, s.Name)
			}
		}

		for _, topic := range s.Topics {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO topics (stream_id, name, max_message_id) VALUES (?, ?, ?)`,
				s.ID, topic.Name, topic.MaxMessageID); err != nil {
				return errors.Wrapf(err, "insert topic %q in %q", topic.Name, s.Name)
			}
		}
	}
	return nil
}

func seedGroups(ctx context.Context, tx *sql.Tx, groups []FixtureGroup) error {
	ids := make(map[string]int64, len(groups))
	for _, g := range groups {
		ids[strings.ToLower(g.Name)] = g.ID
	}

	lookup := func(name string) (sql.NullInt64, error) {
		if name == "" {
			return sql.NullInt64{}, nil
		}
		id, ok := ids[strings.ToLower(name)]
		if !ok {
			return sql.NullInt64{}, errors.NewNotFoundError("group %q", name)
		}
		return sql.NullInt64{Int64: id, Valid: true}, nil
	}

	for _, g := range groups {
		canMention, err := lookup(g.CanMention)
		if err != nil {
			return errors.Wrapf(err, "group %q can_mention", g.Name)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO user_groups (id, name, description, is_system_group, deactivated, can_mention_group_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, g.Name, g.Description, g.System, g.Deactivated, canMention); err != nil {
			return errors.Wrapf(err, "insert group %q", g.Name)
		}
	}

	for _, g := range groups {
		for _, userID := range g.Members {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO user_group_members (group_id, user_id) VALUES (?, ?)`,
				g.ID, userID); err != nil {
				return errors.Wrapf(err, "add user %d to group %q", userID, g.Name)
			}
		}
		for _, sub := range g.Subgroups {
			subID, err := lookup(sub)
			if err != nil {
				return errors.Wrapf(err, "group %q subgroup", g.Name)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO user_group_subgroups (group_id, subgroup_id) VALUES (?, ?)`,
				g.ID, subID.Int64); err != nil {
				return errors.Wrapf(err, "add subgroup %q to %q", sub, g.Name)
			}
		}
	}
	return nil
}
