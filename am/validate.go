package am

import (
	"github.com/Masterminds/semver/v3"

	"github.com/teranos/typeahead/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && (*c.Server.Port < 0 || *c.Server.Port > 65535) {
		return errors.Newf("server.port must be between 1 and 65535, got %d", *c.Server.Port)
	}
	if c.Server.MaxDocumentsPerClient < 0 {
		return errors.Newf("server.max_documents_per_client must be >= 0, got %d", c.Server.MaxDocumentsPerClient)
	}
	if c.Server.MinClientVersion != "" {
		if _, err := semver.NewVersion(c.Server.MinClientVersion); err != nil {
			return errors.Wrapf(err, "server.min_client_version %q is not a semantic version", c.Server.MinClientVersion)
		}
	}

	// Limits: 0 = use default, negative = invalid
	limits := []struct {
		key   string
		value int
	}{
		{"typeahead.max_mentions", c.Typeahead.MaxMentions},
		{"typeahead.max_recipients", c.Typeahead.MaxRecipients},
		{"typeahead.max_streams", c.Typeahead.MaxStreams},
		{"typeahead.max_topics", c.Typeahead.MaxTopics},
		{"typeahead.max_emoji", c.Typeahead.MaxEmoji},
		{"typeahead.max_slash", c.Typeahead.MaxSlash},
		{"typeahead.max_languages", c.Typeahead.MaxLanguages},
		{"typeahead.lookback", c.Typeahead.Lookback},
		{"realm.wildcard_mention_large_stream_threshold", c.Realm.WildcardMentionLargeStreamThreshold},
		{"directory.refresh_per_minute", c.Directory.RefreshPerMinute},
	}
	for _, l := range limits {
		if l.value < 0 {
			return errors.Newf("%s must be >= 0, got %d", l.key, l.value)
		}
	}

	switch c.Typeahead.DemoteInactiveStreams {
	case "", DemoteAutomatic, DemoteAlways, DemoteNever:
	default:
		return errors.WithHint(
			errors.Newf("typeahead.demote_inactive_streams: unknown value %q", c.Typeahead.DemoteInactiveStreams),
			"use one of: automatic, always, never")
	}

	switch c.Realm.WildcardMentionPolicy {
	case "", WildcardEveryone, WildcardMembers, WildcardModerators, WildcardAdmins, WildcardNobody:
	default:
		return errors.WithHint(
			errors.Newf("realm.wildcard_mention_policy: unknown value %q", c.Realm.WildcardMentionPolicy),
			"use one of: everyone, members, moderators, admins, nobody")
	}

	return nil
}
