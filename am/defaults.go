package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// DefaultPopularEmoji are promoted when they decently match the query:
// +1, tada, slight_smile, heart, working_on_it, octopus.
var DefaultPopularEmoji = []string{"1f44d", "1f389", "1f642", "2764", "1f6e0", "1f419"}

var defaultAllowedOrigins = []string{
	"http://localhost",
	"https://localhost",
	"http://127.0.0.1",
	"https://127.0.0.1",
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "typeahead.db")

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", defaultAllowedOrigins)
	v.SetDefault("server.log_theme", "everforest")
	v.SetDefault("server.max_documents_per_client", 100)
	v.SetDefault("server.min_client_version", "")

	v.SetDefault("typeahead.max_mentions", 10)
	v.SetDefault("typeahead.max_recipients", 8) // recipient fields cap lower than mentions
	v.SetDefault("typeahead.max_streams", 10)
	v.SetDefault("typeahead.max_topics", 10)
	v.SetDefault("typeahead.max_emoji", 15)
	v.SetDefault("typeahead.max_slash", 15)
	v.SetDefault("typeahead.max_languages", 10)
	v.SetDefault("typeahead.lookback", 40)
	v.SetDefault("typeahead.demote_inactive_streams", DemoteAutomatic)
	v.SetDefault("typeahead.popular_emoji", DefaultPopularEmoji)
	v.SetDefault("typeahead.current_user", "")

	v.SetDefault("realm.wildcard_mention_policy", WildcardMembers)
	v.SetDefault("realm.wildcard_mention_large_stream_threshold", 15)

	v.SetDefault("directory.refresh_per_minute", 30)
	v.SetDefault("directory.registry_path", "")
}

// BindSensitiveEnvVars explicitly binds configuration that deployments
// commonly inject through the environment
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "TYPEAHEAD_DATABASE_PATH")
	v.BindEnv("server.port", "TYPEAHEAD_SERVER_PORT")
	v.BindEnv("typeahead.current_user", "TYPEAHEAD_CURRENT_USER")
}

// GetServerPort returns the configured port or DefaultServerPort
func (c *Config) GetServerPort() int {
	if c.Server.Port == nil {
		return DefaultServerPort
	}
	return *c.Server.Port
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return "typeahead.db"
	}
	return c.Database.Path
}

// GetServerAllowedOrigins returns the allowed CORS/websocket origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return defaultAllowedOrigins
	}
	return c.Server.AllowedOrigins
}

// GetMaxDocumentsPerClient returns the LSP document cache bound (default: 100)
func (c *Config) GetMaxDocumentsPerClient() int {
	if c.Server.MaxDocumentsPerClient <= 0 {
		return 100
	}
	return c.Server.MaxDocumentsPerClient
}

// GetTypeaheadConfig returns the typeahead configuration with defaults
// applied for zero values
func (c *Config) GetTypeaheadConfig() TypeaheadConfig {
	cfg := c.Typeahead

	if cfg.MaxMentions == 0 {
		cfg.MaxMentions = 10
	}
	if cfg.MaxRecipients == 0 {
		cfg.MaxRecipients = 8
	}
	if cfg.MaxStreams == 0 {
		cfg.MaxStreams = 10
	}
	if cfg.MaxTopics == 0 {
		cfg.MaxTopics = 10
	}
	if cfg.MaxEmoji == 0 {
		cfg.MaxEmoji = 15
	}
	if cfg.MaxSlash == 0 {
		cfg.MaxSlash = 15
	}
	if cfg.MaxLanguages == 0 {
		cfg.MaxLanguages = 10
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = 40
	}
	if cfg.DemoteInactiveStreams == "" {
		cfg.DemoteInactiveStreams = DemoteAutomatic
	}
	if cfg.PopularEmoji == nil {
		cfg.PopularEmoji = DefaultPopularEmoji
	}

	return cfg
}

// GetRealmConfig returns the realm policy with defaults applied
func (c *Config) GetRealmConfig() RealmConfig {
	cfg := c.Realm
	if cfg.WildcardMentionPolicy == "" {
		cfg.WildcardMentionPolicy = WildcardMembers
	}
	if cfg.WildcardMentionLargeStreamThreshold == 0 {
		cfg.WildcardMentionLargeStreamThreshold = 15
	}
	return cfg
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Server: {Port: %d}, Typeahead: {MaxMentions: %d, Lookback: %d}}",
		c.GetDatabasePath(), c.GetServerPort(), c.Typeahead.MaxMentions, c.Typeahead.Lookback)
}
