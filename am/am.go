package am

// Config represents the typeahead service configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database" toml:"database" json:"database" yaml:"database"`
	Server    ServerConfig    `mapstructure:"server" toml:"server" json:"server" yaml:"server"`
	Typeahead TypeaheadConfig `mapstructure:"typeahead" toml:"typeahead" json:"typeahead" yaml:"typeahead"`
	Realm     RealmConfig     `mapstructure:"realm" toml:"realm" json:"realm" yaml:"realm"`
	Directory DirectoryConfig `mapstructure:"directory" toml:"directory" json:"directory" yaml:"directory"`
}

// DatabaseConfig configures the SQLite directory database
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// ServerConfig configures the HTTP/LSP server
type ServerConfig struct {
	Port                  *int     `mapstructure:"port" toml:"port" json:"port" yaml:"port"` // nil = default 8877, 0 is invalid
	AllowedOrigins        []string `mapstructure:"allowed_origins" toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
	LogTheme              string   `mapstructure:"log_theme" toml:"log_theme" json:"log_theme" yaml:"log_theme"`
	MaxDocumentsPerClient int      `mapstructure:"max_documents_per_client" toml:"max_documents_per_client" json:"max_documents_per_client" yaml:"max_documents_per_client"`
	MinClientVersion      string   `mapstructure:"min_client_version" toml:"min_client_version" json:"min_client_version" yaml:"min_client_version"` // semver, empty = no gate
}

// TypeaheadConfig holds per-kind result limits and ranking switches.
type TypeaheadConfig struct {
	MaxMentions   int `mapstructure:"max_mentions" toml:"max_mentions" json:"max_mentions" yaml:"max_mentions"`
	MaxRecipients int `mapstructure:"max_recipients" toml:"max_recipients" json:"max_recipients" yaml:"max_recipients"`
	MaxStreams    int `mapstructure:"max_streams" toml:"max_streams" json:"max_streams" yaml:"max_streams"`
	MaxTopics     int `mapstructure:"max_topics" toml:"max_topics" json:"max_topics" yaml:"max_topics"`
	MaxEmoji      int `mapstructure:"max_emoji" toml:"max_emoji" json:"max_emoji" yaml:"max_emoji"`
	MaxSlash      int `mapstructure:"max_slash" toml:"max_slash" json:"max_slash" yaml:"max_slash"`
	MaxLanguages  int `mapstructure:"max_languages" toml:"max_languages" json:"max_languages" yaml:"max_languages"`
	Lookback      int `mapstructure:"lookback" toml:"lookback" json:"lookback" yaml:"lookback"` // runes scanned back from the cursor

	DemoteInactiveStreams string   `mapstructure:"demote_inactive_streams" toml:"demote_inactive_streams" json:"demote_inactive_streams" yaml:"demote_inactive_streams"` // automatic, always, never
	PopularEmoji          []string `mapstructure:"popular_emoji" toml:"popular_emoji" json:"popular_emoji" yaml:"popular_emoji"`                                  // unicode code points, e.g. "1f44d"
	CurrentUser           string   `mapstructure:"current_user" toml:"current_user" json:"current_user" yaml:"current_user"`                                      // email used by the CLI
}

// RealmConfig holds organization-wide mention policy
type RealmConfig struct {
	WildcardMentionPolicy               string `mapstructure:"wildcard_mention_policy" toml:"wildcard_mention_policy" json:"wildcard_mention_policy" yaml:"wildcard_mention_policy"`
	WildcardMentionLargeStreamThreshold int    `mapstructure:"wildcard_mention_large_stream_threshold" toml:"wildcard_mention_large_stream_threshold" json:"wildcard_mention_large_stream_threshold" yaml:"wildcard_mention_large_stream_threshold"`
}

// DirectoryConfig configures directory loading and refresh
type DirectoryConfig struct {
	RefreshPerMinute int    `mapstructure:"refresh_per_minute" toml:"refresh_per_minute" json:"refresh_per_minute" yaml:"refresh_per_minute"` // background refresh budget
	RegistryPath     string `mapstructure:"registry_path" toml:"registry_path" json:"registry_path" yaml:"registry_path"`                   // optional slash/language registry TOML
}

// Server port constants
const (
	DefaultServerPort = 8877
)

// Demote-inactive-streams settings
const (
	DemoteAutomatic = "automatic"
	DemoteAlways    = "always"
	DemoteNever     = "never"
)

// Wildcard mention policies
const (
	WildcardEveryone   = "everyone"
	WildcardMembers    = "members"
	WildcardModerators = "moderators"
	WildcardAdmins     = "admins"
	WildcardNobody     = "nobody"
)

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
