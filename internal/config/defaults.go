package config

const (
	defaultConfigPath           = "~/.config/collectsync/config.toml"
	projectConfigName           = "collectsync.toml"
	defaultLogDir               = "~/.local/share/collectsync/logs"
	defaultStateDir             = "~/.local/share/collectsync"
	defaultLogRetentionDays     = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultMinForCollection     = 2
	defaultConcurrency          = 4
	defaultRequestsPerSecond    = 10
	defaultRequestTimeout       = 30
	defaultNotifyRequestTimeout = 10

	placeholderRadarrAPIKey = "your_radarr_api_key_here"
	placeholderPlexToken    = "your_plex_token_here"
	placeholderLibraryName  = "library_name_here"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Collections: Collections{
			MinForCollection: defaultMinForCollection,
		},
		Sync: Sync{
			Concurrency:       defaultConcurrency,
			RequestsPerSecond: defaultRequestsPerSecond,
			RequestTimeout:    defaultRequestTimeout,
		},
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
	}
}
