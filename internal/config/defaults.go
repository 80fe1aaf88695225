package config

import "time"

const (
	defaultConfigPath             = "~/.config/fillerinfo/config.toml"
	defaultFillerDB               = "~/.local/share/fillerinfo/filler-data.json"
	defaultLogDir                 = "~/.local/share/fillerinfo/logs"
	defaultIdentityCacheBackend   = "json"
	defaultIdentityCacheJSONPath  = "~/.cache/fillerinfo/id-cache.json"
	defaultIdentityCacheSQLite    = "~/.cache/fillerinfo/id-cache.db"
	defaultTMDBBaseURL            = "https://api.themoviedb.org/3"
	defaultTMDBLanguage           = "en-US"
	defaultTMDBRequestsPerSecond  = 4
	defaultKitsuBaseURL           = "https://kitsu.io/api/edge"
	defaultKitsuRequestsPerSecond = 2
	defaultMetadataCacheSize      = 2048
	defaultMetadataCacheTTLHours  = 24
	defaultMatchThreshold         = 0.7
	defaultTieBreak               = TieBreakOrder
	defaultServerBind             = "0.0.0.0:7000"
	defaultRequestTimeoutSeconds  = 15
	defaultRateLimitPerMinute     = 120
	defaultNtfyTimeoutSeconds     = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30
	defaultLogMaxSizeMB           = 50
)

// Tie-break policies for equally scored fuzzy candidates.
const (
	TieBreakOrder = "order"
	TieBreakKey   = "key"
)

// Identity cache backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			FillerDB: defaultFillerDB,
			LogDir:   defaultLogDir,
		},
		IdentityCache: IdentityCache{
			Backend: defaultIdentityCacheBackend,
			Path:    defaultIdentityCacheJSONPath,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			Language:          defaultTMDBLanguage,
			RequestsPerSecond: defaultTMDBRequestsPerSecond,
		},
		Kitsu: Kitsu{
			BaseURL:           defaultKitsuBaseURL,
			RequestsPerSecond: defaultKitsuRequestsPerSecond,
		},
		Metadata: Metadata{
			CacheSize:     defaultMetadataCacheSize,
			CacheTTLHours: defaultMetadataCacheTTLHours,
		},
		Matching: Matching{
			Threshold: defaultMatchThreshold,
			TieBreak:  defaultTieBreak,
		},
		Server: Server{
			Bind:                  defaultServerBind,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			RateLimitPerMinute:    defaultRateLimitPerMinute,
			WatchDatabase:         true,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultLogMaxSizeMB,
		},
	}
}

// MetadataCacheTTL returns the metadata cache entry lifetime.
func (c *Config) MetadataCacheTTL() time.Duration {
	return time.Duration(c.Metadata.CacheTTLHours) * time.Hour
}

// RequestTimeout returns the per-request classification deadline used by the addon.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// NotificationTimeout returns the ntfy request timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}
