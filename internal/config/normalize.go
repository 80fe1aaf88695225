package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeIdentityCache(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeKitsu()
	c.normalizeMetadata()
	c.normalizeMatching()
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.FillerDB) == "" {
		c.Paths.FillerDB = defaultFillerDB
	}
	if c.Paths.FillerDB, err = expandPath(strings.TrimSpace(c.Paths.FillerDB)); err != nil {
		return fmt.Errorf("paths.filler_db: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeIdentityCache() error {
	backend := strings.ToLower(strings.TrimSpace(c.IdentityCache.Backend))
	if backend == "" {
		backend = defaultIdentityCacheBackend
	}
	c.IdentityCache.Backend = backend

	path := strings.TrimSpace(c.IdentityCache.Path)
	if path == "" || (backend == BackendSQLite && path == defaultIdentityCacheJSONPath) {
		path = defaultIdentityCacheJSONPath
		if backend == BackendSQLite {
			path = defaultIdentityCacheSQLite
		}
	}
	var err error
	if c.IdentityCache.Path, err = expandPath(path); err != nil {
		return fmt.Errorf("identity_cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.RequestsPerSecond == 0 {
		c.TMDB.RequestsPerSecond = defaultTMDBRequestsPerSecond
	}
}

func (c *Config) normalizeKitsu() {
	c.Kitsu.BaseURL = strings.TrimRight(strings.TrimSpace(c.Kitsu.BaseURL), "/")
	if c.Kitsu.BaseURL == "" {
		c.Kitsu.BaseURL = defaultKitsuBaseURL
	}
	if c.Kitsu.RequestsPerSecond == 0 {
		c.Kitsu.RequestsPerSecond = defaultKitsuRequestsPerSecond
	}
}

func (c *Config) normalizeMetadata() {
	if c.Metadata.CacheSize == 0 {
		c.Metadata.CacheSize = defaultMetadataCacheSize
	}
	if c.Metadata.CacheTTLHours == 0 {
		c.Metadata.CacheTTLHours = defaultMetadataCacheTTLHours
	}
}

func (c *Config) normalizeMatching() {
	c.Matching.TieBreak = strings.ToLower(strings.TrimSpace(c.Matching.TieBreak))
	if c.Matching.TieBreak == "" {
		c.Matching.TieBreak = defaultTieBreak
	}
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	port := lookupPort()
	if port != "" {
		host, _, err := net.SplitHostPort(c.Server.Bind)
		if err != nil {
			return fmt.Errorf("server.bind: %w", err)
		}
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("port environment override %q is not numeric", port)
		}
		c.Server.Bind = net.JoinHostPort(host, port)
	}
	c.Server.PublicURL = strings.TrimRight(strings.TrimSpace(c.Server.PublicURL), "/")
	if c.Server.RequestTimeoutSeconds == 0 {
		c.Server.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	return nil
}

func lookupPort() string {
	for _, key := range []string{"FILLERINFO_PORT", "PORT"} {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
}
