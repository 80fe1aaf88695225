package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIdentityCache(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateIdentityCache() error {
	switch c.IdentityCache.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("identity_cache.backend must be %q or %q, got %q", BackendJSON, BackendSQLite, c.IdentityCache.Backend)
	}
	if strings.TrimSpace(c.IdentityCache.Path) == "" {
		return errors.New("identity_cache.path must be set")
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if err := ensurePositiveMap(map[string]int{
		"metadata.cache_size":      c.Metadata.CacheSize,
		"metadata.cache_ttl_hours": c.Metadata.CacheTTLHours,
	}); err != nil {
		return err
	}
	if c.TMDB.RequestsPerSecond < 0 {
		return errors.New("tmdb.requests_per_second must be >= 0")
	}
	if c.Kitsu.RequestsPerSecond < 0 {
		return errors.New("kitsu.requests_per_second must be >= 0")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold <= 0 || c.Matching.Threshold > 1 {
		return errors.New("matching.threshold must be greater than 0 and at most 1")
	}
	switch c.Matching.TieBreak {
	case TieBreakOrder, TieBreakKey:
	default:
		return fmt.Errorf("matching.tie_break must be %q or %q, got %q", TieBreakOrder, TieBreakKey, c.Matching.TieBreak)
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return errors.New("server.request_timeout_seconds must be positive")
	}
	if c.Server.RateLimitPerMinute < 0 {
		return errors.New("server.rate_limit_per_minute must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must be >= 0")
	}
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// TMDBConfigured reports whether TMDB lookups can be attempted. Without a key every
// IMDB-style identifier classifies as no data.
func (c *Config) TMDBConfigured() bool {
	return strings.TrimSpace(c.TMDB.APIKey) != ""
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
