package main

import (
	"fmt"
	"log/slog"

	"fillerinfo/internal/config"
	"fillerinfo/internal/logging"
	"fillerinfo/internal/metadata"
	"fillerinfo/internal/metadata/kitsu"
	"fillerinfo/internal/metadata/tmdb"
)

// newMetadataProvider routes kitsu: identifiers to Kitsu and the rest to
// TMDB, behind one bounded TTL cache.
func newMetadataProvider(cfg *config.Config, logger *slog.Logger) (metadata.Provider, error) {
	var router metadata.Router

	if cfg.TMDBConfigured() {
		client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
			tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond),
			tmdb.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("tmdb client: %w", err)
		}
		router.TMDB = client
	} else {
		logging.WarnWithContext(logger, "tmdb api key not configured", "tmdb_unconfigured",
			logging.String(logging.FieldErrorHint, "set tmdb.api_key or export TMDB_API_KEY"),
			logging.String(logging.FieldImpact, "only kitsu identifiers can be classified"),
		)
		router.TMDB = metadata.Unavailable{Reason: "tmdb api key not configured"}
	}

	kitsuClient, err := kitsu.New(cfg.Kitsu.BaseURL,
		kitsu.WithRateLimit(cfg.Kitsu.RequestsPerSecond),
		kitsu.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("kitsu client: %w", err)
	}
	router.Kitsu = kitsuClient

	cache := metadata.NewLRUCache(cfg.Metadata.CacheSize, cfg.MetadataCacheTTL())
	return metadata.NewCachingProvider(router, cache, logger), nil
}
