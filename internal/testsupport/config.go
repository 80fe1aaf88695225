package testsupport

import (
	"path/filepath"
	"testing"

	"fillerinfo/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.Paths.FillerDB = filepath.Join(base, "data", "filler-data.json")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.IdentityCache.Backend = config.BackendJSON
	cfgVal.IdentityCache.Path = filepath.Join(base, "cache", "id-cache.json")
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithSQLiteCache switches the identity cache to the SQLite backend.
func WithSQLiteCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.IdentityCache.Backend = config.BackendSQLite
		b.cfg.IdentityCache.Path = filepath.Join(b.baseDir, "cache", "id-cache.db")
	}
}

// WithThreshold overrides the matcher threshold.
func WithThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.Threshold = threshold
	}
}

// WithFillerDB writes entries as the filler database file.
func WithFillerDB(entries ...DBEntry) ConfigOption {
	return func(b *configBuilder) {
		WriteDatabase(b.t, b.cfg.Paths.FillerDB, entries...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Paths.FillerDB))
}
