package testsupport

import (
	"testing"

	"fillerinfo/internal/config"
	"fillerinfo/internal/identitycache"
	"fillerinfo/internal/logging"
)

// MustOpenCache opens the identity cache selected by cfg and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) identitycache.Store {
	t.Helper()

	store, err := identitycache.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("identitycache.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
