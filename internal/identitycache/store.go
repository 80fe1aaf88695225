package identitycache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fillerinfo/internal/config"
	"fillerinfo/internal/services"
)

// Entry is one cached identifier mapping. CachedAt is zero when the backend
// does not track it.
type Entry struct {
	Identifier string    `json:"identifier"`
	Key        string    `json:"key"`
	CachedAt   time.Time `json:"cached_at,omitzero"`
}

// Store is the identity cache contract shared by all backends.
type Store interface {
	// Lookup returns the cached key. Storage failures are logged and reported as a miss.
	Lookup(ctx context.Context, identifier string) (string, bool)
	// Record merges identifier -> key into the persisted mapping.
	Record(ctx context.Context, identifier, key string) error
	List(ctx context.Context) ([]Entry, error)
	Remove(ctx context.Context, identifier string) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open constructs the backend selected in cfg.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "identitycache", "open", "config is required", nil)
	}
	switch cfg.IdentityCache.Backend {
	case config.BackendSQLite:
		return OpenSQLite(cfg.IdentityCache.Path, logger)
	case config.BackendJSON, "":
		return NewJSONStore(cfg.IdentityCache.Path, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "identitycache", "open",
			fmt.Sprintf("unknown backend %q", cfg.IdentityCache.Backend), nil)
	}
}

func normalizeIdentifier(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", services.Wrap(services.ErrValidation, "identitycache", "", "identifier cannot be empty", nil)
	}
	return identifier, nil
}
