package identitycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"

	"fillerinfo/internal/logging"
	"fillerinfo/internal/services"
)

const lockRetryDelay = 25 * time.Millisecond

// JSONStore persists the cache as a flat JSON object of identifier -> key.
// Every read goes to disk so separate processes sharing the file see each
// other's writes. Read-modify-write cycles hold both an in-process mutex and
// an exclusive lock on <path>.lock, and the file is replaced atomically.
type JSONStore struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
	mu     sync.Mutex
}

// NewJSONStore creates a JSON-file store. The file is created lazily on the
// first Record call.
func NewJSONStore(path string, logger *slog.Logger) *JSONStore {
	return &JSONStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "identitycache"),
	}
}

// Path returns the backing file location.
func (s *JSONStore) Path() string { return s.path }

// Lookup implements Store.
func (s *JSONStore) Lookup(ctx context.Context, identifier string) (string, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", false
	}
	mapping, err := s.read()
	if err != nil {
		s.warnUnavailable(ctx, err)
	}
	key, ok := mapping[identifier]
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// Record implements Store.
func (s *JSONStore) Record(ctx context.Context, identifier, key string) error {
	identifier, err := normalizeIdentifier(identifier)
	if err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return services.Wrap(services.ErrValidation, "identitycache", "record", "key cannot be empty", nil)
	}

	err = s.update(ctx, func(mapping map[string]string) (bool, error) {
		if mapping[identifier] == key {
			return false, nil
		}
		mapping[identifier] = key
		return true, nil
	})
	if err != nil {
		return err
	}

	logging.WithContext(ctx, s.logger).Debug("cached identity mapping",
		logging.String(logging.FieldIdentifier, identifier),
		logging.String("key", key))
	return nil
}

// List implements Store. Entries are sorted by identifier.
func (s *JSONStore) List(ctx context.Context) ([]Entry, error) {
	mapping, err := s.read()
	if err != nil {
		s.warnUnavailable(ctx, err)
	}
	entries := make([]Entry, 0, len(mapping))
	for id, key := range mapping {
		entries = append(entries, Entry{Identifier: id, Key: key})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Identifier < entries[j].Identifier
	})
	return entries, nil
}

// Remove implements Store.
func (s *JSONStore) Remove(ctx context.Context, identifier string) error {
	identifier, err := normalizeIdentifier(identifier)
	if err != nil {
		return err
	}
	return s.update(ctx, func(mapping map[string]string) (bool, error) {
		if _, exists := mapping[identifier]; !exists {
			return false, services.Wrap(services.ErrNotFound, "identitycache", "remove",
				fmt.Sprintf("identifier %q not found in cache", identifier), nil)
		}
		delete(mapping, identifier)
		return true, nil
	})
}

// Clear implements Store.
func (s *JSONStore) Clear(ctx context.Context) error {
	return s.update(ctx, func(mapping map[string]string) (bool, error) {
		clear(mapping)
		return true, nil
	})
}

// Count implements Store.
func (s *JSONStore) Count(ctx context.Context) (int, error) {
	mapping, err := s.read()
	if err != nil {
		s.warnUnavailable(ctx, err)
	}
	return len(mapping), nil
}

// Close implements Store.
func (s *JSONStore) Close() error {
	return nil
}

// update runs fn against a freshly read mapping while holding both locks and
// persists the result when fn reports a change.
func (s *JSONStore) update(ctx context.Context, fn func(map[string]string) (bool, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return services.Wrap(services.ErrCacheUnavailable, "identitycache", "update", "create cache directory", err)
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return services.Wrap(services.ErrCacheUnavailable, "identitycache", "update", "acquire lock", err)
	}
	if !locked {
		return services.Wrap(services.ErrCacheUnavailable, "identitycache", "update", "lock not acquired", nil)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	mapping, readErr := s.read()
	if readErr != nil {
		s.warnUnavailable(ctx, readErr)
	}
	changed, err := fn(mapping)
	if err != nil || !changed {
		return err
	}
	if err := s.write(mapping); err != nil {
		return services.Wrap(services.ErrCacheUnavailable, "identitycache", "update", "persist cache", err)
	}
	return nil
}

// read returns the persisted mapping. The returned map is never nil; a
// missing file is empty without error, a corrupt one is empty with error.
func (s *JSONStore) read() (map[string]string, error) {
	mapping := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return mapping, nil
		}
		return mapping, fmt.Errorf("read cache file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return mapping, nil
	}
	if err := json.Unmarshal(data, &mapping); err != nil {
		return make(map[string]string), fmt.Errorf("parse cache file: %w", err)
	}
	return mapping, nil
}

func (s *JSONStore) write(mapping map[string]string) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	pending, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending cache file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write cache data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace cache file: %w", err)
	}
	return nil
}

func (s *JSONStore) warnUnavailable(ctx context.Context, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logging.WarnWithContext(logging.WithContext(ctx, s.logger), "identity cache unreadable, treating as empty", "identity_cache_unavailable",
		logging.String("path", s.path),
		logging.Error(services.Wrap(services.ErrCacheUnavailable, "identitycache", "read", "", err)),
		logging.String(logging.FieldErrorHint, "delete or repair the cache file"),
		logging.String(logging.FieldImpact, "titles are re-matched until the cache is rewritten"),
	)
}
