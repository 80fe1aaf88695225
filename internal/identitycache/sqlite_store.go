package identitycache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fillerinfo/internal/logging"
	"fillerinfo/internal/services"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS identity_cache (
	identifier TEXT PRIMARY KEY,
	db_key     TEXT NOT NULL,
	cached_at  INTEGER NOT NULL
)`

// SQLiteStore keeps one row per identifier. Each Record is a single upsert,
// so concurrent writers never drop each other's mappings.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// OpenSQLite opens or creates the cache database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrCacheUnavailable, "identitycache", "open", "create cache directory", err)
	}
	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, services.Wrap(services.ErrCacheUnavailable, "identitycache", "open", "open sqlite db", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init identity cache schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "identitycache"),
		now:    time.Now,
	}, nil
}

// Lookup implements Store.
func (s *SQLiteStore) Lookup(ctx context.Context, identifier string) (string, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", false
	}
	ctx = ensureContext(ctx)
	var key string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT db_key FROM identity_cache WHERE identifier = ?`, identifier).Scan(&key)
	})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "identity cache lookup failed", "identity_cache_unavailable",
				logging.String("path", s.path),
				logging.Error(services.Wrap(services.ErrCacheUnavailable, "identitycache", "lookup", "", err)),
				logging.String(logging.FieldImpact, "title will be re-matched"),
			)
		}
		return "", false
	}
	return key, key != ""
}

// Record implements Store.
func (s *SQLiteStore) Record(ctx context.Context, identifier, key string) error {
	identifier, err := normalizeIdentifier(identifier)
	if err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return services.Wrap(services.ErrValidation, "identitycache", "record", "key cannot be empty", nil)
	}
	err = s.exec(ensureContext(ctx), `
		INSERT INTO identity_cache (identifier, db_key, cached_at) VALUES (?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET db_key = excluded.db_key, cached_at = excluded.cached_at`,
		identifier, key, s.now().UTC().Unix())
	if err != nil {
		return services.Wrap(services.ErrCacheUnavailable, "identitycache", "record", "upsert mapping", err)
	}
	return nil
}

// List implements Store. Entries are sorted newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT identifier, db_key, cached_at FROM identity_cache ORDER BY cached_at DESC, identifier ASC`)
	if err != nil {
		return nil, services.Wrap(services.ErrCacheUnavailable, "identitycache", "list", "query mappings", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			cachedAt int64
		)
		if err := rows.Scan(&entry.Identifier, &entry.Key, &cachedAt); err != nil {
			return nil, services.Wrap(services.ErrCacheUnavailable, "identitycache", "list", "scan mapping", err)
		}
		entry.CachedAt = time.Unix(cachedAt, 0).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrCacheUnavailable, "identitycache", "list", "iterate mappings", err)
	}
	return entries, nil
}

// Remove implements Store.
func (s *SQLiteStore) Remove(ctx context.Context, identifier string) error {
	identifier, err := normalizeIdentifier(identifier)
	if err != nil {
		return err
	}
	ctx = ensureContext(ctx)
	var res sql.Result
	err = retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, `DELETE FROM identity_cache WHERE identifier = ?`, identifier)
		return execErr
	})
	if err != nil {
		return services.Wrap(services.ErrCacheUnavailable, "identitycache", "remove", "delete mapping", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.Wrap(services.ErrNotFound, "identitycache", "remove",
			fmt.Sprintf("identifier %q not found in cache", identifier), nil)
	}
	return nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := s.exec(ensureContext(ctx), `DELETE FROM identity_cache`); err != nil {
		return services.Wrap(services.ErrCacheUnavailable, "identitycache", "clear", "delete mappings", err)
	}
	return nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identity_cache`).Scan(&n); err != nil {
		return 0, services.Wrap(services.ErrCacheUnavailable, "identitycache", "count", "count mappings", err)
	}
	return n, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
