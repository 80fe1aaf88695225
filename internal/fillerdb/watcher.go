package fillerdb

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"fillerinfo/internal/logging"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the database file into a Holder whenever it changes on disk.
// A file that fails to parse leaves the current database in place.
type Watcher struct {
	path     string
	holder   *Holder
	logger   *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	reloaded []chan<- *Database
	failures []chan<- error
}

// NewWatcher creates a watcher for path that publishes into holder.
func NewWatcher(path string, holder *Holder, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:     path,
		holder:   holder,
		logger:   logging.NewComponentLogger(logger, "fillerdb_watcher"),
		debounce: defaultDebounce,
	}
}

// SetDebounce overrides how long the watcher waits for writes to settle.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Notify registers a channel that receives each successfully reloaded database.
// Sends are non-blocking.
func (w *Watcher) Notify(ch chan<- *Database) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reloaded = append(w.reloaded, ch)
}

// NotifyFailure registers a channel that receives each failed reload.
// Sends are non-blocking.
func (w *Watcher) NotifyFailure(ch chan<- error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures = append(w.failures, ch)
}

// Reload reads the file and swaps it into the holder.
func (w *Watcher) Reload() error {
	db, err := ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("reload filler database: %w", err)
	}
	previous := w.holder.Swap(db)
	w.logger.Info("filler database reloaded",
		logging.String(logging.FieldEventType, "filler_db_reloaded"),
		logging.String("path", w.path),
		logging.Int("series_count", db.Len()),
		logging.Int("previous_series_count", previous.Len()),
	)

	w.mu.Lock()
	listeners := append([]chan<- *Database(nil), w.reloaded...)
	w.mu.Unlock()
	for _, ch := range listeners {
		select {
		case ch <- db:
		default:
		}
	}
	return nil
}

// Run watches the parent directory of the database file until ctx is done.
// The directory is watched rather than the file so atomic rename-over writes
// are observed.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching filler database for changes", logging.String("path", w.path))

	target := filepath.Clean(w.path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("filler database watcher stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("filler database changed", logging.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				if err := w.Reload(); err != nil {
					w.publishFailure(err)
					logging.WarnWithContext(w.logger, "filler database reload failed", "filler_db_reload_failed",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check the scraper output"),
						logging.String(logging.FieldImpact, "previous database stays in use"),
					)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("filler database watcher error", logging.Error(err))
		}
	}
}

func (w *Watcher) publishFailure(err error) {
	w.mu.Lock()
	listeners := append([]chan<- error(nil), w.failures...)
	w.mu.Unlock()
	for _, ch := range listeners {
		select {
		case ch <- err:
		default:
		}
	}
}
