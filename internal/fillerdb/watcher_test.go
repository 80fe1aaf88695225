package fillerdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filler-data.json")
	if err := os.WriteFile(path, []byte(`{"a": {"name": "A"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	holder := NewHolder(Load(path, nil))
	w := NewWatcher(path, holder, nil)
	w.SetDebounce(20 * time.Millisecond)
	reloaded := make(chan *Database, 1)
	w.Notify(reloaded)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	tmp := filepath.Join(dir, "filler-data.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{"a": {"name": "A"}, "b": {"name": "B"}}`), 0o644); err != nil {
		t.Fatalf("write tmp: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}

	select {
	case db := <-reloaded:
		if db.Len() != 2 {
			t.Fatalf("expected 2 records after reload, got %d", db.Len())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	if holder.Current().Len() != 2 {
		t.Fatalf("holder not updated, len=%d", holder.Current().Len())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestWatcherReloadKeepsDatabaseOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filler-data.json")
	if err := os.WriteFile(path, []byte(`{"a": {"name": "A"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	holder := NewHolder(Load(path, nil))
	before := holder.Current()

	if err := os.WriteFile(path, []byte(`{broken`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := NewWatcher(path, holder, nil)
	if err := w.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if holder.Current() != before {
		t.Fatal("holder should keep previous database")
	}
}

func TestWatcherPublishesFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filler-data.json")
	if err := os.WriteFile(path, []byte(`{"a": {"name": "A"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	holder := NewHolder(Load(path, nil))
	loadedAt := holder.LoadedAt()
	w := NewWatcher(path, holder, nil)
	w.SetDebounce(20 * time.Millisecond)
	failures := make(chan error, 1)
	w.NotifyFailure(failures)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{broken`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-failures:
		if err == nil {
			t.Fatal("expected a reload error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for failure")
	}
	if holder.Current().Len() != 1 {
		t.Fatalf("holder should keep previous database, len=%d", holder.Current().Len())
	}
	if !holder.LoadedAt().Equal(loadedAt) {
		t.Fatal("failed reload should not move loaded-at")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}
