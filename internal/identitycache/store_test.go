package identitycache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"fillerinfo/internal/config"
	"fillerinfo/internal/services"
)

type storeFactory struct {
	name string
	open func(t *testing.T) Store
}

func factories() []storeFactory {
	return []storeFactory{
		{"json", func(t *testing.T) Store {
			return NewJSONStore(filepath.Join(t.TempDir(), "id-cache.json"), nil)
		}},
		{"sqlite", func(t *testing.T) Store {
			store, err := OpenSQLite(filepath.Join(t.TempDir(), "id-cache.db"), nil)
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			t.Cleanup(func() { _ = store.Close() })
			return store
		}},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)

			if _, ok := store.Lookup(ctx, "tt0409591"); ok {
				t.Fatal("expected miss on empty store")
			}
			if err := store.Record(ctx, "tt0409591", "naruto"); err != nil {
				t.Fatalf("Record: %v", err)
			}
			if err := store.Record(ctx, "kitsu:11", "naruto"); err != nil {
				t.Fatalf("Record: %v", err)
			}
			key, ok := store.Lookup(ctx, "tt0409591")
			if !ok || key != "naruto" {
				t.Fatalf("Lookup = %q, %v", key, ok)
			}

			if err := store.Record(ctx, "tt0409591", "naruto-shippuden"); err != nil {
				t.Fatalf("Record overwrite: %v", err)
			}
			if key, _ := store.Lookup(ctx, "tt0409591"); key != "naruto-shippuden" {
				t.Fatalf("expected overwrite, got %q", key)
			}

			entries, err := store.List(ctx)
			if err != nil || len(entries) != 2 {
				t.Fatalf("List = %v, %v", entries, err)
			}
			if n, _ := store.Count(ctx); n != 2 {
				t.Fatalf("Count = %d", n)
			}

			if err := store.Remove(ctx, "kitsu:11"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if err := store.Remove(ctx, "kitsu:11"); !errors.Is(err, services.ErrNotFound) {
				t.Fatalf("expected ErrNotFound removing twice, got %v", err)
			}
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			if n, _ := store.Count(ctx); n != 0 {
				t.Fatalf("Count after clear = %d", n)
			}
		})
	}
}

func TestStoreRejectsEmptyValues(t *testing.T) {
	ctx := context.Background()
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			if err := store.Record(ctx, "  ", "naruto"); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error for empty identifier, got %v", err)
			}
			if err := store.Record(ctx, "tt1", ""); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error for empty key, got %v", err)
			}
		})
	}
}

func TestStoreConcurrentRecordsAllSurvive(t *testing.T) {
	ctx := context.Background()
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			const n = 50
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := range n {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if err := store.Record(ctx, fmt.Sprintf("tt%07d", i), fmt.Sprintf("key-%d", i)); err != nil {
						errs <- err
					}
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("Record: %v", err)
			}
			for i := range n {
				key, ok := store.Lookup(ctx, fmt.Sprintf("tt%07d", i))
				if !ok || key != fmt.Sprintf("key-%d", i) {
					t.Fatalf("mapping %d lost: %q %v", i, key, ok)
				}
			}
		})
	}
}

func TestJSONStoreTwoInstancesShareFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "id-cache.json")
	a := NewJSONStore(path, nil)
	b := NewJSONStore(path, nil)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = a.Record(ctx, fmt.Sprintf("a%d", i), "x")
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = b.Record(ctx, fmt.Sprintf("b%d", i), "y")
		}(i)
	}
	wg.Wait()

	if n, _ := a.Count(ctx); n != 40 {
		t.Fatalf("expected 40 mappings across instances, got %d", n)
	}
}

func TestJSONStoreCorruptFileIsEmptyAndRepairedOnRecord(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "id-cache.json")
	if err := os.WriteFile(path, []byte("{corrupt"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewJSONStore(path, nil)
	if _, ok := store.Lookup(ctx, "tt1"); ok {
		t.Fatal("expected miss on corrupt file")
	}
	if err := store.Record(ctx, "tt1", "bleach"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "{\n  \"tt1\": \"bleach\"\n}" {
		t.Fatalf("unexpected file contents %q", data)
	}
}

func TestJSONStoreReadsExternalWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "id-cache.json")
	store := NewJSONStore(path, nil)
	if err := os.WriteFile(path, []byte(`{"tt2": "one-piece", "tt3": ""}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if key, ok := store.Lookup(ctx, "tt2"); !ok || key != "one-piece" {
		t.Fatalf("expected external write to be visible, got %q %v", key, ok)
	}
	if _, ok := store.Lookup(ctx, "tt3"); ok {
		t.Fatal("empty key should be a miss")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.IdentityCache.Path = filepath.Join(t.TempDir(), "cache.db")
	cfg.IdentityCache.Backend = config.BackendSQLite
	store, err := Open(&cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}

	cfg.IdentityCache.Backend = config.BackendJSON
	store, err = Open(&cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := store.(*JSONStore); !ok {
		t.Fatalf("expected json store, got %T", store)
	}

	cfg.IdentityCache.Backend = "redis"
	if _, err := Open(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
