package fillerdb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParsePreservesKeyOrder(t *testing.T) {
	input := `{
		"zeta": {"name": "Zeta", "filler": [1], "mixed": []},
		"alpha": {"name": "Alpha", "filler": [], "mixed": [2]},
		"mid": {"name": "Mid"}
	}`
	db, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := db.Keys(); !slices.Equal(got, []string{"zeta", "alpha", "mid"}) {
		t.Fatalf("unexpected key order: %v", got)
	}
	rec, ok := db.Get("alpha")
	if !ok || rec.Name != "Alpha" || !rec.Mixed.Contains(2) || rec.Filler.Contains(2) {
		t.Fatalf("unexpected alpha record: %+v", rec)
	}
	mid, _ := db.Get("mid")
	if mid.Filler.Contains(1) || len(mid.Mixed) != 0 {
		t.Fatalf("expected empty sets for mid, got %+v", mid)
	}
}

func TestParseDuplicateKeyKeepsFirstPosition(t *testing.T) {
	input := `{"a": {"name": "A1"}, "b": {"name": "B"}, "a": {"name": "A2"}}`
	db, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !slices.Equal(db.Keys(), []string{"a", "b"}) {
		t.Fatalf("unexpected keys: %v", db.Keys())
	}
	if rec, _ := db.Get("a"); rec.Name != "A2" {
		t.Fatalf("expected last record to win, got %q", rec.Name)
	}
}

func TestParseRejectsNonObject(t *testing.T) {
	for _, input := range []string{`[]`, `"x"`, `{"a": 1}`, `{"a": {"name": "A"}`} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	for _, input := range []string{
		`{"a": {"name": "A"}} {"b": {"name": "B"}}`,
		`{"a": {"name": "A"}} garbage`,
		`{"a": {"name": "A"}}]`,
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
	db, err := Parse(strings.NewReader("{\"a\": {\"name\": \"A\"}}\n\n"))
	if err != nil {
		t.Fatalf("trailing whitespace should be accepted: %v", err)
	}
	if db.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", db.Len())
	}
}

func TestFallbackDatabase(t *testing.T) {
	db := Fallback()
	if !slices.Equal(db.Keys(), []string{"naruto", "detective-conan", "bleach"}) {
		t.Fatalf("unexpected fallback keys: %v", db.Keys())
	}
	if db.Origin() != OriginEmbedded {
		t.Fatalf("unexpected origin %q", db.Origin())
	}
	naruto, _ := db.Get("naruto")
	for _, ep := range []int{26, 97, 101, 136, 220} {
		if !naruto.Filler.Contains(ep) {
			t.Errorf("expected naruto filler to contain %d", ep)
		}
	}
	for _, ep := range []int{27, 185, 189} {
		if !naruto.Mixed.Contains(ep) {
			t.Errorf("expected naruto mixed to contain %d", ep)
		}
	}
	bleach, _ := db.Get("bleach")
	if !bleach.Filler.Contains(355) || bleach.Filler.Contains(1) {
		t.Fatal("unexpected bleach filler set")
	}
}

func TestLoadFallsBackWhenMissing(t *testing.T) {
	db := Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	if db.Origin() != OriginEmbedded {
		t.Fatalf("expected embedded fallback, got %q", db.Origin())
	}
}

func TestLoadFallsBackWhenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filler-data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if db := Load(path, nil); db.Origin() != OriginEmbedded {
		t.Fatalf("expected embedded fallback, got %q", db.Origin())
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filler-data.json")
	if err := os.WriteFile(path, []byte(`{"one-piece": {"name": "One Piece", "filler": [54, 55], "mixed": []}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	db := Load(path, nil)
	if db.Origin() != path || db.Len() != 1 {
		t.Fatalf("unexpected database: origin=%q len=%d", db.Origin(), db.Len())
	}
}

func TestRecordMarshalSortsEpisodes(t *testing.T) {
	rec := Record{Name: "X", Filler: NewEpisodeSet(5, 1, 3), Mixed: NewEpisodeSet()}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"name":"X","filler":[1,3,5],"mixed":[]}` {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestHolderSwap(t *testing.T) {
	first := New(Entry{Key: "a", Record: Record{Name: "A"}})
	second := New(Entry{Key: "b", Record: Record{Name: "B"}})
	h := NewHolder(first)
	if h.Current() != first {
		t.Fatal("expected first database")
	}
	if prev := h.Swap(second); prev != first {
		t.Fatal("expected swap to return previous database")
	}
	if h.Current() != second {
		t.Fatal("expected second database")
	}
}

func TestNilDatabaseAccessors(t *testing.T) {
	var db *Database
	if db.Len() != 0 || db.Keys() != nil || db.Entries() != nil {
		t.Fatal("nil database should be empty")
	}
	if _, ok := db.Get("x"); ok {
		t.Fatal("nil database should not return records")
	}
}
