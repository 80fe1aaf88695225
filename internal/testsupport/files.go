package testsupport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"fillerinfo/internal/fillerdb"
)

// DBEntry is one filler database record for fixtures.
type DBEntry struct {
	Key    string
	Name   string
	Filler []int
	Mixed  []int
}

// Database builds an in-memory database preserving entry order.
func Database(entries ...DBEntry) *fillerdb.Database {
	out := make([]fillerdb.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, fillerdb.Entry{
			Key: e.Key,
			Record: fillerdb.Record{
				Name:   e.Name,
				Filler: fillerdb.NewEpisodeSet(e.Filler...),
				Mixed:  fillerdb.NewEpisodeSet(e.Mixed...),
			},
		})
	}
	return fillerdb.New(out...)
}

// WriteDatabase writes entries as a filler database JSON object, keys in the
// given order.
func WriteDatabase(t testing.TB, path string, entries ...DBEntry) {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, e := range entries {
		key, err := json.Marshal(e.Key)
		if err != nil {
			t.Fatalf("marshal key %q: %v", e.Key, err)
		}
		rec, err := json.Marshal(map[string]any{
			"name":   e.Name,
			"filler": nonNil(e.Filler),
			"mixed":  nonNil(e.Mixed),
		})
		if err != nil {
			t.Fatalf("marshal record %q: %v", e.Key, err)
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(rec)
		if i < len(entries)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	WriteFile(t, path, buf.Bytes())
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
