package fillerdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Entry pairs a database key with its record.
type Entry struct {
	Key    string
	Record Record
}

// Database is an immutable, ordered key to record mapping.
type Database struct {
	keys    []string
	records map[string]*Record
	origin  string
}

// New builds a database from entries in the given order. A repeated key keeps
// its first position and takes the last record, the same as a JSON object.
func New(entries ...Entry) *Database {
	db := &Database{records: make(map[string]*Record, len(entries))}
	for _, entry := range entries {
		db.put(entry.Key, entry.Record)
	}
	return db
}

func (db *Database) put(key string, rec Record) {
	if _, exists := db.records[key]; !exists {
		db.keys = append(db.keys, key)
	}
	stored := rec
	db.records[key] = &stored
}

// Keys returns the database keys in file order.
func (db *Database) Keys() []string {
	if db == nil {
		return nil
	}
	out := make([]string, len(db.keys))
	copy(out, db.keys)
	return out
}

// Get returns the record stored under key.
func (db *Database) Get(key string) (*Record, bool) {
	if db == nil {
		return nil, false
	}
	rec, ok := db.records[key]
	return rec, ok
}

// Len returns the number of records.
func (db *Database) Len() int {
	if db == nil {
		return 0
	}
	return len(db.keys)
}

// Origin describes where the database was loaded from: a file path or "embedded".
func (db *Database) Origin() string {
	if db == nil {
		return ""
	}
	return db.origin
}

// Entries returns every key and record in file order.
func (db *Database) Entries() []Entry {
	if db == nil {
		return nil
	}
	out := make([]Entry, 0, len(db.keys))
	for _, key := range db.keys {
		out = append(out, Entry{Key: key, Record: *db.records[key]})
	}
	return out
}

// Parse decodes a filler database JSON object, keeping the key order of the input.
func Parse(r io.Reader) (*Database, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read database: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("database must be a JSON object")
	}

	db := &Database{records: make(map[string]*Record)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read database key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode record %q: %w", key, err)
		}
		db.put(key, rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read database end: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after database object")
	}
	return db, nil
}
