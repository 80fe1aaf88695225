package fillerdb

import (
	"sync/atomic"
	"time"
)

// Source yields the database a caller should read for one operation.
type Source interface {
	Current() *Database
}

// Static is a Source that never changes.
type Static struct {
	DB *Database
}

// Current implements Source.
func (s Static) Current() *Database { return s.DB }

// Holder publishes the current database to concurrent readers. Readers that
// took a pointer keep a consistent snapshot while a reload swaps in a new one.
type Holder struct {
	current  atomic.Pointer[Database]
	loadedAt atomic.Int64
}

// NewHolder returns a holder publishing db.
func NewHolder(db *Database) *Holder {
	h := &Holder{}
	h.current.Store(db)
	h.loadedAt.Store(time.Now().UnixNano())
	return h
}

// Current implements Source.
func (h *Holder) Current() *Database {
	return h.current.Load()
}

// Swap publishes db and returns the previous database.
func (h *Holder) Swap(db *Database) *Database {
	prev := h.current.Swap(db)
	h.loadedAt.Store(time.Now().UnixNano())
	return prev
}

// LoadedAt reports when the current database was published.
func (h *Holder) LoadedAt() time.Time {
	return time.Unix(0, h.loadedAt.Load())
}
