package fillerdb

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"fillerinfo/internal/logging"
)

// OriginEmbedded marks the built-in fallback database.
const OriginEmbedded = "embedded"

//go:embed fallback.json
var fallbackJSON []byte

var fallbackOnce = sync.OnceValue(func() *Database {
	db, err := Parse(bytes.NewReader(fallbackJSON))
	if err != nil {
		panic(fmt.Sprintf("embedded filler database is invalid: %v", err))
	}
	db.origin = OriginEmbedded
	return db
})

// Fallback returns the built-in database covering a few long-running series.
func Fallback() *Database {
	return fallbackOnce()
}

// ReadFile parses the database stored at path.
func ReadFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	db, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	db.origin = path
	return db, nil
}

// Load reads the database at path. A missing or unreadable file yields the
// fallback database and a warning; Load never returns nil.
func Load(path string, logger *slog.Logger) *Database {
	logger = logging.NewComponentLogger(logger, "fillerdb")

	if path == "" {
		logger.Info("no filler database configured, using built-in data")
		return Fallback()
	}

	db, err := ReadFile(path)
	if err != nil {
		hint := "run the scraper to produce the database file"
		if !errors.Is(err, fs.ErrNotExist) {
			hint = "fix or regenerate the database file"
		}
		logging.WarnWithContext(logger, "filler database unavailable, using built-in data", "filler_db_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "only a handful of series can be classified"),
		)
		return Fallback()
	}

	logger.Info("loaded filler database",
		logging.String("path", path),
		logging.Int("series_count", db.Len()),
	)
	return db
}
