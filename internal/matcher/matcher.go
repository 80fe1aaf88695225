package matcher

import (
	"log/slog"
	"slices"

	"fillerinfo/internal/config"
	"fillerinfo/internal/fillerdb"
	"fillerinfo/internal/logging"
	"fillerinfo/internal/textutil"
)

// DefaultThreshold is the minimum fuzzy similarity accepted as a match.
const DefaultThreshold = 0.7

// Match is the selected database record.
type Match struct {
	Key   string
	Score float64
	Name  string
}

// Resolver resolves a display name to a database record. It returns nil when
// nothing scores at or above the threshold.
type Resolver interface {
	FindBestMatch(name string, db *fillerdb.Database) *Match
}

// Options tunes the matcher.
type Options struct {
	Threshold float64
	// TieBreak is config.TieBreakOrder (database order) or config.TieBreakKey
	// (lexicographic key order).
	TieBreak string
	Logger   *slog.Logger
}

// Matcher is the default Resolver.
type Matcher struct {
	threshold float64
	byKey     bool
	logger    *slog.Logger
}

// New builds a Matcher. A non-positive threshold falls back to DefaultThreshold.
func New(opts Options) *Matcher {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{
		threshold: threshold,
		byKey:     opts.TieBreak == config.TieBreakKey,
		logger:    logging.NewComponentLogger(opts.Logger, "matcher"),
	}
}

// NewFromConfig builds a Matcher from the [matching] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Matcher {
	if cfg == nil {
		return New(Options{Logger: logger})
	}
	return New(Options{
		Threshold: cfg.Matching.Threshold,
		TieBreak:  cfg.Matching.TieBreak,
		Logger:    logger,
	})
}

// Threshold returns the effective minimum fuzzy score.
func (m *Matcher) Threshold() float64 { return m.threshold }

// FindBestMatch implements Resolver.
func (m *Matcher) FindBestMatch(name string, db *fillerdb.Database) *Match {
	keys := db.Keys()
	if len(keys) == 0 {
		return nil
	}
	if m.byKey {
		slices.Sort(keys)
	}

	target := textutil.Normalize(name)
	for _, key := range keys {
		rec, _ := db.Get(key)
		if textutil.Normalize(rec.Name) == target {
			logging.Decision(m.logger, "title resolved", "title_match", "exact", "normalized names are equal",
				logging.String("query", name),
				logging.String("key", key))
			return &Match{Key: key, Score: 1.0, Name: rec.Name}
		}
	}

	var best *Match
	bestScore := 0.0
	for _, key := range keys {
		rec, _ := db.Get(key)
		score := textutil.Similarity(name, rec.Name)
		if score > bestScore && score >= m.threshold {
			bestScore = score
			best = &Match{Key: key, Score: score, Name: rec.Name}
		}
	}

	if best == nil {
		logging.Decision(m.logger, "title unresolved", "title_match", "none", "no candidate reached the threshold",
			logging.String("query", name),
			logging.Float64("threshold", m.threshold),
			logging.Int("candidates", len(keys)))
		return nil
	}
	logging.Decision(m.logger, "title resolved", "title_match", "fuzzy", "highest similarity at or above the threshold",
		logging.String("query", name),
		logging.String("key", best.Key),
		logging.String("matched_name", best.Name),
		logging.Float64("score", best.Score))
	return best
}

var defaultMatcher = New(Options{})

// FindBestMatch resolves name against db with the default threshold and
// database-order tie-break.
func FindBestMatch(name string, db *fillerdb.Database) *Match {
	return defaultMatcher.FindBestMatch(name, db)
}
