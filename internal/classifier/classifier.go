package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fillerinfo/internal/episode"
	"fillerinfo/internal/fillerdb"
	"fillerinfo/internal/identitycache"
	"fillerinfo/internal/logging"
	"fillerinfo/internal/matcher"
	"fillerinfo/internal/metadata"
	"fillerinfo/internal/services"
)

// Status is the classification of one episode.
type Status string

const (
	StatusFiller Status = "filler"
	StatusMixed  Status = "mixed"
	StatusCanon  Status = "canon"
	// StatusNoData means the episode could not be classified.
	StatusNoData Status = ""
)

// String renders StatusNoData as "none" for logs and tables.
func (s Status) String() string {
	if s == StatusNoData {
		return "none"
	}
	return string(s)
}

// Outcome records how a classification was reached.
type Outcome struct {
	Query       episode.Query
	DisplayName string
	Key         string
	RecordName  string
	CacheHit    bool
	// Score is the matcher score; zero when the key came from the cache.
	Score           float64
	AbsoluteEpisode int
	Status          Status
	Duration        time.Duration
}

// Classifier wires the collaborators of a classification together. All of
// them are injected so tests can substitute fakes.
type Classifier struct {
	provider   metadata.Provider
	cache      identitycache.Store
	resolver   matcher.Resolver
	source     fillerdb.Source
	reconciler *episode.Reconciler
	logger     *slog.Logger
}

// New builds a Classifier. The reconciler shares provider.
func New(provider metadata.Provider, cache identitycache.Store, resolver matcher.Resolver, source fillerdb.Source, logger *slog.Logger) *Classifier {
	return &Classifier{
		provider:   provider,
		cache:      cache,
		resolver:   resolver,
		source:     source,
		reconciler: episode.NewReconciler(provider, logger),
		logger:     logging.NewComponentLogger(logger, "classifier"),
	}
}

// Classify returns the status of an episode. It never fails: any error or
// panic in a collaborator yields StatusNoData.
func (c *Classifier) Classify(ctx context.Context, identifier string, season, ep int) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logging.WithContext(ctx, c.logger), "classification panicked", "classification_panic",
				logging.String(logging.FieldIdentifier, identifier),
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldErrorHint, "report this as a bug with the identifier"),
			)
			status = StatusNoData
		}
	}()

	outcome, _ := c.Explain(ctx, episode.Query{Identifier: identifier, Season: season, Episode: ep})
	return outcome.Status
}

// Explain runs a classification and returns every intermediate value. On
// error the outcome holds whatever was resolved before the failing step and
// its Status is StatusNoData.
func (c *Classifier) Explain(ctx context.Context, q episode.Query) (Outcome, error) {
	start := time.Now()
	ctx = services.WithIdentifier(ctx, q.Identifier)
	logger := logging.WithContext(ctx, c.logger)

	outcome := Outcome{Query: q}
	err := c.explain(ctx, q, &outcome)
	outcome.Duration = time.Since(start)
	if err != nil {
		outcome.Status = StatusNoData
		logger.Info("episode not classified",
			logging.String(logging.FieldEventType, "classification_"+services.Kind(err)),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String("query", q.String()),
			logging.Error(err))
		return outcome, err
	}

	logger.Info("episode classified",
		logging.String(logging.FieldEventType, "classification_complete"),
		logging.String("query", q.String()),
		logging.String("key", outcome.Key),
		logging.Int("absolute_episode", outcome.AbsoluteEpisode),
		logging.String("status", outcome.Status.String()),
		logging.Bool("cache_hit", outcome.CacheHit),
		logging.Duration("duration", outcome.Duration))
	return outcome, nil
}

func (c *Classifier) explain(ctx context.Context, q episode.Query, outcome *Outcome) error {
	// one snapshot for the whole classification; a reload mid-flight is not observed
	db := c.source.Current()
	if db == nil {
		return services.Wrap(services.ErrConfiguration, "classifier", "load database", "no filler database loaded", nil)
	}

	series, err := c.provider.FindSeries(ctx, q.Identifier)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "classifier", "resolve display name", q.Identifier, err)
	}
	outcome.DisplayName = series.Name

	record, err := c.resolveKey(ctx, q.Identifier, series.Name, db, outcome)
	if err != nil {
		return err
	}
	outcome.RecordName = record.Name

	absolute, err := c.reconciler.Absolute(ctx, q)
	if err != nil {
		return err
	}
	outcome.AbsoluteEpisode = absolute
	outcome.Status = statusOf(record, absolute)
	return nil
}

func (c *Classifier) resolveKey(ctx context.Context, identifier, name string, db *fillerdb.Database, outcome *Outcome) (*fillerdb.Record, error) {
	logger := logging.WithContext(ctx, c.logger)

	if key, ok := c.cache.Lookup(ctx, identifier); ok {
		outcome.Key = key
		outcome.CacheHit = true
		record, found := db.Get(key)
		if !found {
			logging.Decision(logger, "cached key rejected", "key_source", "stale_cache", "cached key missing from database",
				logging.String("key", key))
			// stale mapping from an older database; left in place for an operator to clear
			return nil, services.Wrap(services.ErrNoMatch, "classifier", "resolve key",
				fmt.Sprintf("cached key %q is not in the current database", key), nil)
		}
		logging.Decision(logger, "database key resolved", "key_source", "cache", "identity cache hit",
			logging.String("key", key))
		return record, nil
	}

	match := c.resolver.FindBestMatch(name, db)
	if match == nil {
		logging.Decision(logger, "database key unresolved", "key_source", "none", "resolver found no record",
			logging.String("name", name))
		return nil, services.Wrap(services.ErrNoMatch, "classifier", "resolve key",
			fmt.Sprintf("no database record matches %q", name), nil)
	}
	outcome.Key = match.Key
	outcome.Score = match.Score

	record, found := db.Get(match.Key)
	if !found {
		return nil, services.Wrap(services.ErrNoMatch, "classifier", "resolve key",
			fmt.Sprintf("matched key %q is not in the database", match.Key), nil)
	}

	logging.Decision(logger, "database key resolved", "key_source", "resolver", "identity cache miss",
		logging.String("key", match.Key),
		logging.Float64("score", match.Score))

	if err := c.cache.Record(ctx, identifier, match.Key); err != nil {
		logging.WarnWithContext(logger, "identity cache write failed", "identity_cache_write_failed",
			logging.String("key", match.Key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check identity cache path permissions"),
			logging.String(logging.FieldImpact, "the next lookup repeats fuzzy matching"),
		)
	}
	return record, nil
}

func statusOf(record *fillerdb.Record, absolute int) Status {
	switch {
	case record.Filler.Contains(absolute):
		return StatusFiller
	case record.Mixed.Contains(absolute):
		return StatusMixed
	default:
		return StatusCanon
	}
}
