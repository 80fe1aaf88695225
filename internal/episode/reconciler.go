package episode

import (
	"context"
	"fmt"
	"log/slog"

	"fillerinfo/internal/logging"
	"fillerinfo/internal/metadata"
	"fillerinfo/internal/services"
)

// Result explains how an absolute number was reached.
type Result struct {
	Absolute int
	// Direct is true for identifiers whose numbering is already absolute.
	Direct   bool
	SeriesID string
	// SeasonCounts holds the count used for each earlier season, index 0 being season 1.
	SeasonCounts []int
	// MissingSeasons lists seasons whose count was unavailable and counted as zero.
	MissingSeasons []int
}

// Reconciler computes absolute episode numbers.
type Reconciler struct {
	provider metadata.Provider
	logger   *slog.Logger
}

// NewReconciler builds a Reconciler on top of provider.
func NewReconciler(provider metadata.Provider, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		provider: provider,
		logger:   logging.NewComponentLogger(logger, "episode"),
	}
}

// Absolute returns the absolute episode number for q. It fails when the series
// cannot be resolved or ctx ends before every earlier season was counted.
func (r *Reconciler) Absolute(ctx context.Context, q Query) (int, error) {
	res, err := r.Reconcile(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.Absolute, nil
}

// Reconcile is Absolute with the per-season breakdown.
func (r *Reconciler) Reconcile(ctx context.Context, q Query) (Result, error) {
	switch ref := ParseRef(q).(type) {
	case DirectEpisode:
		return Result{Absolute: ref.Episode, Direct: true, SeriesID: ref.Identifier}, nil
	case SeasonedEpisode:
		return r.reconcileSeasoned(ctx, ref)
	default:
		return Result{}, services.Wrap(services.ErrValidation, "episode", "reconcile", "unknown identifier scheme", nil)
	}
}

func (r *Reconciler) reconcileSeasoned(ctx context.Context, ref SeasonedEpisode) (Result, error) {
	logger := logging.WithContext(ctx, r.logger)

	series, err := r.provider.FindSeries(ctx, ref.Identifier)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, "episode", "resolve series", ref.Identifier, err)
	}

	res := Result{SeriesID: series.ID}
	total := 0
	for s := 1; s < ref.Season; s++ {
		if err := ctx.Err(); err != nil {
			return Result{}, services.Wrap(services.ErrMetadataUnavailable, "episode", "season episode count",
				fmt.Sprintf("%s stopped before season %d", series.ID, s), err)
		}
		count, err := r.provider.SeasonEpisodeCount(ctx, series.ID, s)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, services.Wrap(services.ErrMetadataUnavailable, "episode", "season episode count",
					fmt.Sprintf("%s season %d", series.ID, s), err)
			}
			logging.WarnWithContext(logger, "season metadata unavailable, counting as zero", "season_metadata_unavailable",
				logging.String("series_id", series.ID),
				logging.Int("season", s),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check metadata provider availability"),
				logging.String(logging.FieldImpact, "absolute episode number may be too low"),
			)
			res.MissingSeasons = append(res.MissingSeasons, s)
			count = 0
		}
		res.SeasonCounts = append(res.SeasonCounts, count)
		total += count
	}
	res.Absolute = total + ref.Episode

	logger.Debug("absolute episode computed",
		logging.String(logging.FieldIdentifier, ref.Identifier),
		logging.Int("season", ref.Season),
		logging.Int("episode", ref.Episode),
		logging.Int("absolute", res.Absolute))
	return res, nil
}
