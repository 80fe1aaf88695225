package metadata

import (
	"context"
	"strings"

	"fillerinfo/internal/services"
)

// KitsuPrefix marks identifiers whose episode numbers are already absolute.
const KitsuPrefix = "kitsu:"

// Source names.
const (
	SourceTMDB  = "tmdb"
	SourceKitsu = "kitsu"
)

// Series is the handle a provider returns for an identifier.
type Series struct {
	// ID is the provider's series identifier, passed back to SeasonEpisodeCount.
	ID           string
	Name         string
	OriginalName string
	Source       string
}

// Provider resolves identifiers to series and reports season sizes.
type Provider interface {
	// FindSeries returns the series for identifier. Unknown identifiers and
	// transport failures are reported with services.ErrNotFound.
	FindSeries(ctx context.Context, identifier string) (*Series, error)
	// SeasonEpisodeCount returns the number of episodes in season. Failures
	// are reported with services.ErrMetadataUnavailable.
	SeasonEpisodeCount(ctx context.Context, seriesID string, season int) (int, error)
}

// IsKitsu reports whether identifier uses the kitsu:<id> scheme.
func IsKitsu(identifier string) bool {
	return strings.HasPrefix(identifier, KitsuPrefix)
}

// Router sends kitsu: identifiers to Kitsu and everything else to TMDB.
type Router struct {
	TMDB  Provider
	Kitsu Provider
}

// FindSeries implements Provider.
func (r Router) FindSeries(ctx context.Context, identifier string) (*Series, error) {
	return r.pick(identifier).FindSeries(ctx, identifier)
}

// SeasonEpisodeCount implements Provider.
func (r Router) SeasonEpisodeCount(ctx context.Context, seriesID string, season int) (int, error) {
	return r.pick(seriesID).SeasonEpisodeCount(ctx, seriesID, season)
}

func (r Router) pick(id string) Provider {
	var p Provider
	if IsKitsu(id) {
		p = r.Kitsu
	} else {
		p = r.TMDB
	}
	if p == nil {
		return Unavailable{Reason: "no provider configured for " + id}
	}
	return p
}

// Unavailable is a Provider that fails every call, used when a source is not
// configured (for example a missing TMDB API key).
type Unavailable struct {
	Reason string
}

// FindSeries implements Provider.
func (u Unavailable) FindSeries(context.Context, string) (*Series, error) {
	return nil, services.Wrap(services.ErrNotFound, "metadata", "find series", u.Reason, services.ErrConfiguration)
}

// SeasonEpisodeCount implements Provider.
func (u Unavailable) SeasonEpisodeCount(context.Context, string, int) (int, error) {
	return 0, services.Wrap(services.ErrMetadataUnavailable, "metadata", "season episode count", u.Reason, services.ErrConfiguration)
}
