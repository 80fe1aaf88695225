package testsupport

import (
	"context"
	"fmt"
	"sync"

	"fillerinfo/internal/metadata"
	"fillerinfo/internal/services"
)

// FakeProvider is an in-memory metadata.Provider that counts calls.
type FakeProvider struct {
	mu sync.Mutex
	// Series maps identifier to the series returned by FindSeries.
	Series map[string]*metadata.Series
	// Seasons maps series ID to per-season episode counts, index 0 being season 1.
	Seasons map[string][]int
	// FailSeasons lists seasons that report ErrMetadataUnavailable.
	FailSeasons map[int]bool
	// OnSeason, when set, runs inside every SeasonEpisodeCount call after the context check.
	OnSeason func(season int)

	findCalls   int
	seasonCalls int
}

// NewFakeProvider returns an empty provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Series:      make(map[string]*metadata.Series),
		Seasons:     make(map[string][]int),
		FailSeasons: make(map[int]bool),
	}
}

// AddSeries registers identifier with the given display name and season sizes.
// The series ID is the identifier itself.
func (p *FakeProvider) AddSeries(identifier, name string, seasons ...int) *FakeProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Series[identifier] = &metadata.Series{ID: identifier, Name: name, OriginalName: name, Source: "fake"}
	p.Seasons[identifier] = seasons
	return p
}

// FindSeries implements metadata.Provider.
func (p *FakeProvider) FindSeries(ctx context.Context, identifier string) (*metadata.Series, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.findCalls++
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "fake", "find series", identifier, err)
	}
	series, ok := p.Series[identifier]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "fake", "find series", identifier, nil)
	}
	copied := *series
	return &copied, nil
}

// SeasonEpisodeCount implements metadata.Provider.
func (p *FakeProvider) SeasonEpisodeCount(ctx context.Context, seriesID string, season int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seasonCalls++
	if err := ctx.Err(); err != nil {
		return 0, services.Wrap(services.ErrMetadataUnavailable, "fake", "season episode count", seriesID, err)
	}
	if p.OnSeason != nil {
		p.OnSeason(season)
	}
	counts := p.Seasons[seriesID]
	if p.FailSeasons[season] || season < 1 || season > len(counts) {
		return 0, services.Wrap(services.ErrMetadataUnavailable, "fake", "season episode count",
			fmt.Sprintf("%s season %d", seriesID, season), nil)
	}
	return counts[season-1], nil
}

// FindCalls returns how many times FindSeries ran.
func (p *FakeProvider) FindCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.findCalls
}

// SeasonCalls returns how many times SeasonEpisodeCount ran.
func (p *FakeProvider) SeasonCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seasonCalls
}
