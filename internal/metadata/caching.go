package metadata

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"fillerinfo/internal/logging"
)

// CachingProvider memoizes an inner Provider. Only successful results are
// cached, so a transient failure is retried on the next classification.
type CachingProvider struct {
	inner  Provider
	cache  Cache
	group  singleflight.Group
	logger *slog.Logger
}

// NewCachingProvider wraps inner. A nil cache disables memoization but keeps
// request collapsing.
func NewCachingProvider(inner Provider, cache Cache, logger *slog.Logger) *CachingProvider {
	if cache == nil {
		cache = NopCache{}
	}
	return &CachingProvider{
		inner:  inner,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "metadata_cache"),
	}
}

// FindSeries implements Provider.
func (p *CachingProvider) FindSeries(ctx context.Context, identifier string) (*Series, error) {
	key := "series:" + identifier
	if v, ok := p.cache.Get(key); ok {
		p.logger.Debug("series cache hit", logging.String(logging.FieldIdentifier, identifier))
		return v.(*Series), nil
	}
	v, err := p.shared(ctx, key, func(ctx context.Context) (any, error) {
		series, err := p.inner.FindSeries(ctx, identifier)
		if err != nil {
			return nil, err
		}
		p.cache.Add(key, series)
		return series, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Series), nil
}

// SeasonEpisodeCount implements Provider.
func (p *CachingProvider) SeasonEpisodeCount(ctx context.Context, seriesID string, season int) (int, error) {
	key := fmt.Sprintf("season:%s:%d", seriesID, season)
	if v, ok := p.cache.Get(key); ok {
		return v.(int), nil
	}
	v, err := p.shared(ctx, key, func(ctx context.Context) (any, error) {
		count, err := p.inner.SeasonEpisodeCount(ctx, seriesID, season)
		if err != nil {
			return 0, err
		}
		p.cache.Add(key, count)
		return count, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// shared runs fn once per key across concurrent callers. The shared call keeps
// the first caller's values but not its deadline, so one caller giving up does
// not fail the others; each caller still returns as soon as its own ctx ends.
func (p *CachingProvider) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}
