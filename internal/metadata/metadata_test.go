package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fillerinfo/internal/services"
)

type countingProvider struct {
	mu           sync.Mutex
	seriesCalls  int
	seasonCalls  int
	failSeries   bool
	seasonCounts map[int]int
	block        chan struct{}
}

func (p *countingProvider) FindSeries(ctx context.Context, identifier string) (*Series, error) {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	p.seriesCalls++
	p.mu.Unlock()
	if p.failSeries {
		return nil, services.Wrap(services.ErrNotFound, "test", "find", identifier, nil)
	}
	return &Series{ID: "1", Name: "Naruto", Source: SourceTMDB}, nil
}

func (p *countingProvider) SeasonEpisodeCount(ctx context.Context, seriesID string, season int) (int, error) {
	p.mu.Lock()
	p.seasonCalls++
	p.mu.Unlock()
	count, ok := p.seasonCounts[season]
	if !ok {
		return 0, services.Wrap(services.ErrMetadataUnavailable, "test", "season", "", nil)
	}
	return count, nil
}

func TestCachingProviderMemoizes(t *testing.T) {
	inner := &countingProvider{seasonCounts: map[int]int{1: 13}}
	p := NewCachingProvider(inner, NewLRUCache(16, time.Hour), nil)
	ctx := context.Background()

	for range 3 {
		if _, err := p.FindSeries(ctx, "tt1"); err != nil {
			t.Fatalf("FindSeries: %v", err)
		}
		if n, err := p.SeasonEpisodeCount(ctx, "1", 1); err != nil || n != 13 {
			t.Fatalf("SeasonEpisodeCount = %d, %v", n, err)
		}
	}
	if inner.seriesCalls != 1 || inner.seasonCalls != 1 {
		t.Fatalf("expected one inner call each, got series=%d season=%d", inner.seriesCalls, inner.seasonCalls)
	}
}

func TestCachingProviderDoesNotCacheFailures(t *testing.T) {
	inner := &countingProvider{failSeries: true}
	p := NewCachingProvider(inner, NewLRUCache(16, time.Hour), nil)
	ctx := context.Background()
	for range 2 {
		if _, err := p.FindSeries(ctx, "tt1"); !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := p.SeasonEpisodeCount(ctx, "1", 5); !errors.Is(err, services.ErrMetadataUnavailable) {
			t.Fatalf("expected ErrMetadataUnavailable, got %v", err)
		}
	}
	if inner.seriesCalls != 2 || inner.seasonCalls != 2 {
		t.Fatalf("failures should not be cached, got series=%d season=%d", inner.seriesCalls, inner.seasonCalls)
	}
}

func TestCachingProviderCollapsesConcurrentLookups(t *testing.T) {
	inner := &countingProvider{block: make(chan struct{})}
	p := NewCachingProvider(inner, NopCache{}, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.FindSeries(context.Background(), "tt1")
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(inner.block)
	wg.Wait()

	if inner.seriesCalls >= 8 {
		t.Fatalf("expected concurrent lookups to collapse, got %d inner calls", inner.seriesCalls)
	}
}

type gatedProvider struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (p *gatedProvider) FindSeries(ctx context.Context, identifier string) (*Series, error) {
	p.calls.Add(1)
	p.entered <- struct{}{}
	<-p.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Series{ID: "46260", Name: "Naruto", Source: SourceTMDB}, nil
}

func (p *gatedProvider) SeasonEpisodeCount(context.Context, string, int) (int, error) {
	return 0, nil
}

func TestCachingProviderCallerCancelDoesNotFailOthers(t *testing.T) {
	inner := &gatedProvider{entered: make(chan struct{}, 1), release: make(chan struct{})}
	p := NewCachingProvider(inner, NopCache{}, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := p.FindSeries(firstCtx, "tt0409591")
		firstErr <- err
	}()
	<-inner.entered

	type result struct {
		series *Series
		err    error
	}
	second := make(chan result, 1)
	go func() {
		series, err := p.FindSeries(context.Background(), "tt0409591")
		second <- result{series, err}
	}()

	cancelFirst()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled caller to return context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("canceled caller did not return")
	}

	time.Sleep(20 * time.Millisecond)
	close(inner.release)
	select {
	case res := <-second:
		if res.err != nil || res.series == nil || res.series.ID != "46260" {
			t.Fatalf("expected live caller to get the series, got %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("live caller did not return")
	}
	if calls := inner.calls.Load(); calls != 1 {
		t.Fatalf("expected one shared inner call, got %d", calls)
	}
}

func TestLRUCacheBounded(t *testing.T) {
	c := NewLRUCache(2, time.Hour)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected oldest entry to be evicted")
	}
}

func TestRouterDispatchesByScheme(t *testing.T) {
	tmdb := &countingProvider{}
	kitsu := &countingProvider{}
	r := Router{TMDB: tmdb, Kitsu: kitsu}
	ctx := context.Background()

	_, _ = r.FindSeries(ctx, "kitsu:11")
	_, _ = r.FindSeries(ctx, "tt0409591")
	_, _ = r.FindSeries(ctx, "tt0988824")
	if kitsu.seriesCalls != 1 || tmdb.seriesCalls != 2 {
		t.Fatalf("unexpected dispatch kitsu=%d tmdb=%d", kitsu.seriesCalls, tmdb.seriesCalls)
	}

	empty := Router{}
	if _, err := empty.FindSeries(ctx, "tt1"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from unconfigured router, got %v", err)
	}
	if _, err := empty.SeasonEpisodeCount(ctx, "1", 1); !errors.Is(err, services.ErrMetadataUnavailable) {
		t.Fatalf("expected ErrMetadataUnavailable from unconfigured router, got %v", err)
	}
}

func TestFetcherRetriesAndDecodes(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"value": 7}`))
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{Source: "test", RetryDelay: time.Millisecond})
	var out struct {
		Value int `json:"value"`
	}
	if err := f.GetJSON(context.Background(), "fetch season", server.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Value != 7 || calls.Load() != 2 {
		t.Fatalf("value=%d calls=%d", out.Value, calls.Load())
	}
}

func TestFetcherDoesNotRetryDecodeErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{Source: "test", RetryDelay: time.Millisecond})
	var out map[string]any
	if err := f.GetJSON(context.Background(), "fetch season", server.URL, &out); err == nil {
		t.Fatal("expected decode error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one attempt, got %d", calls.Load())
	}
}
