package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fillerinfo/internal/metadata"
	"fillerinfo/internal/metadata/tmdb"
	"fillerinfo/internal/services"
)

func newClient(t *testing.T, handler http.HandlerFunc) *tmdb.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := tmdb.New("key", server.URL, "en-US", tmdb.WithRetry(3, time.Millisecond), tmdb.WithRateLimit(0))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
	if _, err := tmdb.New("key", " ", "en-US"); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestFindSeriesUsesFirstTVResult(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/find/tt0409591" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "key" || r.URL.Query().Get("external_source") != "imdb_id" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"movie_results":[],"tv_results":[{"id":46260,"name":"Naruto","original_name":"ナルト"},{"id":1,"name":"Other"}]}`))
	})

	series, err := client.FindSeries(context.Background(), "tt0409591")
	if err != nil {
		t.Fatalf("FindSeries returned error: %v", err)
	}
	if series.ID != "46260" || series.Name != "Naruto" || series.OriginalName != "ナルト" || series.Source != metadata.SourceTMDB {
		t.Fatalf("unexpected series %+v", series)
	}
}

func TestFindSeriesNoResults(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tv_results":[]}`))
	})
	_, err := client.FindSeries(context.Background(), "tt0000001")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSeasonEpisodeCount(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/46260/season/2" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"season_number":2,"episodes":[{"episode_number":1},{"episode_number":2},{"episode_number":3}]}`))
	})
	count, err := client.SeasonEpisodeCount(context.Background(), "46260", 2)
	if err != nil {
		t.Fatalf("SeasonEpisodeCount returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 episodes, got %d", count)
	}
}

func TestSeasonEpisodeCountInvalidID(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := client.SeasonEpisodeCount(context.Background(), "kitsu:1", 1); !errors.Is(err, services.ErrMetadataUnavailable) {
		t.Fatalf("expected ErrMetadataUnavailable, got %v", err)
	}
}

func TestRetriesServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"episodes":[{},{}]}`))
	})
	count, err := client.SeasonEpisodeCount(context.Background(), "1", 1)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if count != 2 || calls.Load() != 3 {
		t.Fatalf("count=%d calls=%d", count, calls.Load())
	}
}

func TestDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := client.GetSeasonDetails(context.Background(), 1, 99)
	if !metadata.IsNotFound(err) {
		t.Fatalf("expected 404 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})
	if _, err := client.FindByIMDBID(context.Background(), "tt1"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}
