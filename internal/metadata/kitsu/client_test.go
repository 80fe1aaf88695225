package kitsu_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fillerinfo/internal/metadata"
	"fillerinfo/internal/metadata/kitsu"
	"fillerinfo/internal/services"
)

func newClient(t *testing.T, handler http.HandlerFunc) *kitsu.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := kitsu.New(server.URL, kitsu.WithRetry(2, time.Millisecond))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestFindSeries(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime/11" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Accept") != "application/vnd.api+json" {
			t.Errorf("missing JSON:API accept header")
		}
		_, _ = w.Write([]byte(`{"data":{"id":"11","type":"anime","attributes":{"canonicalTitle":"Naruto","titles":{"en":"Naruto","ja_jp":"ナルト"},"episodeCount":220}}}`))
	})

	series, err := client.FindSeries(context.Background(), "kitsu:11")
	if err != nil {
		t.Fatalf("FindSeries returned error: %v", err)
	}
	if series.ID != "kitsu:11" || series.Name != "Naruto" || series.OriginalName != "ナルト" || series.Source != metadata.SourceKitsu {
		t.Fatalf("unexpected series %+v", series)
	}
}

func TestFindSeriesFallsBackToEnglishTitle(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"attributes":{"canonicalTitle":"","titles":{"en":"Bleach"}}}}`))
	})
	series, err := client.FindSeries(context.Background(), "kitsu:244")
	if err != nil || series.Name != "Bleach" {
		t.Fatalf("unexpected result %+v, %v", series, err)
	}
}

func TestFindSeriesNotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if _, err := client.FindSeries(context.Background(), "kitsu:999999"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := client.FindSeries(context.Background(), "tt123"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign identifier, got %v", err)
	}
}

func TestSeasonEpisodeCountUnavailable(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := client.SeasonEpisodeCount(context.Background(), "kitsu:11", 1); !errors.Is(err, services.ErrMetadataUnavailable) {
		t.Fatalf("expected ErrMetadataUnavailable, got %v", err)
	}
}
