package addon_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"fillerinfo/internal/addon"
	"fillerinfo/internal/classifier"
	"fillerinfo/internal/fillerdb"
	"fillerinfo/internal/identitycache"
	"fillerinfo/internal/logging"
	"fillerinfo/internal/testsupport"
)

type call struct {
	identifier string
	season     int
	episode    int
}

type stubClassifier struct {
	mu     sync.Mutex
	status classifier.Status
	calls  []call
}

func (s *stubClassifier) Classify(_ context.Context, identifier string, season, episode int) classifier.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{identifier, season, episode})
	return s.status
}

func newTestServer(t *testing.T, cls addon.Classifier, rateLimit int) *httptest.Server {
	t.Helper()
	holder := fillerdb.NewHolder(testsupport.Database(
		testsupport.DBEntry{Key: "naruto", Name: "Naruto", Filler: []int{26}},
	))
	cache := identitycache.NewJSONStore(filepath.Join(t.TempDir(), "id-cache.json"), logging.NewNop())
	srv := addon.New(addon.Options{
		Classifier:         cls,
		Database:           holder,
		Cache:              cache,
		RateLimitPerMinute: rateLimit,
		Logger:             logging.NewNop(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestManifest(t *testing.T) {
	ts := newTestServer(t, &stubClassifier{}, 0)

	var m addon.Manifest
	resp := getJSON(t, ts.URL+"/manifest.json", &m)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if m.ID != "org.animefiller" || m.Name != "Anime Filler Info" {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if len(m.Resources) != 1 || m.Resources[0] != "stream" {
		t.Fatalf("unexpected resources %v", m.Resources)
	}
	if len(m.Types) != 1 || m.Types[0] != "series" {
		t.Fatalf("unexpected types %v", m.Types)
	}
	if strings.Join(m.IDPrefixes, ",") != "tt,kitsu" {
		t.Fatalf("unexpected prefixes %v", m.IDPrefixes)
	}
	if m.Catalogs == nil {
		t.Fatal("catalogs should encode as an empty list")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected permissive CORS header")
	}
	if resp.Header.Get(addon.HeaderRequestID) == "" {
		t.Fatal("expected request id header")
	}
}

func TestStreamTitles(t *testing.T) {
	tests := []struct {
		status classifier.Status
		prefix string
	}{
		{classifier.StatusFiller, "🚫 FILLER EPISODE"},
		{classifier.StatusMixed, "⚡ MIXED CONTENT"},
		{classifier.StatusCanon, "✅ CANON EPISODE"},
		{classifier.StatusNoData, "ℹ️ NO DATA AVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			ts := newTestServer(t, &stubClassifier{status: tt.status}, 0)

			var body addon.StreamResponse
			getJSON(t, ts.URL+"/stream/series/tt0409591:1:26.json", &body)
			if len(body.Streams) != 1 {
				t.Fatalf("expected one stream, got %d", len(body.Streams))
			}
			stream := body.Streams[0]
			if stream.Name != "Anime Filler Info" || stream.ExternalURL != addon.ExternalURL {
				t.Fatalf("unexpected stream %+v", stream)
			}
			if !strings.HasPrefix(stream.Title, tt.prefix) {
				t.Fatalf("title %q does not start with %q", stream.Title, tt.prefix)
			}
		})
	}
}

func TestStreamParsesIdentifiers(t *testing.T) {
	cls := &stubClassifier{status: classifier.StatusCanon}
	ts := newTestServer(t, cls, 0)

	getJSON(t, ts.URL+"/stream/series/tt0409591:2:5.json", &addon.StreamResponse{})
	getJSON(t, ts.URL+"/stream/series/kitsu:11:220.json", &addon.StreamResponse{})
	getJSON(t, ts.URL+"/stream/series/tt0409591%3A1%3A3.json", &addon.StreamResponse{})

	want := []call{
		{"tt0409591", 2, 5},
		{"kitsu:11", 1, 220},
		{"tt0409591", 1, 3},
	}
	if len(cls.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), cls.calls)
	}
	for i := range want {
		if cls.calls[i] != want[i] {
			t.Fatalf("call %d: got %+v, want %+v", i, cls.calls[i], want[i])
		}
	}
}

func TestStreamIgnoresUnsupportedRequests(t *testing.T) {
	cls := &stubClassifier{status: classifier.StatusFiller}
	ts := newTestServer(t, cls, 0)

	for _, path := range []string{
		"/stream/movie/tt0409591.json",
		"/stream/series/tt0409591.json",
		"/stream/series/tt0409591:1.json",
		"/stream/series/tt0409591:one:two.json",
	} {
		var body addon.StreamResponse
		resp := getJSON(t, ts.URL+path, &body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
		if body.Streams == nil || len(body.Streams) != 0 {
			t.Fatalf("%s: expected empty stream list, got %+v", path, body.Streams)
		}
	}
	if len(cls.calls) != 0 {
		t.Fatalf("classifier should not run, got %v", cls.calls)
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubClassifier{}, 0)

	var status addon.StatusResponse
	getJSON(t, ts.URL+"/api/status", &status)
	if status.DatabaseEntries != 1 {
		t.Fatalf("expected 1 database entry, got %d", status.DatabaseEntries)
	}
	if status.CacheEntries != 0 || status.CacheError != "" {
		t.Fatalf("unexpected cache status %+v", status)
	}
	if status.DatabaseLoadedAt.IsZero() {
		t.Fatal("expected loaded-at timestamp")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubClassifier{status: classifier.StatusFiller}, 0)
	getJSON(t, ts.URL+"/stream/series/tt1:1:1.json", &addon.StreamResponse{})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	if !strings.Contains(text, `fillerinfo_classifications_total{status="filler"} 1`) {
		t.Fatalf("missing classification counter in:\n%s", text)
	}
	if !strings.Contains(text, "fillerinfo_database_entries 1") {
		t.Fatalf("missing database gauge in:\n%s", text)
	}
}

func TestStreamRateLimit(t *testing.T) {
	ts := newTestServer(t, &stubClassifier{status: classifier.StatusCanon}, 2)

	codes := make([]int, 0, 3)
	for range 3 {
		resp := getJSON(t, ts.URL+"/stream/series/tt1:1:1.json", nil)
		codes = append(codes, resp.StatusCode)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	for _, want := range []string{
		`fillerinfo_http_requests_total{method="GET",path="/stream/{type}/{id}",status="200"} 2`,
		`fillerinfo_http_requests_total{method="GET",path="/stream/{type}/{id}",status="429"} 1`,
		`fillerinfo_http_response_size_bytes_count{method="GET",path="/stream/{type}/{id}",status="200"} 2`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %s in:\n%s", want, text)
		}
	}
}

func TestLandingPage(t *testing.T) {
	ts := newTestServer(t, &stubClassifier{}, 0)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "/manifest.json") {
		t.Fatalf("landing page lacks manifest url:\n%s", body)
	}
}
