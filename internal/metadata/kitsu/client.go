package kitsu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fillerinfo/internal/metadata"
	"fillerinfo/internal/services"
)

// Titles holds the localized titles Kitsu reports.
type Titles struct {
	En   string `json:"en"`
	EnJP string `json:"en_jp"`
	JaJP string `json:"ja_jp"`
}

// Anime is the attributes block of an anime resource.
type Anime struct {
	CanonicalTitle string `json:"canonicalTitle"`
	Titles         Titles `json:"titles"`
	EpisodeCount   int    `json:"episodeCount"`
	Subtype        string `json:"subtype"`
}

type animeResponse struct {
	Data struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes Anime  `json:"attributes"`
	} `json:"data"`
}

// Client talks to the Kitsu API.
type Client struct {
	baseURL string
	fetcher *metadata.Fetcher
	opts    metadata.FetcherOptions
}

var _ metadata.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.opts.HTTPClient = client
		}
	}
}

// WithRateLimit caps requests per second; zero disables the limit.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Client) {
		c.opts.RequestsPerSecond = requestsPerSecond
	}
}

// WithRetry sets the attempt count and initial backoff for retryable failures.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.opts.Attempts = attempts
		c.opts.RetryDelay = delay
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.opts.Logger = logger
	}
}

// New creates a Kitsu client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("kitsu base url required")
	}
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts: metadata.FetcherOptions{
			Source: metadata.SourceKitsu,
			Header: http.Header{"Accept": []string{"application/vnd.api+json"}},
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.fetcher = metadata.NewFetcher(client.opts)
	return client, nil
}

// GetAnime fetches the anime resource with the numeric Kitsu id.
func (c *Client) GetAnime(ctx context.Context, id string) (*Anime, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("kitsu id must not be empty")
	}
	var payload animeResponse
	if err := c.fetcher.GetJSON(ctx, "anime fetch", c.baseURL+"/anime/"+url.PathEscape(id), &payload); err != nil {
		return nil, err
	}
	return &payload.Data.Attributes, nil
}

// FindSeries implements metadata.Provider for kitsu:<id> identifiers.
func (c *Client) FindSeries(ctx context.Context, identifier string) (*metadata.Series, error) {
	id, ok := strings.CutPrefix(identifier, metadata.KitsuPrefix)
	if !ok || id == "" {
		return nil, services.Wrap(services.ErrNotFound, "kitsu", "find series", "not a kitsu identifier: "+identifier, nil)
	}
	anime, err := c.GetAnime(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "kitsu", "find series", identifier, err)
	}
	name := firstNonEmpty(anime.CanonicalTitle, anime.Titles.En, anime.Titles.EnJP)
	if name == "" {
		return nil, services.Wrap(services.ErrNotFound, "kitsu", "find series", "anime has no title: "+identifier, nil)
	}
	return &metadata.Series{
		ID:           identifier,
		Name:         name,
		OriginalName: anime.Titles.JaJP,
		Source:       metadata.SourceKitsu,
	}, nil
}

// SeasonEpisodeCount implements metadata.Provider. Kitsu numbering is already
// absolute, so season data is never available.
func (c *Client) SeasonEpisodeCount(_ context.Context, seriesID string, season int) (int, error) {
	return 0, services.Wrap(services.ErrMetadataUnavailable, "kitsu", "season episode count",
		fmt.Sprintf("%s has no season data (season %d)", seriesID, season), nil)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
