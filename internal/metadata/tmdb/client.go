package tmdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fillerinfo/internal/metadata"
	"fillerinfo/internal/services"
)

// TVResult is a TV entry returned by the /find endpoint.
type TVResult struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	OriginalName     string  `json:"original_name"`
	OriginalLanguage string  `json:"original_language"`
	FirstAirDate     string  `json:"first_air_date"`
	Popularity       float64 `json:"popularity"`
}

// FindResponse models the /find/{external_id} payload.
type FindResponse struct {
	TVResults []TVResult `json:"tv_results"`
}

// Episode describes a single TMDB episode entry.
type Episode struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
}

// SeasonDetails captures the TMDB season payload (episodes included).
type SeasonDetails struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	fetcher  *metadata.Fetcher
	opts     metadata.FetcherOptions
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

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: strings.TrimSpace(language),
		opts:     metadata.FetcherOptions{Source: metadata.SourceTMDB},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.fetcher = metadata.NewFetcher(client.opts)
	return client, nil
}

// FindByIMDBID looks up TMDB entries for an IMDB identifier.
func (c *Client) FindByIMDBID(ctx context.Context, imdbID string) (*FindResponse, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	params := c.params()
	params.Set("external_source", "imdb_id")
	endpoint := c.baseURL + "/find/" + url.PathEscape(imdbID) + "?" + params.Encode()

	var payload FindResponse
	if err := c.fetcher.GetJSON(ctx, "find", endpoint, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetSeasonDetails fetches a season with its episode list.
func (c *Client) GetSeasonDetails(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetails, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	endpoint := fmt.Sprintf("%s/tv/%d/season/%d?%s", c.baseURL, showID, seasonNumber, c.params().Encode())

	var payload SeasonDetails
	if err := c.fetcher.GetJSON(ctx, "season fetch", endpoint, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FindSeries implements metadata.Provider using the first TV result.
func (c *Client) FindSeries(ctx context.Context, identifier string) (*metadata.Series, error) {
	resp, err := c.FindByIMDBID(ctx, identifier)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "tmdb", "find series", identifier, err)
	}
	if len(resp.TVResults) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "tmdb", "find series", "no tv results for "+identifier, nil)
	}
	show := resp.TVResults[0]
	return &metadata.Series{
		ID:           strconv.FormatInt(show.ID, 10),
		Name:         show.Name,
		OriginalName: show.OriginalName,
		Source:       metadata.SourceTMDB,
	}, nil
}

// SeasonEpisodeCount implements metadata.Provider.
func (c *Client) SeasonEpisodeCount(ctx context.Context, seriesID string, season int) (int, error) {
	showID, err := strconv.ParseInt(seriesID, 10, 64)
	if err != nil {
		return 0, services.Wrap(services.ErrMetadataUnavailable, "tmdb", "season episode count", "invalid series id "+seriesID, err)
	}
	details, err := c.GetSeasonDetails(ctx, showID, season)
	if err != nil {
		return 0, services.Wrap(services.ErrMetadataUnavailable, "tmdb", "season episode count",
			fmt.Sprintf("series %d season %d", showID, season), err)
	}
	return len(details.Episodes), nil
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	return params
}
