package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"fillerinfo/internal/logging"
)

const (
	defaultAttempts   = 3
	defaultRetryDelay = 250 * time.Millisecond
	defaultTimeout    = 10 * time.Second
)

// StatusError reports a non-200 response.
type StatusError struct {
	Source     string
	Operation  string
	StatusCode int
	Latency    time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d (latency=%v)", e.Source, e.Operation, e.StatusCode, e.Latency)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsNotFound reports whether err is a 404 from the remote API.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	// Source names the remote API in errors and logs.
	Source string
	// RequestsPerSecond caps outbound requests; zero disables the limit.
	RequestsPerSecond float64
	Attempts          int
	RetryDelay        time.Duration
	HTTPClient        *http.Client
	Header            http.Header
	Logger            *slog.Logger
}

// Fetcher performs rate-limited JSON GETs, retrying transport failures,
// HTTP 429, and 5xx responses.
type Fetcher struct {
	source     string
	limiter    *rate.Limiter
	attempts   uint
	retryDelay time.Duration
	httpClient *http.Client
	header     http.Header
	logger     *slog.Logger
}

// NewFetcher builds a Fetcher from opts.
func NewFetcher(opts FetcherOptions) *Fetcher {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Fetcher{
		source:     opts.Source,
		limiter:    rate.NewLimiter(limit, 1),
		attempts:   uint(attempts),
		retryDelay: delay,
		httpClient: client,
		header:     opts.Header.Clone(),
		logger:     logging.NewComponentLogger(opts.Logger, opts.Source),
	}
}

// GetJSON fetches endpoint and decodes the body into out. operation labels
// the call in errors ("season fetch", "find").
func (f *Fetcher) GetJSON(ctx context.Context, operation, endpoint string, out any) error {
	return retry.Do(
		func() error { return f.once(ctx, operation, endpoint, out) },
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(f.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Debug("retrying request",
				logging.String("operation", operation),
				logging.Int("attempt", int(n)+1),
				logging.Error(err))
		}),
	)
}

func (f *Fetcher) once(ctx context.Context, operation, endpoint string, out any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return &permanentError{err: fmt.Errorf("rate limit wait: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &permanentError{err: fmt.Errorf("build request: %w", err)}
	}
	for key, values := range f.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	requestStart := time.Now()
	resp, err := f.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Source: f.source, Operation: operation, StatusCode: resp.StatusCode, Latency: latency}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &permanentError{err: fmt.Errorf("decode %s response: %w", f.source, err)}
	}
	return nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var permErr *permanentError
	return !errors.As(err, &permErr)
}
