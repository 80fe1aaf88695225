package addon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"fillerinfo/internal/classifier"
	"fillerinfo/internal/config"
	"fillerinfo/internal/episode"
	"fillerinfo/internal/fillerdb"
	"fillerinfo/internal/identitycache"
	"fillerinfo/internal/logging"
	"fillerinfo/internal/services"
)

// Classifier is the classification entry point the server calls.
type Classifier interface {
	Classify(ctx context.Context, identifier string, season, episode int) classifier.Status
}

// Options configures a Server.
type Options struct {
	Classifier Classifier
	Database   *fillerdb.Holder
	Cache      identitycache.Store
	Bind       string
	// PublicURL is the externally reachable base URL shown on the landing page.
	PublicURL          string
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	Logger             *slog.Logger
}

// Server is the addon HTTP surface.
type Server struct {
	opts     Options
	logger   *slog.Logger
	metrics  *metrics
	manifest Manifest
	router   chi.Router
}

// New builds a Server and its router.
func New(opts Options) *Server {
	s := &Server{
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "addon"),
		manifest: DefaultManifest(),
	}
	s.metrics = newMetrics(s.databaseEntries, s.cacheEntries)
	s.router = s.routes()
	return s
}

// NewFromConfig builds a Server from the [server] section.
func NewFromConfig(cfg *config.Config, cls Classifier, db *fillerdb.Holder, cache identitycache.Store, logger *slog.Logger) *Server {
	return New(Options{
		Classifier:         cls,
		Database:           db,
		Cache:              cache,
		Bind:               cfg.Server.Bind,
		PublicURL:          cfg.Server.PublicURL,
		RequestTimeout:     cfg.RequestTimeout(),
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		Logger:             logger,
	})
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer(s.logger))
	r.Use(requestID)
	r.Use(cors)
	r.Use(s.metrics.middleware)
	r.Use(accessLog(s.logger))

	r.Get("/", s.handleLanding)
	r.Get("/manifest.json", s.handleManifest)
	r.Get("/api/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.opts.RateLimitPerMinute))
		r.Get("/stream/{type}/{id}", s.handleStream)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
	})
	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured bind address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	bind := strings.TrimSpace(s.opts.Bind)
	if bind == "" {
		return services.Wrap(services.ErrConfiguration, "addon", "listen", "bind address is empty", nil)
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("addon listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.requestTimeout() + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("addon listening",
		logging.String("address", listener.Addr().String()),
		logging.String("manifest_url", s.manifestURL(listener.Addr().String())))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("addon serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("addon shutdown: %w", err)
	}
	s.logger.Info("addon stopped")
	return nil
}

func (s *Server) handleManifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manifest)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context(), s.logger)

	contentType := chi.URLParam(r, "type")
	rawID, ok := strings.CutSuffix(chi.URLParam(r, "id"), ".json")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
		return
	}
	id, err := url.PathUnescape(rawID)
	if err != nil {
		id = rawID
	}

	if contentType != "series" {
		logger.Debug("ignoring non-series stream request", logging.String("type", contentType))
		writeJSON(w, http.StatusOK, emptyStreams())
		return
	}
	q, err := episode.ParseID(id)
	if err != nil {
		logger.Debug("ignoring malformed stream id", logging.String("id", id), logging.Error(err))
		writeJSON(w, http.StatusOK, emptyStreams())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	start := time.Now()
	status := s.opts.Classifier.Classify(ctx, q.Identifier, q.Season, q.Episode)
	s.metrics.observeClassification(status, time.Since(start))

	logger.Info("stream request served",
		logging.String(logging.FieldEventType, "stream_served"),
		logging.String("query", q.String()),
		logging.String("status", status.String()))
	writeJSON(w, http.StatusOK, StreamFor(status))
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Name             string    `json:"name"`
	Version          string    `json:"version"`
	DatabaseEntries  int       `json:"database_entries"`
	DatabaseOrigin   string    `json:"database_origin"`
	DatabaseLoadedAt time.Time `json:"database_loaded_at,omitzero"`
	CacheEntries     int       `json:"cache_entries"`
	CacheError       string    `json:"cache_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Name: s.manifest.Name, Version: s.manifest.Version}
	if s.opts.Database != nil {
		if db := s.opts.Database.Current(); db != nil {
			resp.DatabaseEntries = db.Len()
			resp.DatabaseOrigin = db.Origin()
		}
		resp.DatabaseLoadedAt = s.opts.Database.LoadedAt().UTC()
	}
	if s.opts.Cache != nil {
		n, err := s.opts.Cache.Count(r.Context())
		if err != nil {
			resp.CacheError = err.Error()
		}
		resp.CacheEntries = n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) databaseEntries() float64 {
	if s.opts.Database == nil {
		return 0
	}
	db := s.opts.Database.Current()
	if db == nil {
		return 0
	}
	return float64(db.Len())
}

func (s *Server) cacheEntries() float64 {
	if s.opts.Cache == nil {
		return 0
	}
	n, err := s.opts.Cache.Count(context.Background())
	if err != nil {
		return 0
	}
	return float64(n)
}

func (s *Server) requestTimeout() time.Duration {
	if s.opts.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return s.opts.RequestTimeout
}

func (s *Server) manifestURL(host string) string {
	base := strings.TrimRight(strings.TrimSpace(s.opts.PublicURL), "/")
	if base == "" {
		base = "http://" + host
	}
	return base + "/manifest.json"
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
