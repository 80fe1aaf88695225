package addon

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fillerinfo/internal/classifier"
)

// metrics holds the addon collectors. Each server owns its registry so that
// several servers can coexist in one process.
type metrics struct {
	registry *prometheus.Registry

	classifications   *prometheus.CounterVec
	classifyDuration  prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	httpInFlight      prometheus.Gauge
	httpResponseSize  *prometheus.HistogramVec
	databaseEntries   prometheus.GaugeFunc
	identityCacheSize prometheus.GaugeFunc
}

func newMetrics(databaseEntries, cacheEntries func() float64) *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fillerinfo_classifications_total",
			Help: "Episode classifications by resulting status",
		}, []string{"status"}),
		classifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fillerinfo_classification_duration_seconds",
			Help:    "Time spent classifying one episode",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fillerinfo_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fillerinfo_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fillerinfo_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		}),
		httpResponseSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fillerinfo_http_response_size_bytes",
			Help:    "HTTP response sizes in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"method", "path", "status"}),
		databaseEntries: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "fillerinfo_database_entries",
			Help: "Series in the loaded filler database",
		}, databaseEntries),
		identityCacheSize: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "fillerinfo_identity_cache_entries",
			Help: "Identifiers with a cached database key",
		}, cacheEntries),
	}
}

func (m *metrics) observeClassification(status classifier.Status, d time.Duration) {
	m.classifications.WithLabelValues(status.String()).Inc()
	m.classifyDuration.Observe(d.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// middleware records request counts and latencies keyed by chi route pattern.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := strconv.Itoa(statusOf(ww))
		m.httpRequests.WithLabelValues(r.Method, path, status).Inc()
		m.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		if written := ww.BytesWritten(); written > 0 {
			m.httpResponseSize.WithLabelValues(r.Method, path, status).Observe(float64(written))
		}
	})
}

// statusOf reports the written status code, treating a handler that never
// wrote as an implicit 200.
func statusOf(ww chimw.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
