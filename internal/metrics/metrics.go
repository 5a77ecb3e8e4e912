package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webuntis_fetch_total",
		Help: "Upstream fetches per data type and outcome.",
	}, []string{"data_type", "outcome"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webuntis_fetch_duration_seconds",
		Help:    "Histogram of upstream fetch latencies per data type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"data_type"})

	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webuntis_cache_requests_total",
		Help: "Response cache lookups by result.",
	}, []string{"result"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webuntis_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route", "status"})
)

const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"

	// RouteUnmatched labels requests that matched no chi route.
	RouteUnmatched = "unmatched"
)

// ObserveFetch records one settled data-type branch.
func ObserveFetch(dataType, outcome string, start time.Time) {
	fetchTotal.WithLabelValues(dataType, outcome).Inc()
	if outcome != OutcomeSkipped {
		fetchDuration.WithLabelValues(dataType).Observe(time.Since(start).Seconds())
	}
}

func ObserveCache(result string) {
	cacheRequests.WithLabelValues(result).Inc()
}

// Middleware counts requests by chi route pattern and status.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			httpRequestsTotal.WithLabelValues(r.Method, routePattern(r), strconv.Itoa(ww.Status())).Inc()
		})
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := strings.TrimSpace(rctx.RoutePattern()); pattern != "" {
			return pattern
		}
	}
	return RouteUnmatched
}
