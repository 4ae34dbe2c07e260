// Package chiprometheus instruments chi routers with Prometheus request
// metrics.
package chiprometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Middleware records the count and latency of requests by route pattern.
type Middleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMiddleware creates the collectors for service and registers them with
// the default registry.
func NewMiddleware(service string) func(http.Handler) http.Handler {
	return NewMiddlewareWithRegisterer(service, prometheus.DefaultRegisterer)
}

func NewMiddlewareWithRegisterer(service string, reg prometheus.Registerer) func(http.Handler) http.Handler {
	m := &Middleware{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "chi_requests_total",
				Help:        "Number of HTTP requests partitioned by status code, method and route.",
				ConstLabels: prometheus.Labels{"service": service},
			},
			[]string{"code", "method", "path"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "chi_request_duration_seconds",
				Help:        "Time spent serving HTTP requests partitioned by route.",
				ConstLabels: prometheus.Labels{"service": service},
				Buckets:     defaultBuckets,
			},
			[]string{"code", "method", "path"},
		),
	}
	reg.MustRegister(m.requests, m.latency)
	return m.handler
}

func (m *Middleware) handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := prometheus.Labels{
			"code":   strconv.Itoa(status),
			"method": r.Method,
			"path":   routePattern(r),
		}
		m.requests.With(labels).Inc()
		m.latency.With(labels).Observe(time.Since(start).Seconds())
	}
	return http.HandlerFunc(fn)
}

// routePattern returns the matched chi route so that URL parameters do not
// explode label cardinality.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return "unmatched"
}
