// Package metrics exposes crewd's Prometheus instrumentation. Collectors are
// registered on the default registry at init; Handler serves them on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts every request by method and response status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crewd_http_requests_total",
		Help: "HTTP requests processed, by method and status code.",
	}, []string{"method", "status"})

	// HTTPDuration observes request latency by method.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crewd_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// LocationPushes counts accepted location updates — the hot path.
	LocationPushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crewd_location_pushes_total",
		Help: "Location updates accepted.",
	})

	// FeedConnections tracks currently open change-feed WebSockets.
	FeedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crewd_feed_connections",
		Help: "Open change-feed WebSocket connections.",
	})

	// ChangeNotifications counts Postgres NOTIFY events fanned out to feeds.
	ChangeNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crewd_change_notifications_total",
		Help: "Member change notifications received from Postgres.",
	})

	// FeedDrops counts subscribers disconnected for not keeping up.
	FeedDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crewd_feed_drops_total",
		Help: "Feed subscribers dropped because their send buffer filled.",
	})
)

// Handler serves the default registry; mount on /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency for every route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		HTTPDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
