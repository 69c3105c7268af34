package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Watchlist state manager metrics
	WatchlistOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocktracker_watchlist_ops_total",
			Help: "Total number of watchlist operations",
		},
		[]string{"op", "status"}, // op: add|refresh|reconcile, status: success|error|rolled_back
	)

	WatchlistEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stocktracker_watchlist_entries",
			Help: "Number of rows currently held by the watchlist state manager",
		},
	)

	// Market data metrics
	LookupCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocktracker_lookup_calls_total",
			Help: "Total number of market data lookups",
		},
		[]string{"provider", "status"}, // status: success|error|rate_limited|cache_hit|stale
	)

	// Reference store server metrics
	StoreRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocktracker_store_requests_total",
			Help: "Total number of requests served by the watchlist store",
		},
		[]string{"route", "status"},
	)

	StoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stocktracker_store_request_duration_seconds",
			Help:    "Watchlist store request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(
		WatchlistOps,
		WatchlistEntries,
		LookupCalls,
		StoreRequests,
		StoreRequestDuration,
	)
}

// Handler returns the HTTP handler exposing the default registry. Response
// compression is left to the server's gzip middleware.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{DisableCompression: true}),
	)
}

// ObserveStoreRequest records a served store request.
func ObserveStoreRequest(route string, status int, started time.Time) {
	StoreRequests.WithLabelValues(route, http.StatusText(status)).Inc()
	StoreRequestDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
}
