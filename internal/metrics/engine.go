package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine client and console Prometheus metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dbconsole",
			Name:      "engine_requests_total",
			Help:      "Total number of requests sent to the database engine",
		},
		[]string{"endpoint", "status"}, // status: "ok" / "remote_error" / "error"
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dbconsole",
			Name:      "engine_request_duration_seconds",
			Help:      "Engine request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	EngineErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dbconsole",
			Name:      "engine_errors_total",
			Help:      "Total engine transport and decode errors",
		},
		[]string{"endpoint", "error_type"},
	)

	SpatialSkippedRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dbconsole",
			Name:      "spatial_skipped_rows_total",
			Help:      "Spatial result rows dropped for invalid coordinates",
		},
	)

	SpatialStaleResponsesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dbconsole",
			Name:      "spatial_stale_responses_total",
			Help:      "Spatial responses discarded because a newer search was issued",
		},
	)

	SavedQueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dbconsole",
			Name:      "saved_query_total",
			Help:      "Saved query store lookups",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers engine and console metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EngineRequestsTotal)
	prometheus.MustRegister(EngineRequestDuration)
	prometheus.MustRegister(EngineErrorsTotal)
	prometheus.MustRegister(SpatialSkippedRowsTotal)
	prometheus.MustRegister(SpatialStaleResponsesTotal)
	prometheus.MustRegister(SavedQueryTotal)
	engineMetricsRegistered = true
}
