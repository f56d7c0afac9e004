package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Console outcomes. Handlers report the ones a status code cannot express.
const (
	OutcomeOK          = "ok"
	OutcomeRejected    = "rejected"
	OutcomeEngineError = "engine_error"
	OutcomeError       = "error"
	OutcomeStale       = "stale"
	OutcomeFailed      = "failed"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dbconsole",
			Name:      "http_request_duration_seconds",
			Help:      "Console API request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"area", "route"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dbconsole",
			Name:      "http_requests_total",
			Help:      "Console API requests by route and status",
		},
		[]string{"area", "method", "route", "status"},
	)

	consoleOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dbconsole",
			Name:      "console_outcomes_total",
			Help:      "Console API requests by what the user saw: ok, rejected, engine_error, error, stale or failed",
		},
		[]string{"area", "outcome"},
	)
)

var httpMetricsRegistered bool

// RegisterHTTPMetrics registers the console API metrics. Must be called once from main.
func RegisterHTTPMetrics() {
	if httpMetricsRegistered {
		return
	}
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(consoleOutcomesTotal)
	httpMetricsRegistered = true
}

type outcomeKey struct{}

// outcomeSlot is filled by a handler through ReportOutcome.
type outcomeSlot struct{ value string }

// ReportOutcome overrides the outcome derived from the status code.
// A stale query answers 200 yet is not what the console shows, and a failed
// spatial search answers 200 with its failure in the body.
func ReportOutcome(ctx context.Context, outcome string) {
	if slot, ok := ctx.Value(outcomeKey{}).(*outcomeSlot); ok {
		slot.value = outcome
	}
}

// Middleware records request count and duration by chi route pattern and
// counts one console outcome per request.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			slot := &outcomeSlot{}
			ctx := context.WithValue(r.Context(), outcomeKey{}, slot)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routeLabel(r)
			area := consoleArea(route)

			httpRequestDuration.WithLabelValues(area, route).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(area, r.Method, route, strconv.Itoa(status)).Inc()

			outcome := slot.value
			if outcome == "" {
				outcome = outcomeFromStatus(status)
			}
			consoleOutcomesTotal.WithLabelValues(area, outcome).Inc()
		})
	}
}

// routeLabel keeps label cardinality bounded: path parameters stay as
// their pattern and unmatched paths collapse into one value.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return "unmatched"
}

// consoleArea maps a route to the console view that serves it.
func consoleArea(route string) string {
	rest, ok := strings.CutPrefix(route, "/api/")
	if !ok {
		return "system"
	}
	area, _, _ := strings.Cut(rest, "/")
	switch area {
	case "query", "spatial", "indexes", "upload":
		return area
	default:
		return "system"
	}
}

func outcomeFromStatus(status int) string {
	switch {
	case status == http.StatusBadGateway:
		return OutcomeEngineError
	case status >= 500:
		return OutcomeError
	case status >= 400:
		return OutcomeRejected
	default:
		return OutcomeOK
	}
}
