package dbconsole

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/dbconsole/internal/domain"
)

// Operation outcomes as labelled on dbconsole_sdk_operations_total.
const (
	outcomeOK          = "ok"
	outcomeStale       = "stale"
	outcomeFailed      = "failed"
	outcomeInvalid     = "invalid"
	outcomeUnsupported = "unsupported_file"
	outcomeNotFound    = "not_found"
	outcomeEngineError = "engine_error"
	outcomeMalformed   = "malformed"
	outcomeError       = "error"
)

// sdkMetrics holds the collectors an embedding program scrapes.
type sdkMetrics struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	skippedRows prometheus.Counter
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dbconsole",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Console operations run through the SDK, by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dbconsole",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Console operation duration in seconds, engine round trip included.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		skippedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dbconsole",
			Subsystem: "sdk",
			Name:      "spatial_skipped_rows_total",
			Help:      "Spatial result rows dropped for unreadable coordinates.",
		}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.skippedRows); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or adopts the one already registered,
// so two clients on one registry share counters.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("dbconsole: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("dbconsole: metric already registered with incompatible type: %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts console operations.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// operation is one running SDK call. Callers fill in what the result said
// before end runs.
type operation struct {
	obs     *observer
	name    string
	start   time.Time
	stale   bool
	failed  bool
	skipped int
}

// begin starts timing name. Safe on a nil observer.
func (o *observer) begin(name string) *operation {
	return &operation{obs: o, name: name, start: time.Now()}
}

// end records the outcome of the operation.
func (op *operation) end(err error) {
	o := op.obs
	if o == nil {
		return
	}
	dur := time.Since(op.start)
	outcome := op.outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op.name, outcome).Inc()
		o.metrics.duration.WithLabelValues(op.name).Observe(dur.Seconds())
		if op.skipped > 0 {
			o.metrics.skippedRows.Add(float64(op.skipped))
		}
	}

	if o.logger == nil {
		return
	}
	attrs := []any{"op", op.name, "outcome", outcome, "duration", dur}
	if op.skipped > 0 {
		attrs = append(attrs, "skipped_rows", op.skipped)
	}
	switch outcome {
	case outcomeOK, outcomeStale:
		o.logger.Debug("console operation", attrs...)
	case outcomeInvalid, outcomeUnsupported, outcomeNotFound:
		o.logger.Info("console operation rejected", append(attrs, "error", err)...)
	case outcomeFailed:
		o.logger.Warn("console operation failed", attrs...)
	default:
		o.logger.Warn("console operation failed", append(attrs, "error", err)...)
	}
}

func (op *operation) outcome(err error) string {
	switch {
	case err == nil && op.stale:
		return outcomeStale
	case err == nil && op.failed:
		return outcomeFailed
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrInvalidParameter):
		return outcomeInvalid
	case errors.Is(err, domain.ErrUnsupportedFile):
		return outcomeUnsupported
	case errors.Is(err, domain.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, domain.ErrMalformedResponse):
		return outcomeMalformed
	case errors.Is(err, domain.ErrRemoteFailure):
		return outcomeEngineError
	default:
		return outcomeError
	}
}
