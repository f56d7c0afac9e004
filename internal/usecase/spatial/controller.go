// Package spatial drives area searches against the engine and owns the result view state.
package spatial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dbconsole/internal/adapter"
	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/area"
	"github.com/kailas-cloud/dbconsole/internal/domain/geo"
	"github.com/kailas-cloud/dbconsole/internal/domain/history"
	"github.com/kailas-cloud/dbconsole/internal/domain/point"
	"github.com/kailas-cloud/dbconsole/internal/metrics"
	"github.com/kailas-cloud/dbconsole/internal/querybuilder"
)

// DefaultTable is the table spatial searches run against.
const DefaultTable = "ubicaciones"

// GenericFailure is shown when the engine response cannot be interpreted.
const GenericFailure = "could not read engine response"

// State is the controller lifecycle state.
type State string

// State constants.
const (
	Idle      State = "idle"
	Searching State = "searching"
	Succeeded State = "succeeded"
	Failed    State = "failed"
)

// Hit is a point annotated with its distance from the area center.
type Hit struct {
	point.Point
	DistanceKm float64
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	State   State
	Area    area.Area
	Results []Hit
	Message string
	Query   string
	Skipped int
	Seq     uint64
}

// Outcome is the result of one Search call.
// Stale outcomes were superseded by a newer search and changed nothing.
type Outcome struct {
	Seq     uint64
	Stale   bool
	State   State
	Query   string
	Results []Hit
	Message string
	Skipped int
}

// Config holds controller settings.
type Config struct {
	Table           string
	HistoryCapacity int
	// Seed is shown as the initial result set before any search.
	Seed   []point.Point
	Logger *zap.Logger
	Clock  func() time.Time
}

// Controller runs spatial searches. Only the latest issued search may
// update state: responses are matched by sequence number, not arrival order.
type Controller struct {
	engine  Engine
	builder QueryBuilder
	table   string
	history *history.Store
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	seq     uint64
	state   State
	area    area.Area
	results []Hit
	message string
	query   string
	skipped int
}

// New creates a controller in the idle state over the default area.
func New(engine Engine, builder QueryBuilder, cfg Config) *Controller {
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	initial := area.Default()
	return &Controller{
		engine:  engine,
		builder: builder,
		table:   table,
		history: history.NewStore(cfg.HistoryCapacity),
		logger:  logger,
		now:     now,
		state:   Idle,
		area:    initial,
		results: annotate(cfg.Seed, initial),
	}
}

// Search builds the query for a, sends it, and applies the response if no newer
// search was issued meanwhile. Invalid areas fail fast with ErrInvalidParameter
// and leave state and history untouched. Engine failures are not returned as
// errors: they move the controller to Failed and are reported in the Outcome.
func (c *Controller) Search(ctx context.Context, a area.Area) (Outcome, error) {
	q, err := c.build(a)
	if err != nil {
		return Outcome{}, err
	}

	c.mu.Lock()
	c.seq++
	n := c.seq
	c.state = Searching
	c.area = a
	c.query = q
	c.mu.Unlock()

	start := c.now()
	env, err := c.engine.Query(ctx, q)
	var pts adapter.Points
	if err == nil {
		pts, err = adapter.Spatial(env)
	}
	took := c.now().Sub(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if n != c.seq {
		metrics.SpatialStaleResponsesTotal.Inc()
		c.logger.Debug("discarding stale spatial response",
			zap.Uint64("seq", n), zap.Uint64("latest", c.seq), zap.Error(err))
		return Outcome{Seq: n, Stale: true, Query: q}, nil
	}

	if err != nil {
		c.state = Failed
		c.message = failureMessage(err)
		c.history.Record(history.NewEntry(q, start, took, history.Error))
		c.logger.Info("spatial search failed", zap.Uint64("seq", n), zap.Error(err))
		return c.outcome(n), nil
	}

	if pts.Skipped > 0 {
		metrics.SpatialSkippedRowsTotal.Add(float64(pts.Skipped))
		c.logger.Warn("spatial rows skipped", zap.Int("skipped", pts.Skipped))
	}
	c.state = Succeeded
	c.results = annotate(pts.Items, a)
	c.skipped = pts.Skipped
	c.message = fmt.Sprintf("found %d points in area", len(c.results))
	c.history.Record(history.NewEntry(q, start, took, history.Success))
	return c.outcome(n), nil
}

// build renders the query for a without touching state.
func (c *Controller) build(a area.Area) (string, error) {
	var region querybuilder.Region
	switch a.Shape() {
	case area.Circle:
		region = querybuilder.Circle{Lat: a.CenterLat(), Lng: a.CenterLng(), RadiusKm: a.RadiusKm()}
	case area.Rectangle:
		if a.RadiusKm() <= 0 {
			return "", fmt.Errorf("%w: radius must be positive", domain.ErrInvalidParameter)
		}
		region = querybuilder.RectangleFromBounds(a.Bounds())
	default:
		return "", fmt.Errorf("%w: unknown shape %q", domain.ErrInvalidParameter, a.Shape())
	}

	q, err := c.builder.Within(c.table, region)
	if err != nil {
		return "", fmt.Errorf("build spatial query: %w", err)
	}
	return q, nil
}

// outcome must be called with mu held.
func (c *Controller) outcome(n uint64) Outcome {
	return Outcome{
		Seq:     n,
		State:   c.state,
		Query:   c.query,
		Results: cloneHits(c.results),
		Message: c.message,
		Skipped: c.skipped,
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:   c.state,
		Area:    c.area,
		Results: cloneHits(c.results),
		Message: c.message,
		Query:   c.query,
		Skipped: c.skipped,
		Seq:     c.seq,
	}
}

// History returns recorded searches, most recent first.
func (c *Controller) History() []history.Entry {
	return c.history.All()
}

// ExportGeoJSON renders the current results as a FeatureCollection.
func (c *Controller) ExportGeoJSON() ([]byte, error) {
	hits := c.Snapshot().Results

	fc := geojson.NewFeatureCollection()
	for _, h := range hits {
		f := geojson.NewFeature(orb.Point{h.Lng, h.Lat})
		f.ID = h.ID
		f.Properties["name"] = h.Name
		f.Properties["category"] = h.Category
		f.Properties["distance_km"] = h.DistanceKm
		for _, attr := range h.Attributes {
			f.Properties[attr.Key] = attr.Value
		}
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal geojson: %w", err)
	}
	return data, nil
}

func annotate(points []point.Point, a area.Area) []Hit {
	hits := make([]Hit, len(points))
	for i, p := range points {
		hits[i] = Hit{
			Point:      p,
			DistanceKm: geo.DistanceKm(a.CenterLat(), a.CenterLng(), p.Lat, p.Lng),
		}
	}
	return hits
}

func cloneHits(hits []Hit) []Hit {
	out := make([]Hit, len(hits))
	copy(out, hits)
	return out
}

// failureMessage picks the engine's own message, then the transport error, then a generic text.
func failureMessage(err error) string {
	if msg, ok := domain.RemoteMessage(err); ok {
		return msg
	}
	if errors.Is(err, domain.ErrMalformedResponse) {
		return GenericFailure
	}
	if errors.Is(err, domain.ErrRemoteFailure) {
		return err.Error()
	}
	return GenericFailure
}
