package spatial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/paulmach/orb/geojson"

	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/area"
	"github.com/kailas-cloud/dbconsole/internal/domain/envelope"
	"github.com/kailas-cloud/dbconsole/internal/domain/history"
	"github.com/kailas-cloud/dbconsole/internal/domain/point"
	"github.com/kailas-cloud/dbconsole/internal/querybuilder"
)

// --- Mocks ---

type mockEngine struct {
	mu      sync.Mutex
	queries []string
	respond func(query string) (envelope.Envelope, error)
}

func (m *mockEngine) Query(_ context.Context, query string) (envelope.Envelope, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	respond := m.respond
	m.mu.Unlock()
	return respond(query)
}

func (m *mockEngine) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

func replyWith(body string) func(string) (envelope.Envelope, error) {
	return func(string) (envelope.Envelope, error) {
		var env envelope.Envelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			panic(err)
		}
		return env, nil
	}
}

func newController(engine Engine, seed []point.Point) *Controller {
	return New(engine, querybuilder.New(nil), Config{Seed: seed})
}

func limaArea(t *testing.T) area.Area {
	t.Helper()
	a, err := area.New(-12.0464, -77.0428, 10, area.Circle, area.DefaultLimits())
	if err != nil {
		t.Fatalf("area: %v", err)
	}
	return a
}

// --- Tests ---

func TestSearch_SucceedsWithAdaptedPoints(t *testing.T) {
	engine := &mockEngine{respond: replyWith(
		`{"ok":true,"result":{"rows":[["1","Lima Center","-12.0464","-77.0428","Universidad"]]}}`)}
	c := newController(engine, nil)

	out, err := c.Search(context.Background(), limaArea(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantQuery := "SELECT * FROM ubicaciones WHERE ST_Within(geom, CIRCLE(-12.0464, -77.0428, 10))"
	if engine.queries[0] != wantQuery {
		t.Errorf("query = %q, want %q", engine.queries[0], wantQuery)
	}
	if out.Stale || out.State != Succeeded {
		t.Fatalf("outcome = %+v, want succeeded", out)
	}
	if len(out.Results) != 1 {
		t.Fatalf("results = %+v, want one point", out.Results)
	}
	got := out.Results[0]
	if got.ID != "1" || got.Name != "Lima Center" || got.Category != "Universidad" {
		t.Errorf("point = %+v", got.Point)
	}
	if got.Lat != -12.0464 || got.Lng != -77.0428 {
		t.Errorf("coordinates = %f, %f", got.Lat, got.Lng)
	}
	if len(got.Attributes) != 0 {
		t.Errorf("attributes = %v, want none", got.Attributes)
	}
	if out.Results[0].DistanceKm != 0 {
		t.Errorf("distance = %f, want 0 at the center", out.Results[0].DistanceKm)
	}
	if out.Message != "found 1 points in area" {
		t.Errorf("message = %q", out.Message)
	}

	h := c.History()
	if len(h) != 1 || h[0].Status != history.Success || h[0].QueryText != wantQuery {
		t.Errorf("history = %+v", h)
	}
	if snap := c.Snapshot(); snap.State != Succeeded || snap.Seq != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSearch_RemoteErrorKeepsPreviousResults(t *testing.T) {
	engine := &mockEngine{respond: replyWith(`{"ok":false,"error":"syntax error"}`)}
	c := newController(engine, point.Seed())

	out, err := c.Search(context.Background(), limaArea(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.State != Failed {
		t.Fatalf("state = %q, want failed", out.State)
	}
	if out.Message != "syntax error" {
		t.Errorf("message = %q, want verbatim engine error", out.Message)
	}
	if len(out.Results) != len(point.Seed()) {
		t.Errorf("results = %d, want previous %d kept", len(out.Results), len(point.Seed()))
	}

	h := c.History()
	if len(h) != 1 || h[0].Status != history.Error {
		t.Errorf("history = %+v, want one error entry", h)
	}
}

func TestSearch_InvalidAreaSendsNothing(t *testing.T) {
	engine := &mockEngine{respond: replyWith(`{"ok":true,"result":[]}`)}
	c := newController(engine, nil)

	_, err := c.Search(context.Background(), area.Area{})
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("err = %v, want ErrInvalidParameter", err)
	}
	if engine.calls() != 0 {
		t.Errorf("engine called %d times, want 0", engine.calls())
	}
	if len(c.History()) != 0 {
		t.Error("invalid search must not be recorded")
	}
	if snap := c.Snapshot(); snap.State != Idle || snap.Seq != 0 {
		t.Errorf("snapshot = %+v, want untouched idle", snap)
	}
}

func TestSearch_EmptyResultIsSuccess(t *testing.T) {
	engine := &mockEngine{respond: replyWith(`{"ok":true,"result":{"headers":[],"rows":[]}}`)}
	c := newController(engine, point.Seed())

	out, err := c.Search(context.Background(), limaArea(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.State != Succeeded || len(out.Results) != 0 {
		t.Errorf("outcome = %+v, want succeeded with no results", out)
	}
	if out.Message != "found 0 points in area" {
		t.Errorf("message = %q", out.Message)
	}
}

func TestSearch_FailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		respond func(string) (envelope.Envelope, error)
		want    string
	}{
		{
			name: "transport",
			respond: func(string) (envelope.Envelope, error) {
				return envelope.Envelope{}, fmt.Errorf("engine /query: connection refused: %w", domain.ErrRemoteFailure)
			},
			want: "engine /query: connection refused: remote failure",
		},
		{
			name:    "malformed result",
			respond: replyWith(`{"ok":true,"result":42}`),
			want:    GenericFailure,
		},
		{
			name:    "ok false without message",
			respond: replyWith(`{"ok":false}`),
			want:    GenericFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(&mockEngine{respond: tt.respond}, nil)
			out, err := c.Search(context.Background(), limaArea(t))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.State != Failed || out.Message != tt.want {
				t.Errorf("outcome = %q / %q, want failed / %q", out.State, out.Message, tt.want)
			}
		})
	}
}

func TestSearch_SkippedRowsCounted(t *testing.T) {
	engine := &mockEngine{respond: replyWith(
		`{"ok":true,"result":{"rows":[["1","a",-12.05,-77.04],["2","b","x","y"]]}}`)}
	c := newController(engine, nil)

	out, _ := c.Search(context.Background(), limaArea(t))
	if len(out.Results) != 1 || out.Skipped != 1 {
		t.Errorf("results = %d skipped = %d, want 1/1", len(out.Results), out.Skipped)
	}
}

func TestSearch_RectangleQuery(t *testing.T) {
	engine := &mockEngine{respond: replyWith(`{"ok":true,"result":[]}`)}
	c := newController(engine, nil)

	a, err := limaArea(t).WithShape(area.Rectangle, area.DefaultLimits())
	if err != nil {
		t.Fatalf("shape: %v", err)
	}
	if _, err := c.Search(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(engine.queries[0], "ST_Within(geom, RECTANGLE(") {
		t.Errorf("query = %q, want RECTANGLE predicate", engine.queries[0])
	}
}

func TestSearch_StaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	engine := &mockEngine{respond: func(q string) (envelope.Envelope, error) {
		if strings.Contains(q, "CIRCLE(-12.0464, -77.0428, 10)") {
			close(started)
			<-release
			return envelope.Envelope{OK: true, Result: json.RawMessage(
				`{"rows":[["old","Old",-12.0464,-77.0428]]}`)}, nil
		}
		return envelope.Envelope{OK: true, Result: json.RawMessage(
			`{"rows":[["new","New",-12.1,-77.0]]}`)}, nil
	}}
	c := newController(engine, nil)

	first := limaArea(t)
	second, err := first.WithRadius(20, area.DefaultLimits())
	if err != nil {
		t.Fatalf("radius: %v", err)
	}

	staleCh := make(chan Outcome, 1)
	go func() {
		out, _ := c.Search(context.Background(), first)
		staleCh <- out
	}()
	<-started

	latest, err := c.Search(context.Background(), second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(release)
	stale := <-staleCh

	if !stale.Stale || stale.Seq != 1 {
		t.Errorf("first outcome = %+v, want stale seq 1", stale)
	}
	if latest.Stale || latest.Seq != 2 {
		t.Errorf("second outcome = %+v, want applied seq 2", latest)
	}

	snap := c.Snapshot()
	if snap.State != Succeeded || len(snap.Results) != 1 || snap.Results[0].ID != "new" {
		t.Errorf("snapshot = %+v, want results of the latest search", snap)
	}
	if snap.Area.RadiusKm() != 20 {
		t.Errorf("area radius = %v, want 20", snap.Area.RadiusKm())
	}
	if len(c.History()) != 1 {
		t.Errorf("history = %d entries, want 1", len(c.History()))
	}
}

func TestExportGeoJSON(t *testing.T) {
	c := newController(&mockEngine{}, point.Seed())

	data, err := c.ExportGeoJSON()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(fc.Features) != len(point.Seed()) {
		t.Fatalf("features = %d, want %d", len(fc.Features), len(point.Seed()))
	}
	f := fc.Features[0]
	if f.Properties.MustString("name") != "Universidad Tecnológica del Perú" {
		t.Errorf("name = %v", f.Properties["name"])
	}
	if f.Properties.MustString("estudiantes") != "15000" {
		t.Errorf("estudiantes = %v", f.Properties["estudiantes"])
	}
	if pt := f.Point(); pt.Lat() != -12.0464 || pt.Lon() != -77.0428 {
		t.Errorf("geometry = %v", pt)
	}
}
