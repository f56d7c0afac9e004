package dbconsole

import (
	"context"

	"github.com/kailas-cloud/dbconsole/internal/domain/area"
	spatialuc "github.com/kailas-cloud/dbconsole/internal/usecase/spatial"
)

// SpatialService runs map area searches. Only the latest search updates state.
type SpatialService struct {
	svc    spatialUseCase
	limits area.Limits
	obs    *observer
}

// Search validates a and runs a containment query over it. Invalid areas
// fail with ErrInvalidParameter and send nothing. Engine failures are not
// errors: they come back with State "failed" and the engine's message.
func (s *SpatialService) Search(ctx context.Context, a SearchArea) (res SpatialResult, err error) {
	op := s.obs.begin("spatial_search")
	defer func() { op.end(err) }()

	ar, err := area.New(a.Lat, a.Lng, a.RadiusKm, area.Shape(a.Shape), s.limits)
	if err != nil {
		return SpatialResult{}, err
	}

	out, err := s.svc.Search(ctx, ar)
	if err != nil {
		return SpatialResult{}, err
	}
	op.stale = out.Stale
	op.failed = out.State == spatialuc.Failed
	op.skipped = out.Skipped
	return SpatialResult{
		State:   string(out.State),
		Query:   out.Query,
		Points:  pointsFrom(out.Results),
		Message: out.Message,
		Skipped: out.Skipped,
		Stale:   out.Stale,
	}, nil
}

// Current returns the latest applied state along with the area it covers.
func (s *SpatialService) Current() (SpatialResult, SearchArea) {
	snap := s.svc.Snapshot()
	res := SpatialResult{
		State:   string(snap.State),
		Query:   snap.Query,
		Points:  pointsFrom(snap.Results),
		Message: snap.Message,
		Skipped: snap.Skipped,
	}
	a := SearchArea{
		Lat:      snap.Area.CenterLat(),
		Lng:      snap.Area.CenterLng(),
		RadiusKm: snap.Area.RadiusKm(),
		Shape:    Shape(snap.Area.Shape()),
	}
	return res, a
}

// History returns recorded searches, most recent first.
func (s *SpatialService) History() []HistoryEntry {
	return entriesFrom(s.svc.History())
}

// ExportGeoJSON renders the current points as a FeatureCollection.
func (s *SpatialService) ExportGeoJSON() ([]byte, error) {
	return s.svc.ExportGeoJSON()
}
