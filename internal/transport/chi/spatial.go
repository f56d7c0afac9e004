package chi

import (
	"net/http"

	"github.com/kailas-cloud/dbconsole/internal/domain/area"
	"github.com/kailas-cloud/dbconsole/internal/metrics"
	spatialuc "github.com/kailas-cloud/dbconsole/internal/usecase/spatial"
)

// SpatialSnapshot handles GET /api/spatial.
func (s *Server) SpatialSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.spatial.Snapshot()
	writeJSON(w, http.StatusOK, SpatialResponse{
		Seq:     snap.Seq,
		State:   string(snap.State),
		Area:    areaToResponse(snap.Area),
		Query:   snap.Query,
		Results: hitsToResponse(snap.Results),
		Message: snap.Message,
		Skipped: snap.Skipped,
	})
}

// SpatialSearch handles POST /api/spatial/search.
// Engine failures are part of the controller state and answer 200 with state "failed".
func (s *Server) SpatialSearch(w http.ResponseWriter, r *http.Request) {
	var req SpatialSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	a, err := s.areaFromRequest(req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out, err := s.spatial.Search(r.Context(), a)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	switch {
	case out.Stale:
		metrics.ReportOutcome(r.Context(), metrics.OutcomeStale)
	case out.State == spatialuc.Failed:
		metrics.ReportOutcome(r.Context(), metrics.OutcomeFailed)
	}
	writeJSON(w, http.StatusOK, outcomeToResponse(out, a))
}

// SpatialHistory handles GET /api/spatial/history.
func (s *Server) SpatialHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := bindLimit(w, r)
	if !ok {
		return
	}
	entries := s.spatial.History()
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	writeJSON(w, http.StatusOK, entriesToResponse(entries))
}

// ExportSpatial handles GET /api/spatial/export.
func (s *Server) ExportSpatial(w http.ResponseWriter, r *http.Request) {
	data, err := s.spatial.ExportGeoJSON()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Disposition", `attachment; filename="spatial_results.geojson"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// areaFromRequest overlays the request on the current area.
func (s *Server) areaFromRequest(req SpatialSearchRequest) (area.Area, error) {
	cur := s.spatial.Snapshot().Area
	lat, lng, radius, shape := cur.CenterLat(), cur.CenterLng(), cur.RadiusKm(), cur.Shape()
	if req.Lat != nil {
		lat = *req.Lat
	}
	if req.Lng != nil {
		lng = *req.Lng
	}
	if req.RadiusKm != nil {
		radius = *req.RadiusKm
	}
	if req.Shape != nil {
		shape = area.Shape(*req.Shape)
	}
	return area.New(lat, lng, radius, shape, s.limits)
}

func areaToResponse(a area.Area) *AreaResponse {
	b := a.Bounds()
	return &AreaResponse{
		Lat:      a.CenterLat(),
		Lng:      a.CenterLng(),
		RadiusKm: a.RadiusKm(),
		Shape:    string(a.Shape()),
		MinLat:   b.MinLat,
		MinLng:   b.MinLng,
		MaxLat:   b.MaxLat,
		MaxLng:   b.MaxLng,
	}
}

func outcomeToResponse(out spatialuc.Outcome, a area.Area) SpatialResponse {
	resp := SpatialResponse{
		Seq:     out.Seq,
		Stale:   out.Stale,
		State:   string(out.State),
		Query:   out.Query,
		Results: hitsToResponse(out.Results),
		Message: out.Message,
		Skipped: out.Skipped,
	}
	if !out.Stale {
		resp.Area = areaToResponse(a)
	}
	return resp
}
