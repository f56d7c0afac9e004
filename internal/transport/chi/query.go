package chi

import (
	"net/http"

	"github.com/kailas-cloud/dbconsole/internal/metrics"
)

// ExecuteQuery handles POST /api/query.
func (s *Server) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	exec, err := s.query.Execute(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if exec.Stale {
		metrics.ReportOutcome(r.Context(), metrics.OutcomeStale)
	}
	writeJSON(w, http.StatusOK, QueryResponse{
		Seq:             exec.Seq,
		Query:           exec.Query,
		Result:          tableToResponse(exec.Result),
		ExecutionTimeMs: exec.ExecutionTimeMs,
		Entry:           entryToResponse(exec.Entry),
		Stale:           exec.Stale,
	})
}

// QueryHistory handles GET /api/query/history.
func (s *Server) QueryHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := bindLimit(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entriesToResponse(s.query.History(limit)))
}

// QuerySamples handles GET /api/query/samples.
func (s *Server) QuerySamples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SamplesResponse{
		Queries: s.query.Samples(),
		Tables:  s.query.Tables(),
	})
}

// GetSavedQuery handles GET /api/query/saved.
func (s *Server) GetSavedQuery(w http.ResponseWriter, r *http.Request) {
	saved, err := s.query.Saved(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// SaveQuery handles PUT /api/query/saved.
func (s *Server) SaveQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	saved, err := s.query.Save(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// ExportQuery handles GET /api/query/export.
func (s *Server) ExportQuery(w http.ResponseWriter, r *http.Request) {
	data, err := s.query.ExportCSV()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="query_result.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
