package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	domindex "github.com/kailas-cloud/dbconsole/internal/domain/index"
)

// ListIndexes handles GET /api/indexes.
func (s *Server) ListIndexes(w http.ResponseWriter, _ *http.Request) {
	catalog := s.indexes.Catalog()
	out := make([]IndexResponse, len(catalog))
	for i, d := range catalog {
		out[i] = descriptorToResponse(d)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateIndex handles POST /api/indexes.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	var req CreateIndexRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Kind == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Index kind is required")
		return
	}

	kind := domindex.Kind(strings.ToLower(req.Kind))
	msg, err := s.indexes.Create(r.Context(), req.Table, kind)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	tableName := req.Table
	if tableName == "" {
		tableName = s.indexes.Table()
	}
	writeJSON(w, http.StatusCreated, CreateIndexResponse{
		Kind:    string(kind),
		Table:   tableName,
		Message: msg,
	})
}

// ScanIndex handles POST /api/indexes/{kind}/scan. The body is optional.
func (s *Server) ScanIndex(w http.ResponseWriter, r *http.Request) {
	raw, ok := bindPathParam(w, r, "kind")
	if !ok {
		return
	}
	kind := domindex.Kind(strings.ToLower(raw))
	if _, err := s.indexes.Describe(kind); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var req ScanIndexRequest
	if err := decodeOptional(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.indexes.Scan(r.Context(), req.Table, kind)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := ScanIndexResponse{Query: res.Query, Kind: string(res.Kind), Raw: res.Raw}
	if res.Table != nil {
		t := tableToResponse(*res.Table)
		resp.Result = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// IndexTree handles GET /api/indexes/tree.
func (s *Server) IndexTree(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nodesToResponse(s.indexes.Tree()))
}

// ToggleTreeNode handles POST /api/indexes/tree/{nodeID}/toggle.
func (s *Server) ToggleTreeNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := bindPathParam(w, r, "nodeID")
	if !ok {
		return
	}
	nodes, err := s.indexes.Toggle(nodeID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodesToResponse(nodes))
}

// decodeOptional decodes a JSON body, treating an empty body as no input.
func decodeOptional(body io.Reader, dst any) error {
	if body == nil {
		return nil
	}
	err := json.NewDecoder(body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
