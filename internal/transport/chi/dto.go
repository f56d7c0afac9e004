package chi

import (
	"encoding/json"
	"time"

	"github.com/kailas-cloud/dbconsole/internal/domain/history"
	domindex "github.com/kailas-cloud/dbconsole/internal/domain/index"
	"github.com/kailas-cloud/dbconsole/internal/domain/table"
	"github.com/kailas-cloud/dbconsole/internal/domain/tree"
	spatialuc "github.com/kailas-cloud/dbconsole/internal/usecase/spatial"
)

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeUnsupportedFile   ErrorCode = "unsupported_file"
	CodeNotFound          ErrorCode = "not_found"
	CodeEngineError       ErrorCode = "engine_error"
	CodeMalformedResponse ErrorCode = "malformed_response"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks"`
	EngineMessage string            `json:"engine_message,omitempty"`
}

// TableResponse is a headers + rows table.
type TableResponse struct {
	Headers  []string   `json:"headers"`
	Rows     [][]string `json:"rows"`
	RowCount int        `json:"row_count"`
}

// HistoryEntryResponse is one recorded attempt.
type HistoryEntryResponse struct {
	ID              string    `json:"id"`
	Query           string    `json:"query"`
	Timestamp       time.Time `json:"timestamp"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	Status          string    `json:"status"`
}

// QueryRequest is the body of POST /api/query and PUT /api/query/saved.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is one executed query.
type QueryResponse struct {
	Seq             uint64               `json:"seq"`
	Query           string               `json:"query"`
	Result          TableResponse        `json:"result"`
	ExecutionTimeMs int64                `json:"execution_time_ms"`
	Entry           HistoryEntryResponse `json:"history_entry"`
	Stale           bool                 `json:"stale"`
}

// SamplesResponse lists example queries and known tables.
type SamplesResponse struct {
	Queries []string `json:"queries"`
	Tables  []string `json:"tables"`
}

// SpatialSearchRequest is the body of POST /api/spatial/search.
// Omitted fields keep the value of the current area.
type SpatialSearchRequest struct {
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	RadiusKm *float64 `json:"radius_km,omitempty"`
	Shape    *string  `json:"shape,omitempty"`
}

// AreaResponse is a search area.
type AreaResponse struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radius_km"`
	Shape    string  `json:"shape"`
	MinLat   float64 `json:"min_lat"`
	MinLng   float64 `json:"min_lng"`
	MaxLat   float64 `json:"max_lat"`
	MaxLng   float64 `json:"max_lng"`
}

// PointResponse is one spatial hit.
type PointResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Lat        float64           `json:"lat"`
	Lng        float64           `json:"lng"`
	Category   string            `json:"category"`
	DistanceKm float64           `json:"distance_km"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// SpatialResponse is the controller state after a search or on demand.
type SpatialResponse struct {
	Seq     uint64          `json:"seq"`
	Stale   bool            `json:"stale,omitempty"`
	State   string          `json:"state"`
	Area    *AreaResponse   `json:"area,omitempty"`
	Query   string          `json:"query,omitempty"`
	Results []PointResponse `json:"results"`
	Message string          `json:"message,omitempty"`
	Skipped int             `json:"skipped"`
}

// IndexResponse describes one index structure.
type IndexResponse struct {
	Kind        string   `json:"kind"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Complexity  string   `json:"complexity"`
	BestFor     []string `json:"best_for"`
}

// CreateIndexRequest is the body of POST /api/indexes.
type CreateIndexRequest struct {
	Kind  string `json:"kind"`
	Table string `json:"table,omitempty"`
}

// CreateIndexResponse confirms an index build.
type CreateIndexResponse struct {
	Kind    string `json:"kind"`
	Table   string `json:"table"`
	Message string `json:"message"`
}

// ScanIndexRequest is the optional body of POST /api/indexes/{kind}/scan.
type ScanIndexRequest struct {
	Table string `json:"table,omitempty"`
}

// ScanIndexResponse is an index-forced scan.
type ScanIndexResponse struct {
	Query  string          `json:"query"`
	Kind   string          `json:"kind"`
	Raw    json.RawMessage `json:"raw,omitempty"`
	Result *TableResponse  `json:"result,omitempty"`
}

// TreeNodeResponse is one visible node of the index tree.
type TreeNodeResponse struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Depth      int    `json:"depth"`
	Expandable bool   `json:"expandable"`
	Expanded   bool   `json:"expanded"`
}

// UploadResponse reports an engine upload.
type UploadResponse struct {
	FileName    string        `json:"file_name"`
	TableName   string        `json:"table_name"`
	FileSize    string        `json:"file_size"`
	RecordCount int           `json:"record_count"`
	Inserted    int           `json:"inserted"`
	Failed      int           `json:"failed"`
	Preview     TableResponse `json:"preview"`
	Message     string        `json:"message,omitempty"`
}

// PreviewResponse is a local CSV preview.
type PreviewResponse struct {
	FileName  string        `json:"file_name"`
	FileSize  string        `json:"file_size"`
	TotalRows int           `json:"total_rows"`
	Preview   TableResponse `json:"preview"`
}

func tableToResponse(t table.Result) TableResponse {
	rows := t.Rows
	if rows == nil {
		rows = [][]string{}
	}
	headers := t.Headers
	if headers == nil {
		headers = []string{}
	}
	return TableResponse{Headers: headers, Rows: rows, RowCount: len(rows)}
}

func entryToResponse(e history.Entry) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:              e.ID,
		Query:           e.QueryText,
		Timestamp:       e.Timestamp,
		ExecutionTimeMs: e.ExecutionTimeMs,
		Status:          string(e.Status),
	}
}

func entriesToResponse(entries []history.Entry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = entryToResponse(e)
	}
	return out
}

func hitsToResponse(hits []spatialuc.Hit) []PointResponse {
	out := make([]PointResponse, len(hits))
	for i, h := range hits {
		p := PointResponse{
			ID:         h.ID,
			Name:       h.Name,
			Lat:        h.Lat,
			Lng:        h.Lng,
			Category:   h.Category,
			DistanceKm: h.DistanceKm,
		}
		if len(h.Attributes) > 0 {
			p.Attributes = make(map[string]string, len(h.Attributes))
			for _, a := range h.Attributes {
				p.Attributes[a.Key] = a.Value
			}
		}
		out[i] = p
	}
	return out
}

func descriptorToResponse(d domindex.Descriptor) IndexResponse {
	return IndexResponse{
		Kind:        string(d.Kind),
		Name:        d.DisplayName,
		Description: d.Description,
		Complexity:  d.ComplexityLabel,
		BestFor:     d.BestForTags(),
	}
}

func nodesToResponse(nodes []tree.VisibleNode) []TreeNodeResponse {
	out := make([]TreeNodeResponse, len(nodes))
	for i, n := range nodes {
		out[i] = TreeNodeResponse{
			ID:         n.ID,
			Label:      n.Label,
			Depth:      n.Depth,
			Expandable: n.Expandable,
			Expanded:   n.Expanded,
		}
	}
	return out
}
