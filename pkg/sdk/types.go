package dbconsole

import (
	"encoding/json"
	"time"

	"github.com/kailas-cloud/dbconsole/internal/domain/history"
	domindex "github.com/kailas-cloud/dbconsole/internal/domain/index"
	"github.com/kailas-cloud/dbconsole/internal/domain/table"
	"github.com/kailas-cloud/dbconsole/internal/domain/tree"
	spatialuc "github.com/kailas-cloud/dbconsole/internal/usecase/spatial"
)

// Table is a headers + rows result. Every cell is rendered as text.
type Table struct {
	Headers []string
	Rows    [][]string
}

// QueryResult is one executed query.
type QueryResult struct {
	Query           string
	Table           Table
	ExecutionTimeMs int64
	// Stale is set when a newer query was issued before this one finished.
	Stale bool
}

// HistoryEntry is one recorded attempt.
type HistoryEntry struct {
	ID              string
	Query           string
	Timestamp       time.Time
	ExecutionTimeMs int64
	Status          string // "success" or "error"
}

// SavedQuery is the query kept for later.
type SavedQuery struct {
	Query   string
	SavedAt time.Time
}

// Shape is the geometry of a search area.
type Shape string

// Shape constants.
const (
	ShapeCircle    Shape = "circle"
	ShapeRectangle Shape = "rectangle"
)

// SearchArea is a spatial search region. An empty Shape means circle.
type SearchArea struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Shape    Shape
}

// Point is one spatial hit.
type Point struct {
	ID         string
	Name       string
	Lat        float64
	Lng        float64
	Category   string
	DistanceKm float64
	Attributes map[string]string
}

// SpatialResult is the state after a search.
type SpatialResult struct {
	State   string // idle, searching, succeeded, failed
	Query   string
	Points  []Point
	Message string
	// Skipped counts rows dropped for invalid coordinates.
	Skipped int
	// Stale is set when a newer search superseded this one; nothing changed.
	Stale bool
}

// IndexInfo describes an index structure the engine offers.
type IndexInfo struct {
	Kind        string
	Name        string
	Description string
	Complexity  string
	BestFor     []string
}

// ScanResult is an index-forced scan.
type ScanResult struct {
	Query string
	Kind  string
	// Raw is the result exactly as the engine sent it.
	Raw json.RawMessage
	// Table is nil when the engine answered with a non-tabular result.
	Table *Table
}

// TreeNode is one visible node of the illustrative B+ tree.
type TreeNode struct {
	ID         string
	Label      string
	Depth      int
	Expandable bool
	Expanded   bool
}

// UploadResult reports a CSV file loaded into an engine table.
type UploadResult struct {
	FileName    string
	TableName   string
	FileSize    string
	RecordCount int
	Inserted    int
	Failed      int
	Preview     Table
	Message     string
}

func tableFrom(t table.Result) Table {
	return Table{Headers: t.Headers, Rows: t.Rows}
}

func entriesFrom(entries []history.Entry) []HistoryEntry {
	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntry{
			ID:              e.ID,
			Query:           e.QueryText,
			Timestamp:       e.Timestamp,
			ExecutionTimeMs: e.ExecutionTimeMs,
			Status:          string(e.Status),
		}
	}
	return out
}

func pointsFrom(hits []spatialuc.Hit) []Point {
	out := make([]Point, len(hits))
	for i, h := range hits {
		p := Point{
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

func indexInfoFrom(d domindex.Descriptor) IndexInfo {
	return IndexInfo{
		Kind:        string(d.Kind),
		Name:        d.DisplayName,
		Description: d.Description,
		Complexity:  d.ComplexityLabel,
		BestFor:     d.BestForTags(),
	}
}

func nodesFrom(nodes []tree.VisibleNode) []TreeNode {
	out := make([]TreeNode, len(nodes))
	for i, n := range nodes {
		out[i] = TreeNode{
			ID:         n.ID,
			Label:      n.Label,
			Depth:      n.Depth,
			Expandable: n.Expandable,
			Expanded:   n.Expanded,
		}
	}
	return out
}
