// Package adapter normalizes engine responses into table.Result or typed points.
package adapter

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/envelope"
	"github.com/kailas-cloud/dbconsole/internal/domain/geo"
	"github.com/kailas-cloud/dbconsole/internal/domain/point"
	"github.com/kailas-cloud/dbconsole/internal/domain/table"
)

// UnnamedPoint is the display name of a row without one.
const UnnamedPoint = "Unnamed"

// Positional layout of a spatial row.
const (
	colID = iota
	colName
	colLat
	colLng
	colCategory
	colExtra
)

// Points is the spatial adaptation of one response.
type Points struct {
	Items []point.Point
	// Skipped counts rows dropped for missing or invalid coordinates.
	Skipped int
}

// Tabular adapts a query response to headers + rows.
func Tabular(env envelope.Envelope) (table.Result, error) {
	if err := checkOK(env); err != nil {
		return table.Result{}, err
	}
	raw, err := decodeResult(env.Result, false)
	if err != nil {
		return table.Result{}, err
	}

	res := table.Result{
		Headers: raw.headers,
		Rows:    make([][]string, len(raw.rows)),
	}
	for i, row := range raw.rows {
		out := make([]string, len(row))
		for j, c := range row {
			out[j] = c.String()
		}
		res.Rows[i] = out
	}
	return res, nil
}

// Spatial adapts a query response to points. Rows are positional:
// id, name, lat, lng, category, then extras. Invalid rows are skipped.
func Spatial(env envelope.Envelope) (Points, error) {
	if err := checkOK(env); err != nil {
		return Points{}, err
	}
	raw, err := decodeResult(env.Result, true)
	if err != nil {
		return Points{}, err
	}

	out := Points{Items: make([]point.Point, 0, len(raw.rows))}
	for i, row := range raw.rows {
		p, ok := toPoint(i, row)
		if !ok {
			out.Skipped++
			continue
		}
		out.Items = append(out.Items, p)
	}
	return out, nil
}

func toPoint(ordinal int, row []cell) (point.Point, bool) {
	if len(row) <= colLng {
		return point.Point{}, false
	}
	lat, err := row[colLat].Float()
	if err != nil {
		return point.Point{}, false
	}
	lng, err := row[colLng].Float()
	if err != nil {
		return point.Point{}, false
	}
	if !geo.Finite(lat, lng) || !geo.ValidCoordinates(lat, lng) {
		return point.Point{}, false
	}

	p := point.Point{
		ID:       row[colID].String(),
		Name:     row[colName].String(),
		Lat:      lat,
		Lng:      lng,
		Category: point.DefaultCategory,
	}
	if p.ID == "" {
		p.ID = strconv.Itoa(ordinal)
	}
	if p.Name == "" {
		p.Name = UnnamedPoint
	}
	if len(row) > colCategory {
		if c := row[colCategory].String(); c != "" {
			p.Category = c
		}
	}
	for i, c := range row[min(len(row), colExtra):] {
		p.Attributes = append(p.Attributes, point.Attribute{
			Key:   fmt.Sprintf("extra_%d", i),
			Value: c.String(),
		})
	}
	return p, true
}

// checkOK surfaces the engine's own error message for ok:false.
func checkOK(env envelope.Envelope) error {
	if env.OK {
		return nil
	}
	msg := env.Error
	if msg == "" {
		msg = env.Message
	}
	if msg == "" {
		return fmt.Errorf("%w: ok is false without an error message", domain.ErrMalformedResponse)
	}
	return domain.NewRemoteError(msg)
}
