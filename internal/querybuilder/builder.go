// Package querybuilder turns structured search parameters into engine query strings.
package querybuilder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/geo"
	"github.com/kailas-cloud/dbconsole/internal/domain/index"
)

// Region is an already-resolved spatial predicate argument.
type Region interface {
	// keyword is the spatial function name (CIRCLE, RECTANGLE).
	keyword() string
	// args returns the positional numeric arguments.
	args() []float64
	validate() error
}

// Circle is a center + radius region.
type Circle struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

func (Circle) keyword() string { return "CIRCLE" }

func (c Circle) args() []float64 { return []float64{c.Lat, c.Lng, c.RadiusKm} }

func (c Circle) validate() error {
	if !geo.Finite(c.Lat, c.Lng, c.RadiusKm) {
		return fmt.Errorf("%w: circle arguments must be finite", domain.ErrInvalidParameter)
	}
	if c.RadiusKm <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %g", domain.ErrInvalidParameter, c.RadiusKm)
	}
	return nil
}

// Rectangle is a bounding box. Callers resolve it from center + radius before building.
type Rectangle struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

func (Rectangle) keyword() string { return "RECTANGLE" }

func (r Rectangle) args() []float64 { return []float64{r.MinLat, r.MinLng, r.MaxLat, r.MaxLng} }

// validate rejects inverted latitudes; longitudes may wrap the antimeridian.
func (r Rectangle) validate() error {
	if !geo.Finite(r.MinLat, r.MinLng, r.MaxLat, r.MaxLng) {
		return fmt.Errorf("%w: rectangle bounds must be finite", domain.ErrInvalidParameter)
	}
	if r.MinLat >= r.MaxLat {
		return fmt.Errorf("%w: rectangle min latitude %g must be below max %g",
			domain.ErrInvalidParameter, r.MinLat, r.MaxLat)
	}
	if r.MinLng == r.MaxLng {
		return fmt.Errorf("%w: rectangle has zero width", domain.ErrInvalidParameter)
	}
	return nil
}

// RectangleFromBounds converts resolved bounds into a region.
func RectangleFromBounds(b geo.Bounds) Rectangle {
	return Rectangle{MinLat: b.MinLat, MinLng: b.MinLng, MaxLat: b.MaxLat, MaxLng: b.MaxLng}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTable checks that name is a plain identifier.
func ValidateTable(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%w: invalid table name %q", domain.ErrInvalidParameter, name)
	}
	return nil
}

// Builder renders queries in one dialect.
type Builder struct {
	dialect Dialect
}

// New creates a builder. A nil dialect uses STWithin.
func New(d Dialect) *Builder {
	if d == nil {
		d = STWithin{}
	}
	return &Builder{dialect: d}
}

// Dialect returns the active dialect.
func (b *Builder) Dialect() Dialect { return b.dialect }

// Within builds a spatial containment query over table.
func (b *Builder) Within(table string, r Region) (string, error) {
	if err := ValidateTable(table); err != nil {
		return "", err
	}
	if r == nil {
		return "", fmt.Errorf("%w: region is required", domain.ErrInvalidParameter)
	}
	if err := r.validate(); err != nil {
		return "", err
	}
	return b.dialect.Within(table, call(r)), nil
}

// IndexScan builds a full scan of table forced through an index structure.
func (b *Builder) IndexScan(table string, kind index.Kind) (string, error) {
	if err := ValidateTable(table); err != nil {
		return "", err
	}
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: unknown index kind %q", domain.ErrInvalidParameter, kind)
	}
	return fmt.Sprintf("SELECT * FROM %s USING %s", table, kind), nil
}

// call renders KEYWORD(a, b, c) with unrounded numbers.
func call(r Region) string {
	args := r.args()
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = FormatNumber(v)
	}
	return r.keyword() + "(" + strings.Join(parts, ", ") + ")"
}

// FormatNumber renders v with the fewest digits that round-trip.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
