// Package area models the user-specified spatial search region.
package area

import (
	"fmt"

	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/geo"
)

// Shape is the geometry of a search area.
type Shape string

// Shape constants.
const (
	Circle    Shape = "circle"
	Rectangle Shape = "rectangle"
)

// IsValid checks if the shape is one of the supported values.
func (s Shape) IsValid() bool {
	return s == Circle || s == Rectangle
}

// Default radius bounds in kilometers.
const (
	DefaultMinRadiusKm = 1.0
	DefaultMaxRadiusKm = 50.0
)

// Limits bounds the radius a user may pick.
type Limits struct {
	MinRadiusKm float64
	MaxRadiusKm float64
}

// DefaultLimits returns the 1..50 km slider range.
func DefaultLimits() Limits {
	return Limits{MinRadiusKm: DefaultMinRadiusKm, MaxRadiusKm: DefaultMaxRadiusKm}
}

// Area is an immutable search region. Edits return a new value.
type Area struct {
	centerLat float64
	centerLng float64
	radiusKm  float64
	shape     Shape
}

// New validates and creates a search area.
func New(centerLat, centerLng, radiusKm float64, shape Shape, limits Limits) (Area, error) {
	if shape == "" {
		shape = Circle
	}
	if !shape.IsValid() {
		return Area{}, fmt.Errorf("%w: unknown shape %q", domain.ErrInvalidParameter, shape)
	}
	if !geo.Finite(centerLat, centerLng, radiusKm) {
		return Area{}, fmt.Errorf("%w: coordinates and radius must be finite", domain.ErrInvalidParameter)
	}
	if !geo.ValidCoordinates(centerLat, centerLng) {
		return Area{}, fmt.Errorf("%w: center (%g, %g) out of range", domain.ErrInvalidParameter, centerLat, centerLng)
	}
	if radiusKm <= 0 {
		return Area{}, fmt.Errorf("%w: radius must be positive, got %g", domain.ErrInvalidParameter, radiusKm)
	}
	if radiusKm < limits.MinRadiusKm || (limits.MaxRadiusKm > 0 && radiusKm > limits.MaxRadiusKm) {
		return Area{}, fmt.Errorf("%w: radius must be between %g and %g km, got %g",
			domain.ErrInvalidParameter, limits.MinRadiusKm, limits.MaxRadiusKm, radiusKm)
	}
	return Area{centerLat: centerLat, centerLng: centerLng, radiusKm: radiusKm, shape: shape}, nil
}

// Default returns the area shown when the spatial view mounts (central Lima, 10 km circle).
func Default() Area {
	return Area{centerLat: -12.0464, centerLng: -77.0428, radiusKm: 10, shape: Circle}
}

// CenterLat returns the center latitude in degrees.
func (a Area) CenterLat() float64 { return a.centerLat }

// CenterLng returns the center longitude in degrees.
func (a Area) CenterLng() float64 { return a.centerLng }

// RadiusKm returns the radius in kilometers.
func (a Area) RadiusKm() float64 { return a.radiusKm }

// Shape returns the area geometry.
func (a Area) Shape() Shape { return a.shape }

// WithCenter returns a copy moved to a new center.
func (a Area) WithCenter(lat, lng float64, limits Limits) (Area, error) {
	return New(lat, lng, a.radiusKm, a.shape, limits)
}

// WithRadius returns a copy with a new radius.
func (a Area) WithRadius(radiusKm float64, limits Limits) (Area, error) {
	return New(a.centerLat, a.centerLng, radiusKm, a.shape, limits)
}

// WithShape returns a copy with a new shape.
func (a Area) WithShape(shape Shape, limits Limits) (Area, error) {
	return New(a.centerLat, a.centerLng, a.radiusKm, shape, limits)
}

// Bounds resolves the rectangle enclosing the area.
func (a Area) Bounds() geo.Bounds {
	return geo.BoundsAround(a.centerLat, a.centerLng, a.radiusKm)
}
