package area

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/dbconsole/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	a, err := New(-12.0464, -77.0428, 10, Circle, DefaultLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.CenterLat() != -12.0464 || a.CenterLng() != -77.0428 {
		t.Errorf("center = (%f, %f)", a.CenterLat(), a.CenterLng())
	}
	if a.RadiusKm() != 10 {
		t.Errorf("RadiusKm() = %f", a.RadiusKm())
	}
	if a.Shape() != Circle {
		t.Errorf("Shape() = %q", a.Shape())
	}
}

func TestNew_DefaultsShapeToCircle(t *testing.T) {
	a, err := New(0, 0, 5, "", DefaultLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Shape() != Circle {
		t.Errorf("Shape() = %q, want circle", a.Shape())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name             string
		lat, lng, radius float64
		shape            Shape
	}{
		{"zero radius", 0, 0, 0, Circle},
		{"negative radius", 0, 0, -3, Circle},
		{"radius above max", 0, 0, 51, Circle},
		{"radius below min", 0, 0, 0.5, Circle},
		{"NaN lat", math.NaN(), 0, 10, Circle},
		{"Inf lng", 0, math.Inf(1), 10, Circle},
		{"lat out of range", 91, 0, 10, Circle},
		{"unknown shape", 0, 0, 10, "polygon"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.lat, tc.lng, tc.radius, tc.shape, DefaultLimits())
			if !errors.Is(err, domain.ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestWith_ReturnsNewValue(t *testing.T) {
	a := Default()
	b, err := a.WithRadius(25, DefaultLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.RadiusKm() != 10 {
		t.Errorf("original mutated: radius %f", a.RadiusKm())
	}
	if b.RadiusKm() != 25 {
		t.Errorf("RadiusKm() = %f, want 25", b.RadiusKm())
	}

	c, err := b.WithShape(Rectangle, DefaultLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Shape() != Rectangle || b.Shape() != Circle {
		t.Errorf("shapes: b=%q c=%q", b.Shape(), c.Shape())
	}

	if _, err := c.WithCenter(100, 0, DefaultLimits()); err == nil {
		t.Error("expected error for out-of-range center")
	}
}

func TestBounds_EnclosesCenter(t *testing.T) {
	b := Default().Bounds()
	if !b.Contains(-12.0464, -77.0428) {
		t.Fatalf("bounds %+v must contain center", b)
	}
}
