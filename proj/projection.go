// Package proj maps between geographic coordinates and canvas pixels for the
// globe, equirectangular and Mercator views.
package proj

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/s1"
)

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Kind selects one of the supported projections.
type Kind int

const (
	Spherical Kind = iota
	Equirectangular
	Mercator
)

func (k Kind) String() string {
	switch k {
	case Spherical:
		return "spherical"
	case Equirectangular:
		return "equirectangular"
	case Mercator:
		return "mercator"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names printed by Kind.String plus the aliases
// "globe" and "flat".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spherical", "globe":
		return Spherical, nil
	case "equirectangular", "flat", "plate-carree":
		return Equirectangular, nil
	case "mercator":
		return Mercator, nil
	}
	return 0, fmt.Errorf("unknown projection %q", s)
}

// GeoPoint is a longitude/latitude pair in radians.
type GeoPoint struct {
	Lon float64
	Lat float64
}

// GeoPointFromDegrees converts degrees to a GeoPoint.
func GeoPointFromDegrees(lon, lat float64) GeoPoint {
	return GeoPoint{Lon: lon * degToRad, Lat: lat * degToRad}
}

// Degrees returns the point in degrees.
func (p GeoPoint) Degrees() (lon, lat float64) {
	return p.Lon * radToDeg, p.Lat * radToDeg
}

// ScreenPoint is the result of forward-projecting a geographic point.
type ScreenPoint struct {
	X, Y float64
	// Hidden is set when the planet itself hides the point, or the point lies
	// outside the projection's latitude range.
	Hidden bool
	// OnScreen is set when the point lands inside the canvas.
	OnScreen bool
}

// Visible reports whether the point can be seen on the canvas.
func (p ScreenPoint) Visible() bool {
	return !p.Hidden && p.OnScreen
}

// Projection converts between geographic coordinates and canvas pixels for a
// given viewport. Implementations are stateless.
type Projection interface {
	Kind() Kind

	// Project forward-projects a point and reports why it may be invisible.
	Project(lon, lat float64, vp Viewport) ScreenPoint

	// ScreenCoordinates forward-projects a point. visible is false when the
	// point cannot appear on the canvas.
	ScreenCoordinates(lon, lat float64, vp Viewport) (x, y float64, visible bool)

	// RepeatedScreenCoordinates returns every on-canvas x position of a point
	// for projections that repeat horizontally, spaced by 4*radius.
	RepeatedScreenCoordinates(lon, lat float64, vp Viewport) (xs []float64, y float64, visible bool)

	// GeoCoordinates is the inverse of ScreenCoordinates. valid is false when
	// (x, y) lies outside the projected map area.
	GeoCoordinates(x, y float64, vp Viewport) (lon, lat float64, valid bool)

	// VisibleLatLonBox returns a box that contains everything visible in vp.
	// It may over-include but never under-include.
	VisibleLatLonBox(vp Viewport) LatLonBox

	RepeatX() bool
	MaxLat() float64
	MinLat() float64
}

// ForKind returns the projection for k. Unknown kinds fall back to the
// spherical projection.
func ForKind(k Kind) Projection {
	switch k {
	case Equirectangular:
		return EquirectProjection{}
	case Mercator:
		return MercatorProjection{}
	}
	return SphericalProjection{}
}

// NormalizeLon wraps lon into (-π, π].
func NormalizeLon(lon float64) float64 {
	return float64(s1.Angle(lon).Normalized())
}

// ClampLat clamps lat into [min, max].
func ClampLat(lat, min, max float64) float64 {
	return math.Max(min, math.Min(max, lat))
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func onCanvas(x, y float64, vp Viewport) bool {
	return x >= 0 && x < float64(vp.Width) && y >= 0 && y < float64(vp.Height)
}

// RepeatedXs appends every copy of x spaced by period that lands in [0, width).
func RepeatedXs(xs []float64, x, period float64, width int) []float64 {
	if period <= 0 {
		return xs
	}
	x0 := x - math.Floor(x/period)*period
	for xi := x0; xi < float64(width); xi += period {
		xs = append(xs, xi)
	}
	return xs
}
