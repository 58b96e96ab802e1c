package proj

import "math"

// Viewport is the per-frame view state. It is a value type and never changes
// while a frame is being rendered.
type Viewport struct {
	Kind Kind
	// Radius is the on-screen radius of the planet in pixels, the
	// fundamental zoom unit.
	Radius int
	Width  int
	Height int
	// CenterLon and CenterLat are in radians.
	CenterLon float64
	CenterLat float64
}

// NewViewport builds a viewport with the centre normalized: longitude into
// (-π, π], latitude clamped to [-π/2, π/2].
func NewViewport(kind Kind, radius, width, height int, centerLon, centerLat float64) Viewport {
	return Viewport{
		Kind:      kind,
		Radius:    radius,
		Width:     width,
		Height:    height,
		CenterLon: NormalizeLon(centerLon),
		CenterLat: ClampLat(centerLat, -math.Pi/2, math.Pi/2),
	}
}

// Valid reports whether anything at all can be projected with v.
func (v Viewport) Valid() bool {
	return v.Radius > 0 && v.Width > 0 && v.Height > 0 && finite(v.CenterLon, v.CenterLat)
}

// Projection returns the projection selected by v.Kind.
func (v Viewport) Projection() Projection {
	return ForKind(v.Kind)
}

// WithCenter returns a copy of v centred on (lon, lat).
func (v Viewport) WithCenter(lon, lat float64) Viewport {
	return NewViewport(v.Kind, v.Radius, v.Width, v.Height, lon, lat)
}

// WithRadius returns a copy of v with a new radius.
func (v Viewport) WithRadius(radius int) Viewport {
	v.Radius = radius
	return v
}

// WithSize returns a copy of v with a new canvas size.
func (v Viewport) WithSize(width, height int) Viewport {
	v.Width, v.Height = width, height
	return v
}

// WithKind returns a copy of v using another projection.
func (v Viewport) WithKind(kind Kind) Viewport {
	v.Kind = kind
	return v
}

// AnglePerPixel is the angular size of one canvas pixel at the view centre.
func (v Viewport) AnglePerPixel() float64 {
	if v.Radius <= 0 {
		return 0
	}
	if v.Kind == Spherical {
		return 1 / float64(v.Radius)
	}
	return math.Pi / (2 * float64(v.Radius))
}
