package proj

import (
	"fmt"
	"math"
)

// LatLonBox is a geographic bounding box in radians. A box whose West edge
// is greater than its East edge crosses the antimeridian.
type LatLonBox struct {
	North, South float64
	East, West   float64
}

// NewLatLonBox normalizes the longitudes of a box.
func NewLatLonBox(north, south, east, west float64) LatLonBox {
	return LatLonBox{North: north, South: south, East: NormalizeLon(east), West: NormalizeLon(west)}
}

// GlobalLatLonBox spans every longitude between south and north.
func GlobalLatLonBox(north, south float64) LatLonBox {
	return LatLonBox{North: north, South: south, East: math.Pi, West: -math.Pi}
}

// EmptyLatLonBox contains nothing.
func EmptyLatLonBox() LatLonBox {
	return LatLonBox{North: -math.Pi, South: math.Pi}
}

// IsEmpty reports whether the box contains no point.
func (b LatLonBox) IsEmpty() bool {
	return b.North < b.South
}

// CrossesDateLine reports whether the box wraps across ±180°.
func (b LatLonBox) CrossesDateLine() bool {
	return b.West > b.East
}

// Width returns the longitudinal extent in radians.
func (b LatLonBox) Width() float64 {
	if b.IsEmpty() {
		return 0
	}
	w := b.East - b.West
	if b.CrossesDateLine() {
		w += 2 * math.Pi
	}
	return w
}

// Height returns the latitudinal extent in radians.
func (b LatLonBox) Height() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.North - b.South
}

// Contains reports whether p lies inside the box.
func (b LatLonBox) Contains(p GeoPoint) bool {
	if b.IsEmpty() || !finite(p.Lon, p.Lat) {
		return false
	}
	if p.Lat > b.North || p.Lat < b.South {
		return false
	}
	if b.Width() >= 2*math.Pi {
		return true
	}
	lon := NormalizeLon(p.Lon)
	if b.CrossesDateLine() {
		return lon >= b.West || lon <= b.East
	}
	return lon >= b.West && lon <= b.East
}

func (b LatLonBox) String() string {
	if b.IsEmpty() {
		return "LatLonBox(empty)"
	}
	return fmt.Sprintf("LatLonBox(N %.4f S %.4f E %.4f W %.4f)",
		b.North*radToDeg, b.South*radToDeg, b.East*radToDeg, b.West*radToDeg)
}
