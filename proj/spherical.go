package proj

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// SphericalProjection shows the planet as an orthographic globe seen from
// outside. Points on the far hemisphere are hidden.
type SphericalProjection struct{}

func (SphericalProjection) Kind() Kind      { return Spherical }
func (SphericalProjection) RepeatX() bool   { return false }
func (SphericalProjection) MaxLat() float64 { return math.Pi / 2 }
func (SphericalProjection) MinLat() float64 { return -math.Pi / 2 }

// WorldVector returns the unit vector of a geographic point.
func WorldVector(lon, lat float64) r3.Vector {
	return s2.PointFromLatLng(s2.LatLng{Lat: s1.Angle(lat), Lng: s1.Angle(lon)}).Vector
}

// ViewVector rotates a world vector into view space: X right, Y up, Z toward
// the viewer. rot is the matrix of ViewRotation.
func ViewVector(rot *Matrix, world r3.Vector) r3.Vector {
	w := rot.Apply(world)
	return r3.Vector{X: w.Y, Y: w.Z, Z: w.X}
}

// GeoFromView rotates a view-space vector back to world space and returns
// its longitude and latitude. inv is the matrix of the conjugate
// ViewRotation.
func GeoFromView(inv *Matrix, x, y, z float64) (lon, lat float64) {
	world := inv.Apply(r3.Vector{X: z, Y: x, Z: y})
	ll := s2.LatLngFromPoint(s2.Point{Vector: world})
	return NormalizeLon(ll.Lng.Radians()), ll.Lat.Radians()
}

func (SphericalProjection) Project(lon, lat float64, vp Viewport) ScreenPoint {
	if !vp.Valid() || !finite(lon, lat) || math.Abs(lat) > math.Pi/2 {
		return ScreenPoint{Hidden: true}
	}
	rot := ViewRotation(vp.CenterLon, vp.CenterLat).Matrix()
	v := ViewVector(&rot, WorldVector(lon, lat))
	r := float64(vp.Radius)
	x := float64(vp.Width)/2 + r*v.X
	y := float64(vp.Height)/2 - r*v.Y
	return ScreenPoint{X: x, Y: y, Hidden: v.Z < 0, OnScreen: onCanvas(x, y, vp)}
}

func (p SphericalProjection) ScreenCoordinates(lon, lat float64, vp Viewport) (x, y float64, visible bool) {
	sp := p.Project(lon, lat, vp)
	return sp.X, sp.Y, sp.Visible()
}

func (p SphericalProjection) RepeatedScreenCoordinates(lon, lat float64, vp Viewport) ([]float64, float64, bool) {
	x, y, ok := p.ScreenCoordinates(lon, lat, vp)
	if !ok {
		return nil, y, false
	}
	return []float64{x}, y, true
}

func (SphericalProjection) GeoCoordinates(x, y float64, vp Viewport) (lon, lat float64, valid bool) {
	if !vp.Valid() || !finite(x, y) {
		return 0, 0, false
	}
	r := float64(vp.Radius)
	xv := (x - float64(vp.Width)/2) / r
	yv := (float64(vp.Height)/2 - y) / r
	d2 := xv*xv + yv*yv
	if d2 > 1 {
		return 0, 0, false
	}
	inv := ViewRotation(vp.CenterLon, vp.CenterLat).Conjugate().Matrix()
	lon, lat = GeoFromView(&inv, xv, yv, math.Sqrt(1-d2))
	return lon, lat, true
}

// VisibleLatLonBox bounds the spherical cap around the view centre that
// contains every visible canvas pixel.
func (SphericalProjection) VisibleLatLonBox(vp Viewport) LatLonBox {
	if !vp.Valid() {
		return EmptyLatLonBox()
	}
	const margin = 1e-9
	r := float64(vp.Radius)
	d := math.Min(r, math.Hypot(float64(vp.Width)/2+1, float64(vp.Height)/2+1))
	alpha := math.Pi / 2
	if d < r {
		alpha = math.Asin(d / r)
	}
	alpha += margin

	north := vp.CenterLat + alpha
	south := vp.CenterLat - alpha
	if north >= math.Pi/2 || south <= -math.Pi/2 {
		return GlobalLatLonBox(math.Min(north, math.Pi/2), math.Max(south, -math.Pi/2))
	}
	s := math.Sin(alpha) / math.Cos(vp.CenterLat)
	if s >= 1 {
		return GlobalLatLonBox(north, south)
	}
	dLon := math.Asin(s)
	return NewLatLonBox(north, south, vp.CenterLon+dLon, vp.CenterLon-dLon)
}
