package proj

import "math"

// EquirectProjection is the flat plate carrée view: longitude and latitude
// both scale linearly to pixels. The map repeats horizontally every
// 4*radius pixels.
type EquirectProjection struct{}

func (EquirectProjection) Kind() Kind      { return Equirectangular }
func (EquirectProjection) RepeatX() bool   { return true }
func (EquirectProjection) MaxLat() float64 { return math.Pi / 2 }
func (EquirectProjection) MinLat() float64 { return -math.Pi / 2 }

// flatX places lon on the copy of the map nearest to the canvas centre.
func flatX(lon float64, vp Viewport, rad2Pixel float64) float64 {
	return float64(vp.Width)/2 + NormalizeLon(lon-vp.CenterLon)*rad2Pixel
}

// flatPoint finishes a forward projection shared by the flat projections:
// it prefers an on-canvas repeat of x over the nearest copy.
func flatPoint(x, y float64, hidden bool, vp Viewport) ScreenPoint {
	sp := ScreenPoint{X: x, Y: y, Hidden: hidden}
	if hidden || y < 0 || y >= float64(vp.Height) {
		return sp
	}
	if onCanvas(x, y, vp) {
		sp.OnScreen = true
		return sp
	}
	if xs := RepeatedXs(nil, x, 4*float64(vp.Radius), vp.Width); len(xs) > 0 {
		sp.X, sp.OnScreen = xs[0], true
	}
	return sp
}

func (EquirectProjection) Project(lon, lat float64, vp Viewport) ScreenPoint {
	if !vp.Valid() || !finite(lon, lat) {
		return ScreenPoint{Hidden: true}
	}
	rad2Pixel := 2 * float64(vp.Radius) / math.Pi
	x := flatX(lon, vp, rad2Pixel)
	y := float64(vp.Height)/2 - (lat-vp.CenterLat)*rad2Pixel
	return flatPoint(x, y, math.Abs(lat) > math.Pi/2, vp)
}

func (p EquirectProjection) ScreenCoordinates(lon, lat float64, vp Viewport) (x, y float64, visible bool) {
	sp := p.Project(lon, lat, vp)
	return sp.X, sp.Y, sp.Visible()
}

// RepeatedScreenCoordinates returns all horizontal copies of a point.
//
// Returns:
//   - xs: on-canvas x positions, left to right, spaced by 4*radius
//   - y: the canvas y position shared by all copies
//   - visible: false when no copy lands on the canvas
func (p EquirectProjection) RepeatedScreenCoordinates(lon, lat float64, vp Viewport) ([]float64, float64, bool) {
	sp := p.Project(lon, lat, vp)
	if !sp.Visible() {
		return nil, sp.Y, false
	}
	xs := RepeatedXs(nil, sp.X, 4*float64(vp.Radius), vp.Width)
	return xs, sp.Y, len(xs) > 0
}

func (EquirectProjection) GeoCoordinates(x, y float64, vp Viewport) (lon, lat float64, valid bool) {
	if !vp.Valid() || !finite(x, y) {
		return 0, 0, false
	}
	pixel2Rad := math.Pi / (2 * float64(vp.Radius))
	lat = vp.CenterLat - (y-float64(vp.Height)/2)*pixel2Rad
	if lat > math.Pi/2 || lat < -math.Pi/2 {
		return 0, 0, false
	}
	lon = NormalizeLon(vp.CenterLon + (x-float64(vp.Width)/2)*pixel2Rad)
	return lon, lat, true
}

func (EquirectProjection) VisibleLatLonBox(vp Viewport) LatLonBox {
	if !vp.Valid() {
		return EmptyLatLonBox()
	}
	pixel2Rad := math.Pi / (2 * float64(vp.Radius))
	halfH := (float64(vp.Height)/2 + 1) * pixel2Rad
	north := math.Min(math.Pi/2, vp.CenterLat+halfH)
	south := math.Max(-math.Pi/2, vp.CenterLat-halfH)
	return flatLonRange(north, south, vp, pixel2Rad)
}

func flatLonRange(north, south float64, vp Viewport, pixel2Rad float64) LatLonBox {
	if north < south {
		return EmptyLatLonBox()
	}
	halfW := (float64(vp.Width)/2 + 1) * pixel2Rad
	if halfW >= math.Pi {
		return GlobalLatLonBox(north, south)
	}
	return NewLatLonBox(north, south, vp.CenterLon+halfW, vp.CenterLon-halfW)
}
