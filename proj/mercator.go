package proj

import "math"

// MercatorMaxLat is the latitude at which the Mercator map becomes square,
// atan(sinh(π)).
var MercatorMaxLat = 85.05113 * degToRad

// MercatorY returns the unscaled Mercator ordinate of a latitude.
//
// Parameters:
//   - lat: Latitude in radians (clamped to ±MercatorMaxLat)
//
// Returns:
//   - y: atanh(sin(lat)), in [-π, π] for clamped input
func MercatorY(lat float64) float64 {
	lat = ClampLat(lat, -MercatorMaxLat, MercatorMaxLat)
	return math.Atanh(math.Sin(lat))
}

// InverseMercatorY converts an unscaled Mercator ordinate back to latitude.
func InverseMercatorY(y float64) float64 {
	return math.Atan(math.Sinh(y))
}

// MercatorProjection is the conformal cylindrical view. Latitude is limited
// to ±MercatorMaxLat and the map repeats horizontally like the
// equirectangular view.
type MercatorProjection struct{}

func (MercatorProjection) Kind() Kind      { return Mercator }
func (MercatorProjection) RepeatX() bool   { return true }
func (MercatorProjection) MaxLat() float64 { return MercatorMaxLat }
func (MercatorProjection) MinLat() float64 { return -MercatorMaxLat }

func (MercatorProjection) Project(lon, lat float64, vp Viewport) ScreenPoint {
	if !vp.Valid() || !finite(lon, lat) {
		return ScreenPoint{Hidden: true}
	}
	rad2Pixel := 2 * float64(vp.Radius) / math.Pi
	x := flatX(lon, vp, rad2Pixel)
	y := float64(vp.Height)/2 - rad2Pixel*(MercatorY(lat)-MercatorY(vp.CenterLat))
	return flatPoint(x, y, math.Abs(lat) > MercatorMaxLat, vp)
}

func (p MercatorProjection) ScreenCoordinates(lon, lat float64, vp Viewport) (x, y float64, visible bool) {
	sp := p.Project(lon, lat, vp)
	return sp.X, sp.Y, sp.Visible()
}

func (p MercatorProjection) RepeatedScreenCoordinates(lon, lat float64, vp Viewport) ([]float64, float64, bool) {
	sp := p.Project(lon, lat, vp)
	if !sp.Visible() {
		return nil, sp.Y, false
	}
	xs := RepeatedXs(nil, sp.X, 4*float64(vp.Radius), vp.Width)
	return xs, sp.Y, len(xs) > 0
}

func (MercatorProjection) GeoCoordinates(x, y float64, vp Viewport) (lon, lat float64, valid bool) {
	if !vp.Valid() || !finite(x, y) {
		return 0, 0, false
	}
	pixel2Rad := math.Pi / (2 * float64(vp.Radius))
	yCenterOffset := MercatorY(vp.CenterLat) / pixel2Rad
	lat = InverseMercatorY((float64(vp.Height)/2 + yCenterOffset - y) * pixel2Rad)
	if lat > MercatorMaxLat || lat < -MercatorMaxLat {
		return 0, 0, false
	}
	lon = NormalizeLon(vp.CenterLon + (x-float64(vp.Width)/2)*pixel2Rad)
	return lon, lat, true
}

func (MercatorProjection) VisibleLatLonBox(vp Viewport) LatLonBox {
	if !vp.Valid() {
		return EmptyLatLonBox()
	}
	pixel2Rad := math.Pi / (2 * float64(vp.Radius))
	halfH := (float64(vp.Height)/2 + 1) * pixel2Rad
	yc := MercatorY(vp.CenterLat)
	north := math.Min(MercatorMaxLat, InverseMercatorY(yc+halfH))
	south := math.Max(-MercatorMaxLat, InverseMercatorY(yc-halfH))
	return flatLonRange(north, south, vp, pixel2Rad)
}
