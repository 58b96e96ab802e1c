package globe

import (
	"math"

	"github.com/OpticalFlyer/scanglobe/proj"
)

// ZoomIn grows the planet by one zoom step unless it is at MaxRadius.
func (m *Map) ZoomIn() bool {
	return m.zoomTo(m.zoomedRadius(true))
}

// ZoomOut shrinks the planet by one zoom step unless it is at MinRadius.
func (m *Map) ZoomOut() bool {
	return m.zoomTo(m.zoomedRadius(false))
}

func (m *Map) zoomedRadius(in bool) int {
	r := float64(m.vp.Radius)
	if in {
		return int(math.Ceil(r * m.opts.ZoomFactor))
	}
	return int(math.Floor(r / m.opts.ZoomFactor))
}

func (m *Map) zoomTo(radius int) bool {
	radius = m.clampRadius(radius)
	if radius == m.vp.Radius {
		return false
	}
	m.SetRadius(radius)
	return true
}

// ZoomAtPoint zooms the map while keeping the geographic point under the
// given canvas position in place.
func (m *Map) ZoomAtPoint(zoomIn bool, x, y float64) {
	lon, lat, ok := m.ScreenToGeo(x, y)
	if !ok {
		return // Don't zoom if the cursor is off the planet
	}
	if !m.zoomTo(m.zoomedRadius(zoomIn)) {
		return
	}

	if m.vp.Kind != proj.Spherical {
		m.SetCenter(m.flatCenterFor(lon, lat, x, y))
		return
	}

	// Rotating the globe moves the point non-linearly; a few corrections
	// converge well below a pixel.
	for iter := 0; iter < 4; iter++ {
		nlon, nlat, ok := m.ScreenToGeo(x, y)
		if !ok {
			return
		}
		dLon := proj.NormalizeLon(lon - nlon)
		dLat := lat - nlat
		if math.Abs(dLon) < 1e-12 && math.Abs(dLat) < 1e-12 {
			return
		}
		m.SetCenter(m.vp.CenterLon+dLon, m.vp.CenterLat+dLat)
	}
}

// flatCenterFor returns the view centre that puts (lon, lat) at canvas
// position (x, y) on a flat map.
func (m *Map) flatCenterFor(lon, lat, x, y float64) (float64, float64) {
	a := m.vp.AnglePerPixel()
	centerLon := lon - (x-float64(m.vp.Width)/2)*a
	dy := (float64(m.vp.Height)/2 - y) * a
	if m.vp.Kind == proj.Mercator {
		return centerLon, proj.InverseMercatorY(proj.MercatorY(lat) - dy)
	}
	return centerLon, lat - dy
}
