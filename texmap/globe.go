package texmap

import (
	"math"

	"github.com/OpticalFlyer/scanglobe/proj"
	"github.com/OpticalFlyer/scanglobe/raster"
	"github.com/golang/geo/r3"
)

// GlobeMapper paints the orthographic globe. Each scanline is clipped to the
// chord of the planet disc and every pixel on it is rotated back into world
// space.
type GlobeMapper struct {
	base
}

func NewGlobeMapper(loader TileLoader, opts Options) *GlobeMapper {
	return &GlobeMapper{base: newBase(loader, opts)}
}

func (*GlobeMapper) Kind() proj.Kind { return proj.Spherical }

func (m *GlobeMapper) MapTexture(canvas *raster.Image, vp proj.Viewport) {
	if !m.beginFrame(canvas, vp) {
		return
	}
	s := m.newSampler()

	inv := proj.ViewRotation(vp.CenterLon, vp.CenterLat).Conjugate().Matrix()
	radius := float64(vp.Radius)
	cx, cy := float64(vp.Width)/2, float64(vp.Height)/2

	top, bottom := paintedRange(cy-radius, cy+radius+1, vp.Height)
	canvas.FillRows(0, top, m.opts.Background)
	canvas.FillRows(bottom, vp.Height, m.opts.Background)

	for y := top; y < bottom; y++ {
		yv := (cy - float64(y)) / radius
		rem := 1 - yv*yv
		if rem < 0 {
			canvas.FillRows(y, y+1, m.opts.Background)
			continue
		}
		half := math.Sqrt(rem) * radius
		left := max(0, min(int(math.Ceil(cx-half)), vp.Width))
		right := max(0, min(int(math.Floor(cx+half))+1, vp.Width))
		canvas.FillSpan(y, 0, left, m.opts.Background)
		canvas.FillSpan(y, right, vp.Width, m.opts.Background)

		row := canvas.Row(y)
		for x := left; x < right; x++ {
			xv := (float64(x) - cx) / radius
			zz := rem - xv*xv
			if zz < 0 {
				row[x] = m.opts.Background
				continue
			}
			// Inlined proj.GeoFromView; atan2 already lands in (-π, π].
			w := inv.Apply(r3.Vector{X: math.Sqrt(zz), Y: xv, Z: yv})
			lat := math.Asin(max(-1, min(w.Z, 1)))
			lon := math.Atan2(w.Y, w.X)
			row[x] = m.pixelValue(s, lon, lat)
		}
	}
	m.endFrame(s, top, bottom)
}
