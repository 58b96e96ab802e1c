package texmap

import (
	"math"

	"github.com/OpticalFlyer/scanglobe/proj"
	"github.com/OpticalFlyer/scanglobe/raster"
)

// EquirectMapper paints the plate carrée map. Latitude is constant along a
// scanline and longitude advances by a fixed step per pixel.
type EquirectMapper struct {
	base
}

func NewEquirectMapper(loader TileLoader, opts Options) *EquirectMapper {
	return &EquirectMapper{base: newBase(loader, opts)}
}

func (*EquirectMapper) Kind() proj.Kind { return proj.Equirectangular }

func (m *EquirectMapper) MapTexture(canvas *raster.Image, vp proj.Viewport) {
	if !m.beginFrame(canvas, vp) {
		return
	}
	s := m.newSampler()

	radius := float64(vp.Radius)
	halfW, halfH := float64(vp.Width)/2, float64(vp.Height)/2
	rad2Pixel := 2 * radius / math.Pi
	pixel2Rad := math.Pi / (2 * radius)

	// The map spans 2r rows from the north pole down.
	yTop := halfH - radius + vp.CenterLat*rad2Pixel
	top, bottom := paintedRange(yTop, yTop+2*radius, vp.Height)
	canvas.FillRows(0, top, m.opts.Background)
	canvas.FillRows(bottom, vp.Height, m.opts.Background)

	leftLon := vp.CenterLon - halfW*pixel2Rad
	for y := top; y < bottom; y++ {
		lat := vp.CenterLat - (float64(y)-halfH)*pixel2Rad
		row := canvas.Row(y)
		for x := range row {
			row[x] = m.pixelValue(s, wrapLon(leftLon+float64(x)*pixel2Rad), lat)
		}
	}
	m.endFrame(s, top, bottom)
}
