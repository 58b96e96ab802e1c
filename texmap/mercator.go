package texmap

import (
	"math"

	"github.com/OpticalFlyer/scanglobe/proj"
	"github.com/OpticalFlyer/scanglobe/raster"
)

// MercatorMapper paints the Mercator map. Like the equirectangular mapper
// it walks scanlines of constant latitude, recovering each row's latitude
// through the inverse Mercator function.
type MercatorMapper struct {
	base
}

func NewMercatorMapper(loader TileLoader, opts Options) *MercatorMapper {
	return &MercatorMapper{base: newBase(loader, opts)}
}

func (*MercatorMapper) Kind() proj.Kind { return proj.Mercator }

func (m *MercatorMapper) MapTexture(canvas *raster.Image, vp proj.Viewport) {
	if !m.beginFrame(canvas, vp) {
		return
	}
	s := m.newSampler()

	radius := float64(vp.Radius)
	halfW, halfH := float64(vp.Width)/2, float64(vp.Height)/2
	rad2Pixel := 2 * radius / math.Pi
	pixel2Rad := math.Pi / (2 * radius)

	// Mercator y runs over [-π, π], which is 4r rows.
	yCenter := halfH + proj.MercatorY(vp.CenterLat)*rad2Pixel
	top, bottom := paintedRange(yCenter-2*radius, yCenter+2*radius, vp.Height)
	canvas.FillRows(0, top, m.opts.Background)
	canvas.FillRows(bottom, vp.Height, m.opts.Background)

	leftLon := vp.CenterLon - halfW*pixel2Rad
	for y := top; y < bottom; y++ {
		lat := proj.InverseMercatorY((yCenter - float64(y)) * pixel2Rad)
		row := canvas.Row(y)
		for x := range row {
			row[x] = m.pixelValue(s, wrapLon(leftLon+float64(x)*pixel2Rad), lat)
		}
	}
	m.endFrame(s, top, bottom)
}
