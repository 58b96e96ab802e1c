// Package raster provides the packed-pixel buffers shared by tiles and the
// output canvas.
package raster

import "image/color"

// Color is a non-premultiplied 0xAARRGGBB pixel.
type Color uint32

const (
	Transparent Color = 0
	Black       Color = 0xff000000
	White       Color = 0xffffffff
)

// NewColor packs 8-bit channels.
func NewColor(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// FromColor converts any color.Color to a packed Color.
func FromColor(c color.Color) Color {
	if p, ok := c.(Color); ok {
		return p
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return NewColor(n.R, n.G, n.B, n.A)
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

// NRGBA returns c as a standard library color.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// Bilinear blends a 2x2 neighbourhood. c00 is the top-left sample, fx and fy
// are the fractional offsets toward c10 (right) and c01 (below).
func Bilinear(c00, c10, c01, c11 Color, fx, fy float64) Color {
	if fx <= 0 && fy <= 0 {
		return c00
	}
	w00 := (1 - fx) * (1 - fy)
	w10 := fx * (1 - fy)
	w01 := (1 - fx) * fy
	w11 := fx * fy
	ch := func(shift uint) uint32 {
		v := w00*float64((c00>>shift)&0xff) +
			w10*float64((c10>>shift)&0xff) +
			w01*float64((c01>>shift)&0xff) +
			w11*float64((c11>>shift)&0xff)
		u := uint32(v + 0.5)
		if u > 0xff {
			u = 0xff
		}
		return u << shift
	}
	return Color(ch(24) | ch(16) | ch(8) | ch(0))
}
