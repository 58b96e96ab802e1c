package raster

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
)

// Image is a row-major buffer of packed pixels. It implements image.Image.
type Image struct {
	width  int
	height int
	pix    []Color
}

// NewImage allocates a transparent image. Negative sizes yield an empty image.
func NewImage(width, height int) *Image {
	width, height = max(width, 0), max(height, 0)
	return &Image{
		width:  width,
		height: height,
		pix:    make([]Color, width*height),
	}
}

// Width returns the width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the height in pixels.
func (m *Image) Height() int { return m.height }

// Pix exposes the backing slice.
func (m *Image) Pix() []Color { return m.pix }

// Row returns the pixels of row y. It panics if y is out of range.
func (m *Image) Row(y int) []Color {
	return m.pix[y*m.width : (y+1)*m.width]
}

// Pixel returns the pixel at (x, y), or Transparent outside the image.
func (m *Image) Pixel(x, y int) Color {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return Transparent
	}
	return m.pix[y*m.width+x]
}

// SetPixel writes one pixel; writes outside the image are ignored.
func (m *Image) SetPixel(x, y int, c Color) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.pix[y*m.width+x] = c
}

// Fill paints every pixel with c.
func (m *Image) Fill(c Color) {
	fillColors(m.pix, c)
}

// FillRows paints rows [y0, y1) with c. The range is clipped to the image.
func (m *Image) FillRows(y0, y1 int, c Color) {
	y0, y1 = max(y0, 0), min(y1, m.height)
	if y0 >= y1 {
		return
	}
	fillColors(m.pix[y0*m.width:y1*m.width], c)
}

// FillSpan paints pixels [x0, x1) of row y with c, clipped to the image.
func (m *Image) FillSpan(y, x0, x1 int, c Color) {
	if y < 0 || y >= m.height {
		return
	}
	x0, x1 = max(x0, 0), min(x1, m.width)
	if x0 >= x1 {
		return
	}
	fillColors(m.pix[y*m.width+x0:y*m.width+x1], c)
}

func fillColors(s []Color, c Color) {
	if len(s) == 0 {
		return
	}
	s[0] = c
	for n := 1; n < len(s); n *= 2 {
		copy(s[n:], s[:n])
	}
}

// Resize changes the dimensions, reusing the backing array when it is large
// enough. Contents are unspecified afterwards.
func (m *Image) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width == m.width && height == m.height {
		return
	}
	n := width * height
	if cap(m.pix) >= n {
		m.pix = m.pix[:n]
	} else {
		m.pix = make([]Color, n)
	}
	m.width, m.height = width, height
}

// FromImage copies any image.Image into a new Image.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	m := NewImage(b.Dx(), b.Dy())
	switch s := src.(type) {
	case *Image:
		copy(m.pix, s.pix)
	case *image.NRGBA:
		for y := 0; y < m.height; y++ {
			off := s.PixOffset(b.Min.X, b.Min.Y+y)
			row := m.Row(y)
			for x := range row {
				p := s.Pix[off+4*x : off+4*x+4 : off+4*x+4]
				row[x] = NewColor(p[0], p[1], p[2], p[3])
			}
		}
	default:
		for y := 0; y < m.height; y++ {
			row := m.Row(y)
			for x := range row {
				row[x] = FromColor(src.At(b.Min.X+x, b.Min.Y+y))
			}
		}
	}
	return m
}

// ToNRGBA converts the image to a standard library image.
func (m *Image) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, m.width, m.height))
	for i, c := range m.pix {
		img.Pix[4*i+0] = c.R()
		img.Pix[4*i+1] = c.G()
		img.Pix[4*i+2] = c.B()
		img.Pix[4*i+3] = c.A()
	}
	return img
}

// AppendPremultiplied appends the pixels as premultiplied RGBA bytes, the
// layout expected by GPU texture uploads.
func (m *Image) AppendPremultiplied(dst []byte) []byte {
	for _, c := range m.pix {
		a := uint32(c.A())
		switch a {
		case 0xff:
			dst = append(dst, c.R(), c.G(), c.B(), 0xff)
		case 0:
			dst = append(dst, 0, 0, 0, 0)
		default:
			dst = append(dst,
				uint8(uint32(c.R())*a/0xff),
				uint8(uint32(c.G())*a/0xff),
				uint8(uint32(c.B())*a/0xff),
				uint8(a))
		}
	}
	return dst
}

// EncodePNG writes the image as PNG.
func (m *Image) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, m.ToNRGBA()); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// SavePNG writes the image to path.
func (m *Image) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s failed: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := m.EncodePNG(w); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s failed: %w", path, err)
	}
	return f.Close()
}

// At implements image.Image.
func (m *Image) At(x, y int) color.Color { return m.Pixel(x, y) }

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// Set implements draw.Image.
func (m *Image) Set(x, y int, c color.Color) { m.SetPixel(x, y, FromColor(c)) }

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model { return color.NRGBAModel }
