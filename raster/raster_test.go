package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorChannels(t *testing.T) {
	c := NewColor(0x12, 0x34, 0x56, 0x78)
	assert.Equal(t, Color(0x78123456), c)
	assert.Equal(t, uint8(0x12), c.R())
	assert.Equal(t, uint8(0x34), c.G())
	assert.Equal(t, uint8(0x56), c.B())
	assert.Equal(t, uint8(0x78), c.A())
	assert.Equal(t, c, FromColor(c.NRGBA()))
	assert.Equal(t, White, FromColor(color.White))
}

func TestBilinear(t *testing.T) {
	tests := []struct {
		name   string
		fx, fy float64
		want   Color
	}{
		{name: "top left", fx: 0, fy: 0, want: NewColor(0, 0, 0, 255)},
		{name: "top right", fx: 1, fy: 0, want: NewColor(200, 0, 0, 255)},
		{name: "bottom left", fx: 0, fy: 1, want: NewColor(0, 200, 0, 255)},
		{name: "centre", fx: 0.5, fy: 0.5, want: NewColor(100, 100, 50, 255)},
	}
	c00 := NewColor(0, 0, 0, 255)
	c10 := NewColor(200, 0, 0, 255)
	c01 := NewColor(0, 200, 0, 255)
	c11 := NewColor(200, 200, 200, 255)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bilinear(c00, c10, c01, c11, tt.fx, tt.fy))
		})
	}
}

func TestImageFillAndClip(t *testing.T) {
	m := NewImage(4, 3)
	m.Fill(White)
	m.FillRows(-5, 1, Black)
	m.FillSpan(2, 3, 10, Black)
	m.SetPixel(100, 100, Black)

	assert.Equal(t, Black, m.Pixel(3, 0))
	assert.Equal(t, White, m.Pixel(0, 1))
	assert.Equal(t, White, m.Pixel(2, 2))
	assert.Equal(t, Black, m.Pixel(3, 2))
	assert.Equal(t, Transparent, m.Pixel(-1, 0))

	m.Resize(2, 2)
	assert.Len(t, m.Pix(), 4)
	assert.Equal(t, image.Rect(0, 0, 2, 2), m.Bounds())
}

func TestFromImageRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 13, 12))
	src.SetNRGBA(10, 10, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	src.SetNRGBA(12, 11, color.NRGBA{R: 9, G: 8, B: 7, A: 128})

	m := FromImage(src)
	require.Equal(t, 3, m.Width())
	require.Equal(t, 2, m.Height())
	assert.Equal(t, NewColor(1, 2, 3, 255), m.Pixel(0, 0))
	assert.Equal(t, NewColor(9, 8, 7, 128), m.Pixel(2, 1))

	back := m.ToNRGBA()
	assert.Equal(t, color.NRGBA{R: 9, G: 8, B: 7, A: 128}, back.NRGBAAt(2, 1))

	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(1, 0, color.Gray{Y: 200})
	generic := FromImage(gray)
	assert.Equal(t, NewColor(200, 200, 200, 255), generic.Pixel(1, 0))
}

func TestSetImplementsDrawImage(t *testing.T) {
	m := NewImage(2, 2)
	var dst draw.Image = m
	dst.Set(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	dst.Set(5, 5, color.White)
	assert.Equal(t, NewColor(1, 2, 3, 255), m.Pixel(1, 1))
	assert.Equal(t, Transparent, m.Pixel(0, 0))
}

func TestAppendPremultiplied(t *testing.T) {
	m := NewImage(2, 1)
	m.SetPixel(0, 0, NewColor(255, 128, 0, 255))
	m.SetPixel(1, 0, NewColor(255, 255, 255, 0x80))
	got := m.AppendPremultiplied(nil)
	assert.Equal(t, []byte{255, 128, 0, 255, 128, 128, 128, 0x80}, got)
}

func TestSavePNG(t *testing.T) {
	m := NewImage(3, 3)
	m.Fill(NewColor(10, 20, 30, 255))
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, m.SavePNG(path))

	var buf bytes.Buffer
	require.NoError(t, m.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, NewColor(10, 20, 30, 255), FromColor(img.At(1, 1)))
}
