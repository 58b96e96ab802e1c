package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/go-spatial/geom"
	"golang.org/x/image/vector"
)

// StrokeLines rasterizes polylines onto dst with the given pen width. Each
// segment becomes a quad so that joins overlap instead of leaving gaps.
func StrokeLines(dst draw.Image, lines []geom.LineString, c color.Color, width float64) {
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	half := math.Max(width, 0.5) / 2
	painted := false
	for _, line := range lines {
		for i := 1; i < len(line); i++ {
			painted = segmentQuad(z, line[i-1], line[i], half) || painted
		}
	}
	if painted {
		z.Draw(dst, b, image.NewUniform(c), image.Point{})
	}
}

func segmentQuad(z *vector.Rasterizer, a, b [2]float64, half float64) bool {
	dx, dy := b[0]-a[0], b[1]-a[1]
	n := math.Hypot(dx, dy)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return false
	}
	// Normal scaled to half the pen width, extended along the segment to
	// square the caps.
	nx, ny := -dy/n*half, dx/n*half
	ex, ey := dx/n*half, dy/n*half
	z.MoveTo(float32(a[0]-ex+nx), float32(a[1]-ey+ny))
	z.LineTo(float32(b[0]+ex+nx), float32(b[1]+ey+ny))
	z.LineTo(float32(b[0]+ex-nx), float32(b[1]+ey-ny))
	z.LineTo(float32(a[0]-ex-nx), float32(a[1]-ey-ny))
	z.ClosePath()
	return true
}

// FillPolygon rasterizes the triangles of a Fill onto dst.
func FillPolygon(dst draw.Image, fill Fill, c color.Color) {
	if len(fill.Indices) < 3 {
		return
	}
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	for i := 0; i+2 < len(fill.Indices); i += 3 {
		p0 := fill.Vertices[fill.Indices[i]]
		p1 := fill.Vertices[fill.Indices[i+1]]
		p2 := fill.Vertices[fill.Indices[i+2]]
		z.MoveTo(float32(p0[0]), float32(p0[1]))
		z.LineTo(float32(p1[0]), float32(p1[1]))
		z.LineTo(float32(p2[0]), float32(p2[1]))
		z.ClosePath()
	}
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}
