package overlay

import (
	"errors"
	"fmt"

	earcut "github.com/flywave/go-earcut"
	"github.com/go-spatial/geom"

	"github.com/OpticalFlyer/scanglobe/logging"
	"github.com/OpticalFlyer/scanglobe/proj"
)

// Fill is a triangulated screen-space polygon.
type Fill struct {
	Vertices [][2]float64
	// Indices holds three vertex indices per triangle.
	Indices []int
}

// Triangulate splits a polygon into triangles. The first ring is the outline,
// any further rings are holes.
func Triangulate(poly geom.Polygon) (Fill, error) {
	if len(poly) == 0 || len(poly[0]) < 3 {
		return Fill{}, errors.New("polygon needs an outer ring of at least 3 points")
	}
	var (
		verts [][2]float64
		data  []float64
		holes []int
	)
	for i, ring := range poly {
		if i > 0 {
			holes = append(holes, len(verts))
		}
		for _, pt := range ring {
			verts = append(verts, pt)
			data = append(data, pt[0], pt[1])
		}
	}
	indices, err := earcut.Earcut(data, holes, 2)
	if err != nil {
		return Fill{}, fmt.Errorf("triangulate: %w", err)
	}
	return Fill{Vertices: verts, Indices: indices}, nil
}

// Fill triangulates a polygon feature as seen in vp. It reports false when
// the feature is not a polygon or its outline is split by the horizon or the
// map edge; holes that are split are left out.
func (f Feature) Fill(vp proj.Viewport) (Fill, bool) {
	if f.Kind != PolygonFeature || len(f.Parts) == 0 {
		return Fill{}, false
	}
	poly := make(geom.Polygon, 0, len(f.Parts))
	for i, part := range f.Parts {
		pieces := ProjectLineString(part, vp, true)
		if len(pieces) != 1 {
			if i == 0 {
				return Fill{}, false
			}
			continue
		}
		ring := pieces[0]
		if n := len(ring); n > 1 && ring[0] == ring[n-1] {
			ring = ring[:n-1]
		}
		poly = append(poly, ring)
	}
	fill, err := Triangulate(poly)
	if err != nil {
		logging.Logger().Debug("skipping polygon fill", "err", err)
		return Fill{}, false
	}
	return fill, true
}
