package overlay

import (
	"fmt"

	"github.com/go-spatial/geom"
	"github.com/jonas-p/go-shp"

	"github.com/OpticalFlyer/scanglobe/logging"
	"github.com/OpticalFlyer/scanglobe/proj"
)

type FeatureKind int

const (
	LineFeature FeatureKind = iota
	PolygonFeature
)

func (k FeatureKind) String() string {
	if k == PolygonFeature {
		return "polygon"
	}
	return "line"
}

// Feature is a vector shape in geographic coordinates. Polygon parts are
// rings; the first is the outer ring.
type Feature struct {
	Kind  FeatureKind
	Parts [][]proj.GeoPoint
}

// Project projects every part of f onto the canvas.
func (f Feature) Project(vp proj.Viewport) []geom.LineString {
	var lines []geom.LineString
	for _, part := range f.Parts {
		lines = append(lines, ProjectLineString(part, vp, f.Kind == PolygonFeature)...)
	}
	return lines
}

// LoadShapefile reads the polylines and polygons of an ESRI shapefile whose
// coordinates are longitude/latitude degrees. Other shape types are skipped.
func LoadShapefile(path string) ([]Feature, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	var features []Feature
	skipped := 0
	for r.Next() {
		_, shape := r.Shape()
		switch s := shape.(type) {
		case *shp.PolyLine:
			features = append(features, Feature{Kind: LineFeature, Parts: shapeParts(s.Parts, s.Points)})
		case *shp.Polygon:
			features = append(features, Feature{Kind: PolygonFeature, Parts: shapeParts(s.Parts, s.Points)})
		default:
			skipped++
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	logging.Logger().Debug("shapefile loaded", "path", path, "features", len(features), "skipped", skipped)
	return features, nil
}

func shapeParts(parts []int32, points []shp.Point) [][]proj.GeoPoint {
	out := make([][]proj.GeoPoint, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || end > int32(len(points)) {
			continue
		}
		part := make([]proj.GeoPoint, 0, end-start)
		for _, p := range points[start:end] {
			part = append(part, proj.GeoPointFromDegrees(p.X, p.Y))
		}
		out = append(out, part)
	}
	return out
}

// WriteShapefile writes line features as a polyline shapefile. Polygon
// features are written as their rings.
func WriteShapefile(path string, features []Feature) error {
	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return fmt.Errorf("create shapefile %s: %w", path, err)
	}
	defer w.Close()
	for _, f := range features {
		parts := make([][]shp.Point, 0, len(f.Parts))
		for _, part := range f.Parts {
			pts := make([]shp.Point, len(part))
			for i, gp := range part {
				lon, lat := gp.Degrees()
				pts[i] = shp.Point{X: lon, Y: lat}
			}
			parts = append(parts, pts)
		}
		w.Write(shp.NewPolyLine(parts))
	}
	return nil
}
