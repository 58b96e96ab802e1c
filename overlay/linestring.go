package overlay

import (
	"math"

	"github.com/go-spatial/geom"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/OpticalFlyer/scanglobe/proj"
)

const (
	// maxSegmentPixels bounds the on-screen length of one tessellated step.
	maxSegmentPixels = 8
	maxSegmentSteps  = 256
)

// ProjectLineString projects a geographic polyline onto the canvas. Each
// segment follows the great circle between its end points. On the globe the
// result is split at the horizon; on flat maps it stays continuous across the
// antimeridian and is repeated every 4r. closed joins the last point back to
// the first.
func ProjectLineString(points []proj.GeoPoint, vp proj.Viewport, closed bool) []geom.LineString {
	if !vp.Valid() || len(points) < 2 {
		return nil
	}
	pts := Tessellate(points, float64(vp.Radius), closed)
	if vp.Kind == proj.Spherical {
		t := newSphereTracer(vp)
		for _, p := range pts {
			t.add(p.Lon, p.Lat)
		}
		t.reset()
		return t.lines
	}
	return projectFlat(pts, vp)
}

// Tessellate inserts great-circle points so that no step is longer than a
// few pixels at the given radius.
func Tessellate(points []proj.GeoPoint, radius float64, closed bool) []proj.GeoPoint {
	n := len(points)
	if closed && n > 2 {
		n++
	}
	out := make([]proj.GeoPoint, 0, n)
	var prev s2.Point
	for i := 0; i < n; i++ {
		gp := points[i%len(points)]
		cur := s2.PointFromLatLng(s2.LatLng{Lat: s1.Angle(gp.Lat), Lng: s1.Angle(gp.Lon)})
		if i > 0 {
			d := float64(prev.Distance(cur))
			steps := max(1, min(int(math.Ceil(d*radius/maxSegmentPixels)), maxSegmentSteps))
			for k := 1; k < steps; k++ {
				ll := s2.LatLngFromPoint(s2.Interpolate(float64(k)/float64(steps), prev, cur))
				out = append(out, proj.GeoPoint{Lon: ll.Lng.Radians(), Lat: ll.Lat.Radians()})
			}
		}
		out = append(out, gp)
		prev = cur
	}
	return out
}

func projectFlat(pts []proj.GeoPoint, vp proj.Viewport) []geom.LineString {
	p := vp.Projection()
	rad2Pixel := 2 * float64(vp.Radius) / math.Pi
	period := 4 * float64(vp.Radius)

	line := make(geom.LineString, 0, len(pts))
	var x float64
	for i, gp := range pts {
		lat := proj.ClampLat(gp.Lat, p.MinLat(), p.MaxLat())
		sp := p.Project(gp.Lon, lat, vp)
		if i == 0 {
			x = float64(vp.Width)/2 + proj.NormalizeLon(gp.Lon-vp.CenterLon)*rad2Pixel
		} else {
			// Unwrapped so that crossing the antimeridian does not jump.
			x += proj.NormalizeLon(gp.Lon-pts[i-1].Lon) * rad2Pixel
		}
		line = append(line, [2]float64{x, sp.Y})
	}

	e := geom.NewExtent(line...)
	// Shift the copies that overlap the canvas into place.
	var lines []geom.LineString
	for k := math.Ceil(-e.MaxX() / period); e.MinX()+k*period <= float64(vp.Width); k++ {
		shifted := make(geom.LineString, len(line))
		for i, pt := range line {
			shifted[i] = [2]float64{pt[0] + k*period, pt[1]}
		}
		lines = appendVisible(lines, shifted, vp)
	}
	return lines
}
