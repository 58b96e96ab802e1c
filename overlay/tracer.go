package overlay

import (
	"math"

	"github.com/go-spatial/geom"
	"github.com/golang/geo/r3"

	"github.com/OpticalFlyer/scanglobe/proj"
)

// sphereTracer turns a run of geographic points into screen polylines on the
// globe, splitting wherever the run passes behind the horizon.
type sphereTracer struct {
	vp     proj.Viewport
	rot    proj.Matrix
	cx, cy float64
	r      float64

	cur     geom.LineString
	last    r3.Vector
	started bool
	lines   []geom.LineString
}

func newSphereTracer(vp proj.Viewport) *sphereTracer {
	return &sphereTracer{
		vp:  vp,
		rot: proj.ViewRotation(vp.CenterLon, vp.CenterLat).Matrix(),
		cx:  float64(vp.Width) / 2,
		cy:  float64(vp.Height) / 2,
		r:   float64(vp.Radius),
	}
}

func (t *sphereTracer) screen(v r3.Vector) [2]float64 {
	return [2]float64{t.cx + t.r*v.X, t.cy - t.r*v.Y}
}

// horizonPoint places the crossing between two view vectors on the disc
// edge.
func (t *sphereTracer) horizonPoint(a, b r3.Vector) [2]float64 {
	s := a.Z / (a.Z - b.Z)
	x := a.X + s*(b.X-a.X)
	y := a.Y + s*(b.Y-a.Y)
	n := math.Hypot(x, y)
	if n == 0 {
		return t.screen(a)
	}
	return t.screen(r3.Vector{X: x / n, Y: y / n})
}

func (t *sphereTracer) add(lon, lat float64) {
	v := proj.ViewVector(&t.rot, proj.WorldVector(lon, lat))
	visible := v.Z >= 0
	if t.started {
		lastVisible := t.last.Z >= 0
		switch {
		case visible && !lastVisible:
			t.cur = append(t.cur, t.horizonPoint(t.last, v))
		case !visible && lastVisible:
			t.cur = append(t.cur, t.horizonPoint(t.last, v))
			t.end()
		}
	}
	if visible {
		t.cur = append(t.cur, t.screen(v))
	}
	t.last = v
	t.started = true
}

// end closes the current polyline; the next point starts a new run.
func (t *sphereTracer) end() {
	t.lines = appendVisible(t.lines, t.cur, t.vp)
	t.cur = nil
}

// reset ends the current polyline and forgets the previous point.
func (t *sphereTracer) reset() {
	t.end()
	t.started = false
}

// appendVisible appends line when it has at least two points and its extent
// touches the canvas.
func appendVisible(lines []geom.LineString, line geom.LineString, vp proj.Viewport) []geom.LineString {
	if len(line) < 2 {
		return lines
	}
	e := geom.NewExtent(line...)
	if e.MaxX() < 0 || e.MinX() > float64(vp.Width) || e.MaxY() < 0 || e.MinY() > float64(vp.Height) {
		return lines
	}
	return append(lines, line)
}
