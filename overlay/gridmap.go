package overlay

import (
	"math"

	"github.com/go-spatial/geom"

	"github.com/OpticalFlyer/scanglobe/proj"
)

// AxialTilt is the Earth's axial tilt, 23°26′21″, in radians. It places the
// tropics and the polar circles.
var AxialTilt = (23 + 26.0/60 + 21.0/3600) * math.Pi / 180

const piHalf = math.Pi / 2

// Dim selects which coordinate a grid circle holds constant.
type Dim int

const (
	Latitude Dim = iota
	Longitude
)

// GridMap builds the screen polylines of the coordinate grid. Every Create
// call replaces the previous polylines.
type GridMap struct {
	vp        proj.Viewport
	precision int
	sphere    *sphereTracer
	lines     []geom.LineString
}

func NewGridMap() *GridMap {
	return &GridMap{precision: 10}
}

// Polylines returns the polylines of the last Create call.
func (g *GridMap) Polylines() []geom.LineString { return g.lines }

// Precision is the number of points per quarter circle used by the last
// grid.
func (g *GridMap) Precision() int { return g.precision }

func (g *GridMap) Clear() { g.lines = nil }

func (g *GridMap) begin(vp proj.Viewport) bool {
	g.lines = nil
	g.vp = vp
	if !vp.Valid() {
		return false
	}
	if vp.Kind == proj.Spherical {
		g.sphere = newSphereTracer(vp)
	}
	return true
}

// CreateGrid builds meridians and circles of latitude. Both their number and
// the sampling precision grow with the on-screen radius.
func (g *GridMap) CreateGrid(vp proj.Viewport) {
	if !g.begin(vp) {
		return
	}
	lonNum, latNum := 2, 1
	g.precision = 10
	switch r := vp.Radius; {
	case r > 3200:
		g.precision, lonNum, latNum = 40, 32, 24
	case r > 1600:
		g.precision, lonNum, latNum = 30, 16, 12
	case r > 700:
		g.precision, lonNum, latNum = 30, 8, 6
	case r > 400:
		g.precision, lonNum, latNum = 20, 4, 3
	case r > 100:
		g.precision, lonNum, latNum = 10, 2, 3
	}
	g.createCircles(lonNum, latNum)
	g.finish()
}

func (g *GridMap) CreateEquator(vp proj.Viewport) {
	if !g.begin(vp) {
		return
	}
	g.createCircle(0, Latitude, 0)
	g.finish()
}

// CreateTropics builds the tropics and the polar circles once the planet is
// larger than 400 pixels.
func (g *GridMap) CreateTropics(vp proj.Viewport) {
	if !g.begin(vp) || vp.Radius <= 400 {
		return
	}
	g.createCircle(piHalf-AxialTilt, Latitude, 0)
	g.createCircle(AxialTilt-piHalf, Latitude, 0)
	g.createCircle(AxialTilt, Latitude, 0)
	g.createCircle(-AxialTilt, Latitude, 0)
	g.finish()
}

func (g *GridMap) finish() {
	if g.sphere != nil {
		g.sphere.reset()
		g.lines = append(g.lines, g.sphere.lines...)
		g.sphere = nil
	}
}

// createCircles draws latNum-1 circles of latitude per hemisphere and
// meridians every π/(2·lonNum) on the globe or π/lonNum on flat maps.
func (g *GridMap) createCircles(lonNum, latNum int) {
	for i := 1; i < latNum; i++ {
		lat := float64(i) * piHalf / float64(latNum)
		g.createCircle(lat, Latitude, 0)
		g.createCircle(-lat, Latitude, 0)
	}
	if lonNum == 0 {
		return
	}

	if g.vp.Kind != proj.Spherical {
		for i := 0; i < 2*lonNum; i++ {
			g.createCircle(float64(i)*math.Pi/float64(lonNum), Longitude, 0)
		}
		return
	}

	// The prime meridian and its orthogonal great circle reach the poles,
	// the others stop one latitude step short.
	g.createCircle(0, Longitude, 0)
	g.createCircle(piHalf, Longitude, 0)
	cutOff := piHalf / float64(latNum)
	for i := 1; i < lonNum; i++ {
		lon := float64(i) * piHalf / float64(lonNum)
		g.createCircle(lon, Longitude, cutOff)
		g.createCircle(lon+piHalf, Longitude, cutOff)
	}
}

func (g *GridMap) createCircle(val float64, dim Dim, cutOff float64) {
	if g.vp.Kind == proj.Spherical {
		g.sphericalCircle(val, dim, cutOff)
		return
	}
	g.flatCircle(val, dim)
}

// sphericalCircle walks the circle in quarters. A longitude circle is the
// full great circle through val and val+π, cut off by cutOff radians at each
// pole.
func (g *GridMap) sphericalCircle(val float64, dim Dim, cutOff float64) {
	cutCoeff := 1 - cutOff/piHalf
	quartSteps := float64(g.precision)
	steps := int(cutCoeff * quartSteps)

	for i := 0; i < 4; i++ {
		coeff := 1.0
		if i > 1 {
			coeff = -1
		}
		offset := float64(i % 2)

		for j := 0; j <= steps; j++ {
			itval := cutCoeff
			if j != steps {
				itval = float64(j) / quartSteps
			}
			dimVal := coeff * (piHalf*math.Abs(offset-itval) + offset*piHalf)
			if dim == Latitude {
				g.sphere.add(dimVal, val)
			} else {
				g.sphere.add(val, dimVal)
			}
		}
		g.sphere.reset()
	}
}

// flatCircle draws circles of latitude as full-width rows and meridians as
// vertical lines repeated every 4r, clipped to the map's band.
func (g *GridMap) flatCircle(val float64, dim Dim) {
	vp := g.vp
	p := vp.Projection()
	w, h := float64(vp.Width), float64(vp.Height)

	if dim == Latitude {
		if val > p.MaxLat() || val < p.MinLat() {
			return
		}
		y := p.Project(vp.CenterLon, val, vp).Y
		if y < 0 || y >= h {
			return
		}
		g.lines = append(g.lines, geom.LineString{{0, y}, {w, y}})
		return
	}

	top := max(0, p.Project(val, p.MaxLat(), vp).Y)
	bottom := min(h, p.Project(val, p.MinLat(), vp).Y)
	if top >= bottom {
		return
	}
	x := p.Project(val, 0, vp).X
	for _, xi := range proj.RepeatedXs(nil, x, 4*float64(vp.Radius), vp.Width) {
		g.lines = append(g.lines, geom.LineString{{xi, top}, {xi, bottom}})
	}
}
