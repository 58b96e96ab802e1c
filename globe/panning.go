package globe

// PanDirection represents a direction to pan the map
type PanDirection int

const (
	PanLeft PanDirection = iota
	PanRight
	PanUp
	PanDown
)

// PanSpeed in pixels per key press
const PanSpeed = 50

// Pan moves the view a fixed number of pixels in the given direction.
func (m *Map) Pan(dir PanDirection) {
	switch dir {
	case PanLeft:
		m.PanBy(PanSpeed, 0)
	case PanRight:
		m.PanBy(-PanSpeed, 0)
	case PanUp:
		m.PanBy(0, PanSpeed)
	case PanDown:
		m.PanBy(0, -PanSpeed)
	}
}

// PanBy drags the map by pixel offsets: positive dx moves the map east so the
// view centre goes west, positive dy moves the map south so the centre goes
// north. Longitude wraps around; latitude stops at the projection's limit.
func (m *Map) PanBy(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	a := m.vp.AnglePerPixel()
	m.SetCenter(m.vp.CenterLon-dx*a, m.vp.CenterLat+dy*a)
}
