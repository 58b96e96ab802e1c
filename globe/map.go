// Package globe keeps the view state of the planet and renders frames by
// driving the texture mappers, the tile loader and the grid overlay.
package globe

import (
	"math"

	"github.com/go-spatial/geom"

	"github.com/OpticalFlyer/scanglobe/logging"
	"github.com/OpticalFlyer/scanglobe/overlay"
	"github.com/OpticalFlyer/scanglobe/proj"
	"github.com/OpticalFlyer/scanglobe/raster"
	"github.com/OpticalFlyer/scanglobe/texmap"
	"github.com/OpticalFlyer/scanglobe/tilemap"
)

// TileLoader is a texture mapper loader that also reports arriving tiles.
type TileLoader interface {
	texmap.TileLoader
	Updates() <-chan tilemap.TileID
}

// Options sets up a Map.
type Options struct {
	Kind      proj.Kind
	Radius    int
	Width     int
	Height    int
	CenterLon float64
	CenterLat float64

	MinRadius int
	MaxRadius int
	// ZoomFactor scales the radius per zoom step.
	ZoomFactor float64

	Grid    bool
	Equator bool
	Tropics bool

	Mapper texmap.Options
}

// DefaultOptions shows the whole globe in an 800x600 window.
func DefaultOptions() Options {
	return Options{
		Kind:       proj.Spherical,
		Radius:     250,
		Width:      800,
		Height:     600,
		MinRadius:  16,
		MaxRadius:  1 << 24,
		ZoomFactor: 1.25,
		Grid:       true,
		Mapper:     texmap.DefaultOptions(),
	}
}

// Map is the view state plus everything needed to render it. It is not safe
// for concurrent use; the window loop owns it.
type Map struct {
	opts    Options
	vp      proj.Viewport
	loader  TileLoader
	mappers map[proj.Kind]texmap.TextureMapper
	canvas  *raster.Image

	grid     *overlay.GridMap
	features []overlay.Feature
	lines    []geom.LineString

	dirty bool
}

func New(loader TileLoader, opts Options) *Map {
	if opts.MinRadius <= 0 {
		opts.MinRadius = 1
	}
	if opts.MaxRadius < opts.MinRadius {
		opts.MaxRadius = opts.MinRadius
	}
	if opts.ZoomFactor <= 1 {
		opts.ZoomFactor = 1.25
	}
	m := &Map{
		opts:    opts,
		loader:  loader,
		mappers: make(map[proj.Kind]texmap.TextureMapper, 3),
		canvas:  raster.NewImage(opts.Width, opts.Height),
		grid:    overlay.NewGridMap(),
		dirty:   true,
	}
	for _, kind := range []proj.Kind{proj.Spherical, proj.Equirectangular, proj.Mercator} {
		m.mappers[kind] = texmap.New(kind, loader, opts.Mapper)
	}
	m.vp = proj.NewViewport(opts.Kind, m.clampRadius(opts.Radius), opts.Width, opts.Height, opts.CenterLon, opts.CenterLat)
	m.setCenter(m.vp.CenterLon, m.vp.CenterLat)
	return m
}

func (m *Map) Viewport() proj.Viewport { return m.vp }
func (m *Map) Canvas() *raster.Image   { return m.canvas }
func (m *Map) Dirty() bool             { return m.dirty }
func (m *Map) Invalidate()             { m.dirty = true }

// Lines returns the overlay polylines of the last Render.
func (m *Map) Lines() []geom.LineString { return m.lines }

// Mapper returns the texture mapper of the current projection.
func (m *Map) Mapper() texmap.TextureMapper { return m.mappers[m.vp.Kind] }

func (m *Map) SetProjection(kind proj.Kind) {
	if kind == m.vp.Kind {
		return
	}
	logging.Logger().Debug("projection changed", "from", m.vp.Kind, "to", kind)
	m.vp = m.vp.WithKind(kind)
	m.setCenter(m.vp.CenterLon, m.vp.CenterLat)
	m.dirty = true
}

func (m *Map) SetSize(width, height int) {
	if width == m.vp.Width && height == m.vp.Height {
		return
	}
	m.vp = m.vp.WithSize(width, height)
	m.dirty = true
}

// SetCenter moves the view centre, in radians.
func (m *Map) SetCenter(lon, lat float64) {
	m.setCenter(lon, lat)
	m.dirty = true
}

func (m *Map) SetRadius(radius int) {
	m.vp = m.vp.WithRadius(m.clampRadius(radius))
	m.dirty = true
}

func (m *Map) SetQuality(q texmap.Quality) {
	for _, mapper := range m.mappers {
		mapper.SetQuality(q)
	}
	m.dirty = true
}

// SetOverlays switches the grid, the equator and the tropics.
func (m *Map) SetOverlays(grid, equator, tropics bool) {
	m.opts.Grid, m.opts.Equator, m.opts.Tropics = grid, equator, tropics
	m.dirty = true
}

func (m *Map) Overlays() (grid, equator, tropics bool) {
	return m.opts.Grid, m.opts.Equator, m.opts.Tropics
}

// AddFeatures adds vector features drawn on top of the map.
func (m *Map) AddFeatures(features ...overlay.Feature) {
	m.features = append(m.features, features...)
	m.dirty = true
}

func (m *Map) Features() []overlay.Feature { return m.features }

// ScreenToGeo returns the geographic position under a canvas pixel.
func (m *Map) ScreenToGeo(x, y float64) (lon, lat float64, ok bool) {
	return m.vp.Projection().GeoCoordinates(x, y, m.vp)
}

// GeoToScreen returns the canvas position of a geographic point.
func (m *Map) GeoToScreen(lon, lat float64) (x, y float64, visible bool) {
	return m.vp.Projection().ScreenCoordinates(lon, lat, m.vp)
}

// PollUpdates drains pending tile arrivals without blocking and marks the
// map dirty if any tile arrived.
func (m *Map) PollUpdates() bool {
	updates := m.loader.Updates()
	arrived := false
	for {
		select {
		case <-updates:
			arrived = true
		default:
			if arrived {
				m.dirty = true
			}
			return arrived
		}
	}
}

// Render paints the current view into the canvas and rebuilds the overlay
// polylines.
func (m *Map) Render() *raster.Image {
	m.Mapper().MapTexture(m.canvas, m.vp)

	m.lines = m.lines[:0]
	if m.opts.Grid {
		m.grid.CreateGrid(m.vp)
		m.lines = append(m.lines, m.grid.Polylines()...)
	}
	if m.opts.Equator {
		m.grid.CreateEquator(m.vp)
		m.lines = append(m.lines, m.grid.Polylines()...)
	}
	if m.opts.Tropics {
		m.grid.CreateTropics(m.vp)
		m.lines = append(m.lines, m.grid.Polylines()...)
	}
	for _, f := range m.features {
		m.lines = append(m.lines, f.Project(m.vp)...)
	}
	m.dirty = false
	return m.canvas
}

func (m *Map) clampRadius(radius int) int {
	return max(m.opts.MinRadius, min(radius, m.opts.MaxRadius))
}

// setCenter normalizes the longitude and keeps the latitude inside what the
// current projection can show.
func (m *Map) setCenter(lon, lat float64) {
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return
	}
	p := m.vp.Projection()
	m.vp = m.vp.WithCenter(proj.NormalizeLon(lon), proj.ClampLat(lat, p.MinLat(), p.MaxLat()))
}
