package main

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/OpticalFlyer/scanglobe/globe"
	"github.com/OpticalFlyer/scanglobe/overlay"
	"github.com/OpticalFlyer/scanglobe/proj"
	"github.com/OpticalFlyer/scanglobe/raster"
	"github.com/OpticalFlyer/scanglobe/texmap"
	"github.com/OpticalFlyer/scanglobe/tilemap"
)

// Minimum time between two wheel zoom steps.
const wheelZoomInterval = 100 * time.Millisecond

var (
	lineColor = color.NRGBA{R: 255, G: 255, B: 255, A: 160}
	fillColor = color.NRGBA{R: 64, G: 160, B: 64, A: 96}
	debugRed  = color.RGBA{R: 255, A: 255}
)

// Viewer implements ebiten.Game on top of a globe.Map.
type Viewer struct {
	m         *globe.Map
	loader    *tilemap.Loader
	debugMode bool
	quality   texmap.Quality

	canvas *ebiten.Image
	pix    []byte
	fills  []overlay.Fill
	// white is the source texture for filled triangles.
	white *ebiten.Image

	// Mouse panning state
	isDragging bool
	lastMouseX int
	lastMouseY int

	lastZoom time.Time

	// Touch state for multi-touch interactions
	lastTouchX map[ebiten.TouchID]float64
	lastTouchY map[ebiten.TouchID]float64
}

func NewViewer(m *globe.Map, loader *tilemap.Loader, quality texmap.Quality) *Viewer {
	white := ebiten.NewImage(3, 3)
	white.Fill(color.White)
	return &Viewer{m: m, loader: loader, quality: quality, white: white}
}

func (g *Viewer) Update() error {
	g.m.PollUpdates()

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.debugMode = !g.debugMode
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.m.SetProjection((g.m.Viewport().Kind + 1) % 3)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		grid, equator, tropics := g.m.Overlays()
		g.m.SetOverlays(!grid, equator, tropics)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		if g.quality.Smooth() {
			g.quality = texmap.NormalQuality
		} else {
			g.quality = texmap.HighQuality
		}
		g.m.SetQuality(g.quality)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) ||
		inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) {
		g.m.ZoomIn()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) ||
		inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) {
		g.m.ZoomOut()
	}

	_, wheelY := ebiten.Wheel()
	if now := time.Now(); wheelY != 0 && now.Sub(g.lastZoom) > wheelZoomInterval {
		x, y := ebiten.CursorPosition()
		g.m.ZoomAtPoint(wheelY > 0, float64(x), float64(y))
		g.lastZoom = now
	}

	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		g.m.Pan(globe.PanLeft)
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		g.m.Pan(globe.PanRight)
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		g.m.Pan(globe.PanUp)
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		g.m.Pan(globe.PanDown)
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.isDragging = true
		g.lastMouseX, g.lastMouseY = ebiten.CursorPosition()
	} else if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.isDragging = false
	}
	if g.isDragging {
		x, y := ebiten.CursorPosition()
		if dx, dy := x-g.lastMouseX, y-g.lastMouseY; dx != 0 || dy != 0 {
			g.m.PanBy(float64(dx), float64(dy))
		}
		g.lastMouseX, g.lastMouseY = x, y
	}

	g.handleTouchEvents()
	return nil
}

func (g *Viewer) Draw(screen *ebiten.Image) {
	if g.m.Dirty() || g.canvas == nil {
		g.upload(g.m.Render())
		g.fills = g.fills[:0]
		for _, f := range g.m.Features() {
			if fill, ok := f.Fill(g.m.Viewport()); ok {
				g.fills = append(g.fills, fill)
			}
		}
	}
	screen.DrawImage(g.canvas, nil)

	for _, fill := range g.fills {
		g.drawFill(screen, fill)
	}
	for _, line := range g.m.Lines() {
		for i := 1; i < len(line); i++ {
			vector.StrokeLine(screen,
				float32(line[i-1][0]), float32(line[i-1][1]),
				float32(line[i][0]), float32(line[i][1]),
				1, lineColor, true)
		}
	}

	if g.debugMode {
		g.drawDebug(screen)
	}
}

func (g *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.m.SetSize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// upload copies a rendered frame into the GPU canvas.
func (g *Viewer) upload(frame *raster.Image) {
	w, h := frame.Width(), frame.Height()
	if g.canvas == nil || g.canvas.Bounds().Dx() != w || g.canvas.Bounds().Dy() != h {
		if g.canvas != nil {
			g.canvas.Deallocate()
		}
		g.canvas = ebiten.NewImage(w, h)
	}
	g.pix = frame.AppendPremultiplied(g.pix[:0])
	g.canvas.WritePixels(g.pix)
}

func (g *Viewer) drawFill(screen *ebiten.Image, fill overlay.Fill) {
	if len(fill.Vertices) > math.MaxUint16 {
		return
	}
	// Vertex colours are straight alpha.
	r, gr, b, a := float32(fillColor.R)/0xff, float32(fillColor.G)/0xff, float32(fillColor.B)/0xff, float32(fillColor.A)/0xff
	vs := make([]ebiten.Vertex, len(fill.Vertices))
	for i, v := range fill.Vertices {
		vs[i] = ebiten.Vertex{
			DstX: float32(v[0]), DstY: float32(v[1]),
			SrcX: 1, SrcY: 1,
			ColorR: r, ColorG: gr, ColorB: b, ColorA: a,
		}
	}
	is := make([]uint16, len(fill.Indices))
	for i, idx := range fill.Indices {
		is[i] = uint16(idx)
	}
	screen.DrawTriangles(vs, is, g.white, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

func (g *Viewer) drawDebug(screen *ebiten.Image) {
	vp := g.m.Viewport()
	cx, cy := float32(vp.Width/2), float32(vp.Height/2)
	const size = 10
	vector.StrokeLine(screen, cx-size, cy, cx+size, cy, 1, debugRed, false)
	vector.StrokeLine(screen, cx, cy-size, cx, cy+size, 1, debugRed, false)

	lon, lat := proj.GeoPoint{Lon: vp.CenterLon, Lat: vp.CenterLat}.Degrees()
	stats := g.m.Mapper().Stats()
	text := fmt.Sprintf("Lon: %.4f\nLat: %.4f\nRadius: %d\nProjection: %s\nQuality: %s\nLevel: %d/%d\nTile switches: %d",
		lon, lat, vp.Radius, vp.Kind, g.quality,
		stats.Level, g.m.Mapper().MaxTileLevel(), stats.TileSwitches)
	if g.loader != nil {
		ls := g.loader.Stats()
		text += fmt.Sprintf("\nTiles: %d active, %d cached, %d pending, %d missing",
			ls.Active, ls.Cached, ls.Pending, ls.Missing)
	}
	ebitenutil.DebugPrint(screen, text)
}
