package texmap

import (
	"math"

	"github.com/OpticalFlyer/scanglobe/logging"
	"github.com/OpticalFlyer/scanglobe/proj"
	"github.com/OpticalFlyer/scanglobe/raster"
	"github.com/OpticalFlyer/scanglobe/tilemap"
)

const noLevel = -1

// base holds the level-of-detail state and the tile pyramid arithmetic
// shared by all mappers.
type base struct {
	loader TileLoader
	opts   Options
	state  State
	stats  FrameStats

	tileLevel        int
	maxTileLevel     int
	preloadTileLevel int
	previousRadius   int

	tileWidth  int
	tileHeight int
	mercator   bool

	// Level dependent globals, set by tileLevelInit.
	globalWidth      int
	globalHeight     int
	normGlobalWidth  float64
	normGlobalHeight float64
	maxGlobalX       int
	maxGlobalY       int
}

func newBase(loader TileLoader, opts Options) base {
	b := base{opts: opts}
	b.SetTileLoader(loader)
	return b
}

// SetTileLoader switches to another tile source and forgets the current
// level.
func (b *base) SetTileLoader(loader TileLoader) {
	b.loader = loader
	b.state = Unselected
	b.tileLevel = noLevel
	b.preloadTileLevel = noLevel
	b.previousRadius = 0
	b.maxTileLevel = 0
	if loader == nil {
		return
	}
	b.maxTileLevel = max(loader.MaxTileLevel(), 0)
	b.tileWidth = loader.TileWidth()
	b.tileHeight = loader.TileHeight()
	b.mercator = loader.TileProjection() == tilemap.Mercator
}

func (b *base) SetQuality(q Quality)  { b.opts.Quality = q }
func (b *base) TileLevel() int        { return b.tileLevel }
func (b *base) PreloadTileLevel() int { return b.preloadTileLevel }
func (b *base) MaxTileLevel() int     { return b.maxTileLevel }
func (b *base) State() State          { return b.state }
func (b *base) Stats() FrameStats     { return b.stats }

// SelectTileLevel picks the pyramid level for vp and starts preloading the
// neighbouring level while the zoom is moving toward it.
func (b *base) SelectTileLevel(vp proj.Viewport) int {
	if b.loader == nil {
		return 0
	}
	radius := vp.Radius

	tileLevel := 0
	if vp.Valid() {
		linearLevel := 2 * float64(radius) / float64(b.tileWidth)
		if linearLevel < 1 {
			linearLevel = 1
		}
		tileLevelF := math.Log2(linearLevel) + 1
		tileLevel = int(tileLevelF)

		if tileLevelF > float64(tileLevel)+b.opts.PreloadUpThreshold &&
			b.preloadTileLevel != tileLevel+1 &&
			b.previousRadius < radius &&
			tileLevel >= 0 && tileLevel < b.maxTileLevel {
			b.preloadTileLevel = tileLevel + 1
			b.prefetchCenter(vp, b.preloadTileLevel)
		}
		if tileLevelF < float64(tileLevel)+b.opts.PreloadDownThreshold &&
			b.preloadTileLevel != tileLevel-1 &&
			b.previousRadius > radius &&
			tileLevel >= 1 && tileLevel <= b.maxTileLevel {
			b.preloadTileLevel = tileLevel - 1
			b.prefetchCenter(vp, b.preloadTileLevel)
		}

		if b.previousRadius == radius {
			b.preloadTileLevel = noLevel
		} else {
			b.previousRadius = radius
		}
	}

	tileLevel = max(0, min(tileLevel, b.maxTileLevel))
	if tileLevel != b.tileLevel {
		logging.Logger().Debug("tile level changed", "from", b.tileLevel, "to", tileLevel, "radius", radius)
		b.loader.Flush()
		b.tileLevelInit(tileLevel)
	}
	if b.state == Unselected {
		b.state = LevelSelected
	}
	return tileLevel
}

// CenterTile returns the tile under the view centre at level.
func (b *base) CenterTile(vp proj.Viewport, level int) tilemap.TileID {
	cols := b.loader.LevelZeroColumns() << level
	rows := b.loader.LevelZeroRows() << level

	col := int(float64(cols) * (1 + vp.CenterLon/math.Pi) / 2)
	var row int
	if b.mercator {
		row = int(float64(rows) * (0.5 - proj.MercatorY(vp.CenterLat)/(2*math.Pi)))
	} else {
		row = int(float64(rows) * (0.5 - vp.CenterLat/math.Pi))
	}
	return tilemap.TileID{
		Level:  level,
		Column: tilemap.EuclideanMod(col, cols),
		Row:    max(0, min(row, rows-1)),
	}
}

func (b *base) prefetchCenter(vp proj.Viewport, level int) {
	id := b.CenterTile(vp, level)
	logging.Logger().Debug("preloading tile level", "level", level, "tile", id)
	b.loader.Prefetch(id)
}

func (b *base) tileLevelInit(level int) {
	b.tileLevel = level
	b.globalWidth = b.loader.GlobalWidth(level)
	b.globalHeight = b.loader.GlobalHeight(level)
	b.normGlobalWidth = float64(b.globalWidth) / (2 * math.Pi)
	if b.mercator {
		b.normGlobalHeight = float64(b.globalHeight) / (2 * math.Pi)
	} else {
		b.normGlobalHeight = float64(b.globalHeight) / math.Pi
	}
	b.maxGlobalX = b.globalWidth - 1
	b.maxGlobalY = b.globalHeight - 1
}

func (b *base) rad2PixelX(lon float64) float64 {
	return lon * b.normGlobalWidth
}

func (b *base) rad2PixelY(lat float64) float64 {
	if b.mercator {
		return -proj.MercatorY(lat) * b.normGlobalHeight
	}
	return -lat * b.normGlobalHeight
}

// beginFrame sizes the canvas, selects the level and opens a pass. It
// returns false after clearing the canvas when nothing can be drawn.
func (b *base) beginFrame(canvas *raster.Image, vp proj.Viewport) bool {
	canvas.Resize(vp.Width, vp.Height)
	b.stats = FrameStats{Level: b.tileLevel}
	if b.loader == nil || !vp.Valid() {
		if b.loader != nil {
			b.stats.Level = b.SelectTileLevel(vp)
		}
		canvas.Fill(b.opts.Background)
		return false
	}
	b.loader.ResetTilehash()
	b.stats.Level = b.SelectTileLevel(vp)
	b.state = Sampling
	return true
}

func (b *base) endFrame(s *SamplerState, top, bottom int) {
	b.loader.CleanupTilehash()
	b.stats.TileSwitches = s.tileSwitches
	b.stats.InvalidSamples = s.invalidSamples
	b.stats.PaintedTop, b.stats.PaintedBottom = top, bottom
	b.state = LevelSelected
}

// paintedRange clips the rows [top, bottom) covered by the map to the canvas.
func paintedRange(top, bottom float64, height int) (int, int) {
	t := int(math.Ceil(top))
	bt := int(math.Ceil(bottom))
	return max(0, min(t, height)), max(0, min(bt, height))
}

// wrapLon wraps lon into (-π, π], taking a cheap path for the common case.
func wrapLon(lon float64) float64 {
	if lon > -math.Pi && lon <= math.Pi {
		return lon
	}
	return proj.NormalizeLon(lon)
}
