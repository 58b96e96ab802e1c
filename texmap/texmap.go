// Package texmap paints the planet onto a canvas by inverse-projecting every
// canvas pixel and sampling the tile pyramid at the resulting position.
package texmap

import (
	"fmt"
	"strings"

	"github.com/OpticalFlyer/scanglobe/proj"
	"github.com/OpticalFlyer/scanglobe/raster"
	"github.com/OpticalFlyer/scanglobe/tilemap"
)

// TileLoader is the tile layer as seen by the mappers. *tilemap.Loader
// implements it.
type TileLoader interface {
	// LoadTile never returns nil.
	LoadTile(column, row, level int) *tilemap.Tile
	TileWidth() int
	TileHeight() int
	GlobalWidth(level int) int
	GlobalHeight(level int) int
	MaxTileLevel() int
	TileProjection() tilemap.Projection
	LevelZeroColumns() int
	LevelZeroRows() int
	Prefetch(id tilemap.TileID)
	Flush()
	ResetTilehash()
	CleanupTilehash()
}

var _ TileLoader = (*tilemap.Loader)(nil)

// Quality selects the sampling filter.
type Quality int

const (
	LowQuality Quality = iota
	NormalQuality
	HighQuality
	PrintQuality
)

var qualityNames = []string{"low", "normal", "high", "print"}

func (q Quality) String() string {
	if q >= 0 && int(q) < len(qualityNames) {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// ParseQuality parses the names printed by Quality.String.
func ParseQuality(s string) (Quality, error) {
	for i, name := range qualityNames {
		if strings.EqualFold(s, name) {
			return Quality(i), nil
		}
	}
	return 0, fmt.Errorf("unknown map quality %q", s)
}

// Smooth reports whether q uses bilinear filtering.
func (q Quality) Smooth() bool { return q >= HighQuality }

// Options configures a mapper.
type Options struct {
	Quality Quality
	// Background fills canvas pixels that show no planet.
	Background raster.Color
	// PreloadUpThreshold and PreloadDownThreshold bound the fractional tile
	// level at which the next finer or coarser level starts loading. They
	// are empirically tuned.
	PreloadUpThreshold   float64
	PreloadDownThreshold float64
}

// DefaultOptions returns normal quality with a transparent background and
// the 0.3/0.7 preload band.
func DefaultOptions() Options {
	return Options{
		Quality:              NormalQuality,
		Background:           raster.Transparent,
		PreloadUpThreshold:   0.3,
		PreloadDownThreshold: 0.7,
	}
}

// State is the mapper's position in its per-frame life cycle.
type State int

const (
	// Unselected means no tile level is active, after creation or a new loader.
	Unselected State = iota
	// LevelSelected means a tile level is active and no pass is running.
	LevelSelected
	// Sampling means MapTexture is walking the scanlines.
	Sampling
)

func (s State) String() string {
	switch s {
	case Unselected:
		return "unselected"
	case LevelSelected:
		return "level-selected"
	case Sampling:
		return "sampling"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FrameStats describes the last MapTexture pass.
type FrameStats struct {
	Level int
	// TileSwitches counts how often sampling left the active tile.
	TileSwitches int
	// InvalidSamples counts pixels whose geographic position was not finite.
	InvalidSamples int
	// PaintedTop and PaintedBottom bound the rows that show the planet.
	PaintedTop    int
	PaintedBottom int
}

// TextureMapper paints one projection. A mapper is not safe for concurrent
// use; each MapTexture call owns the canvas until it returns.
type TextureMapper interface {
	Kind() proj.Kind
	MapTexture(canvas *raster.Image, vp proj.Viewport)
	SetTileLoader(loader TileLoader)
	SelectTileLevel(vp proj.Viewport) int
	SetQuality(q Quality)
	TileLevel() int
	PreloadTileLevel() int
	MaxTileLevel() int
	State() State
	Stats() FrameStats
}

// New returns the mapper for kind.
func New(kind proj.Kind, loader TileLoader, opts Options) TextureMapper {
	switch kind {
	case proj.Equirectangular:
		return NewEquirectMapper(loader, opts)
	case proj.Mercator:
		return NewMercatorMapper(loader, opts)
	}
	return NewGlobeMapper(loader, opts)
}
