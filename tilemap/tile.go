// Package tilemap describes the raster tile pyramid and loads tiles from
// disk, HTTP or a procedural source.
package tilemap

import (
	"fmt"

	"github.com/OpticalFlyer/scanglobe/raster"
)

// TileID uniquely identifies a tile in the pyramid.
type TileID struct {
	Level  int
	Column int
	Row    int
}

func (id TileID) String() string {
	return fmt.Sprintf("%d/%d/%d", id.Level, id.Column, id.Row)
}

// Ancestor returns the tile at a coarser level that covers id. Levels at or
// below id.Level return id unchanged.
func (id TileID) Ancestor(level int) TileID {
	shift := id.Level - level
	if shift <= 0 || level < 0 {
		return id
	}
	return TileID{Level: level, Column: id.Column >> shift, Row: id.Row >> shift}
}

// Tile is a decoded raster tile. Tiles are immutable once handed out by the
// Loader, so a *Tile can be read from any goroutine.
type Tile struct {
	id          TileID
	img         *raster.Image
	pix         []raster.Color
	width       int
	height      int
	placeholder bool
}

// NewTile wraps img as the tile id. img must not be modified afterwards.
func NewTile(id TileID, img *raster.Image) *Tile {
	return &Tile{
		id:     id,
		img:    img,
		pix:    img.Pix(),
		width:  img.Width(),
		height: img.Height(),
	}
}

func (t *Tile) ID() TileID  { return t.id }
func (t *Tile) Width() int  { return t.width }
func (t *Tile) Height() int { return t.height }

// IsPlaceholder reports whether the tile was synthesized from a coarser
// ancestor or the fallback colour because the real data is not available.
func (t *Tile) IsPlaceholder() bool { return t.placeholder }

// Image returns the tile raster. Callers must treat it as read-only.
func (t *Tile) Image() *raster.Image { return t.img }

// Pixel returns the colour at (x, y), clamping the coordinates into the tile.
func (t *Tile) Pixel(x, y int) raster.Color {
	if x < 0 {
		x = 0
	} else if x >= t.width {
		x = t.width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.height {
		y = t.height - 1
	}
	if len(t.pix) == 0 {
		return raster.Transparent
	}
	return t.pix[y*t.width+x]
}
