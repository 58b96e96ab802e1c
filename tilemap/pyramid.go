package tilemap

import (
	"errors"
	"fmt"
	"strings"
)

// Projection is the projection of the tile grid itself, independent of how
// the planet is shown on screen.
type Projection int

const (
	// Equirectangular tiles span ±90° of latitude linearly.
	Equirectangular Projection = iota
	// Mercator tiles span ±85.0511° in Web Mercator rows.
	Mercator
)

func (p Projection) String() string {
	if p == Mercator {
		return "mercator"
	}
	return "equirectangular"
}

// ParseProjection parses "equirectangular" or "mercator".
func ParseProjection(s string) (Projection, error) {
	switch strings.ToLower(s) {
	case "equirectangular", "equirect", "":
		return Equirectangular, nil
	case "mercator":
		return Mercator, nil
	}
	return 0, fmt.Errorf("unknown tile projection %q", s)
}

// Pyramid describes the tile quad-tree: every level doubles the number of
// columns and rows of the level above.
type Pyramid struct {
	TileWidth        int
	TileHeight       int
	LevelZeroColumns int
	LevelZeroRows    int
	MaxLevel         int
	Projection       Projection
}

// DefaultPyramid is a 2x1 equirectangular pyramid of 256 pixel tiles.
func DefaultPyramid(maxLevel int) Pyramid {
	return Pyramid{
		TileWidth:        256,
		TileHeight:       256,
		LevelZeroColumns: 2,
		LevelZeroRows:    1,
		MaxLevel:         maxLevel,
		Projection:       Equirectangular,
	}
}

// Validate checks that the pyramid can address at least one tile.
func (p Pyramid) Validate() error {
	var errs []error
	if p.TileWidth <= 0 || p.TileHeight <= 0 {
		errs = append(errs, fmt.Errorf("tile size %dx%d must be positive", p.TileWidth, p.TileHeight))
	}
	if p.LevelZeroColumns <= 0 || p.LevelZeroRows <= 0 {
		errs = append(errs, fmt.Errorf("level zero grid %dx%d must be positive", p.LevelZeroColumns, p.LevelZeroRows))
	}
	if p.MaxLevel < 0 || p.MaxLevel > 24 {
		errs = append(errs, fmt.Errorf("max level %d out of range [0, 24]", p.MaxLevel))
	}
	return errors.Join(errs...)
}

// Columns returns the number of tile columns at level.
func (p Pyramid) Columns(level int) int { return p.LevelZeroColumns << max(level, 0) }

// Rows returns the number of tile rows at level.
func (p Pyramid) Rows(level int) int { return p.LevelZeroRows << max(level, 0) }

// GlobalWidth is the pixel width of the whole planet at level.
func (p Pyramid) GlobalWidth(level int) int { return p.TileWidth * p.Columns(level) }

// GlobalHeight is the pixel height of the whole planet at level.
func (p Pyramid) GlobalHeight(level int) int { return p.TileHeight * p.Rows(level) }

// Contains reports whether id addresses an existing tile.
func (p Pyramid) Contains(id TileID) bool {
	return id.Level >= 0 && id.Level <= p.MaxLevel &&
		id.Column >= 0 && id.Column < p.Columns(id.Level) &&
		id.Row >= 0 && id.Row < p.Rows(id.Level)
}

// Normalize maps any id onto an existing tile: the level is clamped, the
// column wraps around the antimeridian and the row is clamped at the poles.
func (p Pyramid) Normalize(id TileID) TileID {
	id.Level = max(0, min(id.Level, p.MaxLevel))
	id.Column = EuclideanMod(id.Column, p.Columns(id.Level))
	id.Row = max(0, min(id.Row, p.Rows(id.Level)-1))
	return id
}

// EuclideanMod returns a mod b in [0, b).
func EuclideanMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
