package texmap

import (
	"math"

	"github.com/OpticalFlyer/scanglobe/raster"
	"github.com/OpticalFlyer/scanglobe/tilemap"
)

// SamplerState is the per-pass sampling cursor: the active tile and the
// offsets that turn a geographic position into a pixel of that tile. It is
// created fresh for every MapTexture call.
type SamplerState struct {
	tile *tilemap.Tile

	// tilePosX and tilePosY are the global pixel position of the active
	// tile's top-left corner.
	tilePosX int
	tilePosY int

	// toTileCoordinatesLon and toTileCoordinatesLat shift a global pixel
	// position relative to the map centre into the active tile.
	toTileCoordinatesLon float64
	toTileCoordinatesLat float64

	tileSwitches   int
	invalidSamples int
}

func (b *base) newSampler() *SamplerState {
	return &SamplerState{
		toTileCoordinatesLon: float64(b.globalWidth) / 2,
		toTileCoordinatesLat: float64(b.globalHeight) / 2,
	}
}

// pixelValue samples the pyramid at (lon, lat), switching tiles when the
// position falls outside the active one.
func (b *base) pixelValue(s *SamplerState, lon, lat float64) raster.Color {
	// NaN and ±Inf both fail x-x == 0.
	if lon-lon != 0 || lat-lat != 0 {
		s.invalidSamples++
		return b.opts.Background
	}
	posX := s.toTileCoordinatesLon + b.rad2PixelX(lon)
	posY := s.toTileCoordinatesLat + b.rad2PixelY(lat)

	if s.tile == nil || posX < 0 || posX >= float64(b.tileWidth) || posY < 0 || posY >= float64(b.tileHeight) {
		posX, posY = b.nextTile(s, posX, posY)
	}
	if b.opts.Quality.Smooth() {
		return b.bilinear(s, posX, posY)
	}
	return s.tile.Pixel(int(posX), int(posY))
}

// nextTile makes the tile containing the tile-relative position (posX, posY)
// active and returns the position relative to it.
func (b *base) nextTile(s *SamplerState, posX, posY float64) (float64, float64) {
	gw, gh := float64(b.globalWidth), float64(b.globalHeight)

	globalX := math.Mod(posX+float64(s.tilePosX), gw)
	if globalX < 0 {
		globalX += gw
	}
	if globalX >= gw {
		globalX = 0
	}
	globalY := posY + float64(s.tilePosY)
	if globalY < 0 {
		globalY = 0
	} else if globalY >= gh {
		globalY = math.Nextafter(gh, 0)
	}

	col := int(globalX) / b.tileWidth
	row := int(globalY) / b.tileHeight
	s.tile = b.loader.LoadTile(col, row, b.tileLevel)
	s.tilePosX = col * b.tileWidth
	s.tilePosY = row * b.tileHeight
	s.toTileCoordinatesLon = gw/2 - float64(s.tilePosX)
	s.toTileCoordinatesLat = gh/2 - float64(s.tilePosY)
	s.tileSwitches++

	return globalX - float64(s.tilePosX), globalY - float64(s.tilePosY)
}

// bilinear interpolates the 2x2 neighbourhood at (posX, posY). Neighbours
// across the right or bottom tile edge are read from the adjacent tile
// without changing the active one.
func (b *base) bilinear(s *SamplerState, posX, posY float64) raster.Color {
	x0, y0 := int(posX), int(posY)
	fx, fy := posX-float64(x0), posY-float64(y0)
	c00 := s.tile.Pixel(x0, y0)
	if fx == 0 && fy == 0 {
		return c00
	}
	var c10, c01, c11 raster.Color
	if x0+1 < s.tile.Width() && y0+1 < s.tile.Height() {
		c10 = s.tile.Pixel(x0+1, y0)
		c01 = s.tile.Pixel(x0, y0+1)
		c11 = s.tile.Pixel(x0+1, y0+1)
	} else {
		gx, gy := s.tilePosX+x0, s.tilePosY+y0
		c10 = b.globalPixel(s, gx+1, gy)
		c01 = b.globalPixel(s, gx, gy+1)
		c11 = b.globalPixel(s, gx+1, gy+1)
	}
	return raster.Bilinear(c00, c10, c01, c11, fx, fy)
}

// globalPixel reads a pixel by global position, wrapping in x and clamping
// in y.
func (b *base) globalPixel(s *SamplerState, gx, gy int) raster.Color {
	gx = tilemap.EuclideanMod(gx, b.globalWidth)
	gy = max(0, min(gy, b.maxGlobalY))
	if gx >= s.tilePosX && gx < s.tilePosX+b.tileWidth && gy >= s.tilePosY && gy < s.tilePosY+b.tileHeight {
		return s.tile.Pixel(gx-s.tilePosX, gy-s.tilePosY)
	}
	col, row := gx/b.tileWidth, gy/b.tileHeight
	t := b.loader.LoadTile(col, row, b.tileLevel)
	return t.Pixel(gx-col*b.tileWidth, gy-row*b.tileHeight)
}
