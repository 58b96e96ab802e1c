package tilemap

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/OpticalFlyer/scanglobe/logging"
)

// ErrTileNotFound is returned by sources that do not have a tile. The loader
// remembers such tiles and stops asking for them.
var ErrTileNotFound = errors.New("tile not found")

// Source produces decoded tile images. Implementations must be safe for
// concurrent use.
type Source interface {
	Fetch(ctx context.Context, id TileID) (image.Image, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, id TileID) (image.Image, error)

func (f SourceFunc) Fetch(ctx context.Context, id TileID) (image.Image, error) {
	return f(ctx, id)
}

func decodeTile(r io.Reader, name string) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s failed: %w", name, err)
	}
	return img, nil
}

// CachedSource serves tiles from a local directory and falls back to a
// remote source, storing what it downloads.
type CachedSource struct {
	Local  *DirSource
	Remote Source
}

func (s CachedSource) Fetch(ctx context.Context, id TileID) (image.Image, error) {
	img, err := s.Local.Fetch(ctx, id)
	if err == nil {
		return img, nil
	}
	if !errors.Is(err, ErrTileNotFound) {
		logging.Logger().Warn("reading cached tile failed", "tile", id, "err", err)
	}
	img, err = s.Remote.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Local.Store(id, img); err != nil {
		logging.Logger().Warn("storing tile failed", "tile", id, "err", err)
	}
	return img, nil
}
