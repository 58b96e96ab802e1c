package tilemap

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpticalFlyer/scanglobe/raster"
)

func uniformTile(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDirSourceStoreAndFetch(t *testing.T) {
	src := NewDirSource(t.TempDir())
	id := TileID{Level: 2, Column: 5, Row: 3}

	_, err := src.Fetch(context.Background(), id)
	require.ErrorIs(t, err, ErrTileNotFound)

	require.NoError(t, src.Store(id, uniformTile(8, 8, color.NRGBA{R: 200, A: 255})))
	assert.FileExists(t, filepath.Join(src.Root(), "2", "000003", "000003_000005.png"))

	img, err := src.Fetch(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, raster.NewColor(200, 0, 0, 255), raster.FromColor(img.At(4, 4)))

	level, err := src.MaxLevel()
	require.NoError(t, err)
	assert.Equal(t, 2, level)
}

func TestDirSourceCorruptTile(t *testing.T) {
	src := NewDirSource(t.TempDir())
	id := TileID{Level: 0, Column: 0, Row: 0}
	path := src.Path(id, ".png")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	_, err := src.Fetch(context.Background(), id)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTileNotFound))
}

func TestDirSourceMaxLevelEmpty(t *testing.T) {
	level, err := NewDirSource(t.TempDir()).MaxLevel()
	require.NoError(t, err)
	assert.Equal(t, -1, level)

	_, err = NewDirSource(filepath.Join(t.TempDir(), "nope")).MaxLevel()
	assert.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	var gotAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.UserAgent())
		switch r.URL.Path {
		case "/1/0/1.png":
			w.Header().Set("Content-Type", "image/png")
			_ = png.Encode(w, uniformTile(4, 4, color.NRGBA{G: 255, A: 255}))
		case "/1/1/1.png":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/{z}/{x}/{y}.png", "", srv.Client())
	assert.Equal(t, srv.URL+"/1/0/1.png", src.URL(TileID{Level: 1, Column: 0, Row: 1}))

	img, err := src.Fetch(context.Background(), TileID{Level: 1, Column: 0, Row: 1})
	require.NoError(t, err)
	assert.Equal(t, raster.NewColor(0, 255, 0, 255), raster.FromColor(img.At(0, 0)))
	assert.Equal(t, DefaultUserAgent, gotAgent.Load())

	_, err = src.Fetch(context.Background(), TileID{Level: 1, Column: 2, Row: 1})
	assert.ErrorIs(t, err, ErrTileNotFound)

	_, err = src.Fetch(context.Background(), TileID{Level: 1, Column: 1, Row: 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTileNotFound)
}

func TestHTTPSourceTemplateAliases(t *testing.T) {
	src := NewHTTPSource("https://tiles.example/{level}/{row}/{column}.jpg", "test/1.0", nil)
	assert.Equal(t, "https://tiles.example/4/7/9.jpg", src.URL(TileID{Level: 4, Column: 9, Row: 7}))
}

func TestCachedSourceStoresRemoteTiles(t *testing.T) {
	var calls atomic.Int32
	remote := SourceFunc(func(ctx context.Context, id TileID) (image.Image, error) {
		calls.Add(1)
		return uniformTile(4, 4, color.NRGBA{B: 255, A: 255}), nil
	})
	src := CachedSource{Local: NewDirSource(t.TempDir()), Remote: remote}
	id := TileID{Level: 0, Column: 1, Row: 0}

	for i := 0; i < 3; i++ {
		img, err := src.Fetch(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, raster.NewColor(0, 0, 255, 255), raster.FromColor(img.At(1, 1)))
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestSyntheticSource(t *testing.T) {
	p := DefaultPyramid(3)
	src := NewSyntheticSource(p, true)

	img, err := src.Fetch(context.Background(), TileID{Level: 1, Column: 2, Row: 1})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())

	_, err = src.Fetch(context.Background(), TileID{Level: 4, Column: 0, Row: 0})
	assert.ErrorIs(t, err, ErrTileNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Fetch(ctx, TileID{})
	assert.ErrorIs(t, err, context.Canceled)
}
