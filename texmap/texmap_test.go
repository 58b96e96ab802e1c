package texmap

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpticalFlyer/scanglobe/proj"
	"github.com/OpticalFlyer/scanglobe/raster"
	"github.com/OpticalFlyer/scanglobe/tilemap"
)

const background = raster.Color(0xdeadbeef)

// fakeLoader builds tiles on demand whose pixels encode their global
// position, so every sample can be traced back to the pixel it read.
type fakeLoader struct {
	pyramid tilemap.Pyramid
	paint   func(gx, gy int) raster.Color
	tiles   map[tilemap.TileID]*tilemap.Tile

	loads      int
	flushes    int
	resets     int
	cleanups   int
	prefetched []tilemap.TileID
	onLoad     func()
}

func newFakeLoader(p tilemap.Pyramid) *fakeLoader {
	return &fakeLoader{
		pyramid: p,
		paint:   encode,
		tiles:   make(map[tilemap.TileID]*tilemap.Tile),
	}
}

func encode(gx, gy int) raster.Color { return raster.Color(gx<<16 | gy) }

func decode(c raster.Color) (gx, gy int) { return int(c >> 16), int(c & 0xffff) }

func (f *fakeLoader) LoadTile(column, row, level int) *tilemap.Tile {
	f.loads++
	if f.onLoad != nil {
		f.onLoad()
	}
	id := f.pyramid.Normalize(tilemap.TileID{Level: level, Column: column, Row: row})
	if t, ok := f.tiles[id]; ok {
		return t
	}
	tw, th := f.pyramid.TileWidth, f.pyramid.TileHeight
	img := raster.NewImage(tw, th)
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			img.SetPixel(x, y, f.paint(id.Column*tw+x, id.Row*th+y))
		}
	}
	t := tilemap.NewTile(id, img)
	f.tiles[id] = t
	return t
}

func (f *fakeLoader) TileWidth() int                     { return f.pyramid.TileWidth }
func (f *fakeLoader) TileHeight() int                    { return f.pyramid.TileHeight }
func (f *fakeLoader) GlobalWidth(level int) int          { return f.pyramid.GlobalWidth(level) }
func (f *fakeLoader) GlobalHeight(level int) int         { return f.pyramid.GlobalHeight(level) }
func (f *fakeLoader) MaxTileLevel() int                  { return f.pyramid.MaxLevel }
func (f *fakeLoader) TileProjection() tilemap.Projection { return f.pyramid.Projection }
func (f *fakeLoader) LevelZeroColumns() int              { return f.pyramid.LevelZeroColumns }
func (f *fakeLoader) LevelZeroRows() int                 { return f.pyramid.LevelZeroRows }
func (f *fakeLoader) Prefetch(id tilemap.TileID)         { f.prefetched = append(f.prefetched, id) }
func (f *fakeLoader) Flush()                             { f.flushes++ }
func (f *fakeLoader) ResetTilehash()                     { f.resets++ }
func (f *fakeLoader) CleanupTilehash()                   { f.cleanups++ }

func testOptions() Options {
	opts := DefaultOptions()
	opts.Background = background
	return opts
}

var allKinds = []proj.Kind{proj.Spherical, proj.Equirectangular, proj.Mercator}

func TestNew(t *testing.T) {
	l := newFakeLoader(tilemap.DefaultPyramid(3))
	for _, kind := range allKinds {
		m := New(kind, l, testOptions())
		assert.Equal(t, kind, m.Kind())
		assert.Equal(t, Unselected, m.State())
		assert.Equal(t, -1, m.TileLevel())
		assert.Equal(t, 3, m.MaxTileLevel())
	}
}

func TestParseQuality(t *testing.T) {
	for _, q := range []Quality{LowQuality, NormalQuality, HighQuality, PrintQuality} {
		got, err := ParseQuality(q.String())
		require.NoError(t, err)
		assert.Equal(t, q, got)
	}
	_, err := ParseQuality("ultra")
	assert.Error(t, err)
	assert.False(t, NormalQuality.Smooth())
	assert.True(t, HighQuality.Smooth())
}

func TestSelectTileLevelMonotonic(t *testing.T) {
	l := newFakeLoader(tilemap.DefaultPyramid(6))
	m := NewGlobeMapper(l, testOptions())

	prev := 0
	for radius := 1; radius <= 1e9; radius = radius*3/2 + 1 {
		level := m.SelectTileLevel(proj.NewViewport(proj.Spherical, radius, 800, 600, 0, 0))
		assert.GreaterOrEqual(t, level, prev, "radius %d", radius)
		assert.LessOrEqual(t, level, 6)
		assert.GreaterOrEqual(t, level, 0)
		prev = level
	}
	assert.Equal(t, 6, prev)
}

func TestSelectTileLevelDegenerate(t *testing.T) {
	l := newFakeLoader(tilemap.DefaultPyramid(4))
	m := NewEquirectMapper(l, testOptions())
	for _, vp := range []proj.Viewport{
		{Kind: proj.Equirectangular, Radius: 0, Width: 100, Height: 100},
		{Kind: proj.Equirectangular, Radius: -5, Width: 100, Height: 100},
		{Kind: proj.Equirectangular, Radius: 100, Width: 0, Height: 100},
		{Kind: proj.Equirectangular, Radius: 100, Width: 100, Height: 100, CenterLon: math.NaN()},
	} {
		assert.Equal(t, 0, m.SelectTileLevel(vp))
	}
}

// The 0.3/0.7 thresholds are tunable defaults. This test pins the order of
// preload and level switch, not the constants.
func TestPreloadHysteresis(t *testing.T) {
	l := newFakeLoader(tilemap.DefaultPyramid(5))
	m := NewGlobeMapper(l, testOptions())
	vp := proj.NewViewport(proj.Spherical, 130, 800, 600, 0, 0)

	steps := []struct {
		radius  int
		level   int
		preload int
	}{
		{130, 1, -1},
		{140, 1, -1},
		// Past 0.3 of the way to level 2 while zooming in.
		{170, 1, 2},
		{200, 1, 2},
		// A still radius clears the preload.
		{200, 1, -1},
		{260, 2, -1},
		{240, 1, -1},
		// Zooming out below 0.7 of level 1 preloads level 0.
		{150, 1, 0},
	}
	for _, step := range steps {
		level := m.SelectTileLevel(vp.WithRadius(step.radius))
		assert.Equal(t, step.level, level, "radius %d", step.radius)
		assert.Equal(t, step.preload, m.PreloadTileLevel(), "radius %d", step.radius)
	}

	require.Len(t, l.prefetched, 2)
	assert.Equal(t, tilemap.TileID{Level: 2, Column: 4, Row: 2}, l.prefetched[0])
	assert.Equal(t, tilemap.TileID{Level: 0, Column: 1, Row: 0}, l.prefetched[1])
	// 1 on the first selection, then 1->2 and 2->1.
	assert.Equal(t, 3, l.flushes)
}

func TestStateTransitions(t *testing.T) {
	l := newFakeLoader(tilemap.DefaultPyramid(3))
	m := NewEquirectMapper(l, testOptions())
	assert.Equal(t, Unselected, m.State())

	vp := proj.NewViewport(proj.Equirectangular, 100, 64, 48, 0, 0)
	m.SelectTileLevel(vp)
	assert.Equal(t, LevelSelected, m.State())

	var during []State
	l.onLoad = func() { during = append(during, m.State()) }
	m.MapTexture(raster.NewImage(64, 48), vp)
	require.NotEmpty(t, during)
	for _, s := range during {
		assert.Equal(t, Sampling, s)
	}
	assert.Equal(t, LevelSelected, m.State())
	assert.Equal(t, 1, l.resets)
	assert.Equal(t, 1, l.cleanups)

	m.SetTileLoader(newFakeLoader(tilemap.DefaultPyramid(2)))
	assert.Equal(t, Unselected, m.State())
	assert.Equal(t, -1, m.TileLevel())
	assert.Equal(t, 2, m.MaxTileLevel())
}

func TestMapTextureIdentityCenter(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			l := newFakeLoader(tilemap.DefaultPyramid(3))
			m := New(kind, l, testOptions())
			canvas := raster.NewImage(1, 1)
			m.MapTexture(canvas, proj.NewViewport(kind, 200, 400, 200, 0, 0))

			require.Equal(t, 400, canvas.Width())
			require.Equal(t, 200, canvas.Height())
			assert.Equal(t, 1, m.TileLevel())
			gx, gy := decode(canvas.Pixel(200, 100))
			assert.Equal(t, 512, gx)
			assert.Equal(t, 256, gy)
			assert.Zero(t, m.Stats().InvalidSamples)
		})
	}
}

func TestMapTextureAntimeridian(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			l := newFakeLoader(tilemap.DefaultPyramid(3))
			m := New(kind, l, testOptions())
			canvas := raster.NewImage(400, 200)
			m.MapTexture(canvas, proj.NewViewport(kind, 200, 400, 200, math.Pi-0.01, 0))

			gw := l.GlobalWidth(1)
			east, _ := decode(canvas.Pixel(205, 100))
			west, _ := decode(canvas.Pixel(190, 100))
			assert.Equal(t, 0, east/l.TileWidth(), "east of the seam reads column 0")
			assert.Equal(t, gw/l.TileWidth()-1, west/l.TileWidth(), "west of the seam reads the last column")
		})
	}
}

func TestPixelValueWrapsLongitude(t *testing.T) {
	l := newFakeLoader(tilemap.DefaultPyramid(3))
	m := NewEquirectMapper(l, testOptions())
	m.SelectTileLevel(proj.NewViewport(proj.Equirectangular, 400, 800, 400, 0, 0))

	rng := rand.New(rand.NewSource(1))
	s := m.newSampler()
	for iter := 0; iter < 1000; iter++ {
		lon := (rng.Float64()*2 - 1) * math.Pi
		lat := (rng.Float64() - 0.5) * math.Pi
		a := m.pixelValue(s, lon, lat)
		b := m.pixelValue(s, lon+2*math.Pi, lat)
		c := m.pixelValue(s, lon-4*math.Pi, lat)
		ax, ay := decode(a)
		bx, by := decode(b)
		cx, cy := decode(c)
		assert.InDelta(t, ax, bx, 1)
		assert.InDelta(t, ax, cx, 1)
		assert.InDelta(t, ay, by, 1)
		assert.InDelta(t, ay, cy, 1)
	}
}

func TestPixelValueTileSwitch(t *testing.T) {
	for _, projection := range []tilemap.Projection{tilemap.Equirectangular, tilemap.Mercator} {
		t.Run(projection.String(), func(t *testing.T) {
			p := tilemap.DefaultPyramid(4)
			p.Projection = projection
			if projection == tilemap.Mercator {
				p.LevelZeroColumns, p.LevelZeroRows = 1, 1
			}
			l := newFakeLoader(p)
			m := NewEquirectMapper(l, testOptions())
			m.SelectTileLevel(proj.NewViewport(proj.Equirectangular, 700, 800, 400, 0, 0))
			level := m.TileLevel()
			gw, gh := float64(l.GlobalWidth(level)), float64(l.GlobalHeight(level))

			rng := rand.New(rand.NewSource(3))
			s := m.newSampler()
			for iter := 0; iter < 5000; iter++ {
				lon := (rng.Float64()*2 - 1) * math.Pi
				lat := (rng.Float64() - 0.5) * 0.95 * math.Pi
				var wantY float64
				if projection == tilemap.Mercator {
					wantY = gh/2 - proj.MercatorY(lat)*gh/(2*math.Pi)
				} else {
					wantY = gh/2 - lat*gh/math.Pi
				}
				wantX := math.Mod(gw/2+lon*gw/(2*math.Pi), gw)

				gx, gy := decode(m.pixelValue(s, lon, lat))
				dx := math.Abs(float64(gx) - math.Floor(wantX))
				assert.True(t, dx <= 1 || dx >= gw-1, "lon %v: got x %d want %v", lon, gx, wantX)
				assert.InDelta(t, math.Floor(wantY), float64(gy), 1, "lat %v", lat)
				assert.Equal(t, gx/l.TileWidth(), s.tile.ID().Column)
				assert.Equal(t, gy/l.TileHeight(), s.tile.ID().Row)
			}
			assert.Greater(t, s.tileSwitches, 1)
		})
	}
}

func TestPixelValuePoles(t *testing.T) {
	l := newFakeLoader(tilemap.DefaultPyramid(2))
	m := NewEquirectMapper(l, testOptions())
	m.SelectTileLevel(proj.NewViewport(proj.Equirectangular, 300, 800, 400, 0, 0))
	gh := l.GlobalHeight(m.TileLevel())

	s := m.newSampler()
	_, gy := decode(m.pixelValue(s, 0.3, math.Pi/2))
	assert.Equal(t, 0, gy)
	_, gy = decode(m.pixelValue(s, 0.3, -math.Pi/2))
	assert.Equal(t, gh-1, gy)
	_, gy = decode(m.pixelValue(s, 0.3, -math.Pi))
	assert.Equal(t, gh-1, gy)
}

func TestPixelValueInvalidInput(t *testing.T) {
	l := newFakeLoader(tilemap.DefaultPyramid(2))
	m := NewGlobeMapper(l, testOptions())
	m.SelectTileLevel(proj.NewViewport(proj.Spherical, 300, 800, 400, 0, 0))

	s := m.newSampler()
	assert.Equal(t, background, m.pixelValue(s, math.NaN(), 0))
	assert.Equal(t, background, m.pixelValue(s, 0, math.Inf(1)))
	assert.Equal(t, 2, s.invalidSamples)
	assert.Nil(t, s.tile)
}

func TestBilinearAcrossTileEdge(t *testing.T) {
	p := tilemap.DefaultPyramid(0)
	p.TileWidth, p.TileHeight = 16, 16
	l := newFakeLoader(p)
	red := raster.NewColor(255, 0, 0, 255)
	blue := raster.NewColor(0, 0, 255, 255)
	l.paint = func(gx, gy int) raster.Color {
		if (gx/16)%2 == 0 {
			return red
		}
		return blue
	}
	opts := testOptions()
	opts.Quality = HighQuality
	m := NewEquirectMapper(l, opts)
	m.SelectTileLevel(proj.NewViewport(proj.Equirectangular, 1, 10, 10, 0, 0))
	require.Equal(t, 0, m.TileLevel())

	tests := []struct {
		name   string
		column int
	}{
		{"interior edge", 0},
		{"global right edge wraps", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := m.newSampler()
			m.nextTile(s, float64(tt.column*16)+1, 1)
			require.Equal(t, tt.column, s.tile.ID().Column)
			active := s.tile

			c := m.bilinear(s, 15.5, 3)
			assert.InDelta(t, 127, int(c.R()), 2)
			assert.InDelta(t, 127, int(c.B()), 2)
			assert.Same(t, active, s.tile)
		})
	}
}

func TestGlobeClearsOutsideDisc(t *testing.T) {
	l := newFakeLoader(tilemap.DefaultPyramid(3))
	m := NewGlobeMapper(l, testOptions())
	canvas := raster.NewImage(120, 100)
	canvas.Fill(raster.White)
	m.MapTexture(canvas, proj.NewViewport(proj.Spherical, 40, 120, 100, 0.4, 0.2))

	for y := 0; y < 100; y++ {
		for x := 0; x < 120; x++ {
			dx, dy := float64(x)-60, float64(y)-50
			d := math.Hypot(dx, dy)
			switch {
			case d > 41:
				assert.Equal(t, background, canvas.Pixel(x, y), "(%d,%d)", x, y)
			case d < 39:
				assert.NotEqual(t, background, canvas.Pixel(x, y), "(%d,%d)", x, y)
			}
		}
	}
}

func TestFlatMapsClearOutsideBand(t *testing.T) {
	for _, kind := range []proj.Kind{proj.Equirectangular, proj.Mercator} {
		t.Run(kind.String(), func(t *testing.T) {
			l := newFakeLoader(tilemap.DefaultPyramid(3))
			m := New(kind, l, testOptions())
			canvas := raster.NewImage(100, 400)
			canvas.Fill(raster.White)
			m.MapTexture(canvas, proj.NewViewport(kind, 50, 100, 400, 0, 0))

			st := m.Stats()
			assert.Greater(t, st.PaintedTop, 0)
			assert.Less(t, st.PaintedBottom, 400)
			for y := 0; y < 400; y++ {
				painted := y >= st.PaintedTop && y < st.PaintedBottom
				for x := 0; x < 100; x += 7 {
					if painted {
						assert.NotEqual(t, background, canvas.Pixel(x, y))
					} else {
						assert.Equal(t, background, canvas.Pixel(x, y))
					}
				}
			}
		})
	}
}

func TestMapTextureDegenerateViewport(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			l := newFakeLoader(tilemap.DefaultPyramid(3))
			m := New(kind, l, testOptions())
			canvas := raster.NewImage(10, 10)
			canvas.Fill(raster.White)

			m.MapTexture(canvas, proj.Viewport{Kind: kind, Radius: 0, Width: 10, Height: 10})
			assert.Equal(t, 0, m.TileLevel())
			for _, c := range canvas.Pix() {
				assert.Equal(t, background, c)
			}

			m.MapTexture(canvas, proj.Viewport{Kind: kind, Radius: 30, Width: 0, Height: 10})
			assert.Equal(t, 0, canvas.Width())
			assert.Empty(t, canvas.Pix())
			assert.Zero(t, l.loads)
		})
	}
}

func TestMapTextureNoLoader(t *testing.T) {
	m := NewMercatorMapper(nil, testOptions())
	canvas := raster.NewImage(4, 4)
	m.MapTexture(canvas, proj.NewViewport(proj.Mercator, 10, 8, 8, 0, 0))
	assert.Equal(t, 8, canvas.Width())
	assert.Equal(t, background, canvas.Pixel(3, 3))
	assert.Equal(t, Unselected, m.State())
}

func TestMapTextureRandomViewports(t *testing.T) {
	l := newFakeLoader(tilemap.DefaultPyramid(5))
	mappers := make([]TextureMapper, len(allKinds))
	for i, kind := range allKinds {
		mappers[i] = New(kind, l, testOptions())
	}
	canvas := raster.NewImage(16, 12)
	rng := rand.New(rand.NewSource(5))
	special := []float64{0, math.Pi, -math.Pi, math.Pi / 2, -math.Pi / 2}

	for i := 0; i < 10000; i++ {
		kind := rng.Intn(len(allKinds))
		lon := (rng.Float64()*2 - 1) * math.Pi
		lat := (rng.Float64() - 0.5) * math.Pi
		if i%10 == 0 {
			lon = special[rng.Intn(len(special))]
			lat = special[rng.Intn(len(special))]
		}
		radius := 1 + int(math.Exp(rng.Float64()*16))
		vp := proj.NewViewport(allKinds[kind], radius, 16, 12, lon, lat)

		m := mappers[kind]
		m.MapTexture(canvas, vp)
		require.Zero(t, m.Stats().InvalidSamples, "viewport %+v", vp)

		gw, gh := l.GlobalWidth(m.TileLevel()), l.GlobalHeight(m.TileLevel())
		for _, c := range canvas.Pix() {
			if c == background {
				continue
			}
			gx, gy := decode(c)
			require.Less(t, gx, gw, "viewport %+v", vp)
			require.Less(t, gy, gh, "viewport %+v", vp)
		}
	}
}

func BenchmarkMapTexture(b *testing.B) {
	for _, kind := range allKinds {
		b.Run(kind.String(), func(b *testing.B) {
			l := newFakeLoader(tilemap.DefaultPyramid(4))
			m := New(kind, l, DefaultOptions())
			canvas := raster.NewImage(800, 600)
			vp := proj.NewViewport(kind, 300, 800, 600, 0.3, 0.5)
			b.ResetTimer()
			for iter := 0; iter < b.N; iter++ {
				m.MapTexture(canvas, vp)
			}
		})
	}
}
