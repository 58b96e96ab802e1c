package tilemap

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"

	"github.com/OpticalFlyer/scanglobe/logging"
	"github.com/OpticalFlyer/scanglobe/raster"
	"github.com/OpticalFlyer/scanglobe/tilemap/worker"
)

// Options tunes a Loader.
type Options struct {
	// CacheSize is the number of decoded tiles kept in the LRU cache.
	CacheSize int64
	// ItemsToPrune is how many tiles are evicted at once when the cache is full.
	ItemsToPrune uint32
	// TTL bounds how long a decoded tile stays valid in the cache.
	TTL time.Duration
	// Workers and QueueSize size the background fetch pool.
	Workers   int
	QueueSize int
	// Async makes LoadTile return placeholders immediately and fetch missing
	// tiles in the background. Otherwise missing tiles are fetched inline.
	Async bool
	// Fallback fills tiles for which no ancestor is available either.
	Fallback raster.Color
}

// DefaultOptions suits a local tile directory.
func DefaultOptions() Options {
	return Options{
		CacheSize:    512,
		ItemsToPrune: 32,
		TTL:          24 * time.Hour,
		Workers:      4,
		QueueSize:    256,
		Fallback:     raster.NewColor(0x10, 0x20, 0x40, 0xff),
	}
}

type hashEntry struct {
	tile *Tile
	used bool
}

// Stats is a snapshot of the loader's bookkeeping.
type Stats struct {
	Active  int
	Cached  int
	Pending int
	Missing int
}

// Loader hands decoded tiles to the texture mapper. LoadTile never returns
// nil: tiles that are not available yet are replaced by a scaled crop of the
// nearest available ancestor.
//
// Tiles touched during one frame live in the tile hash. Between frames the
// hash is reset and swept, while decoded tiles stay in an LRU cache.
type Loader struct {
	pyramid Pyramid
	source  Source
	opts    Options

	cache *ccache.Cache[*Tile]
	group singleflight.Group
	pool  *worker.Pool

	mu      sync.Mutex
	hash    map[TileID]*hashEntry
	pending map[TileID]struct{}
	arrived map[TileID]struct{}
	missing map[TileID]struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	solid   *raster.Image

	updates chan TileID
}

// NewLoader validates pyramid and starts the background fetch pool. Call
// Close to release it.
func NewLoader(pyramid Pyramid, source Source, opts Options) (*Loader, error) {
	if err := pyramid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tile pyramid: %w", err)
	}
	if source == nil {
		return nil, errors.New("tile source is required")
	}
	def := DefaultOptions()
	if opts.CacheSize <= 0 {
		opts.CacheSize = def.CacheSize
	}
	if opts.ItemsToPrune == 0 {
		opts.ItemsToPrune = def.ItemsToPrune
	}
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}

	solid := raster.NewImage(pyramid.TileWidth, pyramid.TileHeight)
	solid.Fill(opts.Fallback)

	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		pyramid: pyramid,
		source:  source,
		opts:    opts,
		cache:   ccache.New(ccache.Configure[*Tile]().MaxSize(opts.CacheSize).ItemsToPrune(opts.ItemsToPrune)),
		pool:    worker.NewPool(opts.Workers, opts.QueueSize),
		hash:    make(map[TileID]*hashEntry),
		pending: make(map[TileID]struct{}),
		arrived: make(map[TileID]struct{}),
		missing: make(map[TileID]struct{}),
		ctx:     ctx,
		cancel:  cancel,
		solid:   solid,
		updates: make(chan TileID, 64),
	}
	logging.Logger().Info("tile loader ready",
		"tileWidth", pyramid.TileWidth, "tileHeight", pyramid.TileHeight,
		"levelZero", fmt.Sprintf("%dx%d", pyramid.LevelZeroColumns, pyramid.LevelZeroRows),
		"maxLevel", pyramid.MaxLevel, "async", opts.Async)
	return l, nil
}

// Close stops background work. The loader must not be used afterwards.
func (l *Loader) Close() {
	l.mu.Lock()
	l.cancel()
	l.mu.Unlock()
	l.pool.Shutdown()
	l.cache.Stop()
}

func (l *Loader) Pyramid() Pyramid           { return l.pyramid }
func (l *Loader) TileWidth() int             { return l.pyramid.TileWidth }
func (l *Loader) TileHeight() int            { return l.pyramid.TileHeight }
func (l *Loader) GlobalWidth(level int) int  { return l.pyramid.GlobalWidth(level) }
func (l *Loader) GlobalHeight(level int) int { return l.pyramid.GlobalHeight(level) }
func (l *Loader) MaxTileLevel() int          { return l.pyramid.MaxLevel }
func (l *Loader) TileProjection() Projection { return l.pyramid.Projection }
func (l *Loader) LevelZeroColumns() int      { return l.pyramid.LevelZeroColumns }
func (l *Loader) LevelZeroRows() int         { return l.pyramid.LevelZeroRows }

// Updates delivers the id of every tile that finished loading in the
// background. Notifications are dropped when nobody keeps up with the
// channel; a single pending notification is enough to schedule a repaint.
func (l *Loader) Updates() <-chan TileID { return l.updates }

// LoadTile returns the tile at (column, row, level). Out of range ids are
// normalized: columns wrap, rows and levels clamp.
func (l *Loader) LoadTile(column, row, level int) *Tile {
	id := l.pyramid.Normalize(TileID{Level: level, Column: column, Row: row})

	l.mu.Lock()
	if e, ok := l.hash[id]; ok {
		e.used = true
		l.mu.Unlock()
		return e.tile
	}
	l.mu.Unlock()

	t := l.resolve(id)

	l.mu.Lock()
	l.hash[id] = &hashEntry{tile: t, used: true}
	l.mu.Unlock()
	return t
}

func (l *Loader) resolve(id TileID) *Tile {
	if t := l.cached(id); t != nil {
		return t
	}
	if l.isMissing(id) {
		return l.placeholder(id)
	}
	if l.opts.Async {
		l.enqueue(id)
	} else if t, err := l.fetch(l.context(), id); err == nil {
		return t
	}
	return l.placeholder(id)
}

// Prefetch starts loading id in the background unless it is cached already.
func (l *Loader) Prefetch(id TileID) {
	if !l.pyramid.Contains(id) || l.cached(id) != nil || l.isMissing(id) {
		return
	}
	l.enqueue(id)
}

// Flush cancels in-flight fetches and empties the tile hash. Decoded tiles
// stay in the cache.
func (l *Loader) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel()
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.hash = make(map[TileID]*hashEntry)
	l.pending = make(map[TileID]struct{})
	l.arrived = make(map[TileID]struct{})
}

// ResetTilehash starts a new frame: every tile in the hash is marked unused
// and placeholders whose real data has arrived are dropped.
func (l *Loader) ResetTilehash() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id := range l.arrived {
		delete(l.hash, id)
	}
	clear(l.arrived)
	for _, e := range l.hash {
		e.used = false
	}
}

// CleanupTilehash removes tiles that were not used since ResetTilehash.
func (l *Loader) CleanupTilehash() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, e := range l.hash {
		if !e.used {
			delete(l.hash, id)
		}
	}
}

// Stats reports the sizes of the loader's tables.
func (l *Loader) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Active:  len(l.hash),
		Cached:  l.cache.ItemCount(),
		Pending: len(l.pending),
		Missing: len(l.missing),
	}
}

func (l *Loader) context() context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctx
}

func (l *Loader) isMissing(id TileID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.missing[id]
	return ok
}

func (l *Loader) cached(id TileID) *Tile {
	item := l.cache.Get(id.String())
	if item == nil || item.Expired() {
		return nil
	}
	return item.Value()
}

// fetch loads id from the source, decoding and caching it. Concurrent
// fetches of the same tile share one source request.
func (l *Loader) fetch(ctx context.Context, id TileID) (*Tile, error) {
	v, err, _ := l.group.Do(id.String(), func() (any, error) {
		if t := l.cached(id); t != nil {
			return t, nil
		}
		img, err := l.source.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		t := NewTile(id, l.fit(img))
		l.cache.Set(id.String(), t, l.opts.TTL)
		return t, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrTileNotFound):
			l.mu.Lock()
			l.missing[id] = struct{}{}
			l.mu.Unlock()
		case errors.Is(err, context.Canceled):
		default:
			logging.Logger().Warn("loading tile failed", "tile", id, "err", err)
		}
		return nil, err
	}
	return v.(*Tile), nil
}

func (l *Loader) enqueue(id TileID) {
	l.mu.Lock()
	if _, ok := l.pending[id]; ok {
		l.mu.Unlock()
		return
	}
	l.pending[id] = struct{}{}
	ctx := l.ctx
	l.mu.Unlock()

	ok := l.pool.Submit(worker.Task{Ctx: ctx, Work: func(ctx context.Context) error {
		defer l.donePending(id)
		if _, err := l.fetch(ctx, id); err != nil {
			return err
		}
		l.mu.Lock()
		l.arrived[id] = struct{}{}
		l.mu.Unlock()
		select {
		case l.updates <- id:
		default:
		}
		return nil
	}})
	if !ok {
		// Queue full; the next frame asks again.
		l.donePending(id)
	}
}

func (l *Loader) donePending(id TileID) {
	l.mu.Lock()
	delete(l.pending, id)
	l.mu.Unlock()
}

// placeholder builds a stand-in for id from the nearest ancestor that is
// available without blocking. The base level is always fetched inline.
func (l *Loader) placeholder(id TileID) *Tile {
	for level := id.Level - 1; level >= 0; level-- {
		anc := id.Ancestor(level)
		src := l.cached(anc)
		if src == nil && !l.isMissing(anc) && (level == 0 || !l.opts.Async) {
			src, _ = l.fetch(l.context(), anc)
		}
		if src != nil {
			return l.scaleFromAncestor(id, src)
		}
	}
	t := NewTile(id, l.solid)
	t.placeholder = true
	return t
}

// scaleFromAncestor crops the part of anc that covers id and scales it up
// to a full tile.
func (l *Loader) scaleFromAncestor(id TileID, anc *Tile) *Tile {
	shift := id.Level - anc.id.Level
	scale := 1 << shift
	subX := id.Column - anc.id.Column<<shift
	subY := id.Row - anc.id.Row<<shift

	w, h := anc.Width(), anc.Height()
	x0, x1 := subX*w/scale, (subX+1)*w/scale
	y0, y1 := subY*h/scale, (subY+1)*h/scale
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, l.pyramid.TileWidth, l.pyramid.TileHeight))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), anc.img.ToNRGBA(), image.Rect(x0, y0, x1, y1), xdraw.Src, nil)

	t := NewTile(id, raster.FromImage(dst))
	t.placeholder = true
	return t
}

// fit converts img to a raster of exactly one tile, rescaling images of the
// wrong size.
func (l *Loader) fit(img image.Image) *raster.Image {
	w, h := l.pyramid.TileWidth, l.pyramid.TileHeight
	if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
		return raster.FromImage(img)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return raster.FromImage(dst)
}
