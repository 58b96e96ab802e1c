// Package config loads the scanglobe YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/OpticalFlyer/scanglobe/globe"
	"github.com/OpticalFlyer/scanglobe/logging"
	"github.com/OpticalFlyer/scanglobe/proj"
	"github.com/OpticalFlyer/scanglobe/raster"
	"github.com/OpticalFlyer/scanglobe/texmap"
	"github.com/OpticalFlyer/scanglobe/tilemap"
)

type Config struct {
	Tiles    Tiles    `yaml:"tiles"`
	View     View     `yaml:"view"`
	Cache    Cache    `yaml:"cache"`
	Overlays Overlays `yaml:"overlays"`
}

// Tiles describes the tile source and its pyramid.
type Tiles struct {
	// Source is one of "synthetic", "dir" or "http".
	Source string `yaml:"source" default:"synthetic" validate:"oneof=synthetic dir http"`
	// Dir holds the tiles of a dir source, or caches downloads of an http
	// source when set.
	Dir       string        `yaml:"dir" validate:"required_if=Source dir"`
	URL       string        `yaml:"url" validate:"required_if=Source http,omitempty,startswith=http"`
	UserAgent string        `yaml:"userAgent" default:"scanglobe/1.0"`
	Timeout   time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
	Labels    bool          `yaml:"labels" default:"true"`

	TileWidth        int    `yaml:"tileWidth" default:"256" validate:"min=1,max=4096"`
	TileHeight       int    `yaml:"tileHeight" default:"256" validate:"min=1,max=4096"`
	LevelZeroColumns int    `yaml:"levelZeroColumns" default:"2" validate:"min=1"`
	LevelZeroRows    int    `yaml:"levelZeroRows" default:"1" validate:"min=1"`
	// MaxLevel -1 scans Dir for the deepest level.
	MaxLevel   int    `yaml:"maxLevel" default:"6" validate:"min=-1,max=24"`
	Projection string `yaml:"projection" default:"equirectangular" validate:"oneof=equirectangular equirect mercator"`
}

// View is the initial view. Angles are in degrees.
type View struct {
	Projection string  `yaml:"projection" default:"spherical" validate:"oneof=spherical globe equirectangular flat plate-carree mercator"`
	Width      int     `yaml:"width" default:"800" validate:"min=1"`
	Height     int     `yaml:"height" default:"600" validate:"min=1"`
	Radius     int     `yaml:"radius" default:"250" validate:"min=1"`
	Lon        float64 `yaml:"lon" validate:"min=-180,max=180"`
	Lat        float64 `yaml:"lat" validate:"min=-90,max=90"`
	MinRadius  int     `yaml:"minRadius" default:"16" validate:"min=1"`
	MaxRadius  int     `yaml:"maxRadius" default:"16777216" validate:"gtefield=MinRadius"`
	ZoomFactor float64 `yaml:"zoomFactor" default:"1.25" validate:"gt=1"`
	Quality    string  `yaml:"quality" default:"normal" validate:"oneof=low normal high print"`
	Background string  `yaml:"background" default:"#000000" validate:"hexcolor"`
}

// Cache tunes the tile loader.
type Cache struct {
	Size         int64         `yaml:"size" default:"512" validate:"min=1"`
	ItemsToPrune uint32        `yaml:"itemsToPrune" default:"32" validate:"min=1"`
	TTL          time.Duration `yaml:"ttl" default:"24h" validate:"gt=0"`
	Workers      int           `yaml:"workers" default:"4" validate:"min=1,max=64"`
	QueueSize    int           `yaml:"queueSize" default:"256" validate:"min=1"`
	Async        bool          `yaml:"async" default:"true"`
	Fallback     string        `yaml:"fallback" default:"#102040" validate:"hexcolor"`
}

type Overlays struct {
	Grid       bool     `yaml:"grid" default:"true"`
	Equator    bool     `yaml:"equator"`
	Tropics    bool     `yaml:"tropics"`
	Shapefiles []string `yaml:"shapefiles" validate:"dive,required"`
}

// Default returns the configuration with every default applied.
func Default() Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(err)
	}
	return c
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parsing config failed: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads and parses a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config failed: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	logging.Logger().Debug("config loaded", "path", path, "source", c.Tiles.Source)
	return c, nil
}

func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Tiles.MaxLevel < 0 && c.Tiles.Source != "dir" {
		return errors.New("invalid config: tiles.maxLevel -1 needs a dir source")
	}
	return nil
}

// Pyramid returns the tile pyramid. A MaxLevel of -1 is resolved by scanning
// the tile directory.
func (c Config) Pyramid() (tilemap.Pyramid, error) {
	projection, err := tilemap.ParseProjection(c.Tiles.Projection)
	if err != nil {
		return tilemap.Pyramid{}, err
	}
	p := tilemap.Pyramid{
		TileWidth:        c.Tiles.TileWidth,
		TileHeight:       c.Tiles.TileHeight,
		LevelZeroColumns: c.Tiles.LevelZeroColumns,
		LevelZeroRows:    c.Tiles.LevelZeroRows,
		MaxLevel:         c.Tiles.MaxLevel,
		Projection:       projection,
	}
	if p.MaxLevel < 0 {
		level, err := tilemap.NewDirSource(c.Tiles.Dir).MaxLevel()
		if err != nil {
			return tilemap.Pyramid{}, err
		}
		if level < 0 {
			return tilemap.Pyramid{}, fmt.Errorf("no tile levels found in %s", c.Tiles.Dir)
		}
		p.MaxLevel = level
	}
	return p, p.Validate()
}

// Source builds the configured tile source.
func (c Config) Source(p tilemap.Pyramid) tilemap.Source {
	switch c.Tiles.Source {
	case "dir":
		return tilemap.NewDirSource(c.Tiles.Dir)
	case "http":
		remote := tilemap.NewHTTPSource(c.Tiles.URL, c.Tiles.UserAgent, &http.Client{Timeout: c.Tiles.Timeout})
		if c.Tiles.Dir == "" {
			return remote
		}
		return tilemap.CachedSource{Local: tilemap.NewDirSource(c.Tiles.Dir), Remote: remote}
	}
	return tilemap.NewSyntheticSource(p, c.Tiles.Labels)
}

func (c Config) LoaderOptions() (tilemap.Options, error) {
	fallback, err := ParseColor(c.Cache.Fallback)
	if err != nil {
		return tilemap.Options{}, err
	}
	return tilemap.Options{
		CacheSize:    c.Cache.Size,
		ItemsToPrune: c.Cache.ItemsToPrune,
		TTL:          c.Cache.TTL,
		Workers:      c.Cache.Workers,
		QueueSize:    c.Cache.QueueSize,
		Async:        c.Cache.Async,
		Fallback:     fallback,
	}, nil
}

// NewLoader builds the pyramid, the source and the loader in one go.
func (c Config) NewLoader() (*tilemap.Loader, error) {
	p, err := c.Pyramid()
	if err != nil {
		return nil, err
	}
	opts, err := c.LoaderOptions()
	if err != nil {
		return nil, err
	}
	return tilemap.NewLoader(p, c.Source(p), opts)
}

func (c Config) MapOptions() (globe.Options, error) {
	kind, err := proj.ParseKind(c.View.Projection)
	if err != nil {
		return globe.Options{}, err
	}
	quality, err := texmap.ParseQuality(c.View.Quality)
	if err != nil {
		return globe.Options{}, err
	}
	background, err := ParseColor(c.View.Background)
	if err != nil {
		return globe.Options{}, err
	}
	center := proj.GeoPointFromDegrees(c.View.Lon, c.View.Lat)

	opts := globe.DefaultOptions()
	opts.Kind = kind
	opts.Radius = c.View.Radius
	opts.Width, opts.Height = c.View.Width, c.View.Height
	opts.CenterLon, opts.CenterLat = center.Lon, center.Lat
	opts.MinRadius, opts.MaxRadius = c.View.MinRadius, c.View.MaxRadius
	opts.ZoomFactor = c.View.ZoomFactor
	opts.Grid, opts.Equator, opts.Tropics = c.Overlays.Grid, c.Overlays.Equator, c.Overlays.Tropics
	opts.Mapper.Quality = quality
	opts.Mapper.Background = background
	return opts, nil
}

// ParseColor parses "#rgb", "#rgba", "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (raster.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 || len(hex) == 4 {
		long := make([]byte, 0, 8)
		for i := 0; i < len(hex); i++ {
			long = append(long, hex[i], hex[i])
		}
		hex = string(long)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return 0, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return raster.NewColor(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
}
