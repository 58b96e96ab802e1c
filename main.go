package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"

	"github.com/OpticalFlyer/scanglobe/config"
	"github.com/OpticalFlyer/scanglobe/globe"
	"github.com/OpticalFlyer/scanglobe/logging"
	"github.com/OpticalFlyer/scanglobe/overlay"
	"github.com/OpticalFlyer/scanglobe/raster"
)

const CONFIG string = `config`
const DEBUG string = `debug`
const PROJECTION string = `projection`
const QUALITY string = `quality`
const LON string = `lon`
const LAT string = `lat`
const RADIUS string = `radius`
const SHAPEFILE string = `shapefile`
const OUTPUT string = `output`
const WIDTH string = `width`
const HEIGHT string = `height`

func envVars(name string) []string {
	return []string{strcase.ToScreamingSnake("scanglobe_" + name)}
}

func main() {
	app := cli.NewApp()
	app.Name = "scanglobe"
	app.Usage = "Render a tiled planet texture as a globe or flat map"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    CONFIG,
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: envVars(CONFIG),
		},
		&cli.BoolFlag{
			Name:    DEBUG,
			Aliases: []string{"d"},
			Usage:   "Log debug messages",
			EnvVars: envVars(DEBUG),
		},
		&cli.StringFlag{
			Name:    PROJECTION,
			Aliases: []string{"p"},
			Usage:   "spherical, equirectangular or mercator",
			EnvVars: envVars(PROJECTION),
		},
		&cli.StringFlag{
			Name:    QUALITY,
			Aliases: []string{"q"},
			Usage:   "low, normal, high or print",
			EnvVars: envVars(QUALITY),
		},
		&cli.Float64Flag{
			Name:    LON,
			Usage:   "Longitude of the view centre in degrees",
			EnvVars: envVars(LON),
		},
		&cli.Float64Flag{
			Name:    LAT,
			Usage:   "Latitude of the view centre in degrees",
			EnvVars: envVars(LAT),
		},
		&cli.IntFlag{
			Name:    RADIUS,
			Aliases: []string{"r"},
			Usage:   "Globe radius in pixels",
			EnvVars: envVars(RADIUS),
		},
		&cli.StringSliceFlag{
			Name:    SHAPEFILE,
			Usage:   "Shapefile to draw on top of the map, may be repeated",
			EnvVars: envVars(SHAPEFILE),
		},
	}
	app.Before = func(c *cli.Context) error {
		level := slog.LevelInfo
		if c.Bool(DEBUG) {
			level = slog.LevelDebug
		}
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}
	app.Action = view
	app.Commands = []*cli.Command{
		{
			Name:   "view",
			Usage:  "Open an interactive window (default)",
			Action: view,
		},
		{
			Name:  "render",
			Usage: "Render a single frame to a PNG file",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     OUTPUT,
					Aliases:  []string{"o"},
					Usage:    "Target PNG file",
					Required: true,
					EnvVars:  envVars(OUTPUT),
				},
				&cli.IntFlag{
					Name:    WIDTH,
					Usage:   "Image width, overrides the configured view width",
					EnvVars: envVars(WIDTH),
				},
				&cli.IntFlag{
					Name:    HEIGHT,
					Usage:   "Image height, overrides the configured view height",
					EnvVars: envVars(HEIGHT),
				},
			},
			Action: render,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the configuration file, if any, and applies the command
// line overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String(CONFIG); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet(PROJECTION) {
		cfg.View.Projection = c.String(PROJECTION)
	}
	if c.IsSet(QUALITY) {
		cfg.View.Quality = c.String(QUALITY)
	}
	if c.IsSet(LON) {
		cfg.View.Lon = c.Float64(LON)
	}
	if c.IsSet(LAT) {
		cfg.View.Lat = c.Float64(LAT)
	}
	if c.IsSet(RADIUS) {
		cfg.View.Radius = c.Int(RADIUS)
	}
	if c.IsSet(WIDTH) {
		cfg.View.Width = c.Int(WIDTH)
	}
	if c.IsSet(HEIGHT) {
		cfg.View.Height = c.Int(HEIGHT)
	}
	cfg.Overlays.Shapefiles = append(cfg.Overlays.Shapefiles, c.StringSlice(SHAPEFILE)...)
	return cfg, cfg.Validate()
}

// loadFeatures reads every configured shapefile.
func loadFeatures(cfg config.Config) ([]overlay.Feature, error) {
	var features []overlay.Feature
	for _, path := range cfg.Overlays.Shapefiles {
		f, err := overlay.LoadShapefile(path)
		if err != nil {
			return nil, err
		}
		logging.Logger().Info("loaded shapefile", "path", path, "features", len(f))
		features = append(features, f...)
	}
	return features, nil
}

func view(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	loader, err := cfg.NewLoader()
	if err != nil {
		return err
	}
	defer loader.Close()

	opts, err := cfg.MapOptions()
	if err != nil {
		return err
	}
	features, err := loadFeatures(cfg)
	if err != nil {
		return err
	}
	m := globe.New(loader, opts)
	m.AddFeatures(features...)

	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("scanglobe")
	ebiten.SetVsyncEnabled(true)
	return ebiten.RunGame(NewViewer(m, loader, opts.Mapper.Quality))
}

func render(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// A single frame has nothing to redraw, so wait for every tile.
	cfg.Cache.Async = false
	loader, err := cfg.NewLoader()
	if err != nil {
		return err
	}
	defer loader.Close()

	opts, err := cfg.MapOptions()
	if err != nil {
		return err
	}
	features, err := loadFeatures(cfg)
	if err != nil {
		return err
	}
	m := globe.New(loader, opts)
	m.AddFeatures(features...)

	frame := renderFrame(m)
	output := c.String(OUTPUT)
	if err := frame.SavePNG(output); err != nil {
		return fmt.Errorf("writing %s failed: %w", output, err)
	}
	stats := m.Mapper().Stats()
	logging.Logger().Info("frame written", "path", output,
		"level", stats.Level, "tileSwitches", stats.TileSwitches, "tiles", loader.Stats().Cached)
	return nil
}

// renderFrame paints the texture, the polygon fills and the overlay lines of
// m into its canvas.
func renderFrame(m *globe.Map) *raster.Image {
	frame := m.Render()
	for _, f := range m.Features() {
		if fill, ok := f.Fill(m.Viewport()); ok {
			overlay.FillPolygon(frame, fill, fillColor)
		}
	}
	overlay.StrokeLines(frame, m.Lines(), lineColor, 1)
	return frame
}
