package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/joho/godotenv"
	"github.com/royalcat/pointpattern/internal/stats"
	"github.com/royalcat/pointpattern/internal/telemetry"
	"github.com/royalcat/pointpattern/pipeline"
	"github.com/royalcat/pointpattern/projection"
	"github.com/royalcat/pointpattern/ripley"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/urfave/cli/v3"
	_ "go.uber.org/automaxprocs"
)

const appName = "pointpattern"

func main() {
	_ = godotenv.Load(".env")

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:        appName,
		Description: "Spatial point pattern analysis of geocoded events",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "load a dataset, aggregate it, estimate density and Ripley's K",
				Flags: append(commonFlags(), datasetFlags()...),
				Action: func(ctx *cli.Context) error {
					return execute(ctx, pipeline.Run)
				},
			},
			{
				Name:    "synthetic",
				Aliases: []string{"s"},
				Usage:   "draw uniform, random and clustered comparison patterns",
				Flags:   commonFlags(),
				Action: func(ctx *cli.Context) error {
					return execute(ctx, pipeline.RunSynthetic)
				},
			},
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			DefaultText: "output",
			TakesFile:   true,
		},
		&cli.StringSliceFlag{
			Name:        "formats",
			Aliases:     []string{"f"},
			Usage:       "figure formats: png, jpg, svg, pdf, eps, tif",
			DefaultText: "png,pdf",
		},
		&cli.IntFlag{
			Name:        "seed",
			DefaultText: "1",
		},
		&cli.IntFlag{
			Name:        "count",
			Aliases:     []string{"n"},
			Usage:       "number of points in each synthetic pattern",
			DefaultText: "100",
		},
		&cli.IntFlag{
			Name:        "clusters",
			DefaultText: "10",
		},
		&cli.Float64Flag{
			Name:        "cluster-radius",
			DefaultText: "0.05",
		},
		&cli.Float64Flag{
			Name:        "hard-core",
			Usage:       "minimum distance of the inhibition pattern, 0 disables it",
			DefaultText: "0.05",
		},
		&cli.BoolFlag{
			Name: "progress",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: "info",
		},
		&cli.StringFlag{
			Name:  "otel.endpoint",
			Usage: "OTLP/HTTP collector host:port, otherwise OTEL_* variables pick the exporters",
		},
		&cli.StringFlag{
			Name:      "stats",
			Usage:     "write a runtime statistics report to this file",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name: "pprof.profile",
		},
		&cli.BoolFlag{
			Name: "pprof.heap",
		},
	}
}

func datasetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      "points",
			Aliases:   []string{"p"},
			Required:  true,
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "fine",
			Usage:     "fine boundaries, .shp or .geojson",
			Required:  true,
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "coarse",
			Usage:     "coarse boundaries, .shp or .geojson",
			Required:  true,
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:        "fine-id",
			DefaultText: "LSOA21CD",
		},
		&cli.StringFlag{
			Name:        "coarse-id",
			DefaultText: "LAD22CD",
		},
		&cli.StringFlag{
			Name:        "lon",
			DefaultText: "Longitude",
		},
		&cli.StringFlag{
			Name:        "lat",
			DefaultText: "Latitude",
		},
		&cli.StringFlag{
			Name:        "count-attribute",
			DefaultText: "Crime type",
		},
		&cli.StringFlag{
			Name:        "snapshot",
			Usage:       "snapshot cache path, empty string disables it",
			DefaultText: "output/snapshot.bin.zst",
			TakesFile:   true,
		},
		&cli.StringFlag{
			Name:        "crs",
			Usage:       "target projected CRS as proj4 or WKT",
			DefaultText: "British National Grid",
		},
		&cli.StringFlag{
			Name:      "prj",
			Usage:     "WKT file describing the target CRS",
			TakesFile: true,
		},
		&cli.Float64Flag{
			Name:        "bandwidth",
			DefaultText: "Scott's rule",
		},
		&cli.IntFlag{
			Name:        "grid-cols",
			DefaultText: "200",
		},
		&cli.IntFlag{
			Name:        "grid-rows",
			DefaultText: "200",
		},
		&cli.StringFlag{
			Name:        "correction",
			Usage:       "edge correction: none, border or translation",
			DefaultText: "border",
		},
		&cli.IntFlag{
			Name:        "steps",
			DefaultText: "50",
		},
		&cli.IntFlag{
			Name:        "simulations",
			Usage:       "CSR simulations for the K envelope, 0 disables it",
			DefaultText: "19",
		},
	}
}

// configFromContext overrides the defaults with every flag that was set.
func configFromContext(ctx *cli.Context) (pipeline.Config, error) {
	cfg := pipeline.ConfigDefault()

	if ctx.IsSet("output") {
		cfg.OutputDir = ctx.String("output")
		cfg.Loader.SnapshotPath = filepath.Join(cfg.OutputDir, filepath.Base(cfg.Loader.SnapshotPath))
	}
	if ctx.IsSet("formats") {
		cfg.Formats = ctx.StringSlice("formats")
	}
	if ctx.IsSet("seed") {
		cfg.Seed = uint64(ctx.Int("seed"))
	}
	if ctx.IsSet("count") {
		cfg.Synthetic.Count = ctx.Int("count")
	}
	if ctx.IsSet("clusters") {
		cfg.Synthetic.Cluster.Clusters = ctx.Int("clusters")
	}
	if ctx.IsSet("cluster-radius") {
		cfg.Synthetic.Cluster.Radius = ctx.Float64("cluster-radius")
	}
	if ctx.IsSet("hard-core") {
		cfg.Synthetic.HardCoreDistance = ctx.Float64("hard-core")
	}
	cfg.Progress = ctx.Bool("progress")

	if ctx.IsSet("points") {
		cfg.Loader.PointsPath = ctx.String("points")
	}
	if ctx.IsSet("fine") {
		cfg.Loader.FinePath = ctx.String("fine")
	}
	if ctx.IsSet("coarse") {
		cfg.Loader.CoarsePath = ctx.String("coarse")
	}
	if ctx.IsSet("fine-id") {
		cfg.Loader.Fine.IDField = ctx.String("fine-id")
	}
	if ctx.IsSet("coarse-id") {
		cfg.Loader.Coarse.IDField = ctx.String("coarse-id")
	}
	if ctx.IsSet("lon") {
		cfg.Loader.CSV.LonColumn = ctx.String("lon")
	}
	if ctx.IsSet("lat") {
		cfg.Loader.CSV.LatColumn = ctx.String("lat")
	}
	if ctx.IsSet("count-attribute") {
		cfg.CountAttribute = ctx.String("count-attribute")
		if cfg.CountAttribute != "" {
			cfg.Loader.CSV.Attributes = []string{cfg.CountAttribute}
		} else {
			cfg.Loader.CSV.Attributes = nil
		}
	}
	if ctx.IsSet("snapshot") {
		cfg.Loader.SnapshotPath = ctx.String("snapshot")
	}

	if ctx.IsSet("prj") {
		wkt, err := os.ReadFile(ctx.String("prj"))
		if err != nil {
			return cfg, fmt.Errorf("reading prj file: %w", err)
		}
		cfg.PrjWKT = string(wkt)
		crs, err := projection.Parse(cfg.PrjWKT)
		if err != nil {
			return cfg, err
		}
		cfg.Loader.TargetCRS = crs
	}
	if ctx.IsSet("crs") {
		crs, err := projection.Parse(ctx.String("crs"))
		if err != nil {
			return cfg, err
		}
		cfg.Loader.TargetCRS = crs
		if !ctx.IsSet("prj") {
			cfg.PrjWKT = ""
		}
	}

	if ctx.IsSet("bandwidth") {
		cfg.Bandwidth = ctx.Float64("bandwidth")
	}
	if ctx.IsSet("grid-cols") {
		cfg.GridCols = ctx.Int("grid-cols")
	}
	if ctx.IsSet("grid-rows") {
		cfg.GridRows = ctx.Int("grid-rows")
	}
	if ctx.IsSet("correction") {
		c, err := ripley.ParseCorrection(ctx.String("correction"))
		if err != nil {
			return cfg, err
		}
		cfg.Correction = c
	}
	if ctx.IsSet("steps") {
		cfg.RipleySteps = ctx.Int("steps")
	}
	if ctx.IsSet("simulations") {
		cfg.Simulations = ctx.Int("simulations")
	}

	return cfg, nil
}

type runFunc func(context.Context, pipeline.Config, ...pipeline.Option) (*pipeline.Report, error)

func execute(ctx *cli.Context, run runFunc) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(ctx.String("log-level"))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	telemetry.SetupLogging(level)

	client, err := telemetry.Setup(ctx.Context, appName, ctx.String("otel.endpoint"), level)
	if err != nil {
		return fmt.Errorf("error setting up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Flush(shutdownCtx); err != nil {
			slog.Error("error flushing telemetry", "error", err)
		}
		client.Shutdown(shutdownCtx)
	}()

	log := slog.Default()

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	if ctx.Bool("pprof.profile") {
		f, err := os.OpenFile("profile.cpu.pprof", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("error creating pprof file: %w", err)
		}
		defer f.Close()
		err = pprof.StartCPUProfile(f)
		if err != nil {
			return fmt.Errorf("error starting pprof: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	opts := []pipeline.Option{pipeline.WithLogger(log)}

	var collector *stats.Collector
	if ctx.IsSet("stats") {
		collector, err = stats.NewCollector()
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithStats(collector))
	}

	report, err := run(ctx.Context, cfg, opts...)
	if err != nil {
		return err
	}

	if ctx.Bool("pprof.heap") {
		if err := writeHeapProfile("profile"); err != nil {
			return fmt.Errorf("error writing heap profile: %w", err)
		}
	}

	if collector != nil {
		rs := collector.Stop()
		if err := rs.SaveToFile(ctx.String("stats")); err != nil {
			return fmt.Errorf("error writing stats: %w", err)
		}
	}

	log.Info("complete", "output", cfg.OutputDir, "files", len(report.Outputs))
	return nil
}

func writeHeapProfile(name string) error {
	f, err := os.Create(name + ".heap.prof")
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
