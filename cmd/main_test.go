package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/royalcat/pointpattern/pipeline"
	"github.com/royalcat/pointpattern/ripley"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func parseConfig(t *testing.T, args ...string) (pipeline.Config, error) {
	t.Helper()

	var cfg pipeline.Config
	app := &cli.App{
		Name: "test",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Flags: append(commonFlags(), datasetFlags()...),
				Action: func(ctx *cli.Context) error {
					var err error
					cfg, err = configFromContext(ctx)
					return err
				},
			},
		},
	}
	err := app.Run(append([]string{"test", "run"}, args...))
	return cfg, err
}

func TestConfigDefaults(t *testing.T) {
	require := require.New(t)

	cfg, err := parseConfig(t, "--points", "crimes.csv", "--fine", "lsoa.shp", "--coarse", "lad.shp")
	require.NoError(err)

	def := pipeline.ConfigDefault()
	require.Equal("crimes.csv", cfg.Loader.PointsPath)
	require.Equal("lsoa.shp", cfg.Loader.FinePath)
	require.Equal("lad.shp", cfg.Loader.CoarsePath)
	require.Equal(def.OutputDir, cfg.OutputDir)
	require.Equal(def.Formats, cfg.Formats)
	require.Equal(def.Loader.SnapshotPath, cfg.Loader.SnapshotPath)
	require.Equal(def.PrjWKT, cfg.PrjWKT)
	require.Equal(ripley.Border, cfg.Correction)
	require.Equal(def.Simulations, cfg.Simulations)
	require.Equal(def.Loader.TargetCRS.String(), cfg.Loader.TargetCRS.String())
}

func TestConfigOverrides(t *testing.T) {
	require := require.New(t)

	out := t.TempDir()
	cfg, err := parseConfig(t,
		"--points", "crimes.csv", "--fine", "lsoa.geojson", "--coarse", "lad.geojson",
		"-o", out,
		"--formats", "svg",
		"--seed", "7",
		"--correction", "translation",
		"--simulations", "0",
		"--steps", "20",
		"--grid-cols", "40",
		"--grid-rows", "30",
		"--bandwidth", "250",
		"--count-attribute", "",
		"--fine-id", "code",
		"--crs", "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
	)
	require.NoError(err)

	require.Equal(out, cfg.OutputDir)
	require.Equal(filepath.Join(out, "snapshot.bin.zst"), cfg.Loader.SnapshotPath)
	require.Equal([]string{"svg"}, cfg.Formats)
	require.EqualValues(7, cfg.Seed)
	require.Equal(ripley.Translation, cfg.Correction)
	require.Zero(cfg.Simulations)
	require.Equal(20, cfg.RipleySteps)
	require.Equal(40, cfg.GridCols)
	require.Equal(30, cfg.GridRows)
	require.InDelta(250, cfg.Bandwidth, 1e-9)
	require.Empty(cfg.CountAttribute)
	require.Empty(cfg.Loader.CSV.Attributes)
	require.Equal("code", cfg.Loader.Fine.IDField)
	require.False(cfg.Loader.TargetCRS.Geographic())
	require.Empty(cfg.PrjWKT)
}

func TestConfigInvalidCorrection(t *testing.T) {
	_, err := parseConfig(t, "--points", "a.csv", "--fine", "f.shp", "--coarse", "c.shp", "--correction", "ripley")
	require.Error(t, err)
}

func TestConfigMissingRequired(t *testing.T) {
	_, err := parseConfig(t, "--points", "a.csv")
	require.Error(t, err)
}

func TestSyntheticCommand(t *testing.T) {
	require := require.New(t)

	out := t.TempDir()
	statsFile := filepath.Join(out, "stats.txt")
	err := newApp().Run([]string{appName, "synthetic",
		"-o", out,
		"--formats", "png",
		"--count", "16",
		"--clusters", "4",
		"--stats", statsFile,
		"--log-level", "warn",
	})
	require.NoError(err)

	for _, name := range []string{"patterns.png", pipeline.ReportFile, "stats.txt"} {
		_, err := os.Stat(filepath.Join(out, name))
		require.NoError(err, name)
	}
}
