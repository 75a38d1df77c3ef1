// Package pipeline runs the analysis stages in order: synthetic patterns, data
// loading, aggregation, density estimation and Ripley's K, writing every figure
// and export into one output directory.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/royalcat/pointpattern/aggregate"
	"github.com/royalcat/pointpattern/density"
	"github.com/royalcat/pointpattern/geomodel"
	"github.com/royalcat/pointpattern/loader"
	"github.com/royalcat/pointpattern/patterns"
	"github.com/royalcat/pointpattern/render"
	"github.com/royalcat/pointpattern/ripley"
	"github.com/samber/lo"
	"golang.org/x/exp/rand"
)

// RunSynthetic generates the comparison patterns and draws them side by side.
func RunSynthetic(ctx context.Context, cfg Config, opts ...Option) (*Report, error) {
	r, err := newRunner(cfg, loadOptions(opts...))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, err
	}

	report := &Report{}
	err = r.stage(ctx, "synthetic", func(ctx context.Context) error {
		return r.synthetic(report)
	})
	if err != nil {
		return nil, err
	}
	return report, r.writeReport(report)
}

// Run executes every stage. The dataset comes from the snapshot when one exists.
func Run(ctx context.Context, cfg Config, opts ...Option) (*Report, error) {
	r, err := newRunner(cfg, loadOptions(opts...))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, err
	}

	report := &Report{}
	var (
		d       *geomodel.Dataset
		counted geomodel.RegionSet
		surface *geomodel.Raster
	)

	stages := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"synthetic", func(ctx context.Context) error {
			return r.synthetic(report)
		}},
		{"load", func(ctx context.Context) error {
			d, err = loader.LoadOrBuild(ctx, cfg.Loader, loader.WithLogger(r.log), loader.WithProgress(cfg.Progress))
			if err != nil {
				return err
			}
			report.RunID = d.Metadata.RunID
			report.CRS = d.Metadata.CRS
			report.Points = d.Points.Len()
			return nil
		}},
		{"aggregate", func(ctx context.Context) error {
			counted, err = r.aggregate(d, report)
			return err
		}},
		{"density", func(ctx context.Context) error {
			surface, err = r.density(d, report)
			return err
		}},
		{"ripley", func(ctx context.Context) error {
			return r.ripley(d, report)
		}},
		{"render", func(ctx context.Context) error {
			return r.figures("panels", report, func(path string) error {
				return render.Panels(path, d.Points, counted, surface)
			})
		}},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.stage(ctx, s.name, s.fn); err != nil {
			return nil, err
		}
	}

	return report, r.writeReport(report)
}

func (r *runner) synthetic(report *Report) error {
	cfg := r.cfg.Synthetic
	window := patterns.UnitWindow
	src := rand.NewSource(r.cfg.Seed)

	random, err := patterns.Random(cfg.Count, window, src)
	if err != nil {
		return fmt.Errorf("random pattern: %w", err)
	}
	uniform, dropped, err := patterns.Uniform(cfg.Count, window)
	if err != nil {
		return fmt.Errorf("uniform pattern: %w", err)
	}
	if dropped > 0 {
		r.log.Warn("uniform grid truncated to a perfect square", "requested", cfg.Count, "dropped", dropped)
	}
	clustered, err := patterns.Clustered(cfg.Count, window, cfg.Cluster, src)
	if err != nil {
		return fmt.Errorf("clustered pattern: %w", err)
	}

	pats := []render.Pattern{
		{Name: "Random", Points: random},
		{Name: "Uniform", Points: uniform},
		{Name: "Clustered", Points: clustered},
	}
	report.Synthetic = SyntheticReport{
		Random:         len(random),
		Uniform:        len(uniform),
		UniformDropped: dropped,
		Clustered:      len(clustered),
	}

	if cfg.HardCoreDistance > 0 {
		hardcore, err := patterns.HardCore(window, cfg.HardCoreDistance, int64(r.cfg.Seed))
		if err != nil {
			return fmt.Errorf("hard-core pattern: %w", err)
		}
		pats = append(pats, render.Pattern{Name: "Hard-core", Points: hardcore})
		report.Synthetic.HardCore = len(hardcore)
	}

	return r.figures("patterns", report, func(path string) error {
		return render.Patterns(path, window, pats...)
	})
}

func (r *runner) aggregate(d *geomodel.Dataset, report *Report) (geomodel.RegionSet, error) {
	var (
		counted geomodel.RegionSet
		err     error
	)
	if r.cfg.CountAttribute != "" {
		counted, err = aggregate.CountBy(d.Points, d.Fine, r.cfg.CountAttribute)
	} else {
		counted, err = aggregate.Count(d.Points, d.Fine)
	}
	if err != nil {
		return counted, err
	}
	report.Regions = aggregate.Summarize(counted)
	if report.Regions.Total == 0 {
		r.log.Warn("no point falls inside a fine region")
	}

	shpPath := filepath.Join(r.cfg.OutputDir, "region_counts.shp")
	if err := render.ExportShapefile(shpPath, counted, r.cfg.PrjWKT); err != nil {
		return counted, err
	}
	jsonPath := filepath.Join(r.cfg.OutputDir, "region_counts.geojson")
	if err := render.ExportGeoJSON(jsonPath, counted); err != nil {
		return counted, err
	}
	report.Outputs = append(report.Outputs, shpPath, jsonPath)
	return counted, nil
}

func (r *runner) density(d *geomodel.Dataset, report *Report) (*geomodel.Raster, error) {
	bandwidth := r.cfg.Bandwidth
	if bandwidth == 0 {
		var err error
		bandwidth, err = density.ScottBandwidth(d.Points)
		if err != nil {
			return nil, err
		}
		r.log.Info("selected bandwidth by Scott's rule", "bandwidth", bandwidth)
	}

	surface, err := density.Estimate(d.Points, density.Options{
		Bandwidth: bandwidth,
		Cols:      r.cfg.GridCols,
		Rows:      r.cfg.GridRows,
		Bound:     studyBound(d),
	})
	if err != nil {
		return nil, err
	}
	if len(d.Study) > 0 {
		surface = density.Mask(surface, d.Study)
	}

	report.Bandwidth = bandwidth
	report.DensityIntegral = surface.Integral()
	return surface, nil
}

func (r *runner) ripley(d *geomodel.Dataset, report *Report) error {
	points, removed := ripley.Dedupe(d.Points.Locations())
	if removed > 0 {
		r.log.Warn("removed duplicate locations before estimating K", "removed", removed)
	}

	var window ripley.Window
	if r.cfg.Correction == ripley.Translation || len(d.Study) == 0 {
		window = ripley.RectWindow(studyBound(d))
	} else {
		window = ripley.NewPolygonWindow(d.Study)
	}
	inside := lo.Filter(points, func(p orb.Point, _ int) bool {
		return window.Contains(p)
	})
	if outside := len(points) - len(inside); outside > 0 {
		r.log.Warn("ignoring points outside the analysis window", "outside", outside)
	}

	radii := ripley.Support(window, r.cfg.RipleySteps)
	curve, err := ripley.Estimate(inside, window, radii, r.cfg.Correction,
		ripley.WithLogger(r.log), ripley.WithProgress(r.cfg.Progress))
	if err != nil {
		return err
	}
	report.Ripley = newRipleyReport(curve, removed)

	var env *ripley.Envelope
	if r.cfg.Simulations > 0 {
		e, err := ripley.SimulateEnvelope(len(inside), window, radii, r.cfg.Correction, r.cfg.Simulations, r.cfg.Seed)
		if err != nil {
			return err
		}
		env = &e
		report.Ripley.EnvelopeLo, report.Ripley.EnvelopeHi = e.Lo, e.Hi
	}

	return r.figures("ripley", report, func(path string) error {
		return render.RipleyCurve(path, curve, env)
	})
}

// figures writes one figure per configured format.
func (r *runner) figures(name string, report *Report, draw func(path string) error) error {
	for _, ext := range r.cfg.Formats {
		path := filepath.Join(r.cfg.OutputDir, name+"."+ext)
		if err := draw(path); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		report.Outputs = append(report.Outputs, path)
		r.log.Info("figure written", "path", path)
	}
	return nil
}

func studyBound(d *geomodel.Dataset) orb.Bound {
	if len(d.Study) > 0 {
		return d.Study.Bound()
	}
	return d.Coarse.Bound()
}
