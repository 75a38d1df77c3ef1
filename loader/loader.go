// Package loader reads point and boundary files, moves them into one projected
// CRS and keeps the result in a snapshot so later runs skip the raw inputs.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/royalcat/pointpattern/bordertree"
	"github.com/royalcat/pointpattern/cachesaver"
	"github.com/royalcat/pointpattern/geomodel"
	"github.com/royalcat/pointpattern/projection"
	"github.com/samber/lo"
)

// DatasetVersion is stored in snapshot metadata.
const DatasetVersion uint32 = 1

var ErrEmptyDataset = errors.New("no points left inside the study area")

type Config struct {
	PointsPath string
	CSV        CSVOptions

	FinePath   string
	Fine       BoundaryOptions
	CoarsePath string
	Coarse     BoundaryOptions

	// TargetCRS is the projected system every layer is moved into.
	TargetCRS *projection.CRS

	// SnapshotPath enables the snapshot cache when set.
	SnapshotPath string
}

// Build reads every input, reprojects it to cfg.TargetCRS and clips the points
// to the coarse regions.
func Build(ctx context.Context, cfg Config, opts ...Option) (*geomodel.Dataset, error) {
	o := loadOptions(opts...)
	log := o.logger

	target := cfg.TargetCRS
	if target == nil {
		target = projection.BritishNationalGrid()
	}

	for _, path := range []string{cfg.PointsPath, cfg.FinePath, cfg.CoarsePath} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("input %q: %w", path, err)
		}
	}

	points, err := ReadPointsFile(cfg.PointsPath, cfg.CSV, opts...)
	if err != nil {
		return nil, err
	}
	pointsCRS, err := projection.Parse(cfg.CSV.crs())
	if err != nil {
		return nil, err
	}
	points, err = projection.ReprojectPoints(points, pointsCRS, target)
	if err != nil {
		return nil, fmt.Errorf("error reprojecting points: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fine, err := readRegions(cfg.FinePath, cfg.Fine, target)
	if err != nil {
		return nil, err
	}
	coarse, err := readRegions(cfg.CoarsePath, cfg.Coarse, target)
	if err != nil {
		return nil, err
	}
	log.Info("read boundaries", "fine", fine.Len(), "coarse", coarse.Len())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clipped := clip(points, coarse)
	if removed := points.Len() - clipped.Len(); removed > 0 {
		log.Info("clipped points outside the study area", "removed", removed, "kept", clipped.Len())
	}
	if clipped.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	d := &geomodel.Dataset{
		Metadata: geomodel.Metadata{
			Version:     DatasetVersion,
			RunID:       uuid.NewString(),
			CRS:         target.Definition,
			DateCreated: time.Now().UTC().Truncate(time.Second),
			Sources:     []string{cfg.PointsPath, cfg.FinePath, cfg.CoarsePath},
		},
		Points: clipped,
		Fine:   fine,
		Coarse: coarse,
		Study:  projection.Dissolve(coarse.Union()),
	}
	return d, d.Validate()
}

func readRegions(path string, opts BoundaryOptions, target *projection.CRS) (geomodel.RegionSet, error) {
	set, crs, err := ReadBoundaries(path, opts)
	if err != nil {
		return set, err
	}
	set, err = projection.ReprojectRegions(set, crs, target)
	if err != nil {
		return set, fmt.Errorf("error reprojecting %s: %w", path, err)
	}
	return set, nil
}

// clip keeps the points that fall inside any of the regions.
func clip(points geomodel.PointSet, regions geomodel.RegionSet) geomodel.PointSet {
	tree := bordertree.NewBorderTree[struct{}]()
	for _, r := range regions.Regions {
		tree.InsertBorder(struct{}{}, r.Geometry)
	}
	return geomodel.PointSet{
		CRS: points.CRS,
		Points: lo.Filter(points.Points, func(p geomodel.Point, _ int) bool {
			return tree.Contains(p.Location)
		}),
	}
}

// LoadOrBuild returns the snapshot at cfg.SnapshotPath verbatim when it exists.
// Otherwise it builds the dataset and persists it before returning.
func LoadOrBuild(ctx context.Context, cfg Config, opts ...Option) (*geomodel.Dataset, error) {
	o := loadOptions(opts...)
	log := o.logger

	if cfg.SnapshotPath != "" {
		_, err := os.Stat(cfg.SnapshotPath)
		switch {
		case err == nil:
			log.Info("loading snapshot", "path", cfg.SnapshotPath)
			d, err := cachesaver.LoadFile(cfg.SnapshotPath, log)
			if err != nil {
				return nil, err
			}
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("snapshot %q: %w", cfg.SnapshotPath, err)
			}
			if d.Points.Len() == 0 {
				return nil, fmt.Errorf("snapshot %q: %w", cfg.SnapshotPath, ErrEmptyDataset)
			}
			return d, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("error checking snapshot: %w", err)
		}
	}

	d, err := Build(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.SnapshotPath != "" {
		err = cachesaver.SaveFile(d, cfg.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("error saving snapshot: %w", err)
		}
		attrs := []any{"path", cfg.SnapshotPath, "points", d.Points.Len()}
		if info, err := os.Stat(cfg.SnapshotPath); err == nil {
			attrs = append(attrs, "size", humanize.Bytes(uint64(info.Size())))
		}
		log.Info("saved snapshot", attrs...)
	}
	return d, nil
}
