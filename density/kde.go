// Package density estimates a continuous intensity surface from point locations
// with a Gaussian kernel.
package density

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/royalcat/pointpattern/bordertree"
	"github.com/royalcat/pointpattern/geomodel"
	"github.com/royalcat/pointpattern/kdbush"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrInvalidBandwidth = errors.New("bandwidth must be positive")
	ErrEmptyPointSet    = errors.New("point set is empty")
	ErrInvalidGrid      = errors.New("grid must have positive size and a non-empty extent")
)

// DefaultCutoff is the kernel support in bandwidths. exp(-16/2) leaves ~0.03% of the mass out.
const DefaultCutoff = 4.0

type Options struct {
	Bandwidth  float64
	Cols, Rows int
	// Bound of the output grid. Zero means the point bound padded by Cutoff bandwidths.
	Bound orb.Bound
	// Cutoff in bandwidths beyond which kernel contributions are ignored. Zero means DefaultCutoff.
	Cutoff float64
}

// Estimate computes the kernel intensity at every cell centre. The surface is in points
// per unit area, so its integral over an extent covering the points approaches points.Len().
func Estimate(points geomodel.PointSet, opts Options) (*geomodel.Raster, error) {
	if !(opts.Bandwidth > 0) {
		return nil, ErrInvalidBandwidth
	}
	if points.Len() == 0 {
		return nil, ErrEmptyPointSet
	}
	if opts.Cutoff <= 0 {
		opts.Cutoff = DefaultCutoff
	}
	reach := opts.Cutoff * opts.Bandwidth
	if opts.Bound.IsZero() {
		opts.Bound = points.Bound().Pad(reach)
	}
	if opts.Cols <= 0 || opts.Rows <= 0 || !(opts.Bound.Max[0] > opts.Bound.Min[0]) || !(opts.Bound.Max[1] > opts.Bound.Min[1]) {
		return nil, ErrInvalidGrid
	}

	bushPoints := make([]kdbush.Point[struct{}], points.Len())
	for i, p := range points.Points {
		bushPoints[i] = kdbush.Point[struct{}]{X: p.X(), Y: p.Y()}
	}
	bush := kdbush.NewBush(bushPoints, kdbush.DefaultNodeSize)

	raster := geomodel.NewRaster(points.CRS, opts.Bound, opts.Cols, opts.Rows)
	h2 := opts.Bandwidth * opts.Bandwidth
	norm := 1 / (2 * math.Pi * h2)

	for row := 0; row < raster.Rows; row++ {
		for col := 0; col < raster.Cols; col++ {
			c := raster.Center(col, row)
			sum := 0.0
			bush.Within(c[0], c[1], reach, func(_ int, d2 float64) bool {
				sum += math.Exp(-d2 / (2 * h2))
				return true
			})
			raster.Set(col, row, norm*sum)
		}
	}
	return raster, nil
}

// ScottBandwidth is Scott's rule for a bivariate Gaussian kernel:
// the mean coordinate standard deviation times n^(-1/6).
func ScottBandwidth(points geomodel.PointSet) (float64, error) {
	if points.Len() < 2 {
		return 0, ErrEmptyPointSet
	}
	xs := make([]float64, points.Len())
	ys := make([]float64, points.Len())
	for i, p := range points.Points {
		xs[i], ys[i] = p.X(), p.Y()
	}
	sd := (stat.StdDev(xs, nil) + stat.StdDev(ys, nil)) / 2
	h := sd * math.Pow(float64(points.Len()), -1.0/6.0)
	if !(h > 0) {
		return 0, ErrInvalidBandwidth
	}
	return h, nil
}

// Mask returns a copy of r with every cell whose centre lies outside boundary set to NaN.
func Mask(r *geomodel.Raster, boundary orb.MultiPolygon) *geomodel.Raster {
	tree := bordertree.NewBorderTree[struct{}]()
	for _, poly := range boundary {
		tree.InsertBorder(struct{}{}, orb.MultiPolygon{poly})
	}

	out := geomodel.NewRaster(r.CRS, r.Bound, r.Cols, r.Rows)
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			if tree.Contains(r.Center(col, row)) {
				out.Set(col, row, r.At(col, row))
			} else {
				out.Set(col, row, math.NaN())
			}
		}
	}
	return out
}
