package render

import (
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"github.com/royalcat/pointpattern/geomodel"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Panels draws three panels of one dataset: raw points with boundaries, a choropleth
// of fine region counts and the density surface.
func Panels(path string, points geomodel.PointSet, regions geomodel.RegionSet, surface *geomodel.Raster) error {
	if !geomodel.SameCRS(points.CRS, regions.CRS, surface.CRS) {
		return geomodel.ErrCRSMismatch
	}
	window := regions.Bound().Union(points.Bound())

	pointsPlot, err := scatter("Points", points.Locations(), window)
	if err != nil {
		return err
	}
	if err := addOutlines(pointsPlot, regions); err != nil {
		return err
	}

	choropleth, err := Choropleth("Counts per region", regions)
	if err != nil {
		return err
	}
	setWindow(choropleth, window)

	density := Density("Kernel density", surface)
	setWindow(density, window)
	if err := addOutlines(density, regions); err != nil {
		return err
	}

	return saveTiles(path, [][]*plot.Plot{{pointsPlot, choropleth, density}})
}

// Choropleth fills each region by its Count.
func Choropleth(title string, regions geomodel.RegionSet) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range regions.Regions {
		lo = math.Min(lo, float64(r.Count))
		hi = math.Max(hi, float64(r.Count))
	}
	colors := palette.Heat(12, 1).Colors()

	for _, r := range regions.Regions {
		fill := colors[0]
		if hi > lo {
			fill = colors[int((float64(r.Count)-lo)/(hi-lo)*float64(len(colors)-1))]
		}
		for _, poly := range r.Geometry {
			pg, err := polygon(poly)
			if err != nil {
				return nil, err
			}
			pg.Color = fill
			pg.LineStyle.Color = outlineColor
			pg.LineStyle.Width = vg.Points(0.3)
			p.Add(pg)
		}
	}
	return p, nil
}

// Density draws the raster as a heat map. NaN cells are transparent.
func Density(title string, surface *geomodel.Raster) *plot.Plot {
	p := plot.New()
	p.Title.Text = title

	h := plotter.NewHeatMap(rasterGrid{surface}, palette.Heat(32, 1))
	h.NaN = color.Transparent
	p.Add(h)
	return p
}

func addOutlines(p *plot.Plot, regions geomodel.RegionSet) error {
	for _, r := range regions.Regions {
		for _, poly := range r.Geometry {
			pg, err := polygon(poly)
			if err != nil {
				return err
			}
			pg.Color = nil
			pg.LineStyle.Color = outlineColor
			pg.LineStyle.Width = vg.Points(0.3)
			p.Add(pg)
		}
	}
	return nil
}

func polygon(poly orb.Polygon) (*plotter.Polygon, error) {
	rings := make([]plotter.XYer, len(poly))
	for i, ring := range poly {
		rings[i] = toXYs(ring)
	}
	return plotter.NewPolygon(rings...)
}

// rasterGrid adapts a raster to plotter.GridXYZ.
type rasterGrid struct {
	r *geomodel.Raster
}

func (g rasterGrid) Dims() (c, r int) { return g.r.Cols, g.r.Rows }
func (g rasterGrid) Z(c, r int) float64 { return g.r.At(c, r) }
func (g rasterGrid) X(c int) float64 { return g.r.Center(c, 0)[0] }
func (g rasterGrid) Y(r int) float64 { return g.r.Center(0, r)[1] }

func (g rasterGrid) Min() float64 {
	lo, hi := g.r.MinMax()
	if lo > hi {
		return 0
	}
	return lo
}

func (g rasterGrid) Max() float64 {
	lo, hi := g.r.MinMax()
	if lo >= hi {
		return g.Min() + 1
	}
	return hi
}
