package geomodel

import (
	"math"

	"github.com/paulmach/orb"
)

// Raster is a regular grid of values over Bound. Values are row-major,
// row 0 is the bottom (min Y) row.
type Raster struct {
	CRS        string
	Bound      orb.Bound
	Cols, Rows int
	Values     []float64
}

func NewRaster(crs string, bound orb.Bound, cols, rows int) *Raster {
	return &Raster{
		CRS:    crs,
		Bound:  bound,
		Cols:   cols,
		Rows:   rows,
		Values: make([]float64, cols*rows),
	}
}

func (r *Raster) CellWidth() float64 {
	return (r.Bound.Max[0] - r.Bound.Min[0]) / float64(r.Cols)
}

func (r *Raster) CellHeight() float64 {
	return (r.Bound.Max[1] - r.Bound.Min[1]) / float64(r.Rows)
}

func (r *Raster) CellArea() float64 {
	return r.CellWidth() * r.CellHeight()
}

func (r *Raster) At(col, row int) float64 {
	return r.Values[row*r.Cols+col]
}

func (r *Raster) Set(col, row int, v float64) {
	r.Values[row*r.Cols+col] = v
}

// Center returns the centre of the given cell.
func (r *Raster) Center(col, row int) orb.Point {
	return orb.Point{
		r.Bound.Min[0] + (float64(col)+0.5)*r.CellWidth(),
		r.Bound.Min[1] + (float64(row)+0.5)*r.CellHeight(),
	}
}

// Integral sums value*cell area over all non-NaN cells.
func (r *Raster) Integral() float64 {
	sum := 0.0
	for _, v := range r.Values {
		if !math.IsNaN(v) {
			sum += v
		}
	}
	return sum * r.CellArea()
}

// MinMax returns the value range ignoring NaN cells.
func (r *Raster) MinMax() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range r.Values {
		if math.IsNaN(v) {
			continue
		}
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}
