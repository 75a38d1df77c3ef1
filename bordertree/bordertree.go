// Package bordertree answers point-in-polygon queries against a set of
// multipolygons through a quadtree over their bounding boxes.
package bordertree

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/qtree"
)

// BorderTree resolves a point to at most one polygon. Points on a shared edge
// belong to the polygon inserted first.
type BorderTree[Data any] struct {
	borders []border[Data]
	qt      qtree.QTree
}

func NewBorderTree[Data any]() *BorderTree[Data] {
	return &BorderTree[Data]{}
}

type border[D any] struct {
	Data    D
	Polygon orb.MultiPolygon
}

func (bt *BorderTree[Data]) Len() int {
	return len(bt.borders)
}

func (bt *BorderTree[Data]) InsertBorder(data Data, b orb.MultiPolygon) {
	bound := b.Bound()
	bt.qt.Insert(bound.Min, bound.Max, len(bt.borders))
	bt.borders = append(bt.borders, border[Data]{Data: data, Polygon: b})
}

// QueryPoint returns the data of the earliest inserted polygon containing point,
// boundary included.
func (bt *BorderTree[Data]) QueryPoint(point orb.Point) (Data, bool) {
	id, ok := bt.QueryIndex(point)
	if !ok {
		var zero Data
		return zero, false
	}
	return bt.borders[id].Data, true
}

// QueryIndex is QueryPoint returning the insertion index instead of the data.
func (bt *BorderTree[Data]) QueryIndex(point orb.Point) (int, bool) {
	found := -1
	bt.qt.Search(point, point, func(_, _ [2]float64, data interface{}) bool {
		id := data.(int)
		if found != -1 && id > found {
			return true
		}
		if planar.MultiPolygonContains(bt.borders[id].Polygon, point) {
			found = id
		}
		return true
	})
	return found, found != -1
}

// Contains reports whether any polygon contains point.
func (bt *BorderTree[Data]) Contains(point orb.Point) bool {
	contains := false
	bt.qt.Search(point, point, func(_, _ [2]float64, data interface{}) bool {
		if planar.MultiPolygonContains(bt.borders[data.(int)].Polygon, point) {
			contains = true
			return false
		}
		return true
	})
	return contains
}
