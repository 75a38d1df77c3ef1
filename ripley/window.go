package ripley

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Window is the observation region of a point pattern.
type Window interface {
	Area() float64
	Bound() orb.Bound
	Contains(p orb.Point) bool
	// EdgeDistance is the distance from a point inside the window to its boundary.
	EdgeDistance(p orb.Point) float64
}

type RectWindow orb.Bound

func (w RectWindow) Area() float64 {
	return (w.Max[0] - w.Min[0]) * (w.Max[1] - w.Min[1])
}

func (w RectWindow) Bound() orb.Bound {
	return orb.Bound(w)
}

func (w RectWindow) Contains(p orb.Point) bool {
	return orb.Bound(w).Contains(p)
}

func (w RectWindow) EdgeDistance(p orb.Point) float64 {
	return math.Min(
		math.Min(p[0]-w.Min[0], w.Max[0]-p[0]),
		math.Min(p[1]-w.Min[1], w.Max[1]-p[1]),
	)
}

// PolygonWindow is an irregular study area. Polygons must not overlap, shared
// internal edges would count as boundary.
type PolygonWindow struct {
	Polygon orb.MultiPolygon
	area    float64
}

func NewPolygonWindow(mp orb.MultiPolygon) *PolygonWindow {
	return &PolygonWindow{Polygon: mp, area: math.Abs(planar.Area(mp))}
}

func (w *PolygonWindow) Area() float64 {
	return w.area
}

func (w *PolygonWindow) Bound() orb.Bound {
	return w.Polygon.Bound()
}

func (w *PolygonWindow) Contains(p orb.Point) bool {
	return planar.MultiPolygonContains(w.Polygon, p)
}

func (w *PolygonWindow) EdgeDistance(p orb.Point) float64 {
	return planar.DistanceFrom(w.Polygon, p)
}
