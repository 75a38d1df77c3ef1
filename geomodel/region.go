package geomodel

import (
	"github.com/paulmach/orb"
)

// Region is one administrative polygon with its attribute row.
// Count is derived by the aggregator, it is zero for freshly loaded regions.
type Region struct {
	ID         string
	Geometry   orb.MultiPolygon
	Attributes map[string]string
	Count      int
}

type RegionSet struct {
	CRS     string
	Regions []Region
}

func (s RegionSet) Len() int {
	return len(s.Regions)
}

func (s RegionSet) Bound() orb.Bound {
	if len(s.Regions) == 0 {
		return orb.Bound{}
	}
	b := s.Regions[0].Geometry.Bound()
	for _, r := range s.Regions[1:] {
		b = b.Union(r.Geometry.Bound())
	}
	return b
}

// Union returns all polygons of the set as one multipolygon. Shared edges are kept,
// the result is only meant for containment tests and outlines.
func (s RegionSet) Union() orb.MultiPolygon {
	out := orb.MultiPolygon{}
	for _, r := range s.Regions {
		out = append(out, r.Geometry...)
	}
	return out
}

func (s RegionSet) TotalCount() int {
	total := 0
	for _, r := range s.Regions {
		total += r.Count
	}
	return total
}

// Clone copies the region slice and attribute maps, geometry is shared.
func (s RegionSet) Clone() RegionSet {
	out := RegionSet{CRS: s.CRS, Regions: make([]Region, len(s.Regions))}
	for i, r := range s.Regions {
		attrs := make(map[string]string, len(r.Attributes))
		for k, v := range r.Attributes {
			attrs[k] = v
		}
		r.Attributes = attrs
		out.Regions[i] = r
	}
	return out
}
