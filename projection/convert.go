package projection

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// FromGeom converts shapefile polygon geometry into an orb multipolygon.
// Shapefile parts are a flat list of rings: clockwise rings start a new polygon,
// counter-clockwise rings are holes assigned to the outer ring containing them.
func FromGeom(g geom.Geom) (orb.MultiPolygon, error) {
	switch g := g.(type) {
	case geom.Polygon:
		return ringsToMultiPolygon(pathsToRings(g)), nil
	case geom.MultiPolygon:
		var rings []orb.Ring
		for _, poly := range g {
			rings = append(rings, pathsToRings(poly)...)
		}
		return ringsToMultiPolygon(rings), nil
	default:
		return nil, fmt.Errorf("unsupported boundary geometry type %T", g)
	}
}

func pathsToRings(poly geom.Polygon) []orb.Ring {
	rings := make([]orb.Ring, 0, len(poly))
	for _, path := range poly {
		ring := make(orb.Ring, 0, len(path)+1)
		for _, p := range path {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		if len(ring) > 0 && !ring.Closed() {
			ring = append(ring, ring[0])
		}
		if len(ring) < 4 {
			continue
		}
		rings = append(rings, ring)
	}
	return rings
}

func ringsToMultiPolygon(rings []orb.Ring) orb.MultiPolygon {
	mp := orb.MultiPolygon{}
	var holes []orb.Ring
	for _, ring := range rings {
		if ring.Orientation() == orb.CCW {
			holes = append(holes, ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	if len(mp) == 0 {
		// all rings wound the other way, treat them as outers
		for _, ring := range holes {
			mp = append(mp, orb.Polygon{ring})
		}
		holes = nil
	}
	for _, hole := range holes {
		mp = addHole(mp, hole)
	}
	for _, poly := range mp {
		reorient(poly)
	}
	return mp
}

func addHole(mp orb.MultiPolygon, hole orb.Ring) orb.MultiPolygon {
	for i := range mp {
		if ringInside(mp[i][0], hole) {
			mp[i] = append(mp[i], hole)
			return mp
		}
	}
	// an orphan hole is an outer ring with unusual winding
	return append(mp, orb.Polygon{hole})
}

func ringInside(outer orb.Ring, r orb.Ring) bool {
	for _, p := range r {
		if !planar.RingContains(outer, p) {
			return false
		}
	}
	return true
}

// reorient makes outer rings counter-clockwise and holes clockwise, as GeoJSON expects.
func reorient(p orb.Polygon) {
	if p[0].Orientation() != orb.CCW {
		p[0].Reverse()
	}
	for i := 1; i < len(p); i++ {
		if p[i].Orientation() != orb.CW {
			p[i].Reverse()
		}
	}
}

// ToGeomPolygon flattens mp into shapefile ring order: outer rings clockwise, holes counter-clockwise.
func ToGeomPolygon(mp orb.MultiPolygon) geom.Polygon {
	out := geom.Polygon{}
	for _, poly := range mp {
		for i, ring := range poly {
			want := orb.CW
			if i > 0 {
				want = orb.CCW
			}
			r := ring.Clone()
			if r.Orientation() != want {
				r.Reverse()
			}
			path := make(geom.Path, len(r))
			for j, p := range r {
				path[j] = geom.Point{X: p[0], Y: p[1]}
			}
			out = append(out, path)
		}
	}
	return out
}

// Dissolve merges the polygons of mp into their union, removing shared edges.
func Dissolve(mp orb.MultiPolygon) orb.MultiPolygon {
	if len(mp) == 0 {
		return nil
	}
	var acc geom.Polygonal = ToGeomPolygon(orb.MultiPolygon{mp[0]})
	for _, poly := range mp[1:] {
		acc = acc.Union(ToGeomPolygon(orb.MultiPolygon{poly}))
	}

	var rings []orb.Ring
	for _, poly := range acc.Polygons() {
		rings = append(rings, pathsToRings(poly)...)
	}
	return nestRings(rings)
}

// nestRings builds polygons from rings of unknown winding: a ring nested in an
// odd number of other rings is a hole of its innermost container.
func nestRings(rings []orb.Ring) orb.MultiPolygon {
	depth := make([]int, len(rings))
	for i := range rings {
		for j := range rings {
			if i != j && ringInside(rings[j], rings[i]) {
				depth[i]++
			}
		}
	}

	mp := orb.MultiPolygon{}
	outer := make(map[int]int)
	for i, ring := range rings {
		if depth[i]%2 == 0 {
			outer[i] = len(mp)
			mp = append(mp, orb.Polygon{ring})
		}
	}
	for i, ring := range rings {
		if depth[i]%2 == 0 {
			continue
		}
		for j := range rings {
			if depth[j] == depth[i]-1 && ringInside(rings[j], ring) {
				k := outer[j]
				mp[k] = append(mp[k], ring)
				break
			}
		}
	}
	for _, poly := range mp {
		reorient(poly)
	}
	return mp
}
