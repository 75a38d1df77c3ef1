// Package aggregate bins points into polygons to produce choropleth attributes.
package aggregate

import (
	"fmt"
	"strconv"

	"github.com/royalcat/pointpattern/bordertree"
	"github.com/royalcat/pointpattern/geomodel"
	"github.com/samber/lo"
)

// CountAttribute is the attribute column holding the per-region point count.
const CountAttribute = "count"

// Count returns a copy of regions with Count set to the number of points inside
// each region. A point on a shared edge is counted once, for the region listed first;
// points outside every region are ignored.
func Count(points geomodel.PointSet, regions geomodel.RegionSet) (geomodel.RegionSet, error) {
	if !geomodel.SameCRS(points.CRS, regions.CRS) {
		return geomodel.RegionSet{}, fmt.Errorf("counting points in regions: %w", geomodel.ErrCRSMismatch)
	}

	out := regions.Clone()
	for i := range out.Regions {
		out.Regions[i].Count = 0
	}
	tree := index(out)

	for _, p := range points.Points {
		if i, ok := tree.QueryIndex(p.Location); ok {
			out.Regions[i].Count++
		}
	}

	for i := range out.Regions {
		out.Regions[i].Attributes[CountAttribute] = strconv.Itoa(out.Regions[i].Count)
	}
	return out, nil
}

// CountBy is Count that additionally stores per-category counts of the given point
// attribute as region attributes named "count:<value>".
func CountBy(points geomodel.PointSet, regions geomodel.RegionSet, attribute string) (geomodel.RegionSet, error) {
	out, err := Count(points, regions)
	if err != nil {
		return out, err
	}
	tree := index(out)

	categories := lo.Uniq(lo.FilterMap(points.Points, func(p geomodel.Point, _ int) (string, bool) {
		v, ok := p.Attributes[attribute]
		return v, ok && v != ""
	}))

	perRegion := make([]map[string]int, len(out.Regions))
	for i := range perRegion {
		perRegion[i] = make(map[string]int, len(categories))
	}
	for _, p := range points.Points {
		category, ok := p.Attributes[attribute]
		if !ok || category == "" {
			continue
		}
		if i, ok := tree.QueryIndex(p.Location); ok {
			perRegion[i][category]++
		}
	}

	for i := range out.Regions {
		for _, c := range categories {
			out.Regions[i].Attributes[CountAttribute+":"+c] = strconv.Itoa(perRegion[i][c])
		}
	}
	return out, nil
}

func index(regions geomodel.RegionSet) *bordertree.BorderTree[string] {
	tree := bordertree.NewBorderTree[string]()
	for _, r := range regions.Regions {
		tree.InsertBorder(r.ID, r.Geometry)
	}
	return tree
}

// Summary describes the distribution of counts over regions.
type Summary struct {
	Regions int
	Total   int
	Min     int
	Max     int
	Mean    float64
	Empty   int
}

func Summarize(regions geomodel.RegionSet) Summary {
	if len(regions.Regions) == 0 {
		return Summary{}
	}
	counts := lo.Map(regions.Regions, func(r geomodel.Region, _ int) int { return r.Count })
	total := lo.Sum(counts)
	return Summary{
		Regions: len(counts),
		Total:   total,
		Min:     lo.Min(counts),
		Max:     lo.Max(counts),
		Mean:    float64(total) / float64(len(counts)),
		Empty:   lo.CountBy(counts, func(c int) bool { return c == 0 }),
	}
}
