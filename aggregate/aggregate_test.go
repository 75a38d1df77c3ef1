package aggregate

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/paulmach/orb"
	"github.com/royalcat/pointpattern/geomodel"
	"github.com/royalcat/pointpattern/patterns"
	"golang.org/x/exp/rand"
)

// strips partitions the unit square into n vertical strips.
func strips(n int) geomodel.RegionSet {
	set := geomodel.RegionSet{}
	w := 1.0 / float64(n)
	for i := 0; i < n; i++ {
		x0, x1 := float64(i)*w, float64(i+1)*w
		set.Regions = append(set.Regions, geomodel.Region{
			ID:         "strip-" + strconv.Itoa(i),
			Attributes: map[string]string{},
			Geometry: orb.MultiPolygon{{{
				{x0, 0}, {x1, 0}, {x1, 1}, {x0, 1}, {x0, 0},
			}}},
		})
	}
	return set
}

func TestCountUniformStrips(t *testing.T) {
	locations, err := patterns.Binomial(100, patterns.UnitWindow, rand.NewSource(2024))
	if err != nil {
		t.Fatal(err)
	}
	points := geomodel.NewPointSet("", locations)

	counted, err := Count(points, strips(10))
	if err != nil {
		t.Fatal(err)
	}

	// Binomial(100, 0.1): mean 10, variance 9
	tolerance := 3.5 * math.Sqrt(10)
	for _, r := range counted.Regions {
		if math.Abs(float64(r.Count)-10) > tolerance {
			t.Fatalf("region %s: count %d too far from 10", r.ID, r.Count)
		}
		if r.Attributes[CountAttribute] != strconv.Itoa(r.Count) {
			t.Fatalf("region %s: count attribute %q does not match %d", r.ID, r.Attributes[CountAttribute], r.Count)
		}
	}
	if counted.TotalCount() != 100 {
		t.Fatalf("expected every point counted once; got total %d", counted.TotalCount())
	}
}

func TestCountInvariants(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		window := orb.Bound{Min: orb.Point{-0.5, -0.5}, Max: orb.Point{1.5, 1.5}}
		locations, err := patterns.Random(200, window, rand.NewSource(seed))
		if err != nil {
			t.Fatal(err)
		}
		// add points exactly on shared edges
		locations = append(locations, orb.Point{0.1, 0.5}, orb.Point{0.2, 0.2}, orb.Point{0, 0})
		points := geomodel.NewPointSet("", locations)

		counted, err := Count(points, strips(5))
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range counted.Regions {
			if r.Count < 0 {
				t.Fatalf("negative count in %s", r.ID)
			}
		}
		if counted.TotalCount() > points.Len() {
			t.Fatalf("sum of counts %d exceeds point count %d", counted.TotalCount(), points.Len())
		}
	}
}

func TestCountLeavesInputUntouched(t *testing.T) {
	regions := strips(2)
	points := geomodel.NewPointSet("", []orb.Point{{0.25, 0.5}})
	if _, err := Count(points, regions); err != nil {
		t.Fatal(err)
	}
	if regions.Regions[0].Count != 0 || len(regions.Regions[0].Attributes) != 0 {
		t.Fatalf("input regions were mutated")
	}
}

func TestCountRecomputes(t *testing.T) {
	points := geomodel.NewPointSet("", []orb.Point{{0.25, 0.5}, {0.3, 0.5}})
	once, err := Count(points, strips(2))
	if err != nil {
		t.Fatal(err)
	}
	// a snapshot region carries its persisted count
	stale := strips(2)
	stale.Regions[1].Count = 7

	for name, regions := range map[string]geomodel.RegionSet{"counted": once, "stale": stale} {
		twice, err := Count(points, regions)
		if err != nil {
			t.Fatal(err)
		}
		if twice.Regions[0].Count != 2 || twice.Regions[1].Count != 0 {
			t.Fatalf("%s: counts %d %d, want 2 0", name, twice.Regions[0].Count, twice.Regions[1].Count)
		}
		if twice.Regions[0].Attributes[CountAttribute] != "2" {
			t.Fatalf("%s: count attribute %q", name, twice.Regions[0].Attributes[CountAttribute])
		}
		if twice.TotalCount() > points.Len() {
			t.Fatalf("%s: sum of counts %d exceeds point count %d", name, twice.TotalCount(), points.Len())
		}
	}
}

func TestCountCRSMismatch(t *testing.T) {
	regions := strips(2)
	regions.CRS = "+proj=longlat"
	points := geomodel.NewPointSet("+proj=tmerc", nil)
	_, err := Count(points, regions)
	if !errors.Is(err, geomodel.ErrCRSMismatch) {
		t.Fatalf("expected ErrCRSMismatch; got %v", err)
	}
}

func TestCountBy(t *testing.T) {
	points := geomodel.PointSet{Points: []geomodel.Point{
		{Location: orb.Point{0.25, 0.5}, Attributes: map[string]string{"Crime type": "Burglary"}},
		{Location: orb.Point{0.30, 0.5}, Attributes: map[string]string{"Crime type": "Burglary"}},
		{Location: orb.Point{0.75, 0.5}, Attributes: map[string]string{"Crime type": "Robbery"}},
		{Location: orb.Point{0.80, 0.5}, Attributes: map[string]string{}},
	}}

	counted, err := CountBy(points, strips(2), "Crime type")
	if err != nil {
		t.Fatal(err)
	}
	left, right := counted.Regions[0], counted.Regions[1]
	if left.Count != 2 || right.Count != 2 {
		t.Fatalf("unexpected totals %d %d", left.Count, right.Count)
	}
	if left.Attributes["count:Burglary"] != "2" || left.Attributes["count:Robbery"] != "0" {
		t.Fatalf("unexpected left categories %v", left.Attributes)
	}
	if right.Attributes["count:Robbery"] != "1" || right.Attributes["count:Burglary"] != "0" {
		t.Fatalf("unexpected right categories %v", right.Attributes)
	}

	s := Summarize(counted)
	if s.Total != 4 || s.Min != 2 || s.Max != 2 || s.Empty != 0 || s.Mean != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}
}
