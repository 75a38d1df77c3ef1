package projection

import (
	"errors"
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/royalcat/pointpattern/geomodel"
)

func TestReprojectRoundTrip(t *testing.T) {
	wgs := WGS84()
	bng := BritishNationalGrid()

	original := geomodel.NewPointSet(wgs.Definition, []orb.Point{
		{-0.124625, 51.500729},
		{-0.0761, 51.5081},
		{-0.4543, 51.4700},
		{0.0, 51.4779},
	})

	projected, err := ReprojectPoints(original, wgs, bng)
	if err != nil {
		t.Fatal(err)
	}
	if projected.CRS != bng.Definition {
		t.Fatalf("expected projected set to be tagged with target CRS, got %q", projected.CRS)
	}

	back, err := ReprojectPoints(projected, bng, wgs)
	if err != nil {
		t.Fatal(err)
	}

	for i, p := range back.Points {
		o := original.Points[i].Location
		if math.Abs(p.X()-o[0]) > 1e-6 || math.Abs(p.Y()-o[1]) > 1e-6 {
			t.Fatalf("point %d: expected %v; got %v", i, o, p.Location)
		}
	}
}

func TestReprojectKnownLocation(t *testing.T) {
	wgs := WGS84()
	bng := BritishNationalGrid()

	set := geomodel.NewPointSet(wgs.Definition, []orb.Point{{-0.124625, 51.500729}})
	projected, err := ReprojectPoints(set, wgs, bng)
	if err != nil {
		t.Fatal(err)
	}

	// Elizabeth Tower, roughly E 530268 N 179640
	got := projected.Points[0].Location
	if math.Abs(got[0]-530268) > 100 || math.Abs(got[1]-179640) > 100 {
		t.Fatalf("expected easting/northing close to 530268/179640; got %v", got)
	}
}

func TestReprojectRejectsWrongSourceTag(t *testing.T) {
	set := geomodel.NewPointSet("+proj=somethingelse", []orb.Point{{0, 0}})
	_, err := ReprojectPoints(set, WGS84(), BritishNationalGrid())
	if !errors.Is(err, geomodel.ErrCRSMismatch) {
		t.Fatalf("expected ErrCRSMismatch; got %v", err)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, def := range []string{"", "   "} {
		_, err := Parse(def)
		if !errors.Is(err, ErrMalformedCRS) {
			t.Fatalf("%q: expected ErrMalformedCRS; got %v", def, err)
		}
	}
}

func TestReprojectRegionsKeepsAttributes(t *testing.T) {
	wgs := WGS84()
	bng := BritishNationalGrid()

	set := geomodel.RegionSet{CRS: wgs.Definition, Regions: []geomodel.Region{{
		ID:         "E01000001",
		Attributes: map[string]string{"name": "City of London 001A"},
		Geometry: orb.MultiPolygon{{{
			{-0.10, 51.51}, {-0.09, 51.51}, {-0.09, 51.52}, {-0.10, 51.52}, {-0.10, 51.51},
		}}},
	}}}

	out, err := ReprojectRegions(set, wgs, bng)
	if err != nil {
		t.Fatal(err)
	}
	if out.Regions[0].Attributes["name"] != "City of London 001A" {
		t.Fatalf("attributes lost: %v", out.Regions[0].Attributes)
	}
	area := math.Abs(planar.Area(out.Regions[0].Geometry))
	// 0.01 x 0.01 degrees at 51.5N is about 0.7km x 1.1km
	if area < 0.5e6 || area > 1.0e6 {
		t.Fatalf("unexpected projected area %f", area)
	}
	if set.Regions[0].Geometry[0][0][0] != (orb.Point{-0.10, 51.51}) {
		t.Fatalf("input geometry was modified")
	}
}

func TestFromGeomAssignsHoles(t *testing.T) {
	// outer clockwise, hole counter-clockwise, second outer clockwise
	poly := geom.Polygon{
		{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}},
		{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}},
		{{X: 20, Y: 0}, {X: 20, Y: 5}, {X: 25, Y: 5}, {X: 25, Y: 0}, {X: 20, Y: 0}},
	}

	mp, err := FromGeom(poly)
	if err != nil {
		t.Fatal(err)
	}
	if len(mp) != 2 {
		t.Fatalf("expected 2 polygons; got %d", len(mp))
	}
	if len(mp[0]) != 2 {
		t.Fatalf("expected hole attached to first polygon; got %d rings", len(mp[0]))
	}
	if planar.MultiPolygonContains(mp, orb.Point{3, 3}) {
		t.Fatalf("point inside hole must not be contained")
	}
	if !planar.MultiPolygonContains(mp, orb.Point{6, 6}) || !planar.MultiPolygonContains(mp, orb.Point{22, 2}) {
		t.Fatalf("points inside outer rings must be contained")
	}

	back := ToGeomPolygon(mp)
	if len(back) != 3 {
		t.Fatalf("expected 3 rings after flattening; got %d", len(back))
	}
}

func TestDissolve(t *testing.T) {
	square := func(x, y, size float64) orb.Polygon {
		return orb.Polygon{{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y}}}
	}
	mp := orb.MultiPolygon{square(0, 0, 2), square(1, 1, 2), square(10, 10, 1)}

	out := Dissolve(mp)
	if len(out) != 2 {
		t.Fatalf("expected 2 polygons after dissolve; got %d", len(out))
	}
	area := 0.0
	for _, poly := range out {
		area += math.Abs(planar.Area(poly))
	}
	if math.Abs(area-8) > 1e-9 {
		t.Fatalf("expected dissolved area 8; got %f", area)
	}
	for _, p := range []orb.Point{{0.5, 0.5}, {1.5, 1.5}, {2.5, 2.5}, {10.5, 10.5}} {
		if !planar.MultiPolygonContains(out, p) {
			t.Fatalf("point %v must be inside the dissolved area", p)
		}
	}
	if planar.MultiPolygonContains(out, orb.Point{2.5, 0.5}) {
		t.Fatalf("point outside both squares must not be contained")
	}
	if Dissolve(nil) != nil {
		t.Fatalf("empty input must dissolve to nil")
	}
}
