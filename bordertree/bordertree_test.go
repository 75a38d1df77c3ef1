package bordertree_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/royalcat/pointpattern/bordertree"
)

func polygonFromBounds(minX, minY, maxX, maxY float64) orb.MultiPolygon {
	return orb.MultiPolygon{orb.Polygon{orb.Ring{
		orb.Point{minX, minY},
		orb.Point{maxX, minY},
		orb.Point{maxX, maxY},
		orb.Point{minX, maxY},
		orb.Point{minX, minY},
	}}}
}

func TestSimpleBounds(t *testing.T) {
	bt := bordertree.NewBorderTree[string]()

	bt.InsertBorder("1", polygonFromBounds(0, 0, 1, 1))
	bt.InsertBorder("2", polygonFromBounds(-1, -1, 0, 0))
	r, ok := bt.QueryPoint(orb.Point{0.5, 0.5})
	if !ok {
		t.Fatalf("expected true, got false")
	}
	if r != "1" {
		t.Fatalf("expected 1, got %s", r)
	}

	r, ok = bt.QueryPoint(orb.Point{-0.5, -0.5})
	if !ok {
		t.Fatalf("expected true, got false")
	}
	if r != "2" {
		t.Fatalf("expected 2, got %s", r)
	}

	if _, ok := bt.QueryPoint(orb.Point{5, 5}); ok {
		t.Fatalf("expected point outside every polygon to be unmatched")
	}
}

func TestSharedEdgeGoesToFirstInserted(t *testing.T) {
	bt := bordertree.NewBorderTree[string]()
	bt.InsertBorder("left", polygonFromBounds(0, 0, 1, 1))
	bt.InsertBorder("right", polygonFromBounds(1, 0, 2, 1))

	for i := 0; i < 20; i++ {
		r, ok := bt.QueryPoint(orb.Point{1, 0.5})
		if !ok || r != "left" {
			t.Fatalf("expected shared edge point to resolve to left; got %q %v", r, ok)
		}
	}

	idx, ok := bt.QueryIndex(orb.Point{1.5, 0.5})
	if !ok || idx != 1 {
		t.Fatalf("expected index 1; got %d %v", idx, ok)
	}
	if !bt.Contains(orb.Point{0.1, 0.1}) || bt.Contains(orb.Point{3, 3}) {
		t.Fatalf("unexpected Contains result")
	}
}

func FuzzSimpleBoundCheck(f *testing.F) {
	const testData = "1"

	f.Add(0.0, 0.0, 1.0, 1.0, 0.5, 0.5)
	f.Add(0.0, 0.0, 1.0, 1.0, 1.5, 1.5)

	f.Fuzz(func(t *testing.T, minX, minY, maxX, maxY, pointX, pointY float64) {
		polygon := polygonFromBounds(minX, minY, maxX, maxY)
		point := orb.Point{pointX, pointY}
		expectOk := planar.MultiPolygonContains(polygon, point)

		bt := bordertree.NewBorderTree[string]()
		bt.InsertBorder(testData, polygon)

		r, ok := bt.QueryPoint(point)
		if expectOk != ok {
			t.Fatalf("expected %v, got %v", expectOk, ok)
		}

		if expectOk && r != testData {
			t.Fatalf("expected %s, got %s", testData, r)
		}
	})
}
