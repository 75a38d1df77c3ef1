package patterns

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"golang.org/x/exp/rand"
)

func TestUniformGridCount(t *testing.T) {
	for n := 1; n <= 500; n++ {
		points, dropped, err := Uniform(n, UnitWindow)
		if err != nil {
			t.Fatal(err)
		}
		side := int(math.Floor(math.Sqrt(float64(n))))
		if len(points) != side*side {
			t.Fatalf("n=%d: expected %d points; got %d", n, side*side, len(points))
		}
		if dropped != n-side*side {
			t.Fatalf("n=%d: expected %d dropped; got %d", n, n-side*side, dropped)
		}
		for _, p := range points {
			if !UnitWindow.Contains(p) {
				t.Fatalf("n=%d: point %v outside unit window", n, p)
			}
		}
	}
}

func FuzzUniformGrid(f *testing.F) {
	f.Add(100, 0.0, 0.0, 1.0, 1.0)
	f.Add(17, -5.0, 3.0, 10.0, 4.0)

	f.Fuzz(func(t *testing.T, n int, minX, minY, maxX, maxY float64) {
		if n > 1_000_000 {
			t.Skip()
		}
		window := orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
		points, dropped, err := Uniform(n, window)
		if err != nil {
			return
		}
		if len(points)+dropped != n {
			t.Fatalf("expected %d points plus dropped; got %d + %d", n, len(points), dropped)
		}
		side := gridSide(n)
		if side*side != len(points) || (side+1)*(side+1) <= n {
			t.Fatalf("grid side %d is not the integer square root of %d", side, n)
		}
	})
}

func TestInvalidInput(t *testing.T) {
	src := rand.NewSource(1)
	if _, err := Random(0, UnitWindow, src); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount; got %v", err)
	}
	if _, _, err := Uniform(-3, UnitWindow); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount; got %v", err)
	}
	if _, err := Clustered(100, UnitWindow, ClusterOptions{Clusters: 10, Radius: 0}, src); !errors.Is(err, ErrInvalidRadius) {
		t.Fatalf("expected ErrInvalidRadius; got %v", err)
	}
	if _, err := Binomial(10, orb.Bound{}, src); !errors.Is(err, ErrEmptyWindow) {
		t.Fatalf("expected ErrEmptyWindow; got %v", err)
	}
	if _, err := HardCore(UnitWindow, -1, 1); !errors.Is(err, ErrInvalidRadius) {
		t.Fatalf("expected ErrInvalidRadius; got %v", err)
	}
}

func TestRandomInsideWindow(t *testing.T) {
	window := orb.Bound{Min: orb.Point{10, 20}, Max: orb.Point{30, 25}}
	points, err := Random(1000, window, rand.NewSource(42))
	if err != nil {
		t.Fatal(err)
	}
	// Poisson(1000) has sd ~32
	if len(points) < 850 || len(points) > 1150 {
		t.Fatalf("unexpected point count %d", len(points))
	}
	for _, p := range points {
		if !window.Contains(p) {
			t.Fatalf("point %v outside window", p)
		}
	}
}

func TestBinomialExactCount(t *testing.T) {
	points, err := Binomial(250, UnitWindow, rand.NewSource(7))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 250 {
		t.Fatalf("expected 250 points; got %d", len(points))
	}
}

func TestClusteredCountAndWindow(t *testing.T) {
	const runs = 20
	total := 0
	for i := 0; i < runs; i++ {
		points, err := Clustered(200, UnitWindow, ClusterOptions{Clusters: 10, Radius: 0.05}, rand.NewSource(uint64(i)))
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range points {
			if !UnitWindow.Contains(p) {
				t.Fatalf("point %v outside window", p)
			}
		}
		total += len(points)
	}
	mean := float64(total) / runs
	if mean < 150 || mean > 250 {
		t.Fatalf("expected mean count near 200; got %f", mean)
	}
}

func TestHardCoreMinDistance(t *testing.T) {
	const d = 0.05
	points, err := HardCore(UnitWindow, d, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) < 50 {
		t.Fatalf("expected a dense packing; got %d points", len(points))
	}
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			dx := points[i][0] - points[j][0]
			dy := points[i][1] - points[j][1]
			if math.Sqrt(dx*dx+dy*dy) < d*(1-1e-9) {
				t.Fatalf("points %v and %v closer than %f", points[i], points[j], d)
			}
		}
	}
}

func TestRandomInPolygon(t *testing.T) {
	triangle := orb.MultiPolygon{{{{0, 0}, {1, 0}, {0, 1}, {0, 0}}}}
	points, err := RandomInPolygon(300, triangle, rand.NewSource(11))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 300 {
		t.Fatalf("expected 300 points; got %d", len(points))
	}
	for _, p := range points {
		if p[0]+p[1] > 1 {
			t.Fatalf("point %v outside triangle", p)
		}
	}
}
