// Package patterns simulates the reference point processes used to illustrate
// complete spatial randomness, regularity and clustering.
package patterns

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrInvalidCount  = errors.New("point count must be positive")
	ErrInvalidRadius = errors.New("radius must be positive")
	ErrEmptyWindow   = errors.New("window has zero area")
)

// UnitWindow is the default study window of the synthetic comparison.
var UnitWindow = orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}

func area(w orb.Bound) float64 {
	return (w.Max[0] - w.Min[0]) * (w.Max[1] - w.Min[1])
}

func validate(n int, window orb.Bound) error {
	if n <= 0 {
		return ErrInvalidCount
	}
	if !(area(window) > 0) {
		return ErrEmptyWindow
	}
	return nil
}

// Random samples a homogeneous Poisson process with expected count n.
// The realised count varies between calls.
func Random(n int, window orb.Bound, src rand.Source) ([]orb.Point, error) {
	if err := validate(n, window); err != nil {
		return nil, err
	}
	count := int(distuv.Poisson{Lambda: float64(n), Src: src}.Rand())
	return uniformIn(count, window, rand.New(src)), nil
}

// Binomial places exactly n independent uniform points in the window.
func Binomial(n int, window orb.Bound, src rand.Source) ([]orb.Point, error) {
	if err := validate(n, window); err != nil {
		return nil, err
	}
	return uniformIn(n, window, rand.New(src)), nil
}

func uniformIn(n int, window orb.Bound, rnd *rand.Rand) []orb.Point {
	w := window.Max[0] - window.Min[0]
	h := window.Max[1] - window.Min[1]
	points := make([]orb.Point, n)
	for i := range points {
		points[i] = orb.Point{window.Min[0] + rnd.Float64()*w, window.Min[1] + rnd.Float64()*h}
	}
	return points
}

// RandomInPolygon places exactly n uniform points inside mp by rejection sampling
// from its bounding box.
func RandomInPolygon(n int, mp orb.MultiPolygon, src rand.Source) ([]orb.Point, error) {
	bound := mp.Bound()
	if err := validate(n, bound); err != nil {
		return nil, err
	}
	if !(math.Abs(planar.Area(mp)) > 0) {
		return nil, ErrEmptyWindow
	}
	rnd := rand.New(src)
	points := make([]orb.Point, 0, n)
	for len(points) < n {
		p := uniformIn(1, bound, rnd)[0]
		if planar.MultiPolygonContains(mp, p) {
			points = append(points, p)
		}
	}
	return points, nil
}

// Uniform lays out a regular grid of floor(sqrt(n))^2 points at cell centres.
// dropped is the number of requested points that did not fit the square grid.
func Uniform(n int, window orb.Bound) (points []orb.Point, dropped int, err error) {
	if err := validate(n, window); err != nil {
		return nil, 0, err
	}
	side := gridSide(n)
	dx := (window.Max[0] - window.Min[0]) / float64(side)
	dy := (window.Max[1] - window.Min[1]) / float64(side)

	points = make([]orb.Point, 0, side*side)
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			points = append(points, orb.Point{
				window.Min[0] + (float64(i)+0.5)*dx,
				window.Min[1] + (float64(j)+0.5)*dy,
			})
		}
	}
	return points, n - side*side, nil
}

// gridSide is the integer square root of n.
func gridSide(n int) int {
	side := int(math.Sqrt(float64(n)))
	for side*side > n {
		side--
	}
	for (side+1)*(side+1) <= n {
		side++
	}
	return side
}
