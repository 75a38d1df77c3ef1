package patterns

import (
	mrand "math/rand"

	"github.com/fogleman/poissondisc"
	"github.com/paulmach/orb"
)

// HardCore fills the window with a Poisson-disc pattern where no two points are
// closer than minDistance, the inhibited counterpart of the clustered process.
func HardCore(window orb.Bound, minDistance float64, seed int64) ([]orb.Point, error) {
	if minDistance <= 0 {
		return nil, ErrInvalidRadius
	}
	if !(area(window) > 0) {
		return nil, ErrEmptyWindow
	}
	rnd := mrand.New(mrand.NewSource(seed))
	sampled := poissondisc.Sample(window.Min[0], window.Min[1], window.Max[0], window.Max[1], minDistance, 30, rnd)

	points := make([]orb.Point, len(sampled))
	for i, p := range sampled {
		points[i] = orb.Point{p.X, p.Y}
	}
	return points, nil
}
