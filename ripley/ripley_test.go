package ripley

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/royalcat/pointpattern/patterns"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

var unit = RectWindow(patterns.UnitWindow)

func TestMonotoneInRadius(t *testing.T) {
	radii := Support(unit, 50)
	for seed := uint64(0); seed < 20; seed++ {
		points, err := patterns.Clustered(60, patterns.UnitWindow, patterns.ClusterOptions{Clusters: 4, Radius: 0.1}, rand.NewSource(seed))
		require.NoError(t, err)
		points, _ = Dedupe(points)
		if len(points) < 2 {
			continue
		}
		for _, c := range []Correction{None, Border, Translation} {
			curve, err := Estimate(points, unit, radii, c)
			require.NoError(t, err)
			if math.IsNaN(curve.K[0]) {
				// border correction without any interior centre
				continue
			}
			for k := 1; k < len(curve.K); k++ {
				require.GreaterOrEqual(t, curve.K[k], curve.K[k-1], "seed %d correction %s radius %f", seed, c, radii[k])
			}
		}
	}
}

func TestSmallSetByHand(t *testing.T) {
	// three points, pair distances 0.1, 0.2 and sqrt(0.05)
	points := []orb.Point{{0.4, 0.4}, {0.5, 0.4}, {0.4, 0.6}}
	curve, err := Estimate(points, unit, []float64{0, 0.05, 0.1, 0.15, 0.2, 0.25}, None)
	require.NoError(t, err)

	// area / (n(n-1)) = 1/6 per ordered pair
	want := []float64{0, 0, 2.0 / 6, 2.0 / 6, 4.0 / 6, 6.0 / 6}
	for k := range want {
		require.InDelta(t, want[k], curve.K[k], 1e-12, "radius %f", curve.Radii[k])
	}
	require.InDeltaSlice(t, []float64{0, 0, math.Sqrt(2.0 / 6 / math.Pi)}, curve.L()[:3], 1e-12)
}

func TestApproachesCSR(t *testing.T) {
	const runs = 20
	radii := []float64{0.02, 0.05, 0.1}
	for _, c := range []Correction{Border, Translation} {
		mean := make([]float64, len(radii))
		for seed := uint64(0); seed < runs; seed++ {
			points, err := patterns.Binomial(100, patterns.UnitWindow, rand.NewSource(1000+seed))
			require.NoError(t, err)
			curve, err := Estimate(points, unit, radii, c)
			require.NoError(t, err)
			for k, v := range curve.K {
				mean[k] += v / runs
			}
		}
		for k, d := range radii {
			require.InDelta(t, CSR(d), mean[k], 0.3*CSR(d)+0.002, "correction %s radius %f", c, d)
		}
	}
}

func TestClusteredAboveCSR(t *testing.T) {
	points, err := patterns.Clustered(300, patterns.UnitWindow, patterns.ClusterOptions{Clusters: 6, Radius: 0.05}, rand.NewSource(77))
	require.NoError(t, err)
	points, _ = Dedupe(points)
	curve, err := Estimate(points, unit, []float64{0.05}, Translation)
	require.NoError(t, err)
	require.Greater(t, curve.K[0], 2*CSR(0.05))
}

func TestBorderDropsCentres(t *testing.T) {
	// spacing 0.0625 is exact in binary
	points := []orb.Point{{0.125, 0.125}, {0.1875, 0.125}, {0.5, 0.5}, {0.5625, 0.5}}
	curve, err := Estimate(points, unit, []float64{0.0625, 0.25}, Border)
	require.NoError(t, err)
	// only the two central points are 0.25 from the edge, each with one neighbour
	require.InDelta(t, 1.0/3, curve.K[0], 1e-12)
	require.InDelta(t, 1.0/3, curve.K[1], 1e-12)

	// nothing is 0.6 from the edge of the unit square
	curve, err = Estimate(points, unit, []float64{0.0625, 0.6}, Border)
	require.NoError(t, err)
	require.True(t, math.IsNaN(curve.K[0]))
	require.True(t, math.IsNaN(curve.K[1]))
}

func TestEstimateErrors(t *testing.T) {
	radii := []float64{0, 0.1}

	_, err := Estimate([]orb.Point{{0.5, 0.5}}, unit, radii, None)
	require.ErrorIs(t, err, ErrTooFewPoints)

	_, err = Estimate([]orb.Point{{0.5, 0.5}, {0.5, 0.5}, {0.2, 0.2}}, unit, radii, None)
	require.ErrorIs(t, err, ErrDuplicatePoints)

	_, err = Estimate([]orb.Point{{0.5, 0.5}, {0.2, 0.2}}, unit, []float64{0.1, 0.05}, None)
	require.ErrorIs(t, err, ErrInvalidRadii)

	_, err = Estimate([]orb.Point{{0.5, 0.5}, {2, 2}}, unit, radii, None)
	require.ErrorIs(t, err, ErrOutsideWindow)

	square := NewPolygonWindow(orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}})
	_, err = Estimate([]orb.Point{{0.5, 0.5}, {0.2, 0.2}}, square, radii, Translation)
	require.ErrorIs(t, err, ErrUnsupportedWindow)
}

func TestPolygonWindowMatchesRect(t *testing.T) {
	square := NewPolygonWindow(orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}})
	require.InDelta(t, 1.0, square.Area(), 1e-12)
	require.InDelta(t, 0.2, square.EdgeDistance(orb.Point{0.2, 0.5}), 1e-12)

	points, err := patterns.Binomial(80, patterns.UnitWindow, rand.NewSource(3))
	require.NoError(t, err)
	radii := Support(unit, 10)
	a, err := Estimate(points, unit, radii, Border)
	require.NoError(t, err)
	b, err := Estimate(points, square, radii, Border)
	require.NoError(t, err)
	require.InDeltaSlice(t, a.K, b.K, 1e-9)
}

func TestDedupe(t *testing.T) {
	out, removed := Dedupe([]orb.Point{{1, 1}, {2, 2}, {1, 1}, {3, 3}, {2, 2}})
	require.Equal(t, 2, removed)
	require.Equal(t, []orb.Point{{1, 1}, {2, 2}, {3, 3}}, out)
}

func TestSupport(t *testing.T) {
	radii := Support(RectWindow(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{4, 2}}), 4)
	require.Equal(t, []float64{0, 0.125, 0.25, 0.375, 0.5}, radii)
}

func TestParseCorrection(t *testing.T) {
	for _, c := range []Correction{None, Border, Translation} {
		parsed, err := ParseCorrection(c.String())
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	}
	_, err := ParseCorrection("isotropic")
	require.Error(t, err)
}

func TestSimulateEnvelope(t *testing.T) {
	radii := Support(unit, 5)
	env, err := SimulateEnvelope(50, unit, radii, Translation, 9, 1)
	require.NoError(t, err)
	for k := range radii {
		require.LessOrEqual(t, env.Lo[k], env.Hi[k])
	}
	require.Equal(t, 0.0, env.Hi[0])
}
