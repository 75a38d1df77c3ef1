package ripley

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/royalcat/pointpattern/patterns"
	"golang.org/x/exp/rand"
)

// Envelope is the pointwise range of K over simulated CSR patterns.
type Envelope struct {
	Radii  []float64
	Lo, Hi []float64
}

// SimulateEnvelope estimates K for simulations binomial patterns of n points in window
// and returns the pointwise minimum and maximum.
func SimulateEnvelope(n int, window Window, radii []float64, correction Correction, simulations int, seed uint64) (Envelope, error) {
	if simulations < 1 {
		return Envelope{}, fmt.Errorf("at least one simulation is required")
	}
	env := Envelope{
		Radii: radii,
		Lo:    make([]float64, len(radii)),
		Hi:    make([]float64, len(radii)),
	}
	for k := range radii {
		env.Lo[k] = math.Inf(1)
		env.Hi[k] = math.Inf(-1)
	}

	src := rand.NewSource(seed)
	for s := 0; s < simulations; s++ {
		points, err := simulate(n, window, src)
		if err != nil {
			return Envelope{}, err
		}
		curve, err := Estimate(points, window, radii, correction)
		if err != nil {
			return Envelope{}, fmt.Errorf("simulation %d: %w", s, err)
		}
		for k, v := range curve.K {
			if math.IsNaN(v) {
				continue
			}
			env.Lo[k] = math.Min(env.Lo[k], v)
			env.Hi[k] = math.Max(env.Hi[k], v)
		}
	}
	return env, nil
}

func simulate(n int, window Window, src rand.Source) ([]orb.Point, error) {
	switch w := window.(type) {
	case RectWindow:
		return patterns.Binomial(n, orb.Bound(w), src)
	case *PolygonWindow:
		return patterns.RandomInPolygon(n, w.Polygon, src)
	}
	return nil, ErrUnsupportedWindow
}
