package patterns

import (
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

type ClusterOptions struct {
	// Clusters is the expected number of parents inside the window.
	Clusters int
	// Radius of the disc children are scattered in.
	Radius float64
	// Buffer expands the parent window by Buffer*Radius so clusters centred just
	// outside the window still contribute children. Zero means 1.
	Buffer float64
}

// Clustered samples a Neyman-Scott process: Poisson parents, n/Clusters children per
// parent spread uniformly over a disc. Children falling outside the window are discarded,
// so the realised count is only close to n.
func Clustered(n int, window orb.Bound, opts ClusterOptions, src rand.Source) ([]orb.Point, error) {
	if err := validate(n, window); err != nil {
		return nil, err
	}
	if opts.Clusters <= 0 {
		return nil, ErrInvalidCount
	}
	if opts.Radius <= 0 {
		return nil, ErrInvalidRadius
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 1
	}

	children := n / opts.Clusters
	if children < 1 {
		children = 1
	}

	expanded := window.Pad(opts.Buffer * opts.Radius)
	parentMean := float64(opts.Clusters) * area(expanded) / area(window)
	parents := int(distuv.Poisson{Lambda: parentMean, Src: src}.Rand())

	rnd := rand.New(src)
	points := make([]orb.Point, 0, n)
	for _, parent := range uniformIn(parents, expanded, rnd) {
		for i := 0; i < children; i++ {
			r := opts.Radius * math.Sqrt(rnd.Float64())
			theta := 2 * math.Pi * rnd.Float64()
			p := orb.Point{parent[0] + r*math.Cos(theta), parent[1] + r*math.Sin(theta)}
			if window.Contains(p) {
				points = append(points, p)
			}
		}
	}
	return points, nil
}
