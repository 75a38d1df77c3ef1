// Package ripley estimates Ripley's K function of a planar point pattern.
package ripley

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/paulmach/orb"
	"github.com/royalcat/pointpattern/kdbush"
)

var (
	ErrDuplicatePoints   = errors.New("point pattern contains coincident points")
	ErrTooFewPoints      = errors.New("at least two points are required")
	ErrInvalidRadii      = errors.New("radii must be non-empty, non-negative and ascending")
	ErrUnsupportedWindow = errors.New("edge correction does not support this window")
	ErrOutsideWindow     = errors.New("point lies outside the window")
)

type Correction int

const (
	None Correction = iota
	// Border is the reduced-sample estimator: only points at least the largest
	// radius from the window edge act as centres.
	Border
	// Translation weights each pair by the inverse overlap of the window and its
	// translate by the pair vector. Rectangular windows only.
	Translation
)

func (c Correction) String() string {
	switch c {
	case None:
		return "none"
	case Border:
		return "border"
	case Translation:
		return "translation"
	}
	return fmt.Sprintf("correction(%d)", int(c))
}

func ParseCorrection(s string) (Correction, error) {
	switch strings.ToLower(s) {
	case "none":
		return None, nil
	case "border":
		return Border, nil
	case "translation", "translate":
		return Translation, nil
	}
	return None, fmt.Errorf("unknown edge correction %q", s)
}

// Curve is an estimated K function sampled at Radii.
type Curve struct {
	Correction Correction
	Radii      []float64
	K          []float64
	Points     int
	Area       float64
}

// L returns Besag's variance-stabilised L(d) = sqrt(K(d)/pi).
func (c Curve) L() []float64 {
	out := make([]float64, len(c.K))
	for i, k := range c.K {
		out[i] = math.Sqrt(k / math.Pi)
	}
	return out
}

// CSR is K under complete spatial randomness.
func CSR(d float64) float64 {
	return math.Pi * d * d
}

// Dedupe drops repeated locations, keeping the first occurrence.
func Dedupe(points []orb.Point) ([]orb.Point, int) {
	seen := make(map[orb.Point]struct{}, len(points))
	out := make([]orb.Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, len(points) - len(out)
}

// Support returns steps+1 radii from 0 to a quarter of the shorter window side.
func Support(window Window, steps int) []float64 {
	if steps < 1 {
		steps = 1
	}
	b := window.Bound()
	rmax := 0.25 * math.Min(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
	radii := make([]float64, steps+1)
	for i := range radii {
		radii[i] = rmax * float64(i) / float64(steps)
	}
	return radii
}

// Estimate computes K at every radius. Points must be distinct and inside window.
func Estimate(points []orb.Point, window Window, radii []float64, correction Correction, opts ...Option) (Curve, error) {
	o := loadOptions(opts...)

	n := len(points)
	if n < 2 {
		return Curve{}, ErrTooFewPoints
	}
	if len(radii) == 0 || radii[0] < 0 || !slices.IsSorted(radii) {
		return Curve{}, ErrInvalidRadii
	}
	if _, removed := Dedupe(points); removed > 0 {
		return Curve{}, fmt.Errorf("%w: %d duplicates", ErrDuplicatePoints, removed)
	}
	rect, isRect := window.(RectWindow)
	if correction == Translation && !isRect {
		return Curve{}, fmt.Errorf("%w: %s needs a rectangle", ErrUnsupportedWindow, correction)
	}
	for _, p := range points {
		if !window.Contains(p) {
			return Curve{}, fmt.Errorf("%w: %v", ErrOutsideWindow, p)
		}
	}

	area := window.Area()
	rmax := radii[len(radii)-1]

	bushPoints := make([]kdbush.Point[struct{}], n)
	for i, p := range points {
		bushPoints[i] = kdbush.Point[struct{}]{X: p[0], Y: p[1]}
	}
	bush := kdbush.NewBush(bushPoints, kdbush.DefaultNodeSize)

	var bar *pb.ProgressBar
	if o.progress {
		bar = pb.Start64(int64(n))
		bar.Set("prefix", "ripley k "+correction.String())
		bar.SetRefreshRate(time.Second)
		defer bar.Finish()
	}

	start := time.Now()
	curve := Curve{
		Correction: correction,
		Radii:      slices.Clone(radii),
		K:          make([]float64, len(radii)),
		Points:     n,
		Area:       area,
	}

	switch correction {
	case Border:
		// Centres are the points at least rmax from the edge, the same set at
		// every radius, so K is non-decreasing in r.
		centres := 0
		neighbours := make([]float64, len(radii))
		dists := []float64{}
		for i, p := range points {
			if bar != nil {
				bar.Increment()
			}
			if window.EdgeDistance(p) < rmax {
				continue
			}
			centres++
			dists = dists[:0]
			bush.Within(p[0], p[1], rmax, func(j int, d2 float64) bool {
				if j != i {
					dists = append(dists, math.Sqrt(d2))
				}
				return true
			})
			sort.Float64s(dists)
			for k, r := range radii {
				neighbours[k] += float64(sort.Search(len(dists), func(x int) bool { return dists[x] > r }))
			}
		}
		if centres == 0 {
			o.logger.Warn("no point is far enough from the window edge for the border correction", "rmax", rmax)
		}
		for k := range radii {
			if centres == 0 {
				curve.K[k] = math.NaN()
				continue
			}
			curve.K[k] = area / float64(n-1) * neighbours[k] / float64(centres)
		}

	default:
		type pair struct{ d, w float64 }
		pairs := []pair{}
		width := rect.Max[0] - rect.Min[0]
		height := rect.Max[1] - rect.Min[1]
		for i, p := range points {
			bush.Within(p[0], p[1], rmax, func(j int, d2 float64) bool {
				if j == i {
					return true
				}
				w := 1.0
				if correction == Translation {
					q := points[j]
					overlap := (width - math.Abs(p[0]-q[0])) * (height - math.Abs(p[1]-q[1]))
					if overlap <= 0 {
						return true
					}
					w = area / overlap
				}
				pairs = append(pairs, pair{d: math.Sqrt(d2), w: w})
				return true
			})
			if bar != nil {
				bar.Increment()
			}
		}
		slices.SortFunc(pairs, func(a, b pair) int {
			switch {
			case a.d < b.d:
				return -1
			case a.d > b.d:
				return 1
			}
			return 0
		})

		scale := area / (float64(n) * float64(n-1))
		cum := 0.0
		next := 0
		for k, r := range radii {
			for next < len(pairs) && pairs[next].d <= r {
				cum += pairs[next].w
				next++
			}
			curve.K[k] = scale * cum
		}
	}

	o.logger.Debug("ripley k estimated",
		"points", n,
		"radii", len(radii),
		"correction", correction.String(),
		"elapsed", time.Since(start),
	)
	return curve, nil
}
