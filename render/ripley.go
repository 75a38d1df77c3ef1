package render

import (
	"image/color"
	"math"

	"github.com/royalcat/pointpattern/ripley"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RipleyCurve plots the estimated K against the CSR reference pi*d^2, with the
// simulation envelope when env is not nil.
func RipleyCurve(path string, curve ripley.Curve, env *ripley.Envelope) error {
	p := plot.New()
	p.Title.Text = "Ripley's K (" + curve.Correction.String() + " correction)"
	p.X.Label.Text = "d"
	p.Y.Label.Text = "K(d)"
	p.Legend.Top = true
	p.Legend.Left = true

	csr := make([]float64, len(curve.Radii))
	for i, d := range curve.Radii {
		csr[i] = ripley.CSR(d)
	}

	if env != nil {
		for _, values := range [][]float64{env.Lo, env.Hi} {
			l, err := line(env.Radii, values, envelopeColor, true)
			if err != nil {
				return err
			}
			if l != nil {
				p.Add(l)
			}
		}
	}

	ref, err := line(curve.Radii, csr, color.Black, true)
	if err != nil {
		return err
	}
	if ref != nil {
		p.Add(ref)
		p.Legend.Add("CSR", ref)
	}

	est, err := line(curve.Radii, curve.K, pointColor, false)
	if err != nil {
		return err
	}
	if est != nil {
		p.Add(est)
		p.Legend.Add("estimate", est)
	}

	return saveTiles(path, [][]*plot.Plot{{p}})
}

// line skips non-finite values, border corrected K is NaN where no centre qualifies.
func line(xs, ys []float64, c color.Color, dashed bool) (*plotter.Line, error) {
	xys := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: xs[i], Y: ys[i]})
	}
	if len(xys) == 0 {
		return nil, nil
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Color = c
	l.LineStyle.Width = vg.Points(1)
	if dashed {
		l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}
	return l, nil
}
