package render

import (
	"fmt"

	"github.com/paulmach/orb"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Pattern is one named point set drawn as a scatter panel.
type Pattern struct {
	Name   string
	Points []orb.Point
}

// Patterns draws the patterns side by side, each over the same window.
func Patterns(path string, window orb.Bound, patterns ...Pattern) error {
	if len(patterns) == 0 {
		return fmt.Errorf("no patterns to draw")
	}
	row := make([]*plot.Plot, 0, len(patterns))
	for _, pat := range patterns {
		p, err := scatter(pat.Name, pat.Points, window)
		if err != nil {
			return err
		}
		row = append(row, p)
	}
	return saveTiles(path, [][]*plot.Plot{row})
}

func scatter(title string, points []orb.Point, window orb.Bound) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	setWindow(p, window)

	if len(points) == 0 {
		return p, nil
	}
	s, err := plotter.NewScatter(toXYs(points))
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Radius = vg.Points(1.2)
	s.GlyphStyle.Color = pointColor
	p.Add(s)
	return p, nil
}

func setWindow(p *plot.Plot, window orb.Bound) {
	p.X.Min, p.X.Max = window.Min[0], window.Max[0]
	p.Y.Min, p.Y.Max = window.Min[1], window.Max[1]
}

func toXYs(points []orb.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X, xys[i].Y = pt[0], pt[1]
	}
	return xys
}
