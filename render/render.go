// Package render draws figures of point patterns, choropleths, density surfaces
// and K functions, and exports aggregated regions for other GIS tools.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var ErrUnsupportedFormat = errors.New("unsupported figure format")

// PanelSize is the edge length of one square panel.
var PanelSize = 12 * vg.Centimeter

var (
	pointColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	outlineColor  = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	envelopeColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

func format(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "png", "jpg", "jpeg", "svg", "pdf", "eps", "tif", "tiff":
		return ext, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// saveTiles draws plots on a rows x cols grid and writes the canvas to path,
// with the file format taken from the extension.
func saveTiles(path string, plots [][]*plot.Plot) (err error) {
	ext, err := format(path)
	if err != nil {
		return err
	}
	rows := len(plots)
	cols := 0
	for _, row := range plots {
		cols = max(cols, len(row))
	}

	c, err := draw.NewFormattedCanvas(vg.Length(cols)*PanelSize, vg.Length(rows)*PanelSize, ext)
	if err != nil {
		return err
	}

	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, draw.New(c))
	for i := range plots {
		for j, p := range plots[i] {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = c.WriteTo(file)
	return err
}
