package pipeline

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
	"github.com/royalcat/pointpattern/aggregate"
	"github.com/royalcat/pointpattern/ripley"
)

const ReportFile = "report.json"

type Report struct {
	RunID  string
	CRS    string
	Points int

	Synthetic SyntheticReport
	Regions   aggregate.Summary

	Bandwidth       float64
	DensityIntegral float64

	Ripley RipleyReport

	Outputs []string
}

type SyntheticReport struct {
	Random         int
	Uniform        int
	UniformDropped int
	Clustered      int
	HardCore       int
}

type RipleyReport struct {
	Correction string
	Duplicates int
	Radii      []float64
	K          []float64
	L          []float64
	EnvelopeLo []float64
	EnvelopeHi []float64
}

func newRipleyReport(c ripley.Curve, duplicates int) RipleyReport {
	return RipleyReport{
		Correction: c.Correction.String(),
		Duplicates: duplicates,
		Radii:      c.Radii,
		K:          c.K,
		L:          c.L(),
	}
}

func (r *runner) writeReport(report *Report) error {
	path := filepath.Join(r.cfg.OutputDir, ReportFile)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = easyjson.MarshalToWriter(report, file)
	if err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	r.log.Info("report written", "path", path)
	return file.Close()
}

var _ easyjson.Marshaler = (*Report)(nil)

func (v *Report) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	v.MarshalEasyJSON(&w)
	return w.Buffer.BuildBytes(), w.Error
}

func (v *Report) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawString(`{"run_id":`)
	out.String(v.RunID)
	out.RawString(`,"crs":`)
	out.String(v.CRS)
	out.RawString(`,"points":`)
	out.Int(v.Points)

	out.RawString(`,"synthetic":{"random":`)
	out.Int(v.Synthetic.Random)
	out.RawString(`,"uniform":`)
	out.Int(v.Synthetic.Uniform)
	out.RawString(`,"uniform_dropped":`)
	out.Int(v.Synthetic.UniformDropped)
	out.RawString(`,"clustered":`)
	out.Int(v.Synthetic.Clustered)
	out.RawString(`,"hard_core":`)
	out.Int(v.Synthetic.HardCore)
	out.RawByte('}')

	out.RawString(`,"regions":{"count":`)
	out.Int(v.Regions.Regions)
	out.RawString(`,"total":`)
	out.Int(v.Regions.Total)
	out.RawString(`,"min":`)
	out.Int(v.Regions.Min)
	out.RawString(`,"max":`)
	out.Int(v.Regions.Max)
	out.RawString(`,"mean":`)
	writeFloat(out, v.Regions.Mean)
	out.RawString(`,"empty":`)
	out.Int(v.Regions.Empty)
	out.RawByte('}')

	out.RawString(`,"bandwidth":`)
	writeFloat(out, v.Bandwidth)
	out.RawString(`,"density_integral":`)
	writeFloat(out, v.DensityIntegral)

	out.RawString(`,"ripley":{"correction":`)
	out.String(v.Ripley.Correction)
	out.RawString(`,"duplicates":`)
	out.Int(v.Ripley.Duplicates)
	out.RawString(`,"radii":`)
	writeFloats(out, v.Ripley.Radii)
	out.RawString(`,"k":`)
	writeFloats(out, v.Ripley.K)
	out.RawString(`,"l":`)
	writeFloats(out, v.Ripley.L)
	if v.Ripley.EnvelopeLo != nil {
		out.RawString(`,"envelope_lo":`)
		writeFloats(out, v.Ripley.EnvelopeLo)
		out.RawString(`,"envelope_hi":`)
		writeFloats(out, v.Ripley.EnvelopeHi)
	}
	out.RawByte('}')

	out.RawString(`,"outputs":`)
	if v.Outputs == nil {
		out.RawString("[]")
	} else {
		out.RawByte('[')
		for i, s := range v.Outputs {
			if i > 0 {
				out.RawByte(',')
			}
			out.String(s)
		}
		out.RawByte(']')
	}
	out.RawByte('}')
}

// writeFloat writes non-finite values as null, border corrected K is NaN at
// radii no centre qualifies for.
func writeFloat(out *jwriter.Writer, f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		out.RawString("null")
		return
	}
	out.Float64(f)
}

func writeFloats(out *jwriter.Writer, fs []float64) {
	if fs == nil {
		out.RawString("null")
		return
	}
	out.RawByte('[')
	for i, f := range fs {
		if i > 0 {
			out.RawByte(',')
		}
		writeFloat(out, f)
	}
	out.RawByte(']')
}
