package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
	"github.com/paulmach/orb"
	"github.com/royalcat/pointpattern/geomodel"
	"github.com/royalcat/pointpattern/projection"
	"golang.org/x/exp/mmap"
)

var ErrMissingColumn = errors.New("column not found in header")

// CSVOptions describes where coordinates live in a delimited point file.
type CSVOptions struct {
	LonColumn string
	LatColumn string
	// Attributes are copied verbatim onto each point, e.g. "Crime type".
	Attributes []string
	// CRS of the coordinate columns, WGS84 when empty.
	CRS string
}

func CSVOptionsDefault() CSVOptions {
	return CSVOptions{
		LonColumn:  "Longitude",
		LatColumn:  "Latitude",
		Attributes: []string{"Crime type"},
		CRS:        projection.WGS84Def,
	}
}

func (o CSVOptions) crs() string {
	if o.CRS == "" {
		return projection.WGS84Def
	}
	return o.CRS
}

// ReadPointsCSV reads points from r. Rows whose coordinates are missing or not
// finite numbers are skipped and counted in dropped.
func ReadPointsCSV(r io.Reader, opts CSVOptions) (set geomodel.PointSet, dropped int, err error) {
	crs := opts.crs()
	geographic := crs == projection.WGS84Def
	set = geomodel.PointSet{CRS: crs}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return set, 0, fmt.Errorf("error reading header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	lonCol, ok := columns[opts.LonColumn]
	if !ok {
		return set, 0, fmt.Errorf("%w: %q", ErrMissingColumn, opts.LonColumn)
	}
	latCol, ok := columns[opts.LatColumn]
	if !ok {
		return set, 0, fmt.Errorf("%w: %q", ErrMissingColumn, opts.LatColumn)
	}
	attrCols := make([]int, len(opts.Attributes))
	for i, name := range opts.Attributes {
		attrCols[i], ok = columns[name]
		if !ok {
			return set, 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return set, dropped, fmt.Errorf("error reading row %d: %w", len(set.Points)+dropped+2, err)
		}

		lon, okLon := parseCoordinate(record, lonCol)
		lat, okLat := parseCoordinate(record, latCol)
		if !okLon || !okLat || (geographic && (math.Abs(lon) > 180 || math.Abs(lat) > 90)) {
			dropped++
			continue
		}

		var attrs map[string]string
		if len(attrCols) > 0 {
			attrs = make(map[string]string, len(attrCols))
			for i, col := range attrCols {
				if col < len(record) {
					attrs[opts.Attributes[i]] = record[col]
				}
			}
		}
		set.Points = append(set.Points, geomodel.Point{Location: orb.Point{lon, lat}, Attributes: attrs})
	}

	return set, dropped, nil
}

func parseCoordinate(record []string, col int) (float64, bool) {
	if col >= len(record) {
		return 0, false
	}
	s := strings.TrimSpace(record[col])
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ReadPointsFile memory maps path and reads it with ReadPointsCSV.
func ReadPointsFile(path string, csvOpts CSVOptions, opts ...Option) (geomodel.PointSet, error) {
	o := loadOptions(opts...)

	file, err := mmap.Open(path)
	if err != nil {
		return geomodel.PointSet{}, fmt.Errorf("error opening points file: %w", err)
	}
	defer file.Close()

	var r io.Reader = io.NewSectionReader(file, 0, int64(file.Len()))
	if o.progress {
		bar := newBar(int64(file.Len()), "reading "+path)
		defer bar.Finish()
		r = bar.NewProxyReader(r)
	}

	set, dropped, err := ReadPointsCSV(r, csvOpts)
	if err != nil {
		return set, fmt.Errorf("%s: %w", path, err)
	}
	if dropped > 0 {
		o.logger.Warn("dropped rows without valid coordinates", "file", path, "dropped", dropped, "kept", set.Len())
	}
	o.logger.Info("read points", "file", path, "count", set.Len())
	return set, nil
}

func newBar(size int64, name string) *pb.ProgressBar {
	bar := pb.Start64(size)
	bar.Set("prefix", name)
	bar.Set(pb.Bytes, true)
	bar.SetRefreshRate(time.Second)
	if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
		bar.SetTemplateString(`{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}{{with string . "suffix"}} {{.}}{{end}}` + "\n")
	}
	return bar
}
