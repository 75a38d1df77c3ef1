package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/royalcat/pointpattern/geomodel"
	"github.com/royalcat/pointpattern/projection"
	"golang.org/x/exp/mmap"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported boundary file format")
	ErrNotPolygonal      = errors.New("boundary geometry is not a polygon")
)

// BoundaryOptions selects the feature fields carried onto regions.
type BoundaryOptions struct {
	IDField    string
	Attributes []string
}

// ReadBoundaries reads polygons from a shapefile (CRS from the sidecar .prj)
// or a GeoJSON file (always WGS84). The returned set is tagged with that CRS.
func ReadBoundaries(path string, opts BoundaryOptions) (geomodel.RegionSet, *projection.CRS, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return readShapefile(path, opts)
	case ".geojson", ".json":
		return readGeoJSON(path, opts)
	}
	return geomodel.RegionSet{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

func readShapefile(path string, opts BoundaryOptions) (geomodel.RegionSet, *projection.CRS, error) {
	prj, err := os.ReadFile(strings.TrimSuffix(path, filepath.Ext(path)) + ".prj")
	if err != nil {
		return geomodel.RegionSet{}, nil, fmt.Errorf("error reading projection of %s: %w", path, err)
	}
	crs, err := projection.Parse(string(prj))
	if err != nil {
		return geomodel.RegionSet{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	dec, err := shp.NewDecoder(path)
	if err != nil {
		return geomodel.RegionSet{}, nil, fmt.Errorf("error opening shapefile: %w", err)
	}
	defer dec.Close()

	fields := append([]string{opts.IDField}, opts.Attributes...)
	set := geomodel.RegionSet{CRS: crs.Definition}
	for {
		g, values, more := dec.DecodeRowFields(fields...)
		if !more {
			break
		}
		mp, err := projection.FromGeom(g)
		if err != nil {
			return set, nil, fmt.Errorf("%s row %d: %w", path, len(set.Regions), err)
		}
		set.Regions = append(set.Regions, newRegion(values[opts.IDField], len(set.Regions), mp, opts.Attributes, func(name string) (string, bool) {
			v, ok := values[name]
			return strings.TrimSpace(v), ok
		}))
	}
	if err := dec.Error(); err != nil {
		return set, nil, fmt.Errorf("error decoding shapefile: %w", err)
	}

	return set, crs, nil
}

func readGeoJSON(path string, opts BoundaryOptions) (geomodel.RegionSet, *projection.CRS, error) {
	file, err := mmap.Open(path)
	if err != nil {
		return geomodel.RegionSet{}, nil, fmt.Errorf("error opening boundary file: %w", err)
	}
	defer file.Close()

	data := make([]byte, file.Len())
	_, err = file.ReadAt(data, 0)
	if err != nil {
		return geomodel.RegionSet{}, nil, fmt.Errorf("error reading boundary file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return geomodel.RegionSet{}, nil, fmt.Errorf("error decoding %s: %w", path, err)
	}

	crs := projection.WGS84()
	set := geomodel.RegionSet{CRS: crs.Definition}
	for i, f := range fc.Features {
		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			return set, nil, fmt.Errorf("%w: feature %d of %s", ErrNotPolygonal, i, path)
		}

		id := ""
		if v, ok := f.Properties[opts.IDField]; ok && v != nil {
			id = fmt.Sprint(v)
		} else if f.ID != nil {
			id = fmt.Sprint(f.ID)
		}
		set.Regions = append(set.Regions, newRegion(id, i, mp, opts.Attributes, func(name string) (string, bool) {
			v, ok := f.Properties[name]
			if !ok || v == nil {
				return "", false
			}
			return fmt.Sprint(v), true
		}))
	}

	return set, crs, nil
}

func newRegion(id string, index int, mp orb.MultiPolygon, attributes []string, lookup func(string) (string, bool)) geomodel.Region {
	id = strings.TrimSpace(id)
	if id == "" {
		id = fmt.Sprintf("region-%d", index)
	}
	r := geomodel.Region{ID: id, Geometry: mp}
	for _, name := range attributes {
		if v, ok := lookup(name); ok {
			if r.Attributes == nil {
				r.Attributes = make(map[string]string, len(attributes))
			}
			r.Attributes[name] = v
		}
	}
	return r
}
