package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/paulmach/orb/geojson"
	"github.com/royalcat/pointpattern/geomodel"
	"github.com/royalcat/pointpattern/projection"
)

// regionRow is the dbf layout of exported regions.
type regionRow struct {
	geom.Polygon
	ID    string
	Count int
}

// ExportShapefile writes regions with their counts as a polygon shapefile, plus a
// .prj holding prjWKT when it is not empty.
func ExportShapefile(path string, regions geomodel.RegionSet, prjWKT string) error {
	enc, err := shp.NewEncoder(path, regionRow{})
	if err != nil {
		return fmt.Errorf("error creating shapefile: %w", err)
	}
	for _, r := range regions.Regions {
		err = enc.Encode(regionRow{
			Polygon: projection.ToGeomPolygon(r.Geometry),
			ID:      r.ID,
			Count:   r.Count,
		})
		if err != nil {
			enc.Close()
			return fmt.Errorf("error encoding region %s: %w", r.ID, err)
		}
	}
	enc.Close()

	if prjWKT == "" {
		return nil
	}
	prj := strings.TrimSuffix(path, ".shp") + ".prj"
	return os.WriteFile(prj, []byte(prjWKT), 0o644)
}

// ExportGeoJSON writes regions as a feature collection with id, count and the
// region attributes as properties.
func ExportGeoJSON(path string, regions geomodel.RegionSet) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range regions.Regions {
		f := geojson.NewFeature(r.Geometry)
		f.ID = r.ID
		for k, v := range r.Attributes {
			f.Properties[k] = v
		}
		f.Properties["id"] = r.ID
		f.Properties["count"] = r.Count
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
