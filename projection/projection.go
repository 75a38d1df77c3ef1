// Package projection tags geometries with a coordinate reference system and
// moves them between systems.
package projection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
	"github.com/royalcat/pointpattern/geomodel"
)

const (
	WGS84Def = "+proj=longlat +datum=WGS84 +no_defs"
	// EPSG:27700, OSGB 1936 / British National Grid.
	BritishNationalGridDef = "+proj=tmerc +lat_0=49 +lon_0=-2 +k=0.9996012717 +x_0=400000 +y_0=-100000 +ellps=airy +towgs84=446.448,-125.157,542.06,0.15,0.247,0.842,-20.489 +units=m +no_defs"
)

// BritishNationalGridWKT is written next to exported shapefiles so desktop GIS picks up the CRS.
const BritishNationalGridWKT = `PROJCS["OSGB_1936_British_National_Grid",GEOGCS["GCS_OSGB 1936",DATUM["D_OSGB_1936",SPHEROID["Airy_1830",6377563.396,299.3249646]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",49],PARAMETER["central_meridian",-2],PARAMETER["scale_factor",0.9996012717],PARAMETER["false_easting",400000],PARAMETER["false_northing",-100000],UNIT["Meter",1]]`

var ErrMalformedCRS = errors.New("malformed coordinate reference system")

// CRS is a parsed spatial reference. Definition is the tag stored on geometries.
type CRS struct {
	Definition string
	sr         *proj.SR
}

func Parse(def string) (*CRS, error) {
	def = strings.TrimSpace(def)
	if def == "" {
		return nil, fmt.Errorf("%w: empty definition", ErrMalformedCRS)
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedCRS, err.Error())
	}
	return &CRS{Definition: def, sr: sr}, nil
}

func WGS84() *CRS {
	crs, err := Parse(WGS84Def)
	if err != nil {
		panic(err)
	}
	return crs
}

func BritishNationalGrid() *CRS {
	crs, err := Parse(BritishNationalGridDef)
	if err != nil {
		panic(err)
	}
	return crs
}

// FromSR wraps an already parsed reference, e.g. one read from a .prj file.
func FromSR(def string, sr *proj.SR) *CRS {
	return &CRS{Definition: def, sr: sr}
}

// Geographic reports whether coordinates are longitude/latitude degrees.
func (c *CRS) Geographic() bool {
	return c.sr.Name == "longlat"
}

func (c *CRS) String() string {
	return c.Definition
}

// Transformer returns a function moving planar coordinates from c into to.
func (c *CRS) Transformer(to *CRS) (func(orb.Point) (orb.Point, error), error) {
	if c.Definition == to.Definition {
		return func(p orb.Point) (orb.Point, error) { return p, nil }, nil
	}
	t, err := c.sr.NewTransform(to.sr)
	if err != nil {
		return nil, fmt.Errorf("error creating transform: %w", err)
	}
	return func(p orb.Point) (orb.Point, error) {
		x, y, err := t(p[0], p[1])
		if err != nil {
			return orb.Point{}, err
		}
		return orb.Point{x, y}, nil
	}, nil
}

// ReprojectPoints returns a copy of set in to. Attributes are shared with the input.
func ReprojectPoints(set geomodel.PointSet, from, to *CRS) (geomodel.PointSet, error) {
	if set.CRS != "" && set.CRS != from.Definition {
		return geomodel.PointSet{}, geomodel.ErrCRSMismatch
	}
	t, err := from.Transformer(to)
	if err != nil {
		return geomodel.PointSet{}, err
	}

	out := geomodel.PointSet{CRS: to.Definition, Points: make([]geomodel.Point, len(set.Points))}
	for i, p := range set.Points {
		loc, err := t(p.Location)
		if err != nil {
			return geomodel.PointSet{}, fmt.Errorf("error reprojecting point %d: %w", i, err)
		}
		out.Points[i] = geomodel.Point{Location: loc, Attributes: p.Attributes}
	}
	return out, nil
}

// ReprojectRegions returns a copy of set with every ring vertex moved into to.
func ReprojectRegions(set geomodel.RegionSet, from, to *CRS) (geomodel.RegionSet, error) {
	if set.CRS != "" && set.CRS != from.Definition {
		return geomodel.RegionSet{}, geomodel.ErrCRSMismatch
	}
	t, err := from.Transformer(to)
	if err != nil {
		return geomodel.RegionSet{}, err
	}

	out := set.Clone()
	out.CRS = to.Definition
	for i, r := range out.Regions {
		mp := make(orb.MultiPolygon, len(r.Geometry))
		for j, poly := range r.Geometry {
			mp[j] = make(orb.Polygon, len(poly))
			for k, ring := range poly {
				mp[j][k] = make(orb.Ring, len(ring))
				for l, p := range ring {
					mp[j][k][l], err = t(p)
					if err != nil {
						return geomodel.RegionSet{}, fmt.Errorf("error reprojecting region %s: %w", r.ID, err)
					}
				}
			}
		}
		out.Regions[i].Geometry = mp
	}
	return out, nil
}
