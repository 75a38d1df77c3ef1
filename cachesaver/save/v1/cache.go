package savev1

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/royalcat/pointpattern/geomodel"
)

const COMPATIBILITY_LEVEL uint32 = 1

type Metadata struct {
	Version     uint32
	RunID       string
	CRS         string
	DateCreated string
	Sources     []string
}

// Point attributes are pairs of string table indexes: key, value, key, value...
type Point struct {
	X, Y  float64
	Attrs []uint32
}

type Region struct {
	ID       string
	Geometry []byte // WKB
	Attrs    []uint32
	Count    uint32
}

type Cache struct {
	Metadata Metadata

	// Values deduplication
	Strings []string

	Fine   []Region
	Coarse []Region
	Study  []byte // WKB
	Points []Point
}

func CacheFromDataset(d *geomodel.Dataset) (Cache, error) {
	strs := newUniqueMap()

	cache := Cache{
		Metadata: Metadata{
			Version:     d.Metadata.Version,
			RunID:       d.Metadata.RunID,
			CRS:         d.Metadata.CRS,
			DateCreated: d.Metadata.DateCreated.Format(time.RFC3339),
			Sources:     d.Metadata.Sources,
		},
		Points: make([]Point, 0, d.Points.Len()),
	}

	for _, p := range d.Points.Points {
		cache.Points = append(cache.Points, Point{
			X:     p.Location[0],
			Y:     p.Location[1],
			Attrs: encodeAttrs(strs, p.Attributes),
		})
	}

	var err error
	cache.Fine, err = encodeRegions(strs, d.Fine)
	if err != nil {
		return cache, err
	}
	cache.Coarse, err = encodeRegions(strs, d.Coarse)
	if err != nil {
		return cache, err
	}
	if len(d.Study) > 0 {
		cache.Study, err = wkb.Marshal(d.Study)
		if err != nil {
			return cache, fmt.Errorf("error encoding study area: %w", err)
		}
	}

	cache.Strings = strs.Slice()
	return cache, nil
}

func (c Cache) Dataset() (*geomodel.Dataset, error) {
	created, err := time.Parse(time.RFC3339, c.Metadata.DateCreated)
	if err != nil && c.Metadata.DateCreated != "" {
		return nil, fmt.Errorf("error parsing creation date: %w", err)
	}

	d := &geomodel.Dataset{
		Metadata: geomodel.Metadata{
			Version:     c.Metadata.Version,
			RunID:       c.Metadata.RunID,
			CRS:         c.Metadata.CRS,
			DateCreated: created,
			Sources:     c.Metadata.Sources,
		},
		Points: geomodel.PointSet{CRS: c.Metadata.CRS, Points: make([]geomodel.Point, len(c.Points))},
	}

	for i, p := range c.Points {
		attrs, err := c.decodeAttrs(p.Attrs)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		d.Points.Points[i] = geomodel.Point{Location: orb.Point{p.X, p.Y}, Attributes: attrs}
	}

	d.Fine, err = c.decodeRegions(c.Fine)
	if err != nil {
		return nil, err
	}
	d.Coarse, err = c.decodeRegions(c.Coarse)
	if err != nil {
		return nil, err
	}
	if len(c.Study) > 0 {
		d.Study, err = decodeMultiPolygon(c.Study)
		if err != nil {
			return nil, fmt.Errorf("study area: %w", err)
		}
	}
	return d, nil
}

func encodeAttrs(strs *uniqueMap, attrs map[string]string) []uint32 {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]uint32, 0, len(attrs)*2)
	for k, v := range attrs {
		out = append(out, uint32(strs.Add(k)), uint32(strs.Add(v)))
	}
	return out
}

func (c Cache) decodeAttrs(idx []uint32) (map[string]string, error) {
	if len(idx) == 0 {
		return nil, nil
	}
	if len(idx)%2 != 0 {
		return nil, fmt.Errorf("odd attribute index count %d", len(idx))
	}
	attrs := make(map[string]string, len(idx)/2)
	for i := 0; i < len(idx); i += 2 {
		if int(idx[i]) >= len(c.Strings) || int(idx[i+1]) >= len(c.Strings) {
			return nil, fmt.Errorf("attribute index out of range")
		}
		attrs[c.Strings[idx[i]]] = c.Strings[idx[i+1]]
	}
	return attrs, nil
}

func encodeRegions(strs *uniqueMap, set geomodel.RegionSet) ([]Region, error) {
	out := make([]Region, 0, len(set.Regions))
	for _, r := range set.Regions {
		geom, err := wkb.Marshal(r.Geometry)
		if err != nil {
			return nil, fmt.Errorf("error encoding region %s: %w", r.ID, err)
		}
		out = append(out, Region{
			ID:       r.ID,
			Geometry: geom,
			Attrs:    encodeAttrs(strs, r.Attributes),
			Count:    uint32(r.Count),
		})
	}
	return out, nil
}

func (c Cache) decodeRegions(regions []Region) (geomodel.RegionSet, error) {
	set := geomodel.RegionSet{CRS: c.Metadata.CRS, Regions: make([]geomodel.Region, len(regions))}
	for i, r := range regions {
		mp, err := decodeMultiPolygon(r.Geometry)
		if err != nil {
			return set, fmt.Errorf("region %s: %w", r.ID, err)
		}
		attrs, err := c.decodeAttrs(r.Attrs)
		if err != nil {
			return set, fmt.Errorf("region %s: %w", r.ID, err)
		}
		set.Regions[i] = geomodel.Region{ID: r.ID, Geometry: mp, Attributes: attrs, Count: int(r.Count)}
	}
	return set, nil
}

func decodeMultiPolygon(data []byte) (orb.MultiPolygon, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	switch g := g.(type) {
	case orb.MultiPolygon:
		return g, nil
	case orb.Polygon:
		return orb.MultiPolygon{g}, nil
	}
	return nil, fmt.Errorf("unexpected geometry type %s", g.GeoJSONType())
}
