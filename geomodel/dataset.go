package geomodel

import (
	"time"

	"github.com/paulmach/orb"
)

type Metadata struct {
	Version     uint32
	RunID       string
	CRS         string
	DateCreated time.Time
	Sources     []string
}

// Dataset is the merged, reprojected and clipped input of one analysis run.
// It is the unit persisted by the snapshot cache.
type Dataset struct {
	Metadata Metadata

	Points PointSet
	Fine   RegionSet
	Coarse RegionSet

	// Study is the dissolved outline of the coarse regions.
	Study orb.MultiPolygon
}

// Validate checks that every part of the dataset carries the same CRS tag.
func (d *Dataset) Validate() error {
	if !SameCRS(d.Metadata.CRS, d.Points.CRS, d.Fine.CRS, d.Coarse.CRS) {
		return ErrCRSMismatch
	}
	return nil
}
