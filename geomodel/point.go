package geomodel

import (
	"errors"

	"github.com/paulmach/orb"
)

var ErrCRSMismatch = errors.New("geometries are in different coordinate reference systems")

// Point is a single event location with optional attributes, e.g. a crime category.
type Point struct {
	Location   orb.Point         `json:"location"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (p Point) X() float64 { return p.Location[0] }
func (p Point) Y() float64 { return p.Location[1] }

// PointSet is an ordered collection of points sharing one CRS.
type PointSet struct {
	CRS    string
	Points []Point
}

func NewPointSet(crs string, locations []orb.Point) PointSet {
	points := make([]Point, len(locations))
	for i, l := range locations {
		points[i] = Point{Location: l}
	}
	return PointSet{CRS: crs, Points: points}
}

func (s PointSet) Len() int {
	return len(s.Points)
}

func (s PointSet) Locations() []orb.Point {
	out := make([]orb.Point, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Location
	}
	return out
}

func (s PointSet) Bound() orb.Bound {
	return orb.MultiPoint(s.Locations()).Bound()
}

// SameCRS reports whether all given tags name the same coordinate reference system.
func SameCRS(tags ...string) bool {
	for i := 1; i < len(tags); i++ {
		if tags[i] != tags[0] {
			return false
		}
	}
	return true
}
