// Package features loads vector polygon data (shapefiles, PostGIS
// tables) into in-memory feature tables for drawing, and indexes them
// spatially so a figure only ever touches the features inside its
// extent.
package features

import (
	"math"

	"github.com/terrascope/geometry"
)

// Feature is one polygon with its attributes. Rings hold the outer
// boundary first, holes after; every ring is closed (first point equals
// last).
type Feature struct {
	Rings [][]geometry.Point
	Attrs map[string]string
	Valid bool
}

// Bounds returns the feature's bounding box over all rings.
func (f *Feature) Bounds() geometry.BoundingBox {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, ring := range f.Rings {
		for _, p := range ring {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	return geometry.BBox(minX, minY, maxX, maxY)
}

// Area returns the absolute area of the outer ring minus the holes.
func (f *Feature) Area() float64 {
	if len(f.Rings) == 0 {
		return 0
	}
	a := math.Abs(ringArea(f.Rings[0]))
	for _, hole := range f.Rings[1:] {
		a -= math.Abs(ringArea(hole))
	}
	return a
}

// Table is an ordered collection of features sharing a column set.
type Table struct {
	Features []*Feature
	Columns  []string
}

// Len returns the number of features.
func (t Table) Len() int {
	return len(t.Features)
}

// Valid returns a table containing only features with valid geometry,
// the analog of dropping bad rows before plotting.
func (t Table) Valid() Table {
	return t.Filter(func(f *Feature) bool { return f.Valid })
}

// Filter returns a table of the features matching pred, preserving order.
func (t Table) Filter(pred func(*Feature) bool) Table {
	out := Table{Columns: t.Columns}
	for _, f := range t.Features {
		if pred(f) {
			out.Features = append(out.Features, f)
		}
	}
	return out
}

// ringArea returns the signed area of a closed ring (shoelace).
func ringArea(ring []geometry.Point) float64 {
	var s float64
	for i := 0; i < len(ring)-1; i++ {
		s += ring[i].X*ring[i+1].Y - ring[i+1].X*ring[i].Y
	}
	return s / 2
}

// validRing checks the geometry rules drawing relies on: a closed ring
// of at least four points, non-degenerate area, no self-intersection.
func validRing(ring []geometry.Point) bool {
	if len(ring) < 4 {
		return false
	}
	if ring[0] != ring[len(ring)-1] {
		return false
	}
	if ringArea(ring) == 0 {
		return false
	}
	return !selfIntersects(ring)
}

func validFeature(rings [][]geometry.Point) bool {
	if len(rings) == 0 {
		return false
	}
	for _, r := range rings {
		if !validRing(r) {
			return false
		}
	}
	return true
}

// selfIntersects tests all non-adjacent segment pairs of a ring.
// Quadratic, which is fine at the ring sizes outline shapefiles carry.
func selfIntersects(ring []geometry.Point) bool {
	n := len(ring) - 1
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			// Skip the closing segment against the first one.
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsCross(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentsCross(a, b, c, d geometry.Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(o, a, p geometry.Point) float64 {
	return (a.X-o.X)*(p.Y-o.Y) - (a.Y-o.Y)*(p.X-o.X)
}
