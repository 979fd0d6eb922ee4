package features

import (
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/terrascope/geometry"
)

// LoadShapefile reads every polygon in a shapefile into a Table, with
// DBF attribute columns attached as strings. Pass the path without or
// with the .shp suffix; the companion .dbf is found alongside.
func LoadShapefile(path string) (Table, error) {
	if !strings.HasSuffix(path, ".shp") {
		path += ".shp"
	}
	r, err := shp.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("features: open %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	t := Table{Columns: make([]string, len(fields))}
	for i, f := range fields {
		t.Columns[i] = f.String()
	}

	for r.Next() {
		row, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue // points and polylines are not drawable as patches
		}

		f := &Feature{
			Rings: splitRings(poly),
			Attrs: make(map[string]string, len(fields)),
		}
		for i, name := range t.Columns {
			f.Attrs[name] = strings.TrimSpace(r.ReadAttribute(row, i))
		}
		f.Valid = validFeature(f.Rings)
		t.Features = append(t.Features, f)
	}
	if err := r.Err(); err != nil {
		return Table{}, fmt.Errorf("features: read %s: %w", path, err)
	}
	return t, nil
}

// splitRings slices a shapefile polygon record into its part rings.
func splitRings(poly *shp.Polygon) [][]geometry.Point {
	parts := append([]int32{}, poly.Parts...)
	parts = append(parts, int32(len(poly.Points)))

	rings := make([][]geometry.Point, 0, len(poly.Parts))
	for i := 0; i < len(parts)-1; i++ {
		start, end := parts[i], parts[i+1]
		ring := make([]geometry.Point, 0, end-start)
		for _, p := range poly.Points[start:end] {
			ring = append(ring, geometry.Point{X: p.X, Y: p.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}
