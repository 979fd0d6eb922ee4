package features

import (
	"errors"
	"strconv"
	"strings"

	"github.com/terrascope/geometry"
)

// ParseWKTPolygon parses POLYGON and MULTIPOLYGON well-known text into
// rings. MULTIPOLYGON parts are flattened into a single ring list, which
// is what patch drawing needs.
func ParseWKTPolygon(wkt string) ([][]geometry.Point, error) {
	s := strings.TrimSpace(wkt)
	if s == "" {
		return nil, errors.New("empty wkt")
	}
	up := strings.ToUpper(s)
	switch {
	case strings.HasPrefix(up, "POLYGON"):
		i := strings.Index(s, "(")
		j := strings.LastIndex(s, ")")
		if i < 0 || j <= i {
			return nil, errors.New("wkt polygon: invalid")
		}
		return parseRings(s[i+1 : j])
	case strings.HasPrefix(up, "MULTIPOLYGON"):
		i := strings.Index(s, "(")
		j := strings.LastIndex(s, ")")
		if i < 0 || j <= i {
			return nil, errors.New("wkt multipolygon: invalid")
		}
		var rings [][]geometry.Point
		for _, part := range splitTopLevel(s[i+1 : j]) {
			part = strings.TrimSpace(part)
			part = strings.TrimPrefix(part, "(")
			part = strings.TrimSuffix(part, ")")
			rs, err := parseRings(part)
			if err != nil {
				return nil, err
			}
			rings = append(rings, rs...)
		}
		return rings, nil
	}
	return nil, errors.New("unsupported wkt type")
}

// parseRings parses "(x y, x y, ...), (x y, ...)" into rings.
func parseRings(block string) ([][]geometry.Point, error) {
	var rings [][]geometry.Point
	for _, part := range splitTopLevel(block) {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "(")
		part = strings.TrimSuffix(part, ")")
		ring, err := parseCoords(part)
		if err != nil {
			return nil, err
		}
		if len(ring) > 0 {
			rings = append(rings, ring)
		}
	}
	if len(rings) == 0 {
		return nil, errors.New("wkt: no coordinates parsed")
	}
	return rings, nil
}

func parseCoords(block string) ([]geometry.Point, error) {
	var pts []geometry.Point
	for _, tup := range strings.Split(block, ",") {
		parts := strings.Fields(strings.TrimSpace(tup))
		if len(parts) < 2 {
			continue
		}
		x, err1 := strconv.ParseFloat(parts[0], 64)
		y, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return nil, errors.New("wkt: bad coordinate " + tup)
		}
		pts = append(pts, geometry.Point{X: x, Y: y})
	}
	return pts, nil
}

// splitTopLevel splits on commas that sit outside any parentheses.
func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
