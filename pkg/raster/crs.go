package raster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/terrascope/geometry"
	"github.com/terrascope/proj4go"
)

// CRS is a coordinate reference system expressed as a proj4 string.
// An empty CRS is invalid; LatLonWGS84 is the geographic system all
// extents are reported in.
type CRS string

const wgs84LatLon = CRS(`+proj=longlat +ellps=WGS84 +datum=WGS84 +no_defs`)

// LatLonWGS84 returns the geographic WGS84 system (EPSG:4326).
func LatLonWGS84() CRS {
	return wgs84LatLon
}

// TransverseMercator returns a WGS84 transverse Mercator system centred
// on the given meridian, with the equator as latitude of origin.
func TransverseMercator(lon0 float64) CRS {
	return CRS(fmt.Sprintf(
		`+proj=tmerc +lat_0=0 +lon_0=%g +k=1 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs`,
		lon0))
}

// Stereographic returns a WGS84 stereographic system centred on the
// given meridian and latitude.
func Stereographic(lon0, lat0 float64) CRS {
	return CRS(fmt.Sprintf(
		`+proj=stere +lat_0=%g +lon_0=%g +k=1 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs`,
		lat0, lon0))
}

// ParseCRS validates an arbitrary proj4 string.
func ParseCRS(proj string) (CRS, error) {
	proj = strings.TrimSpace(proj)
	if !strings.HasPrefix(proj, "+proj=") {
		return "", fmt.Errorf("crs: not a proj4 string: %q", proj)
	}
	return CRS(proj), nil
}

// IsLatLon reports whether the system is geographic (units of degrees).
func (c CRS) IsLatLon() bool {
	return strings.Contains(string(c), "+proj=longlat") ||
		strings.Contains(string(c), "+proj=latlong")
}

// CentralMeridian returns the lon_0 parameter, or 0 if absent.
func (c CRS) CentralMeridian() float64 {
	for _, tok := range strings.Fields(string(c)) {
		if v, ok := strings.CutPrefix(tok, "+lon_0="); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err == nil {
				return f
			}
		}
	}
	return 0
}

// Forward projects lon/lat points into this system, in place.
// Geographic systems pass through unchanged.
func (c CRS) Forward(pts []geometry.Point) {
	if c.IsLatLon() {
		return
	}
	proj4go.Forwards(string(c), pts)
}

// Inverse unprojects points from this system back to lon/lat, in place.
func (c CRS) Inverse(pts []geometry.Point) {
	if c.IsLatLon() {
		return
	}
	proj4go.Inverse(string(c), pts)
}

// Transform reprojects points from this system into dst, in place.
func (c CRS) Transform(dst CRS, pts []geometry.Point) {
	if c == dst {
		return
	}
	c.Inverse(pts)
	dst.Forward(pts)
}
