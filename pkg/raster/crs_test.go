package raster

import (
	"strings"
	"testing"

	"github.com/terrascope/geometry"
)

func TestTransverseMercatorString(t *testing.T) {
	crs := TransverseMercator(-45)
	if !strings.Contains(string(crs), "+proj=tmerc") {
		t.Errorf("expected tmerc crs, got %s", crs)
	}
	if got := crs.CentralMeridian(); got != -45 {
		t.Errorf("expected lon_0 -45, got %g", got)
	}
	if crs.IsLatLon() {
		t.Error("tmerc must not report as geographic")
	}
}

func TestLatLonWGS84(t *testing.T) {
	crs := LatLonWGS84()
	if !crs.IsLatLon() {
		t.Error("longlat must report as geographic")
	}

	// Geographic systems pass Forward/Inverse through unchanged.
	pts := []geometry.Point{{X: -50, Y: 67}}
	crs.Forward(pts)
	if pts[0].X != -50 || pts[0].Y != 67 {
		t.Errorf("forward changed lat/lon point: %+v", pts[0])
	}
	crs.Inverse(pts)
	if pts[0].X != -50 || pts[0].Y != 67 {
		t.Errorf("inverse changed lat/lon point: %+v", pts[0])
	}
}

func TestParseCRS(t *testing.T) {
	if _, err := ParseCRS("+proj=utm +zone=22"); err != nil {
		t.Errorf("valid proj4 string rejected: %v", err)
	}
	if _, err := ParseCRS("EPSG:4326"); err == nil {
		t.Error("expected error for non-proj4 string")
	}
	if _, err := ParseCRS(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestStereographic(t *testing.T) {
	crs := Stereographic(-45, 70)
	if !strings.Contains(string(crs), "+proj=stere") {
		t.Errorf("expected stere crs, got %s", crs)
	}
	if got := crs.CentralMeridian(); got != -45 {
		t.Errorf("expected lon_0 -45, got %g", got)
	}
}
