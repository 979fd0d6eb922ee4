package raster

import (
	"errors"
	"math"
	"testing"

	"github.com/terrascope/geometry"
)

// testBand is a 10x8 lat/lon grid from (-50, 68) down to (-48, 66.4),
// 0.2 degree pixels.
func testBand() *Band {
	b := &Band{
		Data:      make([]float64, 10*8),
		Width:     10,
		Height:    8,
		Transform: [6]float64{-50, 0.2, 0, 68, 0, -0.2},
		CRS:       LatLonWGS84(),
	}
	for i := range b.Data {
		b.Data[i] = float64(i)
	}
	return b
}

func TestAtSet(t *testing.T) {
	b := testBand()
	b.Set(3, 2, 99)
	if got := b.At(3, 2); got != 99 {
		t.Errorf("At(3,2) = %g, want 99", got)
	}
	if !math.IsNaN(b.At(-1, 0)) || !math.IsNaN(b.At(0, 8)) {
		t.Error("out-of-grid reads must be NaN")
	}
}

func TestExtent(t *testing.T) {
	b := testBand()
	want := geometry.BBox(-50, 66.4, -48, 68)
	checkBox(t, "extent", b.Extent(), want)
	// In a lat/lon band the geographic extent equals the grid extent.
	checkBox(t, "latlon extent", b.ExtentLatLon(), want)
}

func checkBox(t *testing.T, name string, got, want geometry.BoundingBox) {
	t.Helper()
	const eps = 1e-9
	if math.Abs(got.Min.X-want.Min.X) > eps || math.Abs(got.Min.Y-want.Min.Y) > eps ||
		math.Abs(got.Max.X-want.Max.X) > eps || math.Abs(got.Max.Y-want.Max.Y) > eps {
		t.Errorf("%s = %+v, want %+v", name, got, want)
	}
}

func TestCoarsen(t *testing.T) {
	b := testBand()
	b.Coarsen(2)
	if b.Width != 5 || b.Height != 4 {
		t.Fatalf("coarsened size %dx%d, want 5x4", b.Width, b.Height)
	}
	if b.Transform[1] != 0.4 || b.Transform[5] != -0.4 {
		t.Errorf("pixel size not scaled: %v", b.Transform)
	}
	// Pixel (1,1) of the coarse grid is pixel (2,2) of the original.
	if got := b.At(1, 1); got != 22 {
		t.Errorf("At(1,1) = %g, want 22", got)
	}

	// Extent must not grow past the original.
	if ext := b.Extent(); ext.Max.X > -48 {
		t.Errorf("coarsened extent grew: %+v", ext)
	}
}

func TestCoarsenNoop(t *testing.T) {
	b := testBand()
	b.Coarsen(1)
	if b.Width != 10 || b.Height != 8 {
		t.Errorf("coarsen(1) changed size to %dx%d", b.Width, b.Height)
	}
}

func TestMaskEqualAndRange(t *testing.T) {
	b := testBand()
	b.MaskEqual(0)
	if !math.IsNaN(b.Data[0]) {
		t.Error("value 0 not masked")
	}
	if got := b.Min(); got != 1 {
		t.Errorf("Min = %g, want 1", got)
	}
	if got := b.Max(); got != 79 {
		t.Errorf("Max = %g, want 79", got)
	}
}

func TestRangeAllNodata(t *testing.T) {
	b := &Band{Data: []float64{math.NaN(), math.NaN()}, Width: 2, Height: 1}
	if !math.IsNaN(b.Min()) || !math.IsNaN(b.Max()) {
		t.Error("all-nodata band must report NaN range")
	}
}

func TestWindowFor(t *testing.T) {
	b := testBand()

	w, err := b.windowFor(geometry.BBox(-49.5, 67, -49, 67.5))
	if err != nil {
		t.Fatalf("windowFor: %v", err)
	}
	if w.Width <= 0 || w.Height <= 0 {
		t.Fatalf("degenerate window %+v", w)
	}
	if w.Col < 0 || w.Col+w.Width > b.Width || w.Row < 0 || w.Row+w.Height > b.Height {
		t.Errorf("window %+v escapes the grid", w)
	}

	// Overhanging request clamps to the grid.
	w, err = b.windowFor(geometry.BBox(-60, 60, -49, 67.5))
	if err != nil {
		t.Fatalf("windowFor overhang: %v", err)
	}
	if w.Col != 0 || w.Row+w.Height != b.Height {
		t.Errorf("overhang window not clamped: %+v", w)
	}

	// A window fully outside the grid is an error.
	if _, err = b.windowFor(geometry.BBox(10, 10, 20, 20)); !errors.Is(err, ErrNoOverlap) {
		t.Errorf("expected ErrNoOverlap, got %v", err)
	}
}

func TestCrop(t *testing.T) {
	b := testBand()
	b.crop(Window{Col: 2, Row: 1, Width: 4, Height: 3})
	if b.Width != 4 || b.Height != 3 {
		t.Fatalf("cropped size %dx%d, want 4x3", b.Width, b.Height)
	}
	// Top-left of the crop was pixel (2,1) = value 12.
	if got := b.At(0, 0); got != 12 {
		t.Errorf("At(0,0) = %g, want 12", got)
	}
	// Origin shifted by two pixels east and one south.
	if b.Transform[0] != -50+2*0.2 || b.Transform[3] != 68-0.2 {
		t.Errorf("origin not shifted: %v", b.Transform)
	}
}
