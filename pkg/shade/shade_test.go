package shade

import (
	"math"
	"testing"

	"github.com/atedstone/plotmap/pkg/cmap"
	"github.com/atedstone/plotmap/pkg/raster"
)

func flatBand(w, h int, elevation float64) *raster.Band {
	b := &raster.Band{
		Data:      make([]float64, w*h),
		Width:     w,
		Height:    h,
		Transform: [6]float64{0, 30, 0, 0, 0, -30},
		CRS:       raster.LatLonWGS84(),
	}
	for i := range b.Data {
		b.Data[i] = elevation
	}
	return b
}

func TestIntensityFlatSurface(t *testing.T) {
	ls := LightSource{Azimuth: 100, Altitude: 65}
	b := flatBand(6, 5, 1000)

	intensity := ls.Intensity(b)
	// A flat surface is lit uniformly at cos(zenith).
	want := math.Cos((90 - 65) * math.Pi / 180)
	for i, v := range intensity {
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("cell %d intensity %g, want %g", i, v, want)
		}
	}
}

func TestIntensitySlopeFacingLight(t *testing.T) {
	ls := LightSource{Azimuth: 90, Altitude: 45} // light from the east
	b := flatBand(8, 4, 0)
	// Surface rising to the west: east-facing slope.
	for r := 0; r < b.Height; r++ {
		for c := 0; c < b.Width; c++ {
			b.Set(c, r, float64(b.Width-c)*30)
		}
	}
	east := ls.Intensity(b)

	// The same surface rising to the east faces away from the light.
	for r := 0; r < b.Height; r++ {
		for c := 0; c < b.Width; c++ {
			b.Set(c, r, float64(c)*30)
		}
	}
	west := ls.Intensity(b)

	mid := 2*b.Width + 4 // an interior cell
	if east[mid] <= west[mid] {
		t.Errorf("slope facing the light (%g) should be brighter than facing away (%g)",
			east[mid], west[mid])
	}
}

func TestIntensityNaN(t *testing.T) {
	ls := DefaultLight()
	b := flatBand(4, 4, 100)
	b.Set(2, 2, math.NaN())

	intensity := ls.Intensity(b)
	if !math.IsNaN(intensity[2*4+2]) {
		t.Error("nodata cell must have NaN intensity")
	}
	// A neighbour still shades via one-sided differences.
	if math.IsNaN(intensity[2*4+1]) {
		t.Error("cell beside nodata should still shade")
	}
}

func TestShade(t *testing.T) {
	ls := DefaultLight()
	b := flatBand(5, 5, 500)
	b.Set(0, 0, math.NaN())

	img := ls.Shade(b, cmap.GreysR)
	if img.Bounds().Dx() != 5 || img.Bounds().Dy() != 5 {
		t.Fatalf("image size %v", img.Bounds())
	}
	// Nodata is transparent, everything else opaque.
	if a := img.Pix[3]; a != 0 {
		t.Errorf("nodata alpha = %d, want 0", a)
	}
	if a := img.Pix[(2*5+2)*4+3]; a != 255 {
		t.Errorf("data alpha = %d, want 255", a)
	}
}

func TestDefaultLight(t *testing.T) {
	ls := DefaultLight()
	if ls.Azimuth != 100 || ls.Altitude != 65 {
		t.Errorf("unexpected default light %+v", ls)
	}
}
