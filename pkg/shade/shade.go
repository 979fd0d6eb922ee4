// Package shade renders shaded relief: elevation grids lit by a single
// directional light source, blended with a colormap so terrain form
// reads through whatever colours the elevation is drawn in.
package shade

import (
	"image"
	"math"

	"github.com/atedstone/plotmap/pkg/cmap"
	"github.com/atedstone/plotmap/pkg/raster"
)

// LightSource describes the illumination for hillshading. Azimuth is in
// degrees clockwise from north, altitude in degrees above the horizon.
type LightSource struct {
	Azimuth  float64
	Altitude float64
}

// DefaultLight matches the long-standing default look for relief plots.
func DefaultLight() LightSource {
	return LightSource{Azimuth: 100, Altitude: 65}
}

// Intensity computes the illumination of every cell in [0,1] from the
// slope and aspect of the surface (central differences, pixel units from
// the band's geotransform). NaN cells produce NaN intensity.
func (ls LightSource) Intensity(b *raster.Band) []float64 {
	az := ls.Azimuth * math.Pi / 180
	zenith := (90 - ls.Altitude) * math.Pi / 180
	dx, dy := b.PixelSize()
	if dx == 0 {
		dx = 1
	}
	if dy == 0 {
		dy = 1
	}

	out := make([]float64, b.Width*b.Height)
	for r := 0; r < b.Height; r++ {
		for c := 0; c < b.Width; c++ {
			gx, gy, ok := gradient(b, c, r, dx, dy)
			if !ok {
				out[r*b.Width+c] = math.NaN()
				continue
			}
			slope := math.Atan(math.Hypot(gx, gy))
			aspect := math.Atan2(gy, -gx)
			v := math.Cos(zenith)*math.Cos(slope) +
				math.Sin(zenith)*math.Sin(slope)*math.Cos(az-math.Pi/2-aspect)
			out[r*b.Width+c] = clamp01(v)
		}
	}
	return out
}

// gradient estimates the surface gradient at (c, r), falling back to
// one-sided differences at edges and beside nodata cells.
func gradient(b *raster.Band, c, r int, dx, dy float64) (gx, gy float64, ok bool) {
	z := b.At(c, r)
	if math.IsNaN(z) {
		return 0, 0, false
	}
	gx = diff(b.At(c-1, r), z, b.At(c+1, r), dx)
	gy = diff(b.At(c, r-1), z, b.At(c, r+1), dy)
	if math.IsNaN(gx) || math.IsNaN(gy) {
		return 0, 0, false
	}
	return gx, gy, true
}

func diff(lo, mid, hi, step float64) float64 {
	switch {
	case !math.IsNaN(lo) && !math.IsNaN(hi):
		return (hi - lo) / (2 * step)
	case !math.IsNaN(hi):
		return (hi - mid) / step
	case !math.IsNaN(lo):
		return (mid - lo) / step
	}
	return 0
}

// Shade renders the band through a colormap with hillshading applied:
// each cell's colour is scaled by its illumination. NaN cells come out
// fully transparent.
func (ls LightSource) Shade(b *raster.Band, cm cmap.Map) *image.NRGBA {
	norm := cmap.Linear{Vmin: b.Min(), Vmax: b.Max()}
	intensity := ls.Intensity(b)

	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for r := 0; r < b.Height; r++ {
		for c := 0; c < b.Width; c++ {
			i := r*b.Width + c
			v := b.Data[i]
			if math.IsNaN(v) || math.IsNaN(intensity[i]) {
				continue // zero value is transparent
			}
			col := cm.At(norm.Normalize(v))
			// Keep a floor on brightness so fully shadowed slopes stay legible.
			s := 0.3 + 0.7*intensity[i]
			o := i * 4
			img.Pix[o+0] = to255(col.R * s)
			img.Pix[o+1] = to255(col.G * s)
			img.Pix[o+2] = to255(col.B * s)
			img.Pix[o+3] = 255
		}
	}
	return img
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func to255(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
