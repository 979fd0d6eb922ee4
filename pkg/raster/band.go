// Package raster loads single-band georeferenced rasters (GeoTIFF) and
// exposes their pixel grids together with the information needed to place
// them on a projected map: a geotransform and a coordinate reference
// system.
//
// Pixel values are held as float64 with NaN marking nodata, whatever the
// on-disk sample format.
package raster

import (
	"errors"
	"math"

	"github.com/terrascope/geometry"
)

var (
	// ErrNoGeoref is returned for files carrying no usable georeferencing.
	ErrNoGeoref = errors.New("raster: no georeferencing found")
	// ErrNoOverlap is returned when a requested region misses the grid.
	ErrNoOverlap = errors.New("raster: region does not intersect grid")
)

// Band is a single band of raster data on a regular grid.
//
// Transform is the GDAL-style geotransform: world coordinates of a pixel
// (col, row) are
//
//	x = Transform[0] + col*Transform[1] + row*Transform[2]
//	y = Transform[3] + col*Transform[4] + row*Transform[5]
//
// referring to the top-left corner of the pixel.
type Band struct {
	Data      []float64
	Width     int
	Height    int
	Transform [6]float64
	CRS       CRS
}

// At returns the value of pixel (col, row). Out-of-grid reads return NaN.
func (b *Band) At(col, row int) float64 {
	if col < 0 || col >= b.Width || row < 0 || row >= b.Height {
		return math.NaN()
	}
	return b.Data[row*b.Width+col]
}

// Set writes the value of pixel (col, row). Out-of-grid writes are ignored.
func (b *Band) Set(col, row int, v float64) {
	if col < 0 || col >= b.Width || row < 0 || row >= b.Height {
		return
	}
	b.Data[row*b.Width+col] = v
}

// PixelSize returns the absolute pixel dimensions in CRS units.
func (b *Band) PixelSize() (dx, dy float64) {
	return math.Abs(b.Transform[1]), math.Abs(b.Transform[5])
}

// world returns the CRS coordinates of pixel corner (col, row).
func (b *Band) world(col, row float64) geometry.Point {
	t := b.Transform
	return geometry.Point{
		X: t[0] + col*t[1] + row*t[2],
		Y: t[3] + col*t[4] + row*t[5],
	}
}

// pixel returns the fractional pixel coordinates of a CRS point.
// Only axis-aligned geotransforms (no rotation terms) are supported.
func (b *Band) pixel(p geometry.Point) (col, row float64) {
	t := b.Transform
	return (p.X - t[0]) / t[1], (p.Y - t[3]) / t[5]
}

// Extent returns the grid bounds in the band's own CRS.
func (b *Band) Extent() geometry.BoundingBox {
	p0 := b.world(0, 0)
	p1 := b.world(float64(b.Width), float64(b.Height))
	return geometry.BBox(
		math.Min(p0.X, p1.X), math.Min(p0.Y, p1.Y),
		math.Max(p0.X, p1.X), math.Max(p0.Y, p1.Y),
	)
}

// ExtentLatLon returns the outer lon/lat bounds of the grid: all four
// corners are unprojected and the hull taken, so a rotated-looking grid in
// a projected CRS still gets a covering box.
func (b *Band) ExtentLatLon() geometry.BoundingBox {
	ext := b.Extent()
	pts := []geometry.Point{
		{X: ext.Min.X, Y: ext.Min.Y},
		{X: ext.Min.X, Y: ext.Max.Y},
		{X: ext.Max.X, Y: ext.Min.Y},
		{X: ext.Max.X, Y: ext.Max.Y},
	}
	b.CRS.Inverse(pts)
	return hull(pts)
}

// ExtentProjected returns the grid bounds in a target map CRS, for
// placing the band's image on a figure drawn in that system.
func (b *Band) ExtentProjected(dst CRS) geometry.BoundingBox {
	ext := b.Extent()
	pts := []geometry.Point{
		{X: ext.Min.X, Y: ext.Min.Y},
		{X: ext.Min.X, Y: ext.Max.Y},
		{X: ext.Max.X, Y: ext.Min.Y},
		{X: ext.Max.X, Y: ext.Max.Y},
	}
	b.CRS.Transform(dst, pts)
	return hull(pts)
}

func hull(pts []geometry.Point) geometry.BoundingBox {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return geometry.BBox(minX, minY, maxX, maxY)
}

// Coarsen keeps every n-th pixel in both axes, adjusting the
// geotransform to match. n < 2 is a no-op.
func (b *Band) Coarsen(n int) {
	if n < 2 {
		return
	}
	w := (b.Width + n - 1) / n
	h := (b.Height + n - 1) / n
	out := make([]float64, w*h)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			out[r*w+c] = b.Data[(r*n)*b.Width+c*n]
		}
	}
	b.Data = out
	b.Width = w
	b.Height = h
	b.Transform[1] *= float64(n)
	b.Transform[2] *= float64(n)
	b.Transform[4] *= float64(n)
	b.Transform[5] *= float64(n)
}

// MaskEqual replaces every pixel equal to v with NaN. Used to knock out
// zero collars around satellite scenes before display.
func (b *Band) MaskEqual(v float64) {
	for i, x := range b.Data {
		if x == v {
			b.Data[i] = math.NaN()
		}
	}
}

// Min returns the smallest non-NaN value, or NaN for an all-nodata band.
func (b *Band) Min() float64 {
	m := math.NaN()
	for _, v := range b.Data {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(m) || v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest non-NaN value, or NaN for an all-nodata band.
func (b *Band) Max() float64 {
	m := math.NaN()
	for _, v := range b.Data {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(m) || v > m {
			m = v
		}
	}
	return m
}

// Window is an integer pixel sub-rectangle of a grid.
type Window struct {
	Col, Row      int
	Width, Height int
}

// windowFor converts a lon/lat bounding box into a pixel window: the box
// corners are projected into the band's CRS, snapped outward to pixel
// borders and clamped to the grid.
func (b *Band) windowFor(latlon geometry.BoundingBox) (Window, error) {
	pts := []geometry.Point{
		{X: latlon.Min.X, Y: latlon.Min.Y},
		{X: latlon.Min.X, Y: latlon.Max.Y},
		{X: latlon.Max.X, Y: latlon.Min.Y},
		{X: latlon.Max.X, Y: latlon.Max.Y},
	}
	b.CRS.Forward(pts)
	box := hull(pts)

	c0, r0 := b.pixel(geometry.Point{X: box.Min.X, Y: box.Max.Y})
	c1, r1 := b.pixel(geometry.Point{X: box.Max.X, Y: box.Min.Y})
	if c1 < c0 {
		c0, c1 = c1, c0
	}
	if r1 < r0 {
		r0, r1 = r1, r0
	}

	col := clampInt(int(math.Floor(c0)), 0, b.Width)
	row := clampInt(int(math.Floor(r0)), 0, b.Height)
	colEnd := clampInt(int(math.Ceil(c1)), 0, b.Width)
	rowEnd := clampInt(int(math.Ceil(r1)), 0, b.Height)
	if colEnd <= col || rowEnd <= row {
		return Window{}, ErrNoOverlap
	}
	return Window{Col: col, Row: row, Width: colEnd - col, Height: rowEnd - row}, nil
}

// crop cuts the band down to a pixel window, shifting the geotransform
// origin to the window's top-left corner.
func (b *Band) crop(w Window) {
	out := make([]float64, w.Width*w.Height)
	for r := 0; r < w.Height; r++ {
		src := (w.Row+r)*b.Width + w.Col
		copy(out[r*w.Width:(r+1)*w.Width], b.Data[src:src+w.Width])
	}
	origin := b.world(float64(w.Col), float64(w.Row))
	b.Data = out
	b.Width = w.Width
	b.Height = w.Height
	b.Transform[0] = origin.X
	b.Transform[3] = origin.Y
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
