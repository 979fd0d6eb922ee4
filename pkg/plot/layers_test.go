package plot

import (
	"bytes"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/atedstone/plotmap/pkg/cmap"
	"github.com/atedstone/plotmap/pkg/raster"
	"github.com/atedstone/plotmap/pkg/shade"
)

// testDataBand covers the middle of the test extent with a gradient.
func testDataBand() *raster.Band {
	b := &raster.Band{
		Data:      make([]float64, 20*20),
		Width:     20,
		Height:    20,
		Transform: [6]float64{-51.5, 0.15, 0, 67.8, 0, -0.08},
		CRS:       raster.LatLonWGS84(),
	}
	for i := range b.Data {
		b.Data[i] = float64(i % 20)
	}
	return b
}

// farBand sits nowhere near the test extent.
func farBand() *raster.Band {
	return &raster.Band{
		Data:      make([]float64, 4),
		Width:     2,
		Height:    2,
		Transform: [6]float64{100, 1, 0, 10, 0, -1},
		CRS:       raster.LatLonWGS84(),
	}
}

func TestDrawData(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, m.DrawData(testDataBand(), AutoRange()))
	require.NotNil(t, m.lastData)

	// The drawn layer leaves non-white pixels inside the viewport.
	assert.True(t, paintedInView(m), "expected data pixels in the axes area")
}

func TestDrawDataExplicitRange(t *testing.T) {
	m := newTestMap(t)
	cm := cmap.Viridis
	err := m.DrawData(testDataBand(), DataOptions{Vmin: 0, Vmax: 40, Cmap: &cm})
	require.NoError(t, err)

	lin, ok := m.lastData.norm.(cmap.Linear)
	require.True(t, ok)
	assert.Equal(t, 0.0, lin.Vmin)
	assert.Equal(t, 40.0, lin.Vmax)
}

func TestDrawDataDiscrete(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, m.DrawData(testDataBand(), DataOptions{Discrete: true}))

	_, ok := m.lastData.norm.(cmap.Boundary)
	assert.True(t, ok, "discrete data should use boundary normalization")
}

func TestDrawDataNoOverlap(t *testing.T) {
	m := newTestMap(t)
	err := m.DrawData(farBand(), AutoRange())
	assert.ErrorIs(t, err, raster.ErrNoOverlap)
	assert.Nil(t, m.lastData, "failed draw must not arm the colorbar")
}

func TestAutoRangeDefaults(t *testing.T) {
	opts := AutoRange()
	assert.True(t, math.IsNaN(opts.Vmin))
	assert.True(t, math.IsNaN(opts.Vmax))
}

// paintedInView reports whether any pixel in the axes area is not the
// white figure background.
func paintedInView(m *Map) bool {
	img := m.dc.Image()
	view := m.Viewport()
	for y := view.Min.Y; y < view.Max.Y; y += 2 {
		for x := view.Min.X; x < view.Max.X; x += 2 {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || b != 0xffff {
				return true
			}
		}
	}
	return false
}

// writeGrayFixture encodes a gray TIFF with a world file covering the
// west half of the test extent, with a zero collar in the first column.
func writeGrayFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "layer.tif")

	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if x == 0 {
				continue // zero collar
			}
			img.Pix[y*16+x] = uint8(40 + x*10)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, img, nil))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	// Pixel-centre origin, 0.25 degree pixels from (-52, 68).
	tfw := "0.25\n0\n0\n-0.25\n-51.875\n67.875\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "layer.tfw"), []byte(tfw), 0o644))
	return path
}

func TestDrawBackground(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, m.DrawBackground(writeGrayFixture(t), BackgroundOptions{}))
	assert.True(t, paintedInView(m))
}

func TestDrawBackgroundRegionCoarsen(t *testing.T) {
	m := newTestMap(t)
	region := Extent{West: -51.5, East: -50, South: 66.5, North: 67.5}
	err := m.DrawBackground(writeGrayFixture(t), BackgroundOptions{
		Region:  &region,
		Coarsen: 2,
	})
	require.NoError(t, err)
	assert.True(t, paintedInView(m))
}

func TestDrawBackgroundMissingFile(t *testing.T) {
	m := newTestMap(t)
	assert.Error(t, m.DrawBackground("testdata/nope.tif", BackgroundOptions{}))
}

func TestDrawDEM(t *testing.T) {
	m := newTestMap(t)
	light := shade.LightSource{Azimuth: 315, Altitude: 45}
	err := m.DrawDEM(writeGrayFixture(t), DEMOptions{Light: &light})
	require.NoError(t, err)
	assert.True(t, paintedInView(m))
}

func TestDrawMask(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, m.DrawMask(writeGrayFixture(t), MaskStyle{Alpha: 0.5}))
	assert.True(t, paintedInView(m))
}

func TestDrawMaskDiscrete(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, m.DrawMask(writeGrayFixture(t), MaskStyle{Discrete: true}))
}
