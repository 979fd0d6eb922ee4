package plot

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"

	"github.com/atedstone/plotmap/pkg/cmap"
	"github.com/atedstone/plotmap/pkg/raster"
	"github.com/atedstone/plotmap/pkg/shade"
)

// BackgroundOptions controls DrawBackground.
type BackgroundOptions struct {
	// Region restricts loading to a lon/lat window; nil loads the file.
	Region *Extent
	// Coarsen keeps every n-th pixel, shrinking saved file sizes.
	Coarsen int
}

// DrawBackground overlays a greyscale background image. Zero-valued
// pixels (the nodata collar of most satellite scenes) become
// transparent.
func (m *Map) DrawBackground(path string, opts BackgroundOptions) error {
	b, err := m.loadLayer(path, opts.Region)
	if err != nil {
		return err
	}
	if opts.Coarsen > 1 {
		b.Coarsen(opts.Coarsen)
	}
	b.MaskEqual(0)

	cm := cmap.GreysR
	norm := cmap.Linear{Vmin: b.Min(), Vmax: b.Max()}
	return m.drawBand(b, 1, func(v float64) gg.RGBA {
		return cm.At(norm.Normalize(v))
	})
}

// DEMOptions controls DrawDEM.
type DEMOptions struct {
	Region *Extent
	// Light overrides the default light source (azimuth 100, altitude 65).
	Light *shade.LightSource
	// Cmap colours the elevation under the shading; greyscale default.
	Cmap *cmap.Map
}

// DrawDEM overlays an elevation model as shaded relief.
func (m *Map) DrawDEM(path string, opts DEMOptions) error {
	b, err := m.loadLayer(path, opts.Region)
	if err != nil {
		return err
	}
	light := shade.DefaultLight()
	if opts.Light != nil {
		light = *opts.Light
	}
	cm := cmap.GreysR
	if opts.Cmap != nil {
		cm = *opts.Cmap
	}
	return m.drawImage(light.Shade(b, cm), b, 1)
}

// MaskStyle controls DrawMask.
type MaskStyle struct {
	// Color paints the nonzero cells; default turquoise.
	Color *gg.RGBA
	// Discrete switches to the data-gaps-in-dark-red convention.
	Discrete bool
	Alpha    float64
	Region   *Extent
}

// DrawMask overlays the nonzero cells of a mask raster in a single
// colour. Useful for flagging bad or excluded regions.
func (m *Map) DrawMask(path string, style MaskStyle) error {
	b, err := m.loadLayer(path, style.Region)
	if err != nil {
		return err
	}
	col := cmap.Turquoise
	if style.Discrete {
		col = cmap.DarkRed
	}
	if style.Color != nil {
		col = *style.Color
	}
	alpha := style.Alpha
	if alpha == 0 {
		alpha = 1
	}
	return m.drawBand(b, alpha, func(v float64) gg.RGBA {
		if v == 0 {
			return gg.Transparent
		}
		return col
	})
}

// DataOptions controls DrawData.
type DataOptions struct {
	// Vmin/Vmax bound the colour scale; NaN (the zero DataOptions via
	// AutoRange) or an unset value means use the band's own range.
	Vmin, Vmax float64
	// Cmap defaults to jet.
	Cmap *cmap.Map
	// Discrete buckets values into the standard boundary bins over Blues.
	Discrete bool
	Alpha    float64
}

// AutoRange returns DataOptions with the value range left to the data.
func AutoRange() DataOptions {
	return DataOptions{Vmin: math.NaN(), Vmax: math.NaN()}
}

// DrawData overlays a scalar raster band through a colormap. The
// colormap and normalization are remembered for a following Colorbar
// call.
func (m *Map) DrawData(b *raster.Band, opts DataOptions) error {
	vmin, vmax := opts.Vmin, opts.Vmax
	if math.IsNaN(vmin) || (vmin == 0 && vmax == 0) {
		vmin = b.Min()
	}
	if math.IsNaN(vmax) || (opts.Vmin == 0 && opts.Vmax == 0) {
		vmax = b.Max()
	}

	var cm cmap.Map
	var norm cmap.Normalizer
	if opts.Discrete {
		cm = cmap.Blues
		norm = cmap.DefaultBoundaries()
	} else {
		cm = cmap.Jet
		if opts.Cmap != nil {
			cm = *opts.Cmap
		}
		norm = cmap.Linear{Vmin: vmin, Vmax: vmax}
	}

	alpha := opts.Alpha
	if alpha == 0 {
		alpha = 1
	}
	if err := m.drawBand(b, alpha, func(v float64) gg.RGBA {
		return cm.At(norm.Normalize(v))
	}); err != nil {
		return err
	}
	m.lastData = &dataLayer{cm: cm, norm: norm}
	return nil
}

// loadLayer opens a raster for a layer method, windowed when a region
// is given.
func (m *Map) loadLayer(path string, region *Extent) (*raster.Band, error) {
	if region != nil {
		return raster.OpenRegion(path, region.boundingBox())
	}
	return raster.Open(path)
}

// drawBand rasterizes a band through a per-value colour function and
// places it on the figure.
func (m *Map) drawBand(b *raster.Band, alpha float64, colorize func(float64) gg.RGBA) error {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, v := range b.Data {
		col := colorize(v)
		if math.IsNaN(v) || col.A == 0 {
			continue
		}
		o := i * 4
		img.Pix[o+0] = uint8(clamp01(col.R)*255 + 0.5)
		img.Pix[o+1] = uint8(clamp01(col.G)*255 + 0.5)
		img.Pix[o+2] = uint8(clamp01(col.B)*255 + 0.5)
		img.Pix[o+3] = uint8(clamp01(col.A)*255 + 0.5)
	}
	return m.drawImage(img, b, alpha)
}

// drawImage places an already rendered band image on the figure at the
// band's projected extent. The image is positioned by its bounding box
// in the map CRS, matching how single-scene imagery is displayed; no
// warping is performed.
func (m *Map) drawImage(img image.Image, b *raster.Band, alpha float64) error {
	ext := b.ExtentProjected(m.crs)
	if ext.Min.X >= m.proj.Max.X || ext.Max.X <= m.proj.Min.X ||
		ext.Min.Y >= m.proj.Max.Y || ext.Max.Y <= m.proj.Min.Y {
		return fmt.Errorf("plot: %w", raster.ErrNoOverlap)
	}

	x0, y0 := m.toPixel(ext.Min.X, ext.Max.Y)
	x1, y1 := m.toPixel(ext.Max.X, ext.Min.Y)

	buf := gg.ImageBufFromImage(img)
	m.clipToView(func() {
		m.dc.DrawImageEx(buf, gg.DrawImageOptions{
			X:         x0,
			Y:         y0,
			DstWidth:  x1 - x0,
			DstHeight: y1 - y0,
			Opacity:   alpha,
		})
	})
	return nil
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
