// Package plot composes georeferenced map figures. A Map is created
// once with a projection and geographic extent, then layer methods
// overlay imagery, shaded relief, masks, scalar data and polygons onto
// the shared drawing surface, annotation methods add graticules, scale
// bars and colorbars, and the result is saved to disk.
//
// The methods are broadly arranged in the expected calling sequence:
//
//	m, _ := plot.New(plot.FromRaster("scene.tif"))
//	m.DrawBackground("scene.tif", plot.BackgroundOptions{})
//	m.DrawShapefile("basins", plot.PolygonStyle{Stroke: &gg.Black})
//	m.Graticule(2, 0.5, plot.GraticuleOptions{})
//	m.ScaleBar(50, plot.ScaleBarOptions{})
//	m.SavePNG("figure.png")
package plot

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/gogpu/gg"
	"github.com/terrascope/geometry"

	"github.com/atedstone/plotmap/pkg/cmap"
	"github.com/atedstone/plotmap/pkg/raster"
)

// ErrNoGeoref is returned by New when no georeferencing source is given.
var ErrNoGeoref = errors.New("plot: map needs an extent and origin, a raster file, or a band")

// Extent is a geographic bounding box in lon/lat degrees.
type Extent struct {
	West, East   float64
	South, North float64
}

func (e Extent) valid() bool {
	return e.East > e.West && e.North > e.South
}

func (e Extent) boundingBox() geometry.BoundingBox {
	return geometry.BBox(e.West, e.South, e.East, e.North)
}

// Map is a georeferenced figure in progress. The projection and extent
// are fixed at construction; every layer method reprojects its inputs
// into the map's system before drawing.
type Map struct {
	dc   *gg.Context
	own  bool // context created here, closed on Close
	crs  raster.CRS
	ext  Extent
	proj geometry.BoundingBox // extent in map CRS
	view image.Rectangle      // axes area in figure pixels

	lastData *dataLayer // remembered for Colorbar
}

// dataLayer records how the most recent DrawData coloured its values.
type dataLayer struct {
	cm   cmap.Map
	norm cmap.Normalizer
}

type config struct {
	ext        Extent
	lon0       float64
	haveExtent bool

	projection string

	width, height int
	dc            *gg.Context
	view          image.Rectangle

	err error
}

// Option configures New.
type Option func(*config)

// WithExtent georeferences the map from explicit lon/lat bounds and an
// origin meridian.
func WithExtent(ext Extent, lon0 float64) Option {
	return func(c *config) {
		c.ext = ext
		c.lon0 = lon0
		c.haveExtent = true
	}
}

// FromRaster georeferences the map from a GeoTIFF: the plotting area
// covers the file's extent and the origin meridian comes from its CRS.
func FromRaster(path string) Option {
	return func(c *config) {
		b, err := raster.Open(path)
		if err != nil {
			c.err = err
			return
		}
		WithBand(b)(c)
	}
}

// WithBand georeferences the map from an already loaded band.
func WithBand(b *raster.Band) Option {
	return func(c *config) {
		box := b.ExtentLatLon()
		c.ext = Extent{West: box.Min.X, East: box.Max.X, South: box.Min.Y, North: box.Max.Y}
		c.lon0 = b.CRS.CentralMeridian()
		c.haveExtent = true
	}
}

// Projection selects the map projection: "tmerc" (default) or "stere".
func Projection(name string) Option {
	return func(c *config) { c.projection = name }
}

// FigSize sets the figure size in pixels. Ignored with OnContext.
func FigSize(width, height int) Option {
	return func(c *config) {
		c.width, c.height = width, height
	}
}

// OnContext draws into an existing figure instead of creating one,
// using the given rectangle as the axes area. The context is not closed
// by Map.Close.
func OnContext(dc *gg.Context, view image.Rectangle) Option {
	return func(c *config) {
		c.dc = dc
		c.view = view
	}
}

// Figure margins, as fractions of the figure size. These leave room for
// graticule labels on the left and bottom and a colorbar gutter on the
// right.
const (
	marginLeft   = 0.10
	marginRight  = 0.90
	marginTop    = 0.95
	marginBottom = 0.07
)

// New creates a map figure. Exactly one georeferencing option
// (WithExtent, FromRaster or WithBand) must be supplied.
func New(opts ...Option) (*Map, error) {
	c := &config{projection: "tmerc", width: 1000, height: 800}
	for _, opt := range opts {
		opt(c)
	}
	if c.err != nil {
		return nil, c.err
	}
	if !c.haveExtent {
		return nil, ErrNoGeoref
	}
	if !c.ext.valid() {
		return nil, fmt.Errorf("plot: bad extent %+v", c.ext)
	}

	var crs raster.CRS
	switch c.projection {
	case "tmerc":
		crs = raster.TransverseMercator(c.lon0)
	case "stere":
		lat0 := (c.ext.South + c.ext.North) / 2
		crs = raster.Stereographic(c.lon0, lat0)
	default:
		return nil, fmt.Errorf("plot: unsupported projection %q", c.projection)
	}

	m := &Map{crs: crs, ext: c.ext, proj: projectExtent(crs, c.ext)}

	if c.dc != nil {
		m.dc = c.dc
		m.view = c.view
	} else {
		m.dc = gg.NewContext(c.width, c.height)
		m.dc.ClearWithColor(gg.White)
		m.own = true
		m.view = image.Rect(
			int(marginLeft*float64(c.width)),
			int((1-marginTop)*float64(c.height)),
			int(marginRight*float64(c.width)),
			int((1-marginBottom)*float64(c.height)),
		)
	}
	if m.view.Dx() <= 0 || m.view.Dy() <= 0 {
		return nil, fmt.Errorf("plot: empty axes area %v", m.view)
	}
	return m, nil
}

// projectExtent computes the extent's bounds in the map CRS. The edges
// are sampled, not just the corners, because meridian-centred
// projections bow the edges outward.
func projectExtent(crs raster.CRS, ext Extent) geometry.BoundingBox {
	const samples = 32
	pts := make([]geometry.Point, 0, 4*samples)
	for i := 0; i <= samples; i++ {
		t := float64(i) / samples
		lon := ext.West + t*(ext.East-ext.West)
		lat := ext.South + t*(ext.North-ext.South)
		pts = append(pts,
			geometry.Point{X: lon, Y: ext.South},
			geometry.Point{X: lon, Y: ext.North},
			geometry.Point{X: ext.West, Y: lat},
			geometry.Point{X: ext.East, Y: lat},
		)
	}
	crs.Forward(pts)

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

// CRS returns the map's projected coordinate system.
func (m *Map) CRS() raster.CRS {
	return m.crs
}

// Extent returns the geographic bounds fixed at construction.
func (m *Map) Extent() Extent {
	return m.ext
}

// Context exposes the underlying drawing context for callers that want
// to add their own annotations on top of the map layers.
func (m *Map) Context() *gg.Context {
	return m.dc
}

// Viewport returns the pixel rectangle of the axes area.
func (m *Map) Viewport() image.Rectangle {
	return m.view
}

// toPixel converts map CRS coordinates to figure pixel coordinates.
func (m *Map) toPixel(x, y float64) (px, py float64) {
	w := m.proj.Max.X - m.proj.Min.X
	h := m.proj.Max.Y - m.proj.Min.Y
	px = float64(m.view.Min.X) + (x-m.proj.Min.X)/w*float64(m.view.Dx())
	py = float64(m.view.Min.Y) + (m.proj.Max.Y-y)/h*float64(m.view.Dy())
	return px, py
}

// lonLatToPixel projects a geographic point and converts it to pixels.
func (m *Map) lonLatToPixel(lon, lat float64) (px, py float64) {
	pts := []geometry.Point{{X: lon, Y: lat}}
	m.crs.Forward(pts)
	return m.toPixel(pts[0].X, pts[0].Y)
}

// metersPerPixel returns the map scale at the centre of the extent.
func (m *Map) metersPerPixel() float64 {
	return (m.proj.Max.X - m.proj.Min.X) / float64(m.view.Dx())
}

// clipToView runs draw with the clip region set to the axes area.
func (m *Map) clipToView(draw func()) {
	m.dc.Push()
	m.dc.ClipRect(float64(m.view.Min.X), float64(m.view.Min.Y),
		float64(m.view.Dx()), float64(m.view.Dy()))
	draw()
	m.dc.Pop()
}

// SavePNG writes the figure to a PNG file.
func (m *Map) SavePNG(path string) error {
	if err := m.dc.SavePNG(path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}
	return nil
}

// SaveJPEG writes the figure to a JPEG file at the given quality (1-100).
func (m *Map) SaveJPEG(path string, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}
	defer f.Close()
	if err := m.dc.EncodeJPEG(f, quality); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}
	return nil
}

// Close releases the drawing context if this Map created it.
func (m *Map) Close() error {
	if m.own {
		return m.dc.Close()
	}
	return nil
}
