package plot

import (
	"fmt"

	"github.com/gogpu/gg"
	"github.com/terrascope/geometry"

	"github.com/atedstone/plotmap/pkg/features"
)

// PolygonStyle controls polygon drawing. Nil Fill or Stroke skips that
// pass; the zero style strokes in black.
type PolygonStyle struct {
	Fill      *gg.RGBA
	Stroke    *gg.RGBA
	LineWidth float64
}

func (s PolygonStyle) normalized() PolygonStyle {
	if s.Fill == nil && s.Stroke == nil {
		s.Stroke = &gg.Black
	}
	if s.LineWidth == 0 {
		s.LineWidth = 1
	}
	return s
}

// DrawShapefile loads a shapefile, drops invalid geometry and draws the
// remaining polygons. For control over filtering or styling per
// attribute, load the table with the features package and call
// DrawPolygons.
func (m *Map) DrawShapefile(path string, style PolygonStyle) error {
	t, err := features.LoadShapefile(path)
	if err != nil {
		return err
	}
	return m.DrawPolygons(t.Valid(), style)
}

// DrawPolygons draws a feature table as one patch batch. Features are
// expected in lon/lat; each is projected into the map's system. Tables
// larger than the figure extent are clipped via a spatial index so only
// intersecting features are touched.
func (m *Map) DrawPolygons(t features.Table, style PolygonStyle) error {
	feats := t.Features
	if len(feats) > 64 {
		idx, err := features.NewIndex(t)
		if err != nil {
			return fmt.Errorf("plot: polygon index: %w", err)
		}
		feats, err = idx.Intersecting(m.ext.boundingBox())
		if err != nil {
			return fmt.Errorf("plot: polygon clip: %w", err)
		}
	}

	style = style.normalized()
	var drawErr error
	m.clipToView(func() {
		m.dc.SetFillRule(gg.FillRuleEvenOdd)
		m.dc.SetLineWidth(style.LineWidth)
		for _, f := range feats {
			m.tracePolygon(f)
			if style.Fill != nil {
				m.dc.SetColor(style.Fill.Color())
				var err error
				if style.Stroke != nil {
					err = m.dc.FillPreserve()
				} else {
					err = m.dc.Fill()
				}
				if err != nil && drawErr == nil {
					drawErr = err
				}
			}
			if style.Stroke != nil {
				m.dc.SetColor(style.Stroke.Color())
				if err := m.dc.Stroke(); err != nil && drawErr == nil {
					drawErr = err
				}
			}
		}
		m.dc.SetFillRule(gg.FillRuleNonZero)
	})
	if drawErr != nil {
		return fmt.Errorf("plot: draw polygons: %w", drawErr)
	}
	return nil
}

// tracePolygon builds the path for one feature: the outer ring and its
// holes as subpaths, rendered together under the even-odd rule.
func (m *Map) tracePolygon(f *features.Feature) {
	for _, ring := range f.Rings {
		pts := make([]geometry.Point, len(ring))
		copy(pts, ring)
		m.crs.Forward(pts)

		m.dc.NewSubPath()
		for i, p := range pts {
			px, py := m.toPixel(p.X, p.Y)
			if i == 0 {
				m.dc.MoveTo(px, py)
			} else {
				m.dc.LineTo(px, py)
			}
		}
		m.dc.ClosePath()
	}
}
