package plot

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gogpu/gg"

	"github.com/atedstone/plotmap/pkg/cmap"
)

// GraticuleOptions controls Graticule. The zero value draws dashed grey
// lines with meridian labels along the bottom edge and parallel labels
// along the left edge.
type GraticuleOptions struct {
	Color     *gg.RGBA
	LineWidth float64
	FontSize  float64

	HideMeridianLabels bool
	HideParallelLabels bool
	// RotateParallels turns the parallel labels vertical to save space.
	RotateParallels bool
}

// Graticule draws meridians every mstep degrees and parallels every
// pstep degrees across the extent, with the line positions rounded to
// whole steps.
func (m *Map) Graticule(mstep, pstep float64, opts GraticuleOptions) error {
	if mstep <= 0 || pstep <= 0 {
		return fmt.Errorf("plot: graticule steps must be positive, got %g/%g", mstep, pstep)
	}

	col := gg.RGBA{R: 0.45, G: 0.45, B: 0.45, A: 1}
	if opts.Color != nil {
		col = *opts.Color
	}
	lw := opts.LineWidth
	if lw == 0 {
		lw = 0.6
	}
	fontSize := opts.FontSize
	if fontSize == 0 {
		fontSize = 12
	}
	face, err := m.face(fontSize)
	if err != nil {
		return fmt.Errorf("plot: graticule: %w", err)
	}

	m0 := math.Round(m.ext.West/mstep) * mstep
	m1 := math.Round(m.ext.East/mstep) * mstep
	p0 := math.Round(m.ext.South/pstep) * pstep
	p1 := math.Round(m.ext.North/pstep) * pstep

	m.clipToView(func() {
		m.dc.SetColor(col.Color())
		m.dc.SetLineWidth(lw)
		m.dc.SetDash(2, 3)
		for lon := m0; lon <= m1+mstep/2; lon += mstep {
			m.traceMeridian(lon)
			m.dc.Stroke()
		}
		for lat := p0; lat <= p1+pstep/2; lat += pstep {
			m.traceParallel(lat)
			m.dc.Stroke()
		}
		m.dc.ClearDash()
	})

	m.dc.SetFont(face)
	m.dc.SetColor(gg.Black.Color())
	if !opts.HideMeridianLabels {
		y := float64(m.view.Max.Y) + 4
		for lon := m0; lon <= m1+mstep/2; lon += mstep {
			px, _ := m.lonLatToPixel(lon, m.ext.South)
			if px < float64(m.view.Min.X) || px > float64(m.view.Max.X) {
				continue
			}
			m.dc.DrawStringAnchored(formatDegrees(lon, "E", "W"), px, y, 0.5, 1)
		}
	}
	if !opts.HideParallelLabels {
		x := float64(m.view.Min.X) - 4
		for lat := p0; lat <= p1+pstep/2; lat += pstep {
			_, py := m.lonLatToPixel(m.ext.West, lat)
			if py < float64(m.view.Min.Y) || py > float64(m.view.Max.Y) {
				continue
			}
			label := formatDegrees(lat, "N", "S")
			if opts.RotateParallels {
				m.dc.Push()
				m.dc.RotateAbout(-math.Pi/2, x, py)
				m.dc.DrawStringAnchored(label, x, py, 0.5, 1)
				m.dc.Pop()
			} else {
				m.dc.DrawStringAnchored(label, x, py, 1, 0.5)
			}
		}
	}
	return nil
}

// traceMeridian builds a sampled polyline along one line of longitude.
func (m *Map) traceMeridian(lon float64) {
	const samples = 64
	for i := 0; i <= samples; i++ {
		lat := m.ext.South + float64(i)/samples*(m.ext.North-m.ext.South)
		px, py := m.lonLatToPixel(lon, lat)
		if i == 0 {
			m.dc.MoveTo(px, py)
		} else {
			m.dc.LineTo(px, py)
		}
	}
}

func (m *Map) traceParallel(lat float64) {
	const samples = 64
	for i := 0; i <= samples; i++ {
		lon := m.ext.West + float64(i)/samples*(m.ext.East-m.ext.West)
		px, py := m.lonLatToPixel(lon, lat)
		if i == 0 {
			m.dc.MoveTo(px, py)
		} else {
			m.dc.LineTo(px, py)
		}
	}
}

// formatDegrees renders a coordinate with its hemisphere suffix,
// trimming trailing zeros.
func formatDegrees(v float64, pos, neg string) string {
	suffix := pos
	if v < 0 {
		suffix = neg
		v = -v
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "°" + suffix
}

// ScaleBarOptions controls ScaleBar. Positions are fractions of the
// axes area; the zero value places the bar at (0.8, 0.12) in black.
type ScaleBarOptions struct {
	XPos, YPos float64
	Color      *gg.RGBA
	FontSize   float64
}

// ScaleBar draws a segmented distance bar of the given length in
// kilometres, converted to pixels at the map scale of the extent
// centre.
func (m *Map) ScaleBar(lengthKm float64, opts ScaleBarOptions) error {
	if lengthKm <= 0 {
		return fmt.Errorf("plot: scale bar length must be positive, got %g", lengthKm)
	}
	xpos, ypos := opts.XPos, opts.YPos
	if xpos == 0 {
		xpos = 0.8
	}
	if ypos == 0 {
		ypos = 0.12
	}
	col := gg.Black
	if opts.Color != nil {
		col = *opts.Color
	}
	fontSize := opts.FontSize
	if fontSize == 0 {
		fontSize = 12
	}
	face, err := m.face(fontSize)
	if err != nil {
		return fmt.Errorf("plot: scale bar: %w", err)
	}

	lon := m.ext.West + xpos*(m.ext.East-m.ext.West)
	lat := m.ext.South + ypos*(m.ext.North-m.ext.South)
	cx, cy := m.lonLatToPixel(lon, lat)

	px := lengthKm * 1000 / m.metersPerPixel()
	x0 := cx - px/2
	const segments = 4
	const barH = 6.0

	// Alternating filled segments with a common border.
	for s := 0; s < segments; s++ {
		sx := x0 + float64(s)/segments*px
		m.dc.DrawRectangle(sx, cy-barH/2, px/segments, barH)
		if s%2 == 0 {
			m.dc.SetColor(col.Color())
		} else {
			m.dc.SetColor(gg.White.Color())
		}
		if err := m.dc.Fill(); err != nil {
			return fmt.Errorf("plot: scale bar: %w", err)
		}
	}
	m.dc.SetColor(col.Color())
	m.dc.SetLineWidth(1)
	m.dc.DrawRectangle(x0, cy-barH/2, px, barH)
	if err := m.dc.Stroke(); err != nil {
		return fmt.Errorf("plot: scale bar: %w", err)
	}

	m.dc.SetFont(face)
	m.dc.DrawStringAnchored("0", x0, cy+barH/2+2, 0.5, 1)
	m.dc.DrawStringAnchored(strconv.FormatFloat(lengthKm, 'f', -1, 64),
		x0+px, cy+barH/2+2, 0.5, 1)
	m.dc.DrawStringAnchored("km", cx, cy-barH/2-4, 0.5, 0)
	return nil
}

// ColorbarExtend marks whether the colorbar shows out-of-range arrows.
type ColorbarExtend string

const (
	ExtendNeither ColorbarExtend = "neither"
	ExtendMin     ColorbarExtend = "min"
	ExtendMax     ColorbarExtend = "max"
	ExtendBoth    ColorbarExtend = "both"
)

// ColorbarOptions controls Colorbar.
type ColorbarOptions struct {
	Label    string
	Extend   ColorbarExtend
	Ticks    []float64 // nil picks evenly spaced ticks
	FontSize float64
}

// ErrNoDataLayer is returned by Colorbar before any DrawData call.
var ErrNoDataLayer = errors.New("plot: colorbar needs a preceding DrawData call")

// Colorbar draws a full-height colour scale in the right-hand gutter,
// describing the colormap and value range of the last DrawData call.
func (m *Map) Colorbar(opts ColorbarOptions) error {
	if m.lastData == nil {
		return ErrNoDataLayer
	}
	fontSize := opts.FontSize
	if fontSize == 0 {
		fontSize = 12
	}
	face, err := m.face(fontSize)
	if err != nil {
		return fmt.Errorf("plot: colorbar: %w", err)
	}

	// Same proportions as an axes divider: 5% of the axes width, small pad.
	cw := 0.05 * float64(m.view.Dx())
	pad := 0.02 * float64(m.view.Dx())
	cx := float64(m.view.Max.X) + pad
	cy := float64(m.view.Min.Y)
	ch := float64(m.view.Dy())

	cm := m.lastData.cm
	m.drawColorStrip(cx, cy, cw, ch)

	// Extend triangles carry the over/under colours past the bar ends.
	ext := opts.Extend
	if ext == "" {
		ext = ExtendNeither
	}
	if ext == ExtendMax || ext == ExtendBoth {
		m.dc.MoveTo(cx, cy)
		m.dc.LineTo(cx+cw, cy)
		m.dc.LineTo(cx+cw/2, cy-cw)
		m.dc.ClosePath()
		m.dc.SetColor(cm.At(1.01).Color())
		if err := m.dc.Fill(); err != nil {
			return fmt.Errorf("plot: colorbar: %w", err)
		}
	}
	if ext == ExtendMin || ext == ExtendBoth {
		m.dc.MoveTo(cx, cy+ch)
		m.dc.LineTo(cx+cw, cy+ch)
		m.dc.LineTo(cx+cw/2, cy+ch+cw)
		m.dc.ClosePath()
		m.dc.SetColor(cm.At(-0.01).Color())
		if err := m.dc.Fill(); err != nil {
			return fmt.Errorf("plot: colorbar: %w", err)
		}
	}

	m.dc.SetColor(gg.Black.Color())
	m.dc.SetLineWidth(1)
	m.dc.DrawRectangle(cx, cy, cw, ch)
	if err := m.dc.Stroke(); err != nil {
		return fmt.Errorf("plot: colorbar: %w", err)
	}

	// Ticks and labels.
	m.dc.SetFont(face)
	ticks := opts.Ticks
	if ticks == nil {
		ticks = autoTicks(m.lastData.norm)
	}
	for _, v := range ticks {
		t := tickPosition(m.lastData.norm, v)
		if t < 0 || t > 1 {
			continue
		}
		y := cy + (1-t)*ch
		m.dc.DrawLine(cx+cw, y, cx+cw+3, y)
		if err := m.dc.Stroke(); err != nil {
			return fmt.Errorf("plot: colorbar: %w", err)
		}
		m.dc.DrawStringAnchored(formatTick(v), cx+cw+6, y, 0, 0.5)
	}

	if opts.Label != "" {
		lx := cx + cw + 6 + fontSize*3
		ly := cy + ch/2
		m.dc.Push()
		m.dc.RotateAbout(math.Pi/2, lx, ly)
		m.dc.DrawStringAnchored(opts.Label, lx, ly, 0.5, 1)
		m.dc.Pop()
	}
	return nil
}

// drawColorStrip paints the bar itself: a smooth gradient for linear
// normalization, equal-height blocks for boundary bins.
func (m *Map) drawColorStrip(cx, cy, cw, ch float64) {
	cm := m.lastData.cm
	if bn, ok := m.lastData.norm.(cmap.Boundary); ok {
		n := len(bn.Bounds) - 1
		for i := 0; i < n; i++ {
			t := (float64(i) + 0.5) / float64(n)
			y1 := cy + ch - float64(i+1)/float64(n)*ch
			m.dc.DrawRectangle(cx, y1, cw, ch/float64(n)+0.5)
			m.dc.SetColor(cm.At(t).Color())
			_ = m.dc.Fill()
		}
		return
	}
	rows := int(ch)
	for i := 0; i < rows; i++ {
		t := 1 - float64(i)/float64(rows-1)
		m.dc.DrawRectangle(cx, cy+float64(i), cw, 1.5)
		m.dc.SetColor(cm.At(t).Color())
		_ = m.dc.Fill()
	}
}

// tickPosition maps a data value to its fraction along the bar.
func tickPosition(norm cmap.Normalizer, v float64) float64 {
	if bn, ok := norm.(cmap.Boundary); ok {
		// Boundary ticks sit on the bin edges, not the bin centres.
		n := len(bn.Bounds) - 1
		for i, b := range bn.Bounds {
			if v == b {
				return float64(i) / float64(n)
			}
		}
	}
	return norm.Normalize(v)
}

// autoTicks picks tick values: bin edges for boundary normalization,
// five evenly spaced values otherwise.
func autoTicks(norm cmap.Normalizer) []float64 {
	if bn, ok := norm.(cmap.Boundary); ok {
		return bn.Bounds
	}
	vmin, vmax := norm.Range()
	const n = 5
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, vmin+float64(i)/(n-1)*(vmax-vmin))
	}
	return out
}

func formatTick(v float64) string {
	av := math.Abs(v)
	switch {
	case av != 0 && (av >= 1e5 || av < 1e-3):
		return strconv.FormatFloat(v, 'g', 3, 64)
	case v == math.Trunc(v):
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
