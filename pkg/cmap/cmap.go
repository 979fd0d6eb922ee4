// Package cmap provides the colormaps and value normalization used to
// turn scalar raster data into pixels. Interpolation between colour
// stops happens in Lab space so gradients stay perceptually even.
package cmap

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gg"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Map is a colormap: an ordered list of colour stops over [0,1], with
// optional over/under colours for values outside the normalized range.
type Map struct {
	name  string
	stops []colorful.Color

	over     *gg.RGBA
	under    *gg.RGBA
	reversed bool
}

// New builds a colormap from evenly spaced hex stops.
func New(name string, hexStops ...string) Map {
	stops := make([]colorful.Color, len(hexStops))
	for i, h := range hexStops {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(fmt.Sprintf("cmap: bad stop %q in %s", h, name))
		}
		stops[i] = c
	}
	return Map{name: name, stops: stops}
}

// Name returns the colormap's name, with an "_r" suffix when reversed.
func (m Map) Name() string {
	if m.reversed {
		return m.name + "_r"
	}
	return m.name
}

// Reversed returns the same map traversed back to front.
func (m Map) Reversed() Map {
	m.reversed = !m.reversed
	return m
}

// SetOver returns a copy with a colour for values above the range.
func (m Map) SetOver(c gg.RGBA) Map {
	m.over = &c
	return m
}

// SetUnder returns a copy with a colour for values below the range.
func (m Map) SetUnder(c gg.RGBA) Map {
	m.under = &c
	return m
}

// At samples the colormap at t in [0,1]. Out-of-range t uses the
// over/under colour when one is set, otherwise clamps.
func (m Map) At(t float64) gg.RGBA {
	if math.IsNaN(t) {
		return gg.Transparent
	}
	if t < 0 {
		if m.under != nil {
			return *m.under
		}
		t = 0
	}
	if t > 1 {
		if m.over != nil {
			return *m.over
		}
		t = 1
	}
	if m.reversed {
		t = 1 - t
	}
	if len(m.stops) == 1 {
		return fromColorful(m.stops[0])
	}

	pos := t * float64(len(m.stops)-1)
	i := int(pos)
	if i >= len(m.stops)-1 {
		i = len(m.stops) - 2
	}
	frac := pos - float64(i)
	// Exact stops skip the Lab round trip.
	if frac == 0 {
		return fromColorful(m.stops[i])
	}
	if frac == 1 {
		return fromColorful(m.stops[i+1])
	}
	return fromColorful(m.stops[i].BlendLab(m.stops[i+1], frac).Clamped())
}

func fromColorful(c colorful.Color) gg.RGBA {
	return gg.RGBA{R: c.R, G: c.G, B: c.B, A: 1}
}

// Built-in colormaps.
var (
	Greys  = New("Greys", "#ffffff", "#000000")
	GreysR = Greys.Reversed()
	Blues  = New("Blues", "#f7fbff", "#deebf7", "#9ecae1", "#4292c6", "#08519c", "#08306b")
	Jet    = New("jet", "#00007f", "#0000ff", "#00ffff", "#7fff7f", "#ffff00", "#ff0000", "#7f0000")
	Viridis = New("viridis",
		"#440154", "#46327e", "#365c8d", "#277f8e",
		"#1fa187", "#4ac16d", "#a0da39", "#fde725")
)

// ByName resolves a colormap by name (case-insensitive, "_r" reverses).
func ByName(name string) (Map, error) {
	base := strings.ToLower(strings.TrimSuffix(name, "_r"))
	var m Map
	switch base {
	case "greys", "grays":
		m = Greys
	case "blues":
		m = Blues
	case "jet":
		m = Jet
	case "viridis":
		m = Viridis
	default:
		return Map{}, fmt.Errorf("cmap: unknown colormap %q", name)
	}
	if strings.HasSuffix(strings.ToLower(name), "_r") {
		m = m.Reversed()
	}
	return m, nil
}

// ParseColor accepts a small set of named colours or a hex string.
func ParseColor(s string) (gg.RGBA, error) {
	switch strings.ToLower(s) {
	case "black", "k":
		return gg.Black, nil
	case "white", "w":
		return gg.White, nil
	case "red", "r":
		return gg.Red, nil
	case "green", "g":
		return gg.Green, nil
	case "blue", "b":
		return gg.Blue, nil
	case "yellow", "y":
		return gg.Yellow, nil
	case "cyan", "c":
		return gg.Cyan, nil
	case "magenta", "m":
		return gg.Magenta, nil
	case "turquoise":
		return Turquoise, nil
	}
	if strings.HasPrefix(s, "#") {
		return gg.Hex(s), nil
	}
	return gg.RGBA{}, fmt.Errorf("cmap: unknown colour %q", s)
}

// Turquoise is the default mask highlight colour.
var Turquoise = gg.RGB(64.0/255, 224.0/255, 208.0/255)

// DarkRed marks data gaps in the discrete mask variant.
var DarkRed = gg.RGB(155.0/255, 0, 0)
