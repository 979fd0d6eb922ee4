package cmap

import (
	"math"
	"testing"

	"github.com/gogpu/gg"
)

func TestAtEndpoints(t *testing.T) {
	if got := Greys.At(0); got != gg.White {
		t.Errorf("Greys.At(0) = %+v, want white", got)
	}
	if got := Greys.At(1); got != gg.Black {
		t.Errorf("Greys.At(1) = %+v, want black", got)
	}
}

func TestReversed(t *testing.T) {
	if got := GreysR.At(0); got != gg.Black {
		t.Errorf("Greys_r.At(0) = %+v, want black", got)
	}
	if GreysR.Name() != "Greys_r" {
		t.Errorf("reversed name = %q", GreysR.Name())
	}
	if got := GreysR.Reversed().At(0); got != gg.White {
		t.Errorf("double reverse broke: %+v", got)
	}
}

func TestAtClampsAndNaN(t *testing.T) {
	if got := Greys.At(-3); got != gg.White {
		t.Errorf("At(-3) without under colour should clamp, got %+v", got)
	}
	if got := Greys.At(5); got != gg.Black {
		t.Errorf("At(5) without over colour should clamp, got %+v", got)
	}
	if got := Greys.At(math.NaN()); got != gg.Transparent {
		t.Errorf("At(NaN) = %+v, want transparent", got)
	}
}

func TestOverUnder(t *testing.T) {
	m := Jet.SetOver(Turquoise).SetUnder(DarkRed)
	if got := m.At(1.5); got != Turquoise {
		t.Errorf("over colour not used: %+v", got)
	}
	if got := m.At(-0.5); got != DarkRed {
		t.Errorf("under colour not used: %+v", got)
	}
	// In-range lookups are unaffected.
	if got, want := m.At(0.5), Jet.At(0.5); got != want {
		t.Errorf("At(0.5) changed by over/under: %+v vs %+v", got, want)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"jet", "Greys", "greys_r", "Blues", "viridis"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q): %v", name, err)
		}
	}
	m, err := ByName("Greys_r")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if m.At(0) != gg.Black {
		t.Error("_r suffix did not reverse the map")
	}
	if _, err := ByName("plasma"); err == nil {
		t.Error("expected error for unknown colormap")
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("turquoise")
	if err != nil || c != Turquoise {
		t.Errorf("ParseColor(turquoise) = %+v, %v", c, err)
	}
	if _, err := ParseColor("red"); err != nil {
		t.Errorf("ParseColor(red): %v", err)
	}
	if c, err := ParseColor("#ff0000"); err != nil || c != gg.Red {
		t.Errorf("ParseColor(#ff0000) = %+v, %v", c, err)
	}
	if _, err := ParseColor("no-such-colour"); err == nil {
		t.Error("expected error for unknown colour")
	}
}
