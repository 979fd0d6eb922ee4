package cmap

import "math"

// Normalizer maps data values onto [0,1] for colormap lookup. Values
// outside the range map below 0 or above 1 so over/under colours apply.
type Normalizer interface {
	Normalize(v float64) float64
	// Range returns the data values at t=0 and t=1, for colorbar ticks.
	Range() (vmin, vmax float64)
}

// Linear is a continuous vmin..vmax normalization.
type Linear struct {
	Vmin, Vmax float64
}

func (n Linear) Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	if n.Vmax == n.Vmin {
		return 0.5
	}
	return (v - n.Vmin) / (n.Vmax - n.Vmin)
}

func (n Linear) Range() (float64, float64) {
	return n.Vmin, n.Vmax
}

// Boundary buckets values into discrete bins: a value in
// [Bounds[i], Bounds[i+1]) takes the colour at bin i. Values below the
// first bound normalize below 0, values at or above the last above 1.
type Boundary struct {
	Bounds []float64
}

// DefaultBoundaries is the bin set used for discrete data plots.
func DefaultBoundaries() Boundary {
	return Boundary{Bounds: []float64{0, 5, 10, 15, 20, 30, 40, 80, 120, 200}}
}

func (n Boundary) Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	nb := len(n.Bounds)
	if nb < 2 {
		return math.NaN()
	}
	if v < n.Bounds[0] {
		return -1
	}
	if v >= n.Bounds[nb-1] {
		return 2
	}
	for i := 0; i < nb-1; i++ {
		if v < n.Bounds[i+1] {
			// Bin centre keeps discrete colours away from the map edges.
			return (float64(i) + 0.5) / float64(nb-1)
		}
	}
	return 1
}

func (n Boundary) Range() (float64, float64) {
	if len(n.Bounds) == 0 {
		return 0, 1
	}
	return n.Bounds[0], n.Bounds[len(n.Bounds)-1]
}
