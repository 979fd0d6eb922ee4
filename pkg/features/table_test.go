package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terrascope/geometry"
)

func square(x, y, size float64) []geometry.Point {
	return []geometry.Point{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
		{X: x, Y: y},
	}
}

// bowtie is the classic self-intersecting quad.
func bowtie() []geometry.Point {
	return []geometry.Point{
		{X: 0, Y: 0},
		{X: 1, Y: 1},
		{X: 1, Y: 0},
		{X: 0, Y: 1},
		{X: 0, Y: 0},
	}
}

func TestFeatureBounds(t *testing.T) {
	f := &Feature{Rings: [][]geometry.Point{square(-50, 66, 2)}}
	b := f.Bounds()
	assert.Equal(t, -50.0, b.Min.X)
	assert.Equal(t, 66.0, b.Min.Y)
	assert.Equal(t, -48.0, b.Max.X)
	assert.Equal(t, 68.0, b.Max.Y)
}

func TestFeatureArea(t *testing.T) {
	f := &Feature{Rings: [][]geometry.Point{
		square(0, 0, 4),
		square(1, 1, 1), // hole
	}}
	assert.InDelta(t, 15.0, f.Area(), 1e-12)
}

func TestValidity(t *testing.T) {
	assert.True(t, validFeature([][]geometry.Point{square(0, 0, 1)}))
	assert.False(t, validFeature([][]geometry.Point{bowtie()}), "self-intersection")
	assert.False(t, validFeature(nil), "no rings")

	// Open ring.
	open := square(0, 0, 1)[:4]
	assert.False(t, validFeature([][]geometry.Point{open}))

	// Degenerate ring with zero area.
	line := []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 0}}
	assert.False(t, validFeature([][]geometry.Point{line}))
}

func TestTableValidAndFilter(t *testing.T) {
	tab := Table{
		Columns: []string{"name"},
		Features: []*Feature{
			{Rings: [][]geometry.Point{square(0, 0, 1)}, Attrs: map[string]string{"name": "a"}, Valid: true},
			{Rings: [][]geometry.Point{bowtie()}, Attrs: map[string]string{"name": "bad"}, Valid: false},
			{Rings: [][]geometry.Point{square(5, 5, 1)}, Attrs: map[string]string{"name": "b"}, Valid: true},
		},
	}
	require.Equal(t, 3, tab.Len())

	valid := tab.Valid()
	require.Equal(t, 2, valid.Len())
	assert.Equal(t, "a", valid.Features[0].Attrs["name"])
	assert.Equal(t, "b", valid.Features[1].Attrs["name"])
	assert.Equal(t, tab.Columns, valid.Columns)

	named := tab.Filter(func(f *Feature) bool { return f.Attrs["name"] == "b" })
	require.Equal(t, 1, named.Len())
}
