package plot

import (
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terrascope/geometry"

	"github.com/atedstone/plotmap/pkg/features"
)

func squareFeature(x, y, size float64) *features.Feature {
	return &features.Feature{
		Rings: [][]geometry.Point{{
			{X: x, Y: y}, {X: x + size, Y: y},
			{X: x + size, Y: y + size}, {X: x, Y: y + size},
			{X: x, Y: y},
		}},
		Valid: true,
	}
}

func TestDrawPolygonsFill(t *testing.T) {
	m := newTestMap(t)
	tab := features.Table{Features: []*features.Feature{
		squareFeature(-51, 66.5, 2),
	}}
	fill := gg.RGBA{R: 0.8, G: 0.2, B: 0.2, A: 1}
	require.NoError(t, m.DrawPolygons(tab, PolygonStyle{Fill: &fill}))
	assert.True(t, paintedInView(m), "filled polygon should paint pixels")
}

func TestDrawPolygonsStrokeDefault(t *testing.T) {
	m := newTestMap(t)
	tab := features.Table{Features: []*features.Feature{
		squareFeature(-50.5, 66.8, 1),
	}}
	// Zero style falls back to a black stroke.
	require.NoError(t, m.DrawPolygons(tab, PolygonStyle{}))
	assert.True(t, paintedInView(m))
}

func TestDrawPolygonsHole(t *testing.T) {
	m := newTestMap(t)
	outer := squareFeature(-51, 66.2, 2)
	hole := []geometry.Point{
		{X: -50.5, Y: 66.7}, {X: -49.5, Y: 66.7},
		{X: -49.5, Y: 67.4}, {X: -50.5, Y: 67.4},
		{X: -50.5, Y: 66.7},
	}
	outer.Rings = append(outer.Rings, hole)
	tab := features.Table{Features: []*features.Feature{outer}}
	fill := gg.RGBA{R: 0.1, G: 0.5, B: 0.1, A: 1}
	stroke := gg.RGBA{A: 1}
	require.NoError(t, m.DrawPolygons(tab, PolygonStyle{Fill: &fill, Stroke: &stroke, LineWidth: 2}))
	assert.True(t, paintedInView(m))
}

func TestDrawPolygonsClipsLargeTables(t *testing.T) {
	m := newTestMap(t)
	// Many squares far outside the extent plus one inside: the indexed
	// path must still draw the one that intersects.
	tab := features.Table{}
	for i := 0; i < 100; i++ {
		tab.Features = append(tab.Features, squareFeature(float64(i), 10, 0.5))
	}
	tab.Features = append(tab.Features, squareFeature(-50.5, 66.8, 1))

	fill := gg.RGBA{R: 0, G: 0, B: 0.9, A: 1}
	require.NoError(t, m.DrawPolygons(tab, PolygonStyle{Fill: &fill}))
	assert.True(t, paintedInView(m))
}

func TestDrawPolygonsEmptyTable(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, m.DrawPolygons(features.Table{}, PolygonStyle{}))
}

func TestDrawShapefileMissing(t *testing.T) {
	m := newTestMap(t)
	assert.Error(t, m.DrawShapefile("testdata/nope.shp", PolygonStyle{}))
}

func TestPolygonStyleNormalized(t *testing.T) {
	s := PolygonStyle{}.normalized()
	require.NotNil(t, s.Stroke)
	assert.Equal(t, gg.Black, *s.Stroke)
	assert.Equal(t, 1.0, s.LineWidth)

	fill := gg.RGBA{R: 1, A: 1}
	s = PolygonStyle{Fill: &fill, LineWidth: 3}.normalized()
	assert.Nil(t, s.Stroke)
	assert.Equal(t, 3.0, s.LineWidth)
}
