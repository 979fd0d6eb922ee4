package features

import (
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRings(t *testing.T) {
	// One record with two parts: an outer square and an inner square.
	poly := &shp.Polygon{
		NumParts:  2,
		NumPoints: 10,
		Parts:     []int32{0, 5},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 0, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 0}, {X: 0, Y: 0},
			{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 1}, {X: 1, Y: 1},
		},
	}

	rings := splitRings(poly)
	require.Len(t, rings, 2)
	assert.Len(t, rings[0], 5)
	assert.Len(t, rings[1], 5)
	assert.Equal(t, 4.0, rings[0][2].X)
	assert.Equal(t, 2.0, rings[1][2].Y)

	assert.True(t, validFeature(rings))
}

func TestSplitRingsSinglePart(t *testing.T) {
	poly := &shp.Polygon{
		NumParts:  1,
		NumPoints: 4,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0},
		},
	}
	rings := splitRings(poly)
	require.Len(t, rings, 1)
	assert.Len(t, rings[0], 4)
}

func TestLoadShapefileMissing(t *testing.T) {
	_, err := LoadShapefile("testdata/does-not-exist")
	assert.Error(t, err)
}
