package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueSortsAndRemovesDuplicates(t *testing.T) {
	points := []Point{
		{X: 2, Y: 0, Z: 0},
		{X: 1, Y: 5, Z: 3},
		{X: 2, Y: 0, Z: 0},
		{X: 1, Y: 5, Z: 2},
		{X: -1, Y: 9, Z: 9},
	}

	unique := Unique(points)

	assert.Equal(t, []Point{
		{X: -1, Y: 9, Z: 9},
		{X: 1, Y: 5, Z: 2},
		{X: 1, Y: 5, Z: 3},
		{X: 2, Y: 0, Z: 0},
	}, unique)
}

func TestBounds(t *testing.T) {
	_, ok := Bounds(nil)
	assert.False(t, ok)

	box, ok := Bounds([]Point{{X: 3, Y: -2, Z: 7}, {X: -1, Y: 4, Z: 7}, {X: 0, Y: 0, Z: 9}})
	require.True(t, ok)
	assert.Equal(t, Point{X: -1, Y: -2, Z: 7}, box.Min)
	assert.Equal(t, Point{X: 3, Y: 4, Z: 9}, box.Max)
	assert.Equal(t, Point{X: 5, Y: 7, Z: 3}, box.Size())
}

func TestAxis(t *testing.T) {
	p := NewPoint(4, 5, 6)
	assert.Equal(t, 4, p.Axis(0))
	assert.Equal(t, 5, p.Axis(1))
	assert.Equal(t, 6, p.Axis(2))
	assert.Equal(t, Point{X: 5, Y: 7, Z: 9}, p.Add(NewPoint(1, 2, 3)))
	assert.Equal(t, Point{X: 3, Y: 3, Z: 3}, p.Sub(NewPoint(1, 2, 3)))
}
