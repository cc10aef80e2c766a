package voxel_grid

import (
	"testing"

	"github.com/ecopia-map/lsrn_pcgc/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVoxelGridRecordsOriginAndSize(t *testing.T) {
	points := []data.Point{{X: 10, Y: 20, Z: 30}, {X: 12, Y: 20, Z: 31}, {X: 10, Y: 20, Z: 30}}

	grid, err := NewVoxelGrid(points, 2)
	require.NoError(t, err)

	assert.Equal(t, data.Point{X: 8, Y: 18, Z: 28}, grid.Origin())
	assert.Equal(t, data.Point{X: 7, Y: 5, Z: 6}, grid.Size())
	assert.Equal(t, 2, grid.Margin())
	assert.Equal(t, 2, grid.NumberOfPoints())
	assert.True(t, grid.IsOccupied(data.Point{X: 12, Y: 20, Z: 31}))
	assert.False(t, grid.IsOccupied(data.Point{X: 11, Y: 20, Z: 31}))
	assert.False(t, grid.IsOccupied(data.Point{X: 100, Y: 0, Z: 0}))
}

func TestNewVoxelGridRejectsEmptySet(t *testing.T) {
	_, err := NewVoxelGrid(nil, 1)
	assert.ErrorIs(t, err, ErrEmptyPointSet)
}

func TestNeighbourhoodRemovesCenter(t *testing.T) {
	center := data.Point{X: 5, Y: 5, Z: 5}
	points := []data.Point{
		center,
		{X: 4, Y: 4, Z: 4}, // first cell of the window
		{X: 6, Y: 6, Z: 6}, // last cell of the window
		{X: 5, Y: 5, Z: 6}, // right after the centre
	}

	grid, err := NewVoxelGrid(points, 1)
	require.NoError(t, err)

	window, err := grid.Neighbourhood(center, 1)
	require.NoError(t, err)
	require.Len(t, window, 26)

	expected := make([]uint8, 26)
	expected[0] = 1
	expected[25] = 1
	expected[13] = 1 // index 14 in the full cube, shifted by the removed centre
	assert.Equal(t, expected, window)
}

func TestNeighbourhoodStaysInBoundsWithMarginD(t *testing.T) {
	points := []data.Point{{X: 0, Y: 0, Z: 0}, {X: 3, Y: 1, Z: 2}}
	grid, err := NewVoxelGrid(points, 2)
	require.NoError(t, err)

	for _, p := range points {
		window, err := grid.Neighbourhood(p, 2)
		require.NoError(t, err)
		assert.Len(t, window, 124)
	}

	_, err = grid.Neighbourhood(data.Point{X: 0, Y: 0, Z: 0}, 3)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestChildrenSpans(t *testing.T) {
	points := []data.Point{{X: 1, Y: 1, Z: 1}, {X: 2, Y: 2, Z: 2}, {X: 2, Y: 1, Z: 2}}
	grid, err := NewVoxelGrid(points, 1)
	require.NoError(t, err)

	tests := []struct {
		name     string
		child    [3]int
		expected []uint8
	}{
		{name: "no ambiguity", child: [3]int{0, 0, 0}, expected: []uint8{1}},
		{name: "x ambiguous", child: [3]int{-1, 0, 0}, expected: []uint8{0, 1}},
		{name: "y ambiguous", child: [3]int{0, 1, 0}, expected: []uint8{1, 1}},
		{
			name:     "all ambiguous",
			child:    [3]int{-1, -1, -1},
			expected: []uint8{1, 0, 0, 0, 0, 1, 0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			children, err := grid.Children(data.Point{X: 2, Y: 2, Z: 2}, tt.child)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, children)
		})
	}
}
