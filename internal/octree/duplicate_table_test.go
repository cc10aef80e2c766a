package octree

import (
	"errors"
	"testing"

	"github.com/ecopia-map/lsrn_pcgc/internal/data"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDuplicateTableFixtures(t *testing.T) {
	tests := []struct {
		name string
		p, q int
		xd   []int
		hist []int
		dup  []int
		xCh  []int
	}{
		{name: "3/2", p: 3, q: 2, xd: []int{0, 1, 1}, hist: []int{1, 2, 0}, dup: []int{1}, xCh: []int{-1, 0}},
		{name: "2/1", p: 2, q: 1, xd: []int{0, 0}, hist: []int{2, 0}, dup: []int{0}, xCh: []int{0, 1}},
		{name: "4/3", p: 4, q: 3, xd: []int{0, 1, 2, 2}, hist: []int{1, 1, 2, 0}, dup: []int{2}, xCh: []int{-1, 0}},
		{name: "5/4", p: 5, q: 4, xd: []int{0, 1, 2, 2, 3}, hist: []int{1, 1, 2, 1, 0}, dup: []int{2}, xCh: []int{0, 1}},
		{name: "5/1 normalizes to 2/1", p: 5, q: 1, xd: []int{0, 0}, hist: []int{2, 0}, dup: []int{0}, xCh: []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := BuildDuplicateTable(tt.p, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.xd, table.XD)
			assert.Equal(t, tt.hist, table.Hist)
			assert.Equal(t, tt.dup, table.Dup)
			assert.Equal(t, tt.xCh, table.XCh)
		})
	}
}

func TestDuplicateTableHistogramProperties(t *testing.T) {
	for q := 1; q <= 24; q++ {
		for p := q; p < 2*q; p++ {
			table, err := BuildDuplicateTable(p, q)
			require.NoError(t, err, "ratio %d/%d", p, q)

			assert.Equal(t, p, lo.Sum(table.Hist), "ratio %d/%d", p, q)

			doubled := lo.CountBy(table.XD, func(xd int) bool { return table.Hist[xd] == 2 })
			assert.Equal(t, 2*len(table.Dup), doubled, "ratio %d/%d", p, q)
			assert.Len(t, table.XCh, 2*len(table.Dup))
		}
	}
}

func TestBuildDuplicateTableRejectsBadRatio(t *testing.T) {
	_, err := BuildDuplicateTable(3, 0)
	assert.True(t, errors.Is(err, ErrConfig))

	_, err = BuildDuplicateTable(0, 2)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestClassify(t *testing.T) {
	table, err := BuildDuplicateTable(3, 2)
	require.NoError(t, err)

	tests := []struct {
		name  string
		point data.Point
		child [3]int
		class Class
	}{
		{name: "all even", point: data.NewPoint(0, 2, 4), child: [3]int{0, 0, 0}, class: 0},
		{name: "x odd", point: data.NewPoint(1, 2, 4), child: [3]int{-1, 0, 0}, class: 1},
		{name: "y odd", point: data.NewPoint(0, 3, 4), child: [3]int{0, -1, 0}, class: 2},
		{name: "x and z odd", point: data.NewPoint(5, 2, 7), child: [3]int{-1, 0, -1}, class: 5},
		{name: "all odd", point: data.NewPoint(1, 3, 5), child: [3]int{-1, -1, -1}, class: 7},
		{name: "negative coordinates use non negative remainder", point: data.NewPoint(-1, -2, -3), child: [3]int{-1, 0, -1}, class: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			child, class := table.Classify(tt.point)
			assert.Equal(t, tt.child, child)
			assert.Equal(t, tt.class, class)
		})
	}
}

func TestClassifyRatioTwoIsAlwaysFullyAmbiguous(t *testing.T) {
	table, err := BuildDuplicateTable(2, 1)
	require.NoError(t, err)

	for _, p := range []data.Point{{X: 0, Y: 0, Z: 0}, {X: 3, Y: -7, Z: 11}} {
		child, class := table.Classify(p)
		assert.Equal(t, [3]int{1, 1, 1}, child)
		assert.Equal(t, Class(7), class)
	}
}

func TestClassifyUnitRatioIsNeverAmbiguous(t *testing.T) {
	table, err := BuildDuplicateTable(4, 4)
	require.NoError(t, err)
	assert.Empty(t, table.Dup)

	_, class := table.Classify(data.NewPoint(1, 2, 3))
	assert.Equal(t, Class(0), class)
}
