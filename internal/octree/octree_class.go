package octree

import (
	"errors"
	"math/bits"

	"github.com/ecopia-map/lsrn_pcgc/internal/data"
)

// Number of octree branch classes, one per subset of ambiguous axes
const NumClasses = 8

// ErrClassification is reported for a class code outside 0..7. It only affects the offending point.
var ErrClassification = errors.New("octree class out of range")

// Models the octree branch class of a coarse point: a 3-bit mask where bit k (weights 1, 2, 4 for
// x, y, z) is set iff the point is ambiguous along axis k at the current ratio.
// Class 0 maps to exactly one fine child, class 7 to the eight corners of the unit cube.
type Class uint8

// Returns the class of a point given its per-axis ambiguity offsets
func ClassFromChild(child [3]int) Class {
	var result Class = 0
	if child[0] != 0 {
		result += 1
	}
	if child[1] != 0 {
		result += 2
	}
	if child[2] != 0 {
		result += 4
	}
	return result
}

func (c Class) Valid() bool {
	return c < NumClasses
}

// HasAxis reports whether axis k is ambiguous for this class.
func (c Class) HasAxis(k int) bool {
	return c&(1<<uint(k)) != 0
}

// Popcount returns the number of ambiguous axes.
func (c Class) Popcount() int {
	return bits.OnesCount8(uint8(c))
}

// NumChildren returns the number of candidate fine children: 1, 2, 4 or 8.
func (c Class) NumChildren() int {
	return 1 << uint(c.Popcount())
}

// ChildOffsets returns the corner offsets of the candidate children relative to the upscaled
// position of the coarse point. An ambiguous axis spans {-1, 0}, any other axis {0}; cells are
// listed in x-major raster order with z varying fastest, the same order used for child patterns.
func (c Class) ChildOffsets() []data.Point {
	spans := [3][]int{}
	for k := 0; k < 3; k++ {
		if c.HasAxis(k) {
			spans[k] = []int{-1, 0}
		} else {
			spans[k] = []int{0}
		}
	}

	offsets := make([]data.Point, 0, c.NumChildren())
	for _, dx := range spans[0] {
		for _, dy := range spans[1] {
			for _, dz := range spans[2] {
				offsets = append(offsets, data.Point{X: dx, Y: dy, Z: dz})
			}
		}
	}
	return offsets
}
