package data

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
)

// Contains a point of a voxelized point cloud, namely its integer X,Y,Z lattice coords
type Point struct {
	X int
	Y int
	Z int
}

// Builds a new Point from the given lattice coordinates
func NewPoint(x, y, z int) Point {
	return Point{X: x, Y: y, Z: z}
}

// Axis returns the coordinate along axis k (0 = x, 1 = y, 2 = z).
func (p Point) Axis(k int) int {
	switch k {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// Compare orders points lexicographically on x, then y, then z.
func Compare(a, b Point) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Z, b.Z)
}

// Axis aligned integer box, both corners inclusive
type BoundingBox struct {
	Min Point
	Max Point
}

// Size returns the number of lattice cells along each axis.
func (b BoundingBox) Size() Point {
	return Point{X: b.Max.X - b.Min.X + 1, Y: b.Max.Y - b.Min.Y + 1, Z: b.Max.Z - b.Min.Z + 1}
}

// Bounds computes the bounding box of the given points. ok is false for an empty set.
func Bounds(points []Point) (box BoundingBox, ok bool) {
	if len(points) == 0 {
		return BoundingBox{}, false
	}
	box.Min, box.Max = points[0], points[0]
	for _, p := range points[1:] {
		box.Min.X = min(box.Min.X, p.X)
		box.Min.Y = min(box.Min.Y, p.Y)
		box.Min.Z = min(box.Min.Z, p.Z)
		box.Max.X = max(box.Max.X, p.X)
		box.Max.Y = max(box.Max.Y, p.Y)
		box.Max.Z = max(box.Max.Z, p.Z)
	}
	return box, true
}

// Unique removes repeated coordinates and returns the points sorted lexicographically,
// so two equal sets always produce identical slices.
func Unique(points []Point) []Point {
	unique := lo.Uniq(points)
	slices.SortFunc(unique, Compare)
	return unique
}
