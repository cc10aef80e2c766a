package voxel_grid

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/ecopia-map/lsrn_pcgc/internal/data"
)

var (
	ErrEmptyPointSet = errors.New("voxel grid needs at least one point")
	ErrOutOfBounds   = errors.New("query window leaves the allocated grid")
)

// Models a boolean occupancy volume over the bounding box of a point set, enlarged by a margin on
// every side. Coordinates are translated through the stored minimum corner. Occupied cells are
// kept in a roaring bitmap keyed by the linear cell index, so only occupancy costs memory.
// A grid is never mutated after construction.
type VoxelGrid struct {
	origin         data.Point // lattice coordinate of cell (0,0,0)
	size           data.Point // allocated cells along each axis
	margin         int
	cells          *roaring64.Bitmap
	numberOfPoints int
}

// Builds a grid over the given points. Use margin 2 for child lookups and margin D for
// neighbourhood queries of radius D, so every query centred on an input point stays in bounds.
func NewVoxelGrid(points []data.Point, margin int) (*VoxelGrid, error) {
	box, ok := data.Bounds(points)
	if !ok {
		return nil, ErrEmptyPointSet
	}
	if margin < 0 {
		return nil, fmt.Errorf("negative voxel grid margin %d", margin)
	}

	m := data.Point{X: margin, Y: margin, Z: margin}
	size := box.Size()
	grid := &VoxelGrid{
		origin: box.Min.Sub(m),
		size:   data.Point{X: size.X + 2*margin, Y: size.Y + 2*margin, Z: size.Z + 2*margin},
		margin: margin,
		cells:  roaring64.New(),
	}

	for _, p := range points {
		index, _ := grid.cellIndex(p)
		grid.cells.Add(index)
	}
	grid.cells.RunOptimize()
	grid.numberOfPoints = int(grid.cells.GetCardinality())

	return grid, nil
}

func (g *VoxelGrid) Origin() data.Point {
	return g.origin
}

func (g *VoxelGrid) Size() data.Point {
	return g.size
}

func (g *VoxelGrid) Margin() int {
	return g.margin
}

// NumberOfPoints returns the number of occupied cells.
func (g *VoxelGrid) NumberOfPoints() int {
	return g.numberOfPoints
}

// IsOccupied reports whether the lattice point falls in an occupied cell. Points outside the
// allocated volume are never occupied.
func (g *VoxelGrid) IsOccupied(p data.Point) bool {
	index, ok := g.cellIndex(p)
	return ok && g.cells.Contains(index)
}

// Neighbourhood returns the occupancy of the (2*radius+1)^3 cube centred on center, flattened
// x-major with z fastest, with the centre cell removed.
func (g *VoxelGrid) Neighbourhood(center data.Point, radius int) ([]uint8, error) {
	side := 2*radius + 1
	corner := center.Sub(data.Point{X: radius, Y: radius, Z: radius})
	window, err := g.Window(corner, [3]int{side, side, side})
	if err != nil {
		return nil, err
	}

	middle := len(window) / 2
	return append(window[:middle], window[middle+1:]...), nil
}

// Children returns the occupancy of the candidate children of the fine position. Along axis k the
// window spans one cell at fine[k] when child[k] is 0, else the two cells fine[k]-1 and fine[k].
// The result has 2^(number of ambiguous axes) entries in the class corner order.
func (g *VoxelGrid) Children(fine data.Point, child [3]int) ([]uint8, error) {
	var spans [3]int
	var lo [3]int
	for k := 0; k < 3; k++ {
		spans[k] = 1
		lo[k] = fine.Axis(k)
		if child[k] != 0 {
			spans[k] = 2
			lo[k]--
		}
	}
	return g.Window(data.Point{X: lo[0], Y: lo[1], Z: lo[2]}, spans)
}

// Window reads the occupancy of the box starting at corner with the given per-axis spans,
// flattened x-major with z fastest. The whole box must lie in the allocated volume.
func (g *VoxelGrid) Window(corner data.Point, spans [3]int) ([]uint8, error) {
	last := corner.Add(data.Point{X: spans[0] - 1, Y: spans[1] - 1, Z: spans[2] - 1})
	if !g.contains(corner) || !g.contains(last) {
		return nil, fmt.Errorf("%w: window %v..%v, grid %v..%v",
			ErrOutOfBounds, corner, last, g.origin, g.origin.Add(g.size).Sub(data.Point{X: 1, Y: 1, Z: 1}))
	}

	window := make([]uint8, 0, spans[0]*spans[1]*spans[2])
	for dx := 0; dx < spans[0]; dx++ {
		for dy := 0; dy < spans[1]; dy++ {
			for dz := 0; dz < spans[2]; dz++ {
				index, _ := g.cellIndex(corner.Add(data.Point{X: dx, Y: dy, Z: dz}))
				if g.cells.Contains(index) {
					window = append(window, 1)
				} else {
					window = append(window, 0)
				}
			}
		}
	}
	return window, nil
}

func (g *VoxelGrid) contains(p data.Point) bool {
	local := p.Sub(g.origin)
	return local.X >= 0 && local.X < g.size.X &&
		local.Y >= 0 && local.Y < g.size.Y &&
		local.Z >= 0 && local.Z < g.size.Z
}

// returns the linear index of the cell holding p
func (g *VoxelGrid) cellIndex(p data.Point) (uint64, bool) {
	if !g.contains(p) {
		return 0, false
	}
	local := p.Sub(g.origin)
	index := (uint64(local.X)*uint64(g.size.Y)+uint64(local.Y))*uint64(g.size.Z) + uint64(local.Z)
	return index, true
}
