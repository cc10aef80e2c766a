package features

import (
	"fmt"

	"github.com/ecopia-map/lsrn_pcgc/internal/converters/prescale_converter"
	"github.com/ecopia-map/lsrn_pcgc/internal/converters/rational_converter"
	"github.com/ecopia-map/lsrn_pcgc/internal/data"
	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
	"github.com/ecopia-map/lsrn_pcgc/internal/octree/voxel_grid"
)

// Per-class neighbourhood vectors of a coarse point set, with the points they were taken from.
// Class 0 points are bucketed too; the reconstructor carries them over without prediction.
type InferenceSet struct {
	Neighs [octree.NumClasses]*Bucket
	Points [octree.NumClasses][]data.Point
}

// Per-class training pairs for one frame: neighbourhood inputs and child occupancy targets.
// Base holds the downsampled points the pairs were taken from.
type TrainingSet struct {
	Neighs [octree.NumClasses]*Bucket
	Childs [octree.NumClasses]*Bucket
	Base   []data.Point
}

// Count returns the number of training pairs of the given class.
func (s *TrainingSet) Count(class octree.Class) int {
	return s.Neighs[class].Len()
}

// Extend merges other into s class by class.
func (s *TrainingSet) Extend(other *TrainingSet) error {
	for c := 0; c < octree.NumClasses; c++ {
		if err := s.Neighs[c].Extend(other.Neighs[c]); err != nil {
			return err
		}
		if err := s.Childs[c].Extend(other.Childs[c]); err != nil {
			return err
		}
	}
	return nil
}

type Extractor struct {
	ratio  octree.Ratio
	table  *octree.DuplicateTable
	radius int
}

// NewExtractor prepares an extractor for one stage ratio and neighbourhood radius D.
func NewExtractor(ratio octree.Ratio, radius int) (*Extractor, error) {
	if err := ratio.Validate(); err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, fmt.Errorf("%w: neighbourhood radius must be >= 0, got %d", octree.ErrConfig, radius)
	}
	table, err := octree.BuildDuplicateTable(ratio.P, ratio.Q)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		ratio:  ratio,
		table:  table,
		radius: radius,
	}, nil
}

func (e *Extractor) Ratio() octree.Ratio {
	return e.ratio
}

func (e *Extractor) Radius() int {
	return e.radius
}

// NeighbourhoodWidth is (2D+1)^3 - 1.
func NeighbourhoodWidth(radius int) int {
	side := 2*radius + 1
	return side*side*side - 1
}

func newBuckets(width func(octree.Class) int) [octree.NumClasses]*Bucket {
	var buckets [octree.NumClasses]*Bucket
	for c := 0; c < octree.NumClasses; c++ {
		buckets[c] = NewBucket(width(octree.Class(c)))
	}
	return buckets
}

// NewTrainingSet returns an empty set for radius D.
func NewTrainingSet(radius int) *TrainingSet {
	return &TrainingSet{
		Neighs: newBuckets(func(octree.Class) int { return NeighbourhoodWidth(radius) }),
		Childs: newBuckets(func(c octree.Class) int { return c.NumChildren() }),
	}
}

// Inference classifies every base point and buckets its neighbourhood by class.
func (e *Extractor) Inference(base []data.Point) (*InferenceSet, error) {
	set := &InferenceSet{
		Neighs: newBuckets(func(octree.Class) int { return NeighbourhoodWidth(e.radius) }),
	}
	if len(base) == 0 {
		return set, nil
	}

	grid, err := voxel_grid.NewVoxelGrid(base, e.radius)
	if err != nil {
		return nil, err
	}
	for _, p := range base {
		_, class := e.table.Classify(p)
		neigh, err := grid.Neighbourhood(p, e.radius)
		if err != nil {
			return nil, err
		}
		if err := set.Neighs[class].Append(neigh); err != nil {
			return nil, err
		}
		set.Points[class] = append(set.Points[class], p)
	}
	return set, nil
}

// Training derives the base layer of an original frame and the training pairs for every
// ambiguous point in it. The frame is first divided by the pre-scale factor ppqs when ppqs > 1.
// Ratios above 2 are trained as their last 2/1 stage: the original is brought down by ratio/2
// and the base is taken at ratio 2 from there.
func (e *Extractor) Training(original []data.Point, ppqs float32) (*TrainingSet, error) {
	ori := prescale_converter.NewPreScaleConverter(ppqs).Downscale(original)

	stage := e.ratio
	if stage.ExceedsTwo() {
		ori = rational_converter.NewRationalConverter(stage.Halve()).Downscale(ori)
		stage = octree.Ratio{P: 2, Q: 1}
	}
	base := rational_converter.NewRationalConverter(stage).Downscale(ori)

	set := NewTrainingSet(e.radius)
	set.Base = base
	if len(base) == 0 {
		return set, nil
	}

	// child windows reach one cell below round(c*r), which itself may sit one cell off the box
	oriGrid, err := voxel_grid.NewVoxelGrid(ori, 2)
	if err != nil {
		return nil, err
	}
	downGrid, err := voxel_grid.NewVoxelGrid(base, e.radius)
	if err != nil {
		return nil, err
	}

	// the duplicate table of any ratio >= 2 is the 2/1 table
	for _, p := range base {
		child, class := e.table.Classify(p)
		if class == 0 {
			continue
		}
		neigh, err := downGrid.Neighbourhood(p, e.radius)
		if err != nil {
			return nil, err
		}
		fine := rational_converter.UpscalePoint(p, stage)
		childs, err := oriGrid.Children(fine, child)
		if err != nil {
			return nil, err
		}
		if err := set.Neighs[class].Append(neigh); err != nil {
			return nil, err
		}
		if err := set.Childs[class].Append(childs); err != nil {
			return nil, err
		}
	}
	return set, nil
}
