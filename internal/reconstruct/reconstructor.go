package reconstruct

import (
	"fmt"

	"github.com/ecopia-map/lsrn_pcgc/internal/converters/prescale_converter"
	"github.com/ecopia-map/lsrn_pcgc/internal/converters/rational_converter"
	"github.com/ecopia-map/lsrn_pcgc/internal/data"
	"github.com/ecopia-map/lsrn_pcgc/internal/features"
	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
	"github.com/ecopia-map/lsrn_pcgc/internal/predictor"
	"github.com/ecopia-map/lsrn_pcgc/tools"
)

// occupancy probability at or above which a candidate child is kept
const Threshold = 0.5

// StageObserver is called after every stage with its index, ratio and point counts.
type StageObserver func(stage int, ratio octree.Ratio, pointsIn, pointsOut int)

type Option func(*Reconstructor)

func WithObserver(observer StageObserver) Option {
	return func(r *Reconstructor) {
		r.observer = observer
	}
}

// Refines a base point cloud to the target resolution. The ratio is applied as a sequence of
// stages (see octree.Ratio.Stages); each stage reclassifies its input, predicts the children of
// ambiguous points, expands them and merges everything into a sorted, de-duplicated set.
// A Reconstructor holds no per-frame state and may be reused across frames.
type Reconstructor struct {
	ratio      octree.Ratio
	radius     int
	ppqs       float32
	predictors map[octree.Class]predictor.Predictor
	logger     *tools.Logger
	observer   StageObserver
}

func NewReconstructor(
	ratio octree.Ratio,
	radius int,
	ppqs float32,
	predictors map[octree.Class]predictor.Predictor,
	logger *tools.Logger,
	opts ...Option,
) (*Reconstructor, error) {
	if err := ratio.Validate(); err != nil {
		return nil, err
	}
	r := &Reconstructor{
		ratio:      ratio,
		radius:     radius,
		ppqs:       ppqs,
		predictors: predictors,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Reconstruct runs every stage on the base points and undoes the pre-scale factor.
func (r *Reconstructor) Reconstruct(base []data.Point) ([]data.Point, error) {
	points := data.Unique(base)
	for i, stage := range r.ratio.Stages() {
		out, err := r.runStage(stage, points)
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, stage, err)
		}
		r.logger.Infof("stage %d ratio %s: %d -> %d points", i, stage, len(points), len(out))
		if r.observer != nil {
			r.observer(i, stage, len(points), len(out))
		}
		points = out
	}

	prescale := prescale_converter.NewPreScaleConverter(r.ppqs)
	if !prescale.IsIdentity() {
		points = data.Unique(prescale.Upscale(points))
	}
	return points, nil
}

func (r *Reconstructor) runStage(stage octree.Ratio, points []data.Point) ([]data.Point, error) {
	extractor, err := features.NewExtractor(stage, r.radius)
	if err != nil {
		return nil, err
	}
	set, err := extractor.Inference(points)
	if err != nil {
		return nil, err
	}
	converter := rational_converter.NewRationalConverter(stage)

	out := make([]data.Point, 0, len(points)*2)
	for c := 0; c < octree.NumClasses; c++ {
		class := octree.Class(c)
		classPoints := set.Points[class]
		if len(classPoints) == 0 {
			continue
		}
		if class == 0 {
			out = append(out, converter.Upscale(classPoints)...)
			continue
		}

		model, ok := r.predictors[class]
		if !ok {
			r.logger.Warningf("no predictor for class %d at ratio %s, upscaling %d points without refinement",
				class, stage, len(classPoints))
			out = append(out, converter.Upscale(classPoints)...)
			continue
		}

		probs, err := model.Predict(set.Neighs[class].Stack())
		if err != nil {
			return nil, fmt.Errorf("class %d: %w", class, err)
		}
		rows, cols := probs.Dims()
		if rows != len(classPoints) || cols != class.NumChildren() {
			return nil, fmt.Errorf("%w: class %d predictor returned %dx%d for %d points with %d children",
				predictor.ErrWeights, class, rows, cols, len(classPoints), class.NumChildren())
		}

		for i, p := range classPoints {
			children, err := Expand(rational_converter.UpscalePoint(p, stage), class, probs.RawRowView(i))
			if err != nil {
				r.logger.Errorf("skipping point %v: %v", p, err)
				continue
			}
			out = append(out, children...)
		}
	}
	return data.Unique(out), nil
}

// Expand returns the fine children of a point whose upscaled position is fine, given the
// predicted probabilities of its candidate children.
func Expand(fine data.Point, class octree.Class, probs []float64) ([]data.Point, error) {
	if !class.Valid() {
		return nil, fmt.Errorf("%w: class %d", octree.ErrClassification, class)
	}
	offsets := class.ChildOffsets()
	if len(probs) != len(offsets) {
		return nil, fmt.Errorf("%w: %d probabilities for %d children of class %d",
			octree.ErrClassification, len(probs), len(offsets), class)
	}

	selected := Select(probs)
	children := make([]data.Point, len(selected))
	for i, k := range selected {
		children[i] = fine.Add(offsets[k])
	}
	return children, nil
}

// Select returns the indices of the kept children. When any probability reaches Threshold every
// such child is kept; otherwise only the most probable child is, the first one on ties, so a
// point always yields at least one child.
func Select(probs []float64) []int {
	if len(probs) == 0 {
		return nil
	}
	best := 0
	for i, v := range probs {
		if v > probs[best] {
			best = i
		}
	}
	if probs[best] < Threshold {
		return []int{best}
	}

	selected := make([]int, 0, len(probs))
	for i, v := range probs {
		if v >= Threshold {
			selected = append(selected, i)
		}
	}
	return selected
}
