package predictor

import (
	"errors"

	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
	"gonum.org/v1/gonum/mat"
)

// ErrWeights marks a parameter vector that does not fit the declared architecture.
var ErrWeights = errors.New("predictor weights do not match the architecture")

// Maps a batch of neighbourhood vectors (rows x DimIn) to child occupancy probabilities
// (rows x DimOut), one column per candidate child in the class corner order.
type Predictor interface {
	Predict(inputs *mat.Dense) (*mat.Dense, error)
	DimIn() int
	DimOut() int
}

// Builds the predictor of one octree class from its decoded parameter vector
type Factory interface {
	New(class octree.Class, params []float32) (Predictor, error)
	// NumParams is the length of the parameter vector New expects for class.
	NumParams(class octree.Class) int
}
