package predictor

import (
	"fmt"
	"math"

	"github.com/ecopia-map/lsrn_pcgc/internal/features"
	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
	"gonum.org/v1/gonum/mat"
)

const (
	ActivationSine = "Sine"
	ActivationReLU = "ReLU"

	// frequency of the first sine layer
	sineW0 = 30.0
)

// Layer sizes of a fully connected predictor:
// Linear(DimIn, Hidden), (NumLayers-2) x Linear(Hidden, Hidden), Linear(Hidden, DimOut).
// Hidden layers use Activation, any value other than "ReLU" meaning sine. The output is a sigmoid.
type Architecture struct {
	DimIn      int
	DimOut     int
	Hidden     int
	NumLayers  int
	Activation string
}

func (a Architecture) Validate() error {
	if a.NumLayers < 2 {
		return fmt.Errorf("%w: need at least 2 layers, got %d", ErrWeights, a.NumLayers)
	}
	if a.DimIn < 1 || a.DimOut < 1 || a.Hidden < 1 {
		return fmt.Errorf("%w: non-positive layer size in %+v", ErrWeights, a)
	}
	return nil
}

// shapes returns (out, in) for every linear layer
func (a Architecture) shapes() [][2]int {
	shapes := make([][2]int, 0, a.NumLayers)
	shapes = append(shapes, [2]int{a.Hidden, a.DimIn})
	for i := 0; i < a.NumLayers-2; i++ {
		shapes = append(shapes, [2]int{a.Hidden, a.Hidden})
	}
	return append(shapes, [2]int{a.DimOut, a.Hidden})
}

// NumParams is the length of the flattened parameter vector.
func (a Architecture) NumParams() int {
	n := 0
	for _, s := range a.shapes() {
		n += s[0]*s[1] + s[0]
	}
	return n
}

func (a Architecture) relu() bool {
	return a.Activation == ActivationReLU
}

// Fully connected network evaluated on CPU
type MLP struct {
	arch    Architecture
	weights []*mat.Dense // out x in
	biases  []*mat.VecDense
}

// NewMLP loads a flattened parameter vector laid out layer by layer, each layer as its weight
// matrix (out x in, row-major) followed by its bias.
func NewMLP(arch Architecture, params []float32) (*MLP, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	if len(params) != arch.NumParams() {
		return nil, fmt.Errorf("%w: expected %d parameters, got %d", ErrWeights, arch.NumParams(), len(params))
	}

	m := &MLP{arch: arch}
	k := 0
	for _, s := range arch.shapes() {
		out, in := s[0], s[1]
		w := make([]float64, out*in)
		for i := range w {
			w[i] = float64(params[k+i])
		}
		k += out * in
		b := make([]float64, out)
		for i := range b {
			b[i] = float64(params[k+i])
		}
		k += out
		m.weights = append(m.weights, mat.NewDense(out, in, w))
		m.biases = append(m.biases, mat.NewVecDense(out, b))
	}
	return m, nil
}

func (m *MLP) DimIn() int {
	return m.arch.DimIn
}

func (m *MLP) DimOut() int {
	return m.arch.DimOut
}

func (m *MLP) Architecture() Architecture {
	return m.arch
}

func (m *MLP) Predict(inputs *mat.Dense) (*mat.Dense, error) {
	rows, cols := inputs.Dims()
	if cols != m.arch.DimIn {
		return nil, fmt.Errorf("%w: input width %d, network expects %d", ErrWeights, cols, m.arch.DimIn)
	}

	var x mat.Matrix = inputs
	last := len(m.weights) - 1
	for l, w := range m.weights {
		out, _ := w.Dims()
		h := mat.NewDense(rows, out, nil)
		h.Mul(x, w.T())
		bias := m.biases[l]
		h.Apply(func(_, j int, v float64) float64 {
			v += bias.AtVec(j)
			switch {
			case l == last:
				return sigmoid(v)
			case m.arch.relu():
				return math.Max(0, v)
			case l == 0:
				return math.Sin(sineW0 * v)
			default:
				return math.Sin(v)
			}
		}, h)
		x = h
	}
	return x.(*mat.Dense), nil
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

// Builds MLPs sharing the network shape recorded in the bitstream header
type MLPFactory struct {
	Radius     int
	Hidden     int
	NumLayers  int
	Activation string
}

// ArchitectureFor returns the architecture of the given class.
func (f MLPFactory) ArchitectureFor(class octree.Class) Architecture {
	return Architecture{
		DimIn:      features.NeighbourhoodWidth(f.Radius),
		DimOut:     class.NumChildren(),
		Hidden:     f.Hidden,
		NumLayers:  f.NumLayers,
		Activation: f.Activation,
	}
}

func (f MLPFactory) NumParams(class octree.Class) int {
	return f.ArchitectureFor(class).NumParams()
}

func (f MLPFactory) New(class octree.Class, params []float32) (Predictor, error) {
	if !class.Valid() || class == 0 {
		return nil, fmt.Errorf("%w: no predictor for class %d", octree.ErrClassification, class)
	}
	return NewMLP(f.ArchitectureFor(class), params)
}
