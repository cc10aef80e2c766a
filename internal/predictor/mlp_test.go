package predictor

import (
	"math"
	"testing"

	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestArchitectureNumParams(t *testing.T) {
	f := MLPFactory{Radius: 1, Hidden: 8, NumLayers: 3}

	tests := []struct {
		class    octree.Class
		expected int
	}{
		{class: 1, expected: (8*26 + 8) + (8*8 + 8) + (2*8 + 2)},
		{class: 3, expected: (8*26 + 8) + (8*8 + 8) + (4*8 + 4)},
		{class: 7, expected: (8*26 + 8) + (8*8 + 8) + (8*8 + 8)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, f.ArchitectureFor(tt.class).NumParams(), "class %d", tt.class)
	}
}

func TestMLPReLUForward(t *testing.T) {
	arch := Architecture{DimIn: 2, DimOut: 1, Hidden: 2, NumLayers: 2, Activation: ActivationReLU}
	params := []float32{
		1, 0, 0, 1, // W1
		0, -1, // b1
		1, 1, // W2
		0, // b2
	}
	m, err := NewMLP(arch, params)
	require.NoError(t, err)

	out, err := m.Predict(mat.NewDense(2, 2, []float64{2, 3, -1, 0}))
	require.NoError(t, err)

	rows, cols := out.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1, cols)
	assert.InDelta(t, 1/(1+math.Exp(-4)), out.At(0, 0), 1e-12)
	assert.InDelta(t, 0.5, out.At(1, 0), 1e-12)
}

func TestMLPSineForward(t *testing.T) {
	arch := Architecture{DimIn: 1, DimOut: 1, Hidden: 1, NumLayers: 3, Activation: "Sine"}
	params := []float32{
		1, 0, // first layer, sin(30x)
		1, 0, // hidden layer, sin(x)
		1, 0, // output
	}
	m, err := NewMLP(arch, params)
	require.NoError(t, err)

	out, err := m.Predict(mat.NewDense(1, 1, []float64{math.Pi / 60}))
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-math.Sin(1))), out.At(0, 0), 1e-9)
}

func TestNewMLPRejectsBadWeights(t *testing.T) {
	arch := Architecture{DimIn: 2, DimOut: 1, Hidden: 2, NumLayers: 2}
	_, err := NewMLP(arch, make([]float32, arch.NumParams()-1))
	assert.ErrorIs(t, err, ErrWeights)

	_, err = NewMLP(Architecture{DimIn: 2, DimOut: 1, Hidden: 2, NumLayers: 1}, nil)
	assert.ErrorIs(t, err, ErrWeights)

	m, err := NewMLP(arch, make([]float32, arch.NumParams()))
	require.NoError(t, err)
	_, err = m.Predict(mat.NewDense(1, 3, nil))
	assert.ErrorIs(t, err, ErrWeights)
}

func TestFactory(t *testing.T) {
	f := MLPFactory{Radius: 1, Hidden: 4, NumLayers: 2, Activation: ActivationReLU}

	// 26x4 + 4, then 4x4 + 4
	assert.Equal(t, 128, f.NumParams(5))

	p, err := f.New(5, make([]float32, f.NumParams(5)))
	require.NoError(t, err)
	assert.Equal(t, 26, p.DimIn())
	assert.Equal(t, 4, p.DimOut())

	_, err = f.New(0, nil)
	assert.ErrorIs(t, err, octree.ErrClassification)

	_, err = f.New(8, nil)
	assert.ErrorIs(t, err, octree.ErrClassification)
}
