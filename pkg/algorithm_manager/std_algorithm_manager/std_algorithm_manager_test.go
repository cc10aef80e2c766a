package std_algorithm_manager

import (
	"path/filepath"
	"testing"

	"github.com/ecopia-map/lsrn_pcgc/internal/bitstream"
	"github.com/ecopia-map/lsrn_pcgc/internal/enhancer"
	"github.com/ecopia-map/lsrn_pcgc/internal/external"
	"github.com/ecopia-map/lsrn_pcgc/internal/floatpack"
	"github.com/ecopia-map/lsrn_pcgc/internal/predictor"
	"github.com/ecopia-map/lsrn_pcgc/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightCodec(t *testing.T) {
	tests := []struct {
		name     string
		opts     *enhancer.EnhancerOptions
		expected floatpack.Codec
	}{
		{name: "no pack options", opts: &enhancer.EnhancerOptions{}, expected: floatpack.CodecZSTD},
		{name: "lz4", opts: &enhancer.EnhancerOptions{PackOptions: &enhancer.PackOptions{Codec: "lz4"}}, expected: floatpack.CodecLZ4},
		{name: "none", opts: &enhancer.EnhancerOptions{PackOptions: &enhancer.PackOptions{Codec: "none"}}, expected: floatpack.CodecNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAlgorithmManager(tt.opts, tools.NewLogger("test"))
			assert.Equal(t, tt.expected, m.GetWeightCodec())
		})
	}
}

func TestPredictorFactoryFollowsHeader(t *testing.T) {
	m := NewAlgorithmManager(&enhancer.EnhancerOptions{}, tools.NewLogger("test"))
	factory := m.GetPredictorFactory(&bitstream.Header{Activation: "Sine", Radius: 2, BaseChannel: 16, NumLayers: 3})

	mlpFactory, ok := factory.(predictor.MLPFactory)
	require.True(t, ok)
	arch := mlpFactory.ArchitectureFor(5)
	assert.Equal(t, predictor.Architecture{DimIn: 124, DimOut: 4, Hidden: 16, NumLayers: 3, Activation: "Sine"}, arch)
}

func TestToolsDefaultToWorkdir(t *testing.T) {
	t.Setenv(tools.WorkdirEnv, "/work")

	m := NewAlgorithmManager(&enhancer.EnhancerOptions{DecodeOptions: &enhancer.DecodeOptions{Tmc3Config: "dec.cfg"}}, tools.NewLogger("test"))
	codec, ok := m.GetBaseCodec().(*external.Tmc3Codec)
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/work", "tmc3"), codec.Binary)
	assert.Equal(t, "dec.cfg", codec.DecodeConfig)
	assert.Equal(t, filepath.Join("/work", "pc_error"), m.GetDistortionTool().Binary)

	m = NewAlgorithmManager(&enhancer.EnhancerOptions{
		DecodeOptions: &enhancer.DecodeOptions{PcErrorPath: "/bin/pc_error"},
		PackOptions:   &enhancer.PackOptions{Tmc3Path: "/bin/tmc3", Tmc3Config: "enc.cfg"},
	}, tools.NewLogger("test"))
	codec = m.GetBaseCodec().(*external.Tmc3Codec)
	assert.Equal(t, "/bin/tmc3", codec.Binary)
	assert.Equal(t, "enc.cfg", codec.EncodeConfig)
	assert.Equal(t, "/bin/pc_error", m.GetDistortionTool().Binary)
}
