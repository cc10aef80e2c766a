package std_algorithm_manager

import (
	"github.com/ecopia-map/lsrn_pcgc/internal/bitstream"
	"github.com/ecopia-map/lsrn_pcgc/internal/enhancer"
	"github.com/ecopia-map/lsrn_pcgc/internal/external"
	"github.com/ecopia-map/lsrn_pcgc/internal/floatpack"
	"github.com/ecopia-map/lsrn_pcgc/internal/predictor"
	"github.com/ecopia-map/lsrn_pcgc/pkg/algorithm_manager"
	"github.com/ecopia-map/lsrn_pcgc/tools"
)

const (
	tmc3Name    = "tmc3"
	pcErrorName = "pc_error"
)

type StandardAlgorithmManager struct {
	options *enhancer.EnhancerOptions
	runner  external.Runner
	logger  *tools.Logger
}

// NewAlgorithmManager wires the external tools named in opts. Tools without an explicit path
// are looked up in tools.GetRootFolder.
func NewAlgorithmManager(opts *enhancer.EnhancerOptions, logger *tools.Logger) algorithm_manager.AlgorithmManager {
	return &StandardAlgorithmManager{
		options: opts,
		runner:  external.NewProcessRunner("", logger.With("exec")),
		logger:  logger,
	}
}

func (m *StandardAlgorithmManager) GetBaseCodec() external.BaseCodec {
	var binary, decodeConfig, encodeConfig string
	if o := m.options.DecodeOptions; o != nil {
		binary, decodeConfig = o.Tmc3Path, o.Tmc3Config
	}
	if o := m.options.PackOptions; o != nil {
		if o.Tmc3Path != "" {
			binary = o.Tmc3Path
		}
		encodeConfig = o.Tmc3Config
	}
	return external.NewTmc3Codec(tools.ToolPath(binary, tmc3Name), decodeConfig, encodeConfig, m.runner, m.logger.With(tmc3Name))
}

func (m *StandardAlgorithmManager) GetPredictorFactory(header *bitstream.Header) predictor.Factory {
	return predictor.MLPFactory{
		Radius:     header.Radius,
		Hidden:     header.BaseChannel,
		NumLayers:  header.NumLayers,
		Activation: header.Activation,
	}
}

func (m *StandardAlgorithmManager) GetDistortionTool() *external.PcErrorTool {
	var binary string
	if o := m.options.DecodeOptions; o != nil {
		binary = o.PcErrorPath
	}
	return external.NewPcErrorTool(tools.ToolPath(binary, pcErrorName), m.runner)
}

// GetWeightCodec returns the codec named in the pack options, zstd when none is given.
func (m *StandardAlgorithmManager) GetWeightCodec() floatpack.Codec {
	if o := m.options.PackOptions; o != nil && o.Codec != "" {
		if codec, err := floatpack.ParseCodec(o.Codec); err == nil {
			return codec
		}
	}
	return floatpack.CodecZSTD
}
