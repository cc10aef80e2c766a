package algorithm_manager

import (
	"github.com/ecopia-map/lsrn_pcgc/internal/bitstream"
	"github.com/ecopia-map/lsrn_pcgc/internal/external"
	"github.com/ecopia-map/lsrn_pcgc/internal/floatpack"
	"github.com/ecopia-map/lsrn_pcgc/internal/predictor"
)

// Hands out the pluggable parts of the pipeline: the base layer codec, the predictor family,
// the distortion tool and the weight compression codec.
type AlgorithmManager interface {
	GetBaseCodec() external.BaseCodec
	GetPredictorFactory(header *bitstream.Header) predictor.Factory
	GetDistortionTool() *external.PcErrorTool
	GetWeightCodec() floatpack.Codec
}
