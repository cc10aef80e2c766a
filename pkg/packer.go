package pkg

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/ecopia-map/lsrn_pcgc/internal/bitstream"
	"github.com/ecopia-map/lsrn_pcgc/internal/enhancer"
	"github.com/ecopia-map/lsrn_pcgc/internal/floatpack"
	"github.com/ecopia-map/lsrn_pcgc/internal/io"
	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
	"github.com/ecopia-map/lsrn_pcgc/pkg/algorithm_manager"
	"github.com/ecopia-map/lsrn_pcgc/tools"
)

// Assembles a bitstream from base layer payloads and trained predictor weights
type Packer struct {
	algorithmManager algorithm_manager.AlgorithmManager
	logger           *tools.Logger
}

func NewPacker(algorithmManager algorithm_manager.AlgorithmManager, logger *tools.Logger) IEnhancer {
	return &Packer{
		algorithmManager: algorithmManager,
		logger:           logger.With("pack"),
	}
}

func (p *Packer) Run(ctx context.Context, opts *enhancer.EnhancerOptions) error {
	packOpts := opts.PackOptions
	if packOpts == nil {
		return fmt.Errorf("%w: missing pack options", octree.ErrConfig)
	}

	stream := &bitstream.Stream{
		Activation:  packOpts.Activation,
		PPQS:        packOpts.PPQS,
		Ratio:       packOpts.Ratio,
		Radius:      packOpts.Radius,
		BaseChannel: packOpts.BaseChannel,
		NumLayers:   packOpts.NumLayers,
	}

	models, err := p.packModels(stream.Header(), packOpts.Weights)
	if err != nil {
		return err
	}
	stream.Models = models

	frames, err := p.collectFrames(ctx, packOpts)
	if err != nil {
		return err
	}
	stream.Frames = frames

	f, err := os.Create(opts.Output)
	if err != nil {
		return err
	}
	if err := bitstream.Write(f, stream); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	p.logger.Infof("> wrote %s: %d models, %d frames", opts.Output, len(stream.Models), len(stream.Frames))
	return nil
}

// packModels compresses the weight file of every class, in class order. The parameter count
// must match the architecture the header declares.
func (p *Packer) packModels(header *bitstream.Header, weights map[octree.Class]string) ([]bitstream.Model, error) {
	factory := p.algorithmManager.GetPredictorFactory(header)
	codec := p.algorithmManager.GetWeightCodec()

	classes := make([]octree.Class, 0, len(weights))
	for class := range weights {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	models := make([]bitstream.Model, 0, len(classes))
	for _, class := range classes {
		raw, err := os.ReadFile(weights[class])
		if err != nil {
			return nil, err
		}
		params, err := floatpack.DecodeRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("class %d weights %s: %w", class, weights[class], err)
		}
		// building the predictor checks the parameter count
		if _, err := factory.New(class, params); err != nil {
			return nil, fmt.Errorf("class %d weights %s: %w", class, weights[class], err)
		}
		blob, err := floatpack.Pack(params, codec)
		if err != nil {
			return nil, err
		}
		p.logger.Infof("class %d: %d parameters, %d -> %d bytes (%s)", class, len(params), len(raw), len(blob), codec)
		models = append(models, bitstream.Model{Class: class, Blob: blob})
	}
	return models, nil
}

// collectFrames returns the given payloads followed by the base frames encoded with the base codec.
func (p *Packer) collectFrames(ctx context.Context, packOpts *enhancer.PackOptions) ([][]byte, error) {
	frames := make([][]byte, 0, len(packOpts.Frames)+len(packOpts.BaseFrames))
	for _, path := range packOpts.Frames {
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		frames = append(frames, payload)
	}

	if len(packOpts.BaseFrames) > 0 {
		codec := p.algorithmManager.GetBaseCodec()
		for _, path := range packOpts.BaseFrames {
			points, err := io.ReadPly(path)
			if err != nil {
				return nil, err
			}
			payload, err := codec.Encode(ctx, points)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", path, err)
			}
			p.logger.Infof("encoded %s: %d points -> %d bytes", path, len(points), len(payload))
			frames = append(frames, payload)
		}
	}
	return frames, nil
}
