package pkg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ecopia-map/lsrn_pcgc/internal/bitstream"
	"github.com/ecopia-map/lsrn_pcgc/internal/enhancer"
	"github.com/ecopia-map/lsrn_pcgc/internal/floatpack"
	"github.com/ecopia-map/lsrn_pcgc/internal/io"
	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
	"github.com/ecopia-map/lsrn_pcgc/internal/predictor"
	"github.com/ecopia-map/lsrn_pcgc/internal/reconstruct"
	"github.com/ecopia-map/lsrn_pcgc/pkg/algorithm_manager"
	"github.com/ecopia-map/lsrn_pcgc/tools"
)

type Decoder struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
	logger           *tools.Logger
}

func NewDecoder(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager, logger *tools.Logger) IEnhancer {
	return &Decoder{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
		logger:           logger.With("decode"),
	}
}

// Run decodes every frame of the bitstream in opts.Input, refines it and writes the result
// under opts.Output. With a ground truth every written frame is evaluated with pc_error.
func (d *Decoder) Run(ctx context.Context, opts *enhancer.EnhancerOptions) error {
	d.logger.Infof("reading bitstream %s", opts.Input)
	stream, err := readStream(opts.Input)
	if err != nil {
		return err
	}
	d.logger.Infof("header %s", tools.FmtJSONString(stream.Header()))

	predictors, err := d.loadPredictors(stream)
	if err != nil {
		return err
	}
	reconstructor, err := reconstruct.NewReconstructor(stream.Ratio, stream.Radius, stream.PPQS, predictors, d.logger)
	if err != nil {
		return err
	}

	outputs, err := FrameOutputPaths(opts.Input, opts.Output, len(stream.Frames))
	if err != nil {
		return err
	}

	codec := d.algorithmManager.GetBaseCodec()
	for i, payload := range stream.Frames {
		d.logger.Infof("decoding frame %d/%d", i+1, len(stream.Frames))
		base, err := codec.Decode(ctx, payload)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		points, err := reconstructor.Reconstruct(base)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if err := io.WritePly(outputs[i], points); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		d.logger.Infof("> frame %d: %d base points, %d reconstructed points -> %s", i, len(base), len(points), outputs[i])
	}

	if opts.DecodeOptions != nil && opts.DecodeOptions.GroundTruth != "" {
		evaluator := NewEvaluator(d.fileFinder, d.algorithmManager.GetDistortionTool(), d.logger)
		if _, err := evaluator.Evaluate(ctx, opts.DecodeOptions.GroundTruth, outputs, opts.DecodeOptions.Resolution); err != nil {
			return err
		}
	}
	return nil
}

// loadPredictors builds one predictor per non-zero class carried by the stream.
func (d *Decoder) loadPredictors(stream *bitstream.Stream) (map[octree.Class]predictor.Predictor, error) {
	factory := d.algorithmManager.GetPredictorFactory(stream.Header())
	predictors := map[octree.Class]predictor.Predictor{}
	for _, model := range stream.Models {
		if model.Class == 0 {
			continue
		}
		if _, dup := predictors[model.Class]; dup {
			return nil, fmt.Errorf("%w: class %d carries two models", bitstream.ErrFormat, model.Class)
		}
		params, err := floatpack.UnpackCount(model.Blob, factory.NumParams(model.Class))
		if err != nil {
			return nil, fmt.Errorf("class %d weights: %w", model.Class, err)
		}
		p, err := factory.New(model.Class, params)
		if err != nil {
			return nil, fmt.Errorf("class %d: %w", model.Class, err)
		}
		predictors[model.Class] = p
		d.logger.Infof("class %d predictor: %d parameters, %d -> %d", model.Class, len(params), p.DimIn(), p.DimOut())
	}
	return predictors, nil
}

func readStream(path string) (*bitstream.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return bitstream.Read(f)
}

// FrameOutputPaths names the reconstructed frames of a stream: <out>/<name>.ply for a single
// frame, else <out>/<name>/frame_00000.ply and so on. The folders are created.
func FrameOutputPaths(streamPath, outputDir string, numFrames int) ([]string, error) {
	name := tools.GetFilenameWithoutExtension(streamPath)
	if numFrames == 1 {
		if err := tools.CreateDirectoryIfDoesNotExist(outputDir); err != nil {
			return nil, err
		}
		return []string{filepath.Join(outputDir, name+".ply")}, nil
	}

	folder := filepath.Join(outputDir, name)
	if err := tools.CreateDirectoryIfDoesNotExist(folder); err != nil {
		return nil, err
	}
	paths := make([]string, numFrames)
	for i := range paths {
		paths[i] = filepath.Join(folder, fmt.Sprintf("frame_%05d.ply", i))
	}
	return paths, nil
}
