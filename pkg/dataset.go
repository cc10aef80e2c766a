package pkg

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ecopia-map/lsrn_pcgc/internal/enhancer"
	"github.com/ecopia-map/lsrn_pcgc/internal/features"
	"github.com/ecopia-map/lsrn_pcgc/internal/io"
	"github.com/ecopia-map/lsrn_pcgc/tools"
	"github.com/samber/lo"
)

type DatasetBuilder struct {
	fileFinder tools.FileFinder
	logger     *tools.Logger
}

func NewDatasetBuilder(fileFinder tools.FileFinder, logger *tools.Logger) IEnhancer {
	return &DatasetBuilder{
		fileFinder: fileFinder,
		logger:     logger.With("dataset"),
	}
}

// Run extracts the training pairs of every sampled frame of opts.Input with a pool of workers and
// writes the aggregated set, the base layers and a manifest to opts.Output.
func (b *DatasetBuilder) Run(ctx context.Context, opts *enhancer.EnhancerOptions) error {
	dsOpts := opts.DatasetOptions
	if dsOpts == nil {
		dsOpts = enhancer.DefaultDatasetOptions()
	}
	if err := dsOpts.Validate(); err != nil {
		return err
	}

	b.logger.Infof("Preparing list of files to process...")
	plyFiles, err := b.fileFinder.GetPlyFilesToProcess(opts.Input)
	if err != nil {
		return err
	}
	frames := io.SampleFrames(plyFiles, dsOpts.FrameSamplingRate, dsOpts.MaxFrames)
	if len(frames) == 0 {
		return fmt.Errorf("no .ply frames found in %s", opts.Input)
	}
	b.logger.Infof("%d of %d frames selected", len(frames), len(plyFiles))

	if err := tools.CreateDirectoryIfDoesNotExist(opts.Output); err != nil {
		return err
	}

	extractor, err := features.NewExtractor(dsOpts.Ratio, dsOpts.Radius)
	if err != nil {
		return err
	}
	workers := io.NumWorkers(dsOpts.Workers, len(frames))
	b.logger.Infof("extracting ratio %s, D=%d, ppqs=%g with %d workers", dsOpts.Ratio, dsOpts.Radius, dsOpts.PPQS, workers)

	producer := io.NewStandardProducer(frames, dsOpts)
	consumer := io.NewStandardConsumer(extractor, opts.Output, len(frames), dsOpts.PinCores, b.logger)
	if err := io.RunPool(ctx, producer, consumer, workers); err != nil {
		return err
	}

	aggregate := features.NewTrainingSet(dsOpts.Radius)
	for i, set := range consumer.Results() {
		if set == nil {
			return fmt.Errorf("frame %s produced no training set", frames[i])
		}
		if err := aggregate.Extend(set); err != nil {
			return err
		}
	}

	manifest := &io.Manifest{
		Ratio:  dsOpts.Ratio,
		PPQS:   dsOpts.PPQS,
		Radius: dsOpts.Radius,
		Frames: lo.Map(frames, func(path string, _ int) string { return filepath.Base(path) }),
	}
	if err := io.WriteDataset(opts.Output, aggregate, manifest); err != nil {
		return err
	}
	for _, class := range manifest.Classes {
		b.logger.Infof("class %d: %d samples", class.Class, class.Count)
	}
	b.logger.Infof("> done, dataset written to %s", opts.Output)
	return nil
}
