package io

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecopia-map/lsrn_pcgc/internal/features"
	"github.com/ecopia-map/lsrn_pcgc/tools"
)

type Consumer interface {
	// Consume processes work units until the channel is closed, the context is done or a unit
	// fails. worker identifies the consumer and is the core it is pinned to.
	Consume(ctx context.Context, worker int, work <-chan *WorkUnit) error
}

// Extracts the training pairs of every frame it receives and stores them in the slot of the
// frame. Base layers are written next to the dataset as <frame>_base.ply.
type StandardConsumer struct {
	extractor *features.Extractor
	outputDir string
	pinCores  bool
	logger    *tools.Logger
	results   []*features.TrainingSet
}

func NewStandardConsumer(extractor *features.Extractor, outputDir string, numFrames int, pinCores bool, logger *tools.Logger) *StandardConsumer {
	return &StandardConsumer{
		extractor: extractor,
		outputDir: outputDir,
		pinCores:  pinCores,
		logger:    logger,
		results:   make([]*features.TrainingSet, numFrames),
	}
}

func (c *StandardConsumer) Consume(ctx context.Context, worker int, work <-chan *WorkUnit) error {
	if c.pinCores {
		release, err := pinToCore(worker)
		defer release()
		if err != nil {
			c.logger.Warningf("worker %d not pinned: %v", worker, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case unit, ok := <-work:
			if !ok {
				return nil
			}
			if err := c.doWork(unit); err != nil {
				return fmt.Errorf("frame %s: %w", unit.Path, err)
			}
		}
	}
}

func (c *StandardConsumer) doWork(unit *WorkUnit) error {
	points, err := ReadPly(unit.Path)
	if err != nil {
		return err
	}
	set, err := c.extractor.Training(points, unit.Opts.PPQS)
	if err != nil {
		return err
	}

	basePath := filepath.Join(c.outputDir, BaseFileName(unit.Path))
	if _, err := os.Stat(basePath); errors.Is(err, os.ErrNotExist) {
		if err := WritePly(basePath, set.Base); err != nil {
			return err
		}
	}

	c.results[unit.Index] = set
	c.logger.Infof("frame %d %s: %d points, %d base points", unit.Index, filepath.Base(unit.Path), len(points), len(set.Base))
	return nil
}

// Results returns one training set per frame in frame order. Slots of frames that were never
// processed are nil.
func (c *StandardConsumer) Results() []*features.TrainingSet {
	return c.results
}

// BaseFileName is <frame name>_base.ply.
func BaseFileName(framePath string) string {
	name := filepath.Base(framePath)
	return strings.TrimSuffix(name, filepath.Ext(name)) + "_base.ply"
}
