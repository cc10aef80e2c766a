package io

import (
	"context"

	"github.com/ecopia-map/lsrn_pcgc/internal/enhancer"
)

type StandardProducer struct {
	paths   []string
	options *enhancer.DatasetOptions
}

// NewStandardProducer emits one work unit per frame path, in order.
func NewStandardProducer(paths []string, options *enhancer.DatasetOptions) *StandardProducer {
	return &StandardProducer{
		paths:   paths,
		options: options,
	}
}

func (p *StandardProducer) Produce(ctx context.Context, work chan<- *WorkUnit) error {
	defer close(work)
	for i, path := range p.paths {
		select {
		case work <- &WorkUnit{Index: i, Path: path, Opts: p.options}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// SampleFrames keeps every rate-th path starting with the first, then at most max of them
// when max > 0.
func SampleFrames(paths []string, rate, max int) []string {
	if rate < 1 {
		rate = 1
	}
	sampled := make([]string, 0, (len(paths)+rate-1)/rate)
	for i := 0; i < len(paths); i += rate {
		sampled = append(sampled, paths[i])
	}
	if max > 0 && len(sampled) > max {
		sampled = sampled[:max]
	}
	return sampled
}
