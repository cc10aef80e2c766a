package io

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
)

// NumWorkers returns the number of consumers for numFrames frames: requested when positive,
// else the physical core count, capped by the frame count and never below 1.
func NumWorkers(requested, numFrames int) int {
	workers := requested
	if workers <= 0 {
		cores, err := cpu.Counts(false)
		if err != nil || cores < 1 {
			cores = 1
		}
		workers = cores
	}
	if workers > numFrames {
		workers = numFrames
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// RunPool runs one producer and workers consumers over a shared channel. The first error cancels
// the others and is returned.
func RunPool(ctx context.Context, producer Producer, consumer Consumer, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	work := make(chan *WorkUnit, workers)

	g.Go(func() error {
		return producer.Produce(ctx, work)
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			return consumer.Consume(ctx, w, work)
		})
	}
	return g.Wait()
}
