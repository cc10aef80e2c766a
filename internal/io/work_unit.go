package io

import (
	"github.com/ecopia-map/lsrn_pcgc/internal/enhancer"
)

// Contains the minimal data needed to prepare the training pairs of a single frame
type WorkUnit struct {
	Index int    // position of the frame in the sampled sequence, also its result slot
	Path  string // original point cloud of the frame
	Opts  *enhancer.DatasetOptions
}
