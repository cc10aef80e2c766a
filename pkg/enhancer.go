package pkg

import (
	"context"

	"github.com/ecopia-map/lsrn_pcgc/internal/enhancer"
)

// Every subcommand driver implements IEnhancer
type IEnhancer interface {
	Run(ctx context.Context, opts *enhancer.EnhancerOptions) error
}
