package io

import (
	"context"
)

type Producer interface {
	// Produce submits work units to the channel and closes it once every unit is submitted or
	// the context is done.
	Produce(ctx context.Context, work chan<- *WorkUnit) error
}
