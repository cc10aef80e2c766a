package converters

import (
	"github.com/ecopia-map/lsrn_pcgc/internal/data"
)

// Rescales lattice coordinates between two resolutions. Every rescale rounds half up,
// i.e. round(v) = floor(v + 1/2), on each axis independently.
type CoordinateConverter interface {
	// Upscale maps each point to round(p * factor), keeping order and repeats.
	Upscale(points []data.Point) []data.Point
	// Downscale maps each point to round(p / factor) and returns the de-duplicated, sorted set.
	Downscale(points []data.Point) []data.Point
	// IsIdentity reports whether the converter leaves coordinates untouched.
	IsIdentity() bool
}
