package rational_converter

import (
	"github.com/ecopia-map/lsrn_pcgc/internal/converters"
	"github.com/ecopia-map/lsrn_pcgc/internal/data"
	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
)

// Rescales by an exact rational factor P/Q using integer arithmetic only
type RationalConverter struct {
	Ratio octree.Ratio
}

func NewRationalConverter(ratio octree.Ratio) converters.CoordinateConverter {
	return &RationalConverter{
		Ratio: ratio,
	}
}

func (c *RationalConverter) IsIdentity() bool {
	return c.Ratio.P == c.Ratio.Q
}

func (c *RationalConverter) Upscale(points []data.Point) []data.Point {
	out := make([]data.Point, len(points))
	for i, p := range points {
		out[i] = UpscalePoint(p, c.Ratio)
	}
	return out
}

func (c *RationalConverter) Downscale(points []data.Point) []data.Point {
	out := make([]data.Point, len(points))
	for i, p := range points {
		out[i] = DownscalePoint(p, c.Ratio)
	}
	return data.Unique(out)
}

// UpscalePoint returns round(p * P/Q) with ties rounded up.
func UpscalePoint(p data.Point, ratio octree.Ratio) data.Point {
	return data.Point{
		X: roundHalfUpDiv(p.X*ratio.P, ratio.Q),
		Y: roundHalfUpDiv(p.Y*ratio.P, ratio.Q),
		Z: roundHalfUpDiv(p.Z*ratio.P, ratio.Q),
	}
}

// DownscalePoint returns round(p * Q/P) with ties rounded up.
func DownscalePoint(p data.Point, ratio octree.Ratio) data.Point {
	return data.Point{
		X: roundHalfUpDiv(p.X*ratio.Q, ratio.P),
		Y: roundHalfUpDiv(p.Y*ratio.Q, ratio.P),
		Z: roundHalfUpDiv(p.Z*ratio.Q, ratio.P),
	}
}

// floor(n/d + 1/2) for d > 0
func roundHalfUpDiv(n, d int) int {
	return floorDiv(2*n+d, 2*d)
}

func floorDiv(n, d int) int {
	q := n / d
	if (n%d != 0) && ((n < 0) != (d < 0)) {
		q--
	}
	return q
}
