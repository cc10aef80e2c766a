package prescale_converter

import (
	"github.com/ecopia-map/lsrn_pcgc/internal/converters"
	"github.com/ecopia-map/lsrn_pcgc/internal/data"
	"github.com/shopspring/decimal"
)

// Applies or undoes the pre-scale factor (ppqs) recorded in the bitstream. Factors <= 1 are
// treated as no pre-scaling.
type PreScaleConverter struct {
	Factor float32
	factor decimal.Decimal
}

func NewPreScaleConverter(factor float32) converters.CoordinateConverter {
	return &PreScaleConverter{
		Factor: factor,
		factor: decimal.NewFromFloat32(factor),
	}
}

func (c *PreScaleConverter) IsIdentity() bool {
	return c.Factor <= 1.0
}

func (c *PreScaleConverter) Upscale(points []data.Point) []data.Point {
	if c.IsIdentity() {
		return append([]data.Point(nil), points...)
	}
	out := make([]data.Point, len(points))
	for i, p := range points {
		out[i] = data.Point{
			X: c.round(decimal.NewFromInt(int64(p.X)).Mul(c.factor)),
			Y: c.round(decimal.NewFromInt(int64(p.Y)).Mul(c.factor)),
			Z: c.round(decimal.NewFromInt(int64(p.Z)).Mul(c.factor)),
		}
	}
	return out
}

func (c *PreScaleConverter) Downscale(points []data.Point) []data.Point {
	if c.IsIdentity() {
		return data.Unique(points)
	}
	out := make([]data.Point, len(points))
	for i, p := range points {
		out[i] = data.Point{
			X: c.round(decimal.NewFromInt(int64(p.X)).Div(c.factor)),
			Y: c.round(decimal.NewFromInt(int64(p.Y)).Div(c.factor)),
			Z: c.round(decimal.NewFromInt(int64(p.Z)).Div(c.factor)),
		}
	}
	return data.Unique(out)
}

var half = decimal.NewFromFloat(0.5)

func (c *PreScaleConverter) round(v decimal.Decimal) int {
	return int(v.Add(half).Floor().IntPart())
}
