package octree

import (
	"errors"
	"fmt"
)

// ErrConfig marks an invalid ratio configuration. It is fatal at startup.
var ErrConfig = errors.New("invalid ratio configuration")

// Models the rational upscaling ratio p/q between a coarse and a fine resolution
type Ratio struct {
	P int `json:"p" yaml:"p"`
	Q int `json:"q" yaml:"q"`
}

// Builds a validated Ratio
func NewRatio(p, q int) (Ratio, error) {
	r := Ratio{P: p, Q: q}
	if err := r.Validate(); err != nil {
		return Ratio{}, err
	}
	return r, nil
}

func (r Ratio) Validate() error {
	if r.Q < 1 {
		return fmt.Errorf("%w: q must be >= 1, got %d", ErrConfig, r.Q)
	}
	if r.P < 1 {
		return fmt.Errorf("%w: p must be >= 1, got %d", ErrConfig, r.P)
	}
	return nil
}

func (r Ratio) Float() float64 {
	return float64(r.P) / float64(r.Q)
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d/%d", r.P, r.Q)
}

// Normalize replaces any ratio >= 2 with 2/1. Larger ratios are only ever handled as repeated
// halving stages.
func (r Ratio) Normalize() Ratio {
	if r.P >= 2*r.Q {
		return Ratio{P: 2, Q: 1}
	}
	return r
}

// ExceedsTwo reports whether p/q > 2.
func (r Ratio) ExceedsTwo() bool {
	return r.P > 2*r.Q
}

// Halve returns (p/q)/2 in lowest terms.
func (r Ratio) Halve() Ratio {
	p, q := r.P, 2*r.Q
	g := gcd(p, q)
	return Ratio{P: p / g, Q: q / g}
}

// Stages splits the ratio into the sequence of per-stage ratios applied at decode time: a 2/1
// stage while the residual exceeds 2, then one final stage at the residual.
func (r Ratio) Stages() []Ratio {
	stages := make([]Ratio, 0, 2)
	residual := r
	for residual.ExceedsTwo() {
		stages = append(stages, Ratio{P: 2, Q: 1})
		residual = residual.Halve()
	}
	return append(stages, residual)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}
