package octree

import (
	"fmt"
	"slices"

	"github.com/ecopia-map/lsrn_pcgc/internal/data"
	"github.com/shopspring/decimal"
)

// Lookup table identifying which coarse remainders (mod Q) are ambiguous at ratio P/Q.
//
// For x in [0, P) the coarse image is XD[x] = round(x*Q/P) with round-half-to-even. Hist counts
// the images over [0, Q]. Dup lists the images hit exactly twice, and XCh holds, in ascending x,
// the signed offset x - round(XD[x]*P/Q) of every x whose image is in Dup: two adjacent entries
// per duplicate value.
type DuplicateTable struct {
	P    int
	Q    int
	XD   []int
	Hist []int
	Dup  []int
	XCh  []int
}

// BuildDuplicateTable computes the table for p/q after normalization (p >= 2q becomes 2/1).
// It fails with ErrConfig when q < 1 or when a histogram bucket is hit more than twice.
func BuildDuplicateTable(p, q int) (*DuplicateTable, error) {
	ratio, err := NewRatio(p, q)
	if err != nil {
		return nil, err
	}
	ratio = ratio.Normalize()
	p, q = ratio.P, ratio.Q

	table := &DuplicateTable{
		P:    p,
		Q:    q,
		XD:   make([]int, p),
		Hist: make([]int, q+1),
	}

	for x := 0; x < p; x++ {
		xd := roundBankDiv(int64(x)*int64(q), int64(p))
		table.XD[x] = xd
		table.Hist[xd]++
	}

	for value, count := range table.Hist {
		switch count {
		case 0, 1:
		case 2:
			table.Dup = append(table.Dup, value)
		default:
			return nil, fmt.Errorf("%w: ratio %d/%d maps %d fine positions onto coarse value %d",
				ErrConfig, p, q, count, value)
		}
	}

	table.XCh = make([]int, 0, 2*len(table.Dup))
	for x := 0; x < p; x++ {
		xd := table.XD[x]
		if table.Hist[xd] == 2 {
			table.XCh = append(table.XCh, x-roundBankDiv(int64(xd)*int64(p), int64(q)))
		}
	}

	return table, nil
}

// Classify classifies a lattice point with the table's own q, dup and x_ch.
func (t *DuplicateTable) Classify(point data.Point) ([3]int, Class) {
	return Classify(t.Q, t.Dup, t.XCh, point)
}

// Classify returns, per axis, the combined ambiguity offset of the point and its octree class.
// The remainder is always taken in [0, q), whatever the sign of the coordinate. The same function
// serves training feature extraction and decode time reconstruction.
func Classify(q int, dup []int, xCh []int, point data.Point) (child [3]int, class Class) {
	for k := 0; k < 3; k++ {
		r := point.Axis(k) % q
		if r < 0 {
			r += q
		}
		if j := slices.Index(dup, r); j >= 0 {
			child[k] = xCh[2*j] + xCh[2*j+1]
		}
	}
	return child, ClassFromChild(child)
}

// round(n/d) with ties to even, computed exactly
func roundBankDiv(n, d int64) int {
	return int(decimal.NewFromInt(n).Div(decimal.NewFromInt(d)).RoundBank(0).IntPart())
}
