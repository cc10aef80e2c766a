package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Bucket is a growable sequence of fixed-width 0/1 records stored back to back.
type Bucket struct {
	width int
	rows  int
	data  []uint8
}

func NewBucket(width int) *Bucket {
	return &Bucket{width: width}
}

func (b *Bucket) Width() int {
	return b.width
}

func (b *Bucket) Len() int {
	return b.rows
}

// Append copies one record into the bucket.
func (b *Bucket) Append(record []uint8) error {
	if len(record) != b.width {
		return fmt.Errorf("record of width %d appended to bucket of width %d", len(record), b.width)
	}
	b.data = append(b.data, record...)
	b.rows++
	return nil
}

// Extend appends every record of other, which must have the same width.
func (b *Bucket) Extend(other *Bucket) error {
	if other.width != b.width {
		return fmt.Errorf("cannot merge bucket of width %d into bucket of width %d", other.width, b.width)
	}
	b.data = append(b.data, other.data...)
	b.rows += other.rows
	return nil
}

func (b *Bucket) Row(i int) []uint8 {
	return b.data[i*b.width : (i+1)*b.width]
}

// Bytes returns the records flattened row-major. The slice is shared with the bucket.
func (b *Bucket) Bytes() []uint8 {
	return b.data
}

// Stack flattens the bucket into a rows x width batch. A single record goes through the same
// path and yields a 1 x width matrix. Returns nil for an empty bucket.
func (b *Bucket) Stack() *mat.Dense {
	if b.rows == 0 {
		return nil
	}
	values := make([]float64, len(b.data))
	for i, v := range b.data {
		values[i] = float64(v)
	}
	return mat.NewDense(b.rows, b.width, values)
}
