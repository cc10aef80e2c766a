package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketAppendAndStack(t *testing.T) {
	b := NewBucket(3)
	assert.Nil(t, b.Stack())

	require.NoError(t, b.Append([]uint8{1, 0, 1}))
	single := b.Stack()
	rows, cols := single.Dims()
	assert.Equal(t, 1, rows)
	assert.Equal(t, 3, cols)

	require.NoError(t, b.Append([]uint8{0, 1, 0}))
	batch := b.Stack()
	rows, cols = batch.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []float64{0, 1, 0}, batch.RawRowView(1))
	assert.Equal(t, []uint8{1, 0, 1, 0, 1, 0}, b.Bytes())
}

func TestBucketRejectsWidthMismatch(t *testing.T) {
	b := NewBucket(2)
	assert.Error(t, b.Append([]uint8{1}))
	assert.Error(t, b.Extend(NewBucket(3)))
	assert.Zero(t, b.Len())
}
