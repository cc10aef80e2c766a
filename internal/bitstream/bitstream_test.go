package bitstream

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStream() *Stream {
	return &Stream{
		Activation:  "ReLU",
		PPQS:        1.5,
		Ratio:       octree.Ratio{P: 3, Q: 2},
		Radius:      2,
		BaseChannel: 64,
		NumLayers:   4,
		Models: []Model{
			{Class: 1, Blob: []byte{1, 2, 3}},
			{Class: 7, Blob: bytes.Repeat([]byte{7}, 17)},
		},
		Frames: [][]byte{[]byte("frame-0"), []byte("frame-one")},
	}
}

func TestStreamRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		stream *Stream
	}{
		{name: "static and dynamic", stream: sampleStream()},
		{name: "sine without models", stream: &Stream{
			Activation: "Sine",
			Ratio:      octree.Ratio{P: 4, Q: 1},
			Models:     []Model{},
			Frames:     [][]byte{{}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tt.stream))

			got, err := Read(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, tt.stream, got)

			h, err := ReadHeader(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, tt.stream.Header(), h)
		})
	}
}

func TestStreamIsLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleStream()))

	raw := buf.Bytes()
	assert.Equal(t, []byte{4, 0, 0, 0}, raw[:4])
	assert.Equal(t, "ReLU", string(raw[4:8]))
	assert.Equal(t, []byte{3, 0, 0, 0, 2, 0, 0, 0}, raw[12:20])
}

func TestClassZeroModelCarriesNoBlob(t *testing.T) {
	s := sampleStream()
	s.Models = append([]Model{{Class: 0, Blob: []byte{9, 9}}}, s.Models...)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, got.Models, 3)
	assert.Equal(t, octree.Class(0), got.Models[0].Class)
	assert.Empty(t, got.Models[0].Blob)

	_, ok := got.Model(0)
	assert.False(t, ok)
	blob, ok := got.Model(7)
	assert.True(t, ok)
	assert.Len(t, blob, 17)
}

func TestReadRejectsMalformedStreams(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleStream()))
	valid := buf.Bytes()

	patch := func(offset int, v int32) []byte {
		out := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint32(out[offset:], uint32(v))
		return out
	}

	// offsets: 0 name len, 4 name, 8 ppqs, 12 p, 16 q, 20 D, 24 C, 28 L, 32 N, 36 F,
	// 40 classes, 48 model sizes, 56 frame sizes
	tests := []struct {
		name string
		data []byte
	}{
		{name: "truncated payload", data: valid[:len(valid)-1]},
		{name: "truncated header", data: valid[:30]},
		{name: "empty", data: nil},
		{name: "oversized activation", data: patch(0, 1<<20)},
		{name: "negative activation", data: patch(0, -1)},
		{name: "zero q", data: patch(16, 0)},
		{name: "negative model count", data: patch(32, -2)},
		{name: "huge frame count", data: patch(36, 1<<30)},
		{name: "bad class id", data: patch(40, 9)},
		{name: "negative blob size", data: patch(48, -3)},
		{name: "oversized frame", data: patch(60, 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}
