// Package bitstream reads and writes the enhancement-layer container.
//
// Layout, all integers int32 and ppqs float32, little-endian:
//
//	activation_name_len, activation_name
//	ppqs
//	p, q
//	D, base_channel, num_layers, N (models), F (frames)
//	model_class_ids[N], model_blob_sizes[N], frame_payload_sizes[F]
//	model blobs, frame payloads
//
// A model entry with class id 0 carries no weights. Its declared bytes, normally 0, are skipped.
package bitstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ecopia-map/lsrn_pcgc/internal/octree"
)

// ErrFormat marks a stream whose header is inconsistent or whose declared sizes exceed its bytes.
var ErrFormat = errors.New("malformed bitstream")

var byteOrder = binary.LittleEndian

// Header is everything before the blobs.
type Header struct {
	Activation   string         `json:"activation"`
	PPQS         float32        `json:"ppqs"`
	Ratio        octree.Ratio   `json:"ratio"`
	Radius       int            `json:"d"`
	BaseChannel  int            `json:"base_channel"`
	NumLayers    int            `json:"num_layers"`
	ModelClasses []octree.Class `json:"model_classes"`
	ModelSizes   []int          `json:"model_sizes"`
	FrameSizes   []int          `json:"frame_sizes"`
}

// PayloadSize is the number of bytes the header declares after itself.
func (h *Header) PayloadSize() int64 {
	var total int64
	for _, s := range h.ModelSizes {
		total += int64(s)
	}
	for _, s := range h.FrameSizes {
		total += int64(s)
	}
	return total
}

// Model is the compressed weight blob of the predictor of one class.
type Model struct {
	Class octree.Class
	Blob  []byte
}

type Stream struct {
	Activation  string
	PPQS        float32
	Ratio       octree.Ratio
	Radius      int
	BaseChannel int
	NumLayers   int
	Models      []Model
	Frames      [][]byte
}

// Header derives the header that Write emits for s.
func (s *Stream) Header() *Header {
	h := &Header{
		Activation:   s.Activation,
		PPQS:         s.PPQS,
		Ratio:        s.Ratio,
		Radius:       s.Radius,
		BaseChannel:  s.BaseChannel,
		NumLayers:    s.NumLayers,
		ModelClasses: make([]octree.Class, len(s.Models)),
		ModelSizes:   make([]int, len(s.Models)),
		FrameSizes:   make([]int, len(s.Frames)),
	}
	for i, m := range s.Models {
		h.ModelClasses[i] = m.Class
		if m.Class != 0 {
			h.ModelSizes[i] = len(m.Blob)
		}
	}
	for i, f := range s.Frames {
		h.FrameSizes[i] = len(f)
	}
	return h
}

// Model returns the weight blob of the given class, if the stream carries one.
func (s *Stream) Model(class octree.Class) ([]byte, bool) {
	for _, m := range s.Models {
		if m.Class == class && class != 0 {
			return m.Blob, true
		}
	}
	return nil, false
}

func Write(w io.Writer, s *Stream) error {
	h := s.Header()
	if err := validate(h); err != nil {
		return err
	}

	var buf bytes.Buffer
	put := func(v ...int) {
		for _, x := range v {
			_ = binary.Write(&buf, byteOrder, int32(x))
		}
	}
	put(len(h.Activation))
	buf.WriteString(h.Activation)
	_ = binary.Write(&buf, byteOrder, h.PPQS)
	put(h.Ratio.P, h.Ratio.Q)
	put(h.Radius, h.BaseChannel, h.NumLayers, len(h.ModelClasses), len(h.FrameSizes))
	for _, c := range h.ModelClasses {
		put(int(c))
	}
	put(h.ModelSizes...)
	put(h.FrameSizes...)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	for _, m := range s.Models {
		if m.Class == 0 {
			continue
		}
		if _, err := w.Write(m.Blob); err != nil {
			return err
		}
	}
	for _, f := range s.Frames {
		if _, err := w.Write(f); err != nil {
			return err
		}
	}
	return nil
}

func validate(h *Header) error {
	if err := h.Ratio.Validate(); err != nil {
		return err
	}
	for _, c := range h.ModelClasses {
		if !c.Valid() {
			return fmt.Errorf("%w: model class %d", octree.ErrClassification, c)
		}
	}
	for _, v := range append(append([]int{len(h.Activation), h.Radius, h.BaseChannel, h.NumLayers}, h.ModelSizes...), h.FrameSizes...) {
		if v > math.MaxInt32 || v < math.MinInt32 {
			return fmt.Errorf("value %d does not fit the int32 stream field", v)
		}
	}
	return nil
}

// Read parses a whole stream.
func Read(r io.Reader) (*Stream, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(data)
	h, err := parseHeader(br)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		Activation:  h.Activation,
		PPQS:        h.PPQS,
		Ratio:       h.Ratio,
		Radius:      h.Radius,
		BaseChannel: h.BaseChannel,
		NumLayers:   h.NumLayers,
		Models:      make([]Model, len(h.ModelClasses)),
		Frames:      make([][]byte, len(h.FrameSizes)),
	}
	for i, c := range h.ModelClasses {
		blob := next(br, h.ModelSizes[i])
		s.Models[i] = Model{Class: c}
		if c != 0 {
			s.Models[i].Blob = blob
		}
	}
	for i, size := range h.FrameSizes {
		s.Frames[i] = next(br, size)
	}
	return s, nil
}

// ReadHeader parses only the header, checking the declared sizes against the rest of r.
func ReadHeader(r io.Reader) (*Header, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseHeader(bytes.NewReader(data))
}

// next takes size bytes that parseHeader already proved available
func next(br *bytes.Reader, size int) []byte {
	out := make([]byte, size)
	_, _ = io.ReadFull(br, out)
	return out
}

func parseHeader(br *bytes.Reader) (*Header, error) {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrFormat}, args...)...)
	}
	readInts := func(field string, n int) ([]int, error) {
		if int64(n)*4 > int64(br.Len()) {
			return nil, fail("%s: %d values declared, %d bytes left", field, n, br.Len())
		}
		raw := make([]int32, n)
		if err := binary.Read(br, byteOrder, raw); err != nil {
			return nil, fail("%s: %v", field, err)
		}
		out := make([]int, n)
		for i, v := range raw {
			out[i] = int(v)
		}
		return out, nil
	}

	n, err := readInts("activation length", 1)
	if err != nil {
		return nil, err
	}
	if n[0] < 0 || n[0] > br.Len() {
		return nil, fail("activation length %d with %d bytes left", n[0], br.Len())
	}
	name := make([]byte, n[0])
	_, _ = io.ReadFull(br, name)

	h := &Header{Activation: string(name)}
	if err := binary.Read(br, byteOrder, &h.PPQS); err != nil {
		return nil, fail("ppqs: %v", err)
	}

	ratio, err := readInts("ratio", 2)
	if err != nil {
		return nil, err
	}
	h.Ratio = octree.Ratio{P: ratio[0], Q: ratio[1]}
	if err := h.Ratio.Validate(); err != nil {
		return nil, fail("%v", err)
	}

	shape, err := readInts("network shape", 5)
	if err != nil {
		return nil, err
	}
	h.Radius, h.BaseChannel, h.NumLayers = shape[0], shape[1], shape[2]
	numModels, numFrames := shape[3], shape[4]
	if h.Radius < 0 || h.BaseChannel < 0 || h.NumLayers < 0 {
		return nil, fail("negative network shape %v", shape[:3])
	}
	if numModels < 0 || numFrames < 0 {
		return nil, fail("negative blob count: %d models, %d frames", numModels, numFrames)
	}

	classes, err := readInts("model class ids", numModels)
	if err != nil {
		return nil, err
	}
	h.ModelClasses = make([]octree.Class, 0, numModels)
	for _, c := range classes {
		if c < 0 || c >= octree.NumClasses {
			return nil, fail("model class id %d outside 0..%d", c, octree.NumClasses-1)
		}
		h.ModelClasses = append(h.ModelClasses, octree.Class(c))
	}
	if h.ModelSizes, err = readInts("model blob sizes", numModels); err != nil {
		return nil, err
	}
	if h.FrameSizes, err = readInts("frame payload sizes", numFrames); err != nil {
		return nil, err
	}

	for _, s := range append(append([]int(nil), h.ModelSizes...), h.FrameSizes...) {
		if s < 0 {
			return nil, fail("negative blob size %d", s)
		}
	}
	if total := h.PayloadSize(); total > int64(br.Len()) {
		return nil, fail("blobs declare %d bytes, %d left", total, br.Len())
	}
	return h, nil
}
