// Package floatpack compresses float32 arrays such as predictor weights into self-describing
// blobs.
//
// Format: [Codec uint8][Count uint32][CompressedSize uint32][Data...], little-endian.
// Count is the number of float32 values. CompressedSize 0 means Data holds the raw values.
package floatpack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var ErrCorrupt = errors.New("corrupt float blob")

type Codec uint8

const (
	CodecNone Codec = 0
	CodecLZ4  Codec = 1
	CodecZSTD Codec = 2
)

const headerSize = 9

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec accepts "none", "lz4" or "zstd".
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZSTD, nil
	}
	return CodecNone, fmt.Errorf("unknown float codec %q", name)
}

var zstdEncoderPool sync.Pool

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	return enc
}

// Pack encodes values with the given codec. Incompressible input is stored raw.
func Pack(values []float32, codec Codec) ([]byte, error) {
	raw := EncodeRaw(values)
	if len(raw) == 0 {
		return frame(codec, 0, 0, nil), nil
	}

	var compressed []byte
	switch codec {
	case CodecNone:
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		compressed = buf[:n]
	case CodecZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("unknown float codec %d", codec)
	}

	if len(compressed) == 0 || len(compressed) >= len(raw) {
		return frame(codec, len(values), 0, raw), nil
	}
	return frame(codec, len(values), len(compressed), compressed), nil
}

func frame(codec Codec, count, compressedSize int, payload []byte) []byte {
	out := make([]byte, headerSize+len(payload))
	out[0] = byte(codec)
	binary.LittleEndian.PutUint32(out[1:], uint32(count))
	binary.LittleEndian.PutUint32(out[5:], uint32(compressedSize))
	copy(out[headerSize:], payload)
	return out
}

// Unpack decodes a blob produced by Pack.
func Unpack(blob []byte) ([]float32, error) {
	return unpack(blob, -1)
}

// UnpackCount is Unpack for a blob that must hold exactly want values. The declared count is
// checked before anything is decompressed.
func UnpackCount(blob []byte, want int) ([]float32, error) {
	return unpack(blob, want)
}

func unpack(blob []byte, want int) ([]float32, error) {
	if len(blob) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(blob))
	}
	codec := Codec(blob[0])
	count := int64(binary.LittleEndian.Uint32(blob[1:]))
	compressedSize := int64(binary.LittleEndian.Uint32(blob[5:]))
	payload := blob[headerSize:]

	if want >= 0 && count != int64(want) {
		return nil, fmt.Errorf("%w: blob declares %d values, expected %d", ErrCorrupt, count, want)
	}

	rawSize := 4 * count
	if compressedSize == 0 {
		if int64(len(payload)) != rawSize {
			return nil, fmt.Errorf("%w: expected %d raw bytes, got %d", ErrCorrupt, rawSize, len(payload))
		}
		return DecodeRaw(payload)
	}

	if int64(len(payload)) != compressedSize {
		return nil, fmt.Errorf("%w: expected %d compressed bytes, got %d", ErrCorrupt, compressedSize, len(payload))
	}
	if rawSize == 0 || rawSize > maxExpansion(codec)*compressedSize {
		return nil, fmt.Errorf("%w: %d %s bytes cannot hold %d values", ErrCorrupt, compressedSize, codec, count)
	}
	raw, err := decompress(codec, payload, int(rawSize))
	if err != nil {
		return nil, err
	}
	return DecodeRaw(raw)
}

// maxExpansion bounds the decompressed to compressed size ratio a codec can reach. An lz4 block
// expands at most 255 times, a zstd block at most 128 KiB out of a 4 byte RLE block.
func maxExpansion(codec Codec) int64 {
	switch codec {
	case CodecLZ4:
		return 255
	case CodecZSTD:
		return 1 << 15
	}
	return 1
}

func decompress(codec Codec, payload []byte, rawSize int) ([]byte, error) {
	switch codec {
	case CodecLZ4:
		raw := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		if n != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return raw, nil
	case CodecZSTD:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(uint64(rawSize)))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		raw, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		if len(raw) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%w: unknown codec %d", ErrCorrupt, codec)
}

// DecodeRaw reads a headerless run of little-endian float32 values, the format weight files are
// exported in.
func DecodeRaw(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of float32 values", ErrCorrupt, len(raw))
	}
	values := make([]float32, len(raw)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return values, nil
}

// EncodeRaw is the inverse of DecodeRaw.
func EncodeRaw(values []float32) []byte {
	raw := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	return raw
}
