package io

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/ecopia-map/lsrn_pcgc/internal/data"
)

// sized type names written by some encoders, mapped to the classic names the parser knows
var plyTypeAliases = map[string]string{
	"int8":    "char",
	"uint8":   "uchar",
	"int16":   "short",
	"uint16":  "ushort",
	"int32":   "int",
	"uint32":  "uint",
	"float32": "float",
	"float64": "double",
}

// ReadPly loads the vertex positions of an ASCII PLY file, rounded to the integer lattice.
func ReadPly(path string) ([]data.Point, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	points, err := DecodePly(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

func DecodePly(r io.Reader) (points []data.Point, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// the parser panics on malformed input
	defer func() {
		if rec := recover(); rec != nil {
			points, err = nil, fmt.Errorf("invalid ply: %v", rec)
		}
	}()

	ply := goply.New(bytes.NewReader(normalizePlyHeader(raw)))
	vertices := ply.Elements("vertex")
	points = make([]data.Point, 0, len(vertices))
	for i, v := range vertices {
		var p data.Point
		for k, name := range []string{"x", "y", "z"} {
			value, ok := numeric(v[name])
			if !ok {
				return nil, fmt.Errorf("vertex %d has no numeric %q property", i, name)
			}
			switch k {
			case 0:
				p.X = value
			case 1:
				p.Y = value
			default:
				p.Z = value
			}
		}
		points = append(points, p)
	}
	return points, nil
}

func numeric(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int8:
		return int(n), true
	case uint8:
		return int(n), true
	case int16:
		return int(n), true
	case uint16:
		return int(n), true
	case int32:
		return int(n), true
	case uint32:
		return int(n), true
	case float32:
		return int(math.Round(float64(n))), true
	case float64:
		return int(math.Round(n)), true
	}
	return 0, false
}

// rewrites sized property types and drops blank lines, which the parser rejects
func normalizePlyHeader(raw []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(raw))
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	inHeader := true
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if inHeader {
			fields := strings.Fields(line)
			if fields[0] == "property" {
				for i := 1; i < len(fields)-1; i++ {
					if alias, ok := plyTypeAliases[fields[i]]; ok {
						fields[i] = alias
					}
				}
				line = strings.Join(fields, " ")
			}
			if fields[0] == "end_header" {
				inHeader = false
			}
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}

// WritePly writes the points as an ASCII PLY file with float x, y, z properties.
func WritePly(path string, points []data.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodePly(f, points); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func EncodePly(w io.Writer, points []data.Point) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat ascii 1.0\nelement vertex %d\n", len(points))
	bw.WriteString("property float x\nproperty float y\nproperty float z\nend_header\n")
	for _, p := range points {
		fmt.Fprintf(bw, "%d %d %d\n", p.X, p.Y, p.Z)
	}
	return bw.Flush()
}
