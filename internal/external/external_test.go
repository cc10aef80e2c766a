package external

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ecopia-map/lsrn_pcgc/internal/data"
	"github.com/ecopia-map/lsrn_pcgc/internal/io"
	"github.com/ecopia-map/lsrn_pcgc/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessRunner(t *testing.T) {
	r := NewProcessRunner("", tools.NewLogger("test"))

	out, err := r.Run(context.Background(), "echo", "$(rm -rf /)", ";", "ok")
	require.NoError(t, err)
	assert.Equal(t, "$(rm -rf /) ; ok\n", out)

	out, err = r.Run(context.Background(), "sh", "-c", "echo partial; echo broken stream >&2; exit 3")
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Equal(t, "broken stream\n", toolErr.Stderr)
	assert.Equal(t, "partial\n", out)
	assert.Contains(t, err.Error(), "broken stream")

	_, err = r.Run(context.Background(), filepath.Join(t.TempDir(), "missing-tool"))
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, -1, toolErr.ExitCode)
}

func TestTempScope(t *testing.T) {
	dir := t.TempDir()
	scope := NewTempScope(dir)

	a, err := scope.File(".ply")
	require.NoError(t, err)
	b, err := scope.File(".bin")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(a, ".ply"))
	assert.FileExists(t, a)
	assert.FileExists(t, b)
	require.NoError(t, os.Remove(b))

	require.NoError(t, scope.Cleanup())
	assert.NoFileExists(t, a)
	assert.Empty(t, scope.Paths())
	require.NoError(t, scope.Cleanup())
}

// plays tmc3: writes a fixed reconstruction, or fails like the real tool would
type fakeRunner struct {
	args   []string
	points []data.Point
	fail   bool
	seen   []string // temp files that existed during the run
}

func (r *fakeRunner) Run(_ context.Context, tool string, args ...string) (string, error) {
	r.args = append([]string{tool}, args...)
	for _, a := range args {
		if _, path, ok := strings.Cut(a, "Path="); ok {
			r.seen = append(r.seen, path)
		}
	}
	if r.fail {
		return "", &ToolError{Tool: tool, Args: args, ExitCode: 1, Stderr: "cannot open bitstream"}
	}
	for _, a := range args {
		if path, ok := strings.CutPrefix(a, "--reconstructedDataPath="); ok {
			if err := io.WritePly(path, r.points); err != nil {
				return "", err
			}
		}
		if path, ok := strings.CutPrefix(a, "--compressedStreamPath="); ok && args[0] == "--mode=0" {
			if err := os.WriteFile(path, []byte("encoded"), 0o600); err != nil {
				return "", err
			}
		}
	}
	return "done", nil
}

func TestTmc3Decode(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{points: []data.Point{{X: 1, Y: 2, Z: 3}}}
	codec := NewTmc3Codec("tmc3", "cfg/decoder.cfg", "cfg/encoder.cfg", runner, tools.NewLogger("test"))
	codec.TempDir = dir

	points, err := codec.Decode(context.Background(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, runner.points, points)

	require.Len(t, runner.args, 4)
	assert.Equal(t, "tmc3", runner.args[0])
	assert.Equal(t, "--config=cfg/decoder.cfg", runner.args[1])
	assert.True(t, strings.HasPrefix(runner.args[2], "--compressedStreamPath="))
	assert.True(t, strings.HasPrefix(runner.args[3], "--reconstructedDataPath="))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTmc3DecodeRemovesTempFilesOnFailure(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{fail: true}
	codec := NewTmc3Codec("tmc3", "decoder.cfg", "", runner, tools.NewLogger("test"))
	codec.TempDir = dir

	_, err := codec.Decode(context.Background(), []byte{1})
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "cannot open bitstream", toolErr.Stderr)

	require.Len(t, runner.seen, 2)
	for _, path := range runner.seen {
		assert.NoFileExists(t, path)
	}
}

func TestTmc3Encode(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	codec := NewTmc3Codec("tmc3", "", "encoder.cfg", runner, tools.NewLogger("test"))
	codec.TempDir = dir

	payload, err := codec.Encode(context.Background(), []data.Point{{X: 1, Y: 1, Z: 1}})
	require.NoError(t, err)
	assert.Equal(t, []byte("encoded"), payload)
	assert.Equal(t, "--config=encoder.cfg", runner.args[2])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTmc3OmitsEmptyConfig(t *testing.T) {
	runner := &fakeRunner{points: []data.Point{{X: 1, Y: 1, Z: 1}}}
	codec := NewTmc3Codec("tmc3", "", "", runner, tools.NewLogger("test"))
	codec.TempDir = t.TempDir()

	_, err := codec.Decode(context.Background(), []byte{1})
	require.NoError(t, err)
	require.Len(t, runner.args, 3)
	assert.True(t, strings.HasPrefix(runner.args[1], "--compressedStreamPath="))

	_, err = codec.Encode(context.Background(), runner.points)
	require.NoError(t, err)
	require.Len(t, runner.args, 4)
	assert.Equal(t, "--mode=0", runner.args[1])
	assert.True(t, strings.HasPrefix(runner.args[2], "--uncompressedDataPath="))
}

func TestPcErrorArguments(t *testing.T) {
	runner := &fakeRunner{}
	tool := NewPcErrorTool("./pc_error", runner)

	out, err := tool.Evaluate(context.Background(), "orig.ply", "rec.ply", 1023)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, []string{
		"./pc_error", "-a", "orig.ply", "-b", "rec.ply", "-c", "1", "-l", "1", "-d", "1",
		"--nbThreads=10", "--dropdups=2", "--neighborsProc=1", "-r", "1023",
	}, runner.args)
}

func TestResolutionFromName(t *testing.T) {
	tests := []struct {
		name     string
		expected int
	}{
		{name: "longdress_vox10_1300.ply", expected: 1023},
		{name: "basketball_player_vox11", expected: 2047},
		{name: "/data/frame_vox12.ply", expected: 4095},
		{name: "custom.ply", expected: 1023},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ResolutionFromName(tt.name), tt.name)
	}
}

func TestParseD1PSNR(t *testing.T) {
	report := `1. Use infile1 (A) as reference, loop over A, use normals on B. (A->B).
   mse1      (p2point): 0.0623
   mse1,PSNR (p2point): 76.0542
3. Final (symmetric).
   mseF      (p2point): 0.0731
   mseF,PSNR (p2point): 75.3619
`
	v, ok := ParseD1PSNR(report)
	require.True(t, ok)
	assert.InDelta(t, 75.3619, v, 1e-9)

	_, ok = ParseD1PSNR("no metrics here")
	assert.False(t, ok)

	v, ok = ParseD1PSNR("   mseF,PSNR (p2point): inf\n")
	require.True(t, ok)
	assert.True(t, math.IsInf(v, 1))
}
