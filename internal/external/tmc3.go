package external

import (
	"context"
	"fmt"
	"os"

	"github.com/ecopia-map/lsrn_pcgc/internal/data"
	"github.com/ecopia-map/lsrn_pcgc/internal/io"
	"github.com/ecopia-map/lsrn_pcgc/tools"
	"go.uber.org/multierr"
)

// Base layer codec: turns one frame payload into lattice points and back
type BaseCodec interface {
	Decode(ctx context.Context, payload []byte) ([]data.Point, error)
	Encode(ctx context.Context, points []data.Point) ([]byte, error)
}

// Runs the MPEG G-PCC reference codec (tmc3) through temporary files
type Tmc3Codec struct {
	Binary       string
	DecodeConfig string
	EncodeConfig string
	TempDir      string
	runner       Runner
	logger       *tools.Logger
}

func NewTmc3Codec(binary, decodeConfig, encodeConfig string, runner Runner, logger *tools.Logger) *Tmc3Codec {
	return &Tmc3Codec{
		Binary:       binary,
		DecodeConfig: decodeConfig,
		EncodeConfig: encodeConfig,
		runner:       runner,
		logger:       logger,
	}
}

func (c *Tmc3Codec) Decode(ctx context.Context, payload []byte) (points []data.Point, err error) {
	scope := NewTempScope(c.TempDir)
	defer func() { err = multierr.Append(err, scope.Cleanup()) }()

	bin, err := scope.File(".bin")
	if err != nil {
		return nil, err
	}
	dec, err := scope.File(".ply")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(bin, payload, 0o600); err != nil {
		return nil, err
	}

	args := configArg(c.DecodeConfig)
	args = append(args,
		"--compressedStreamPath="+bin,
		"--reconstructedDataPath="+dec,
	)
	out, err := c.runner.Run(ctx, c.Binary, args...)
	if err != nil {
		return nil, err
	}
	c.logger.Infof("%s", out)

	points, err = io.ReadPly(dec)
	if err != nil {
		return nil, fmt.Errorf("read tmc3 reconstruction: %w", err)
	}
	return points, nil
}

func (c *Tmc3Codec) Encode(ctx context.Context, points []data.Point) (payload []byte, err error) {
	scope := NewTempScope(c.TempDir)
	defer func() { err = multierr.Append(err, scope.Cleanup()) }()

	src, err := scope.File(".ply")
	if err != nil {
		return nil, err
	}
	bin, err := scope.File(".bin")
	if err != nil {
		return nil, err
	}
	if err := io.WritePly(src, points); err != nil {
		return nil, err
	}

	args := append([]string{"--mode=0"}, configArg(c.EncodeConfig)...)
	args = append(args,
		"--uncompressedDataPath="+src,
		"--compressedStreamPath="+bin,
	)
	out, err := c.runner.Run(ctx, c.Binary, args...)
	if err != nil {
		return nil, err
	}
	c.logger.Infof("%s", out)

	return os.ReadFile(bin)
}

// configArg is the --config argument, left out when no configuration file is given.
func configArg(path string) []string {
	if path == "" {
		return nil
	}
	return []string{"--config=" + path}
}
