package pkg

import (
	"context"
	"os"

	"github.com/ecopia-map/lsrn_pcgc/internal/bitstream"
	"github.com/ecopia-map/lsrn_pcgc/internal/enhancer"
	"github.com/ecopia-map/lsrn_pcgc/tools"
)

// Logs the header of a bitstream
type Inspector struct {
	logger *tools.Logger
}

func NewInspector(logger *tools.Logger) *Inspector {
	return &Inspector{logger: logger.With("inspect")}
}

func (i *Inspector) Run(_ context.Context, opts *enhancer.EnhancerOptions) error {
	_, err := i.Inspect(opts.Input)
	return err
}

// Inspect reads and logs the header of the bitstream at path.
func (i *Inspector) Inspect(path string) (*bitstream.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := bitstream.ReadHeader(f)
	if err != nil {
		return nil, err
	}
	i.logger.Infof("%s\n%s", path, tools.FmtJSONIndent(header))
	return header, nil
}
