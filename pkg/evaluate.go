package pkg

import (
	"context"
	"fmt"

	"github.com/ecopia-map/lsrn_pcgc/internal/external"
	"github.com/ecopia-map/lsrn_pcgc/tools"
)

// Evaluation is the pc_error outcome of one reconstructed frame.
type Evaluation struct {
	Original      string  `json:"original"`
	Reconstructed string  `json:"reconstructed"`
	D1PSNR        float64 `json:"d1_psnr"`
	Report        string  `json:"-"`
}

// Compares reconstructed frames against the original point clouds with pc_error
type Evaluator struct {
	fileFinder tools.FileFinder
	tool       *external.PcErrorTool
	logger     *tools.Logger
}

func NewEvaluator(fileFinder tools.FileFinder, tool *external.PcErrorTool, logger *tools.Logger) *Evaluator {
	return &Evaluator{
		fileFinder: fileFinder,
		tool:       tool,
		logger:     logger.With("pc_error"),
	}
}

// Evaluate pairs the ground truth (a file, or a folder whose sorted .ply files match the frames
// in order) with the reconstructed frames and runs pc_error on each pair. A resolution of 0 is
// derived from the ground truth name.
func (e *Evaluator) Evaluate(ctx context.Context, groundTruth string, reconstructed []string, resolution int) ([]Evaluation, error) {
	originals, err := e.fileFinder.GetPlyFilesToProcess(groundTruth)
	if err != nil {
		return nil, fmt.Errorf("ground truth: %w", err)
	}
	if len(originals) != len(reconstructed) {
		e.logger.Warningf("%d ground truth frames for %d reconstructed frames, evaluating the first %d",
			len(originals), len(reconstructed), min(len(originals), len(reconstructed)))
	}
	if resolution <= 0 {
		resolution = external.ResolutionFromName(groundTruth)
	}

	n := min(len(originals), len(reconstructed))
	evaluations := make([]Evaluation, 0, n)
	for i := 0; i < n; i++ {
		report, err := e.tool.Evaluate(ctx, originals[i], reconstructed[i], resolution)
		if err != nil {
			return evaluations, fmt.Errorf("frame %d: %w", i, err)
		}
		evaluation := Evaluation{Original: originals[i], Reconstructed: reconstructed[i], Report: report}
		if psnr, ok := external.ParseD1PSNR(report); ok {
			evaluation.D1PSNR = psnr
		}
		e.logger.Infof("frame %d %s vs %s: D1 PSNR %.4f\n%s", i, originals[i], reconstructed[i], evaluation.D1PSNR, report)
		evaluations = append(evaluations, evaluation)
	}
	return evaluations, nil
}
