package external

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Runs the MPEG distortion metric tool (pc_error) between an original and a reconstruction
type PcErrorTool struct {
	Binary  string
	Threads int
	runner  Runner
}

func NewPcErrorTool(binary string, runner Runner) *PcErrorTool {
	return &PcErrorTool{
		Binary:  binary,
		Threads: 10,
		runner:  runner,
	}
}

// Evaluate returns the report text. resolution is the peak value, 2^vox - 1.
func (t *PcErrorTool) Evaluate(ctx context.Context, original, reconstructed string, resolution int) (string, error) {
	return t.runner.Run(ctx, t.Binary,
		"-a", original,
		"-b", reconstructed,
		"-c", "1",
		"-l", "1",
		"-d", "1",
		"--nbThreads="+strconv.Itoa(t.Threads),
		"--dropdups=2",
		"--neighborsProc=1",
		"-r", strconv.Itoa(resolution),
	)
}

// ResolutionFromName derives the peak value from a vox10/vox11/vox12 tag in a file or folder
// name. Names without a tag are treated as vox10.
func ResolutionFromName(name string) int {
	vox := 10
	switch {
	case strings.Contains(name, "vox12"):
		vox = 12
	case strings.Contains(name, "vox11"):
		vox = 11
	}
	return 1<<vox - 1
}

var d1PSNR = regexp.MustCompile(`mseF,PSNR \(p2point\):\s*([-+0-9.eE]+|inf)`)

// ParseD1PSNR extracts the symmetric point-to-point PSNR from a pc_error report.
func ParseD1PSNR(report string) (float64, bool) {
	m := d1PSNR.FindStringSubmatch(report)
	if m == nil {
		return 0, false
	}
	if m[1] == "inf" {
		return math.Inf(1), true
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
