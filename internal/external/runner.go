package external

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ecopia-map/lsrn_pcgc/tools"
)

// ToolError reports a failed external process. Stderr is kept verbatim.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if e.ExitCode < 0 && e.Err != nil {
		msg = fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Runs an external tool and returns its standard output
type Runner interface {
	Run(ctx context.Context, tool string, args ...string) (string, error)
}

// Spawns processes directly from an argument array, no shell involved
type ProcessRunner struct {
	Dir    string // working directory, empty for the current one
	logger *tools.Logger
}

func NewProcessRunner(dir string, logger *tools.Logger) *ProcessRunner {
	return &ProcessRunner{
		Dir:    dir,
		logger: logger,
	}
}

func (r *ProcessRunner) Run(ctx context.Context, tool string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Infof("run %s", cmd.String())
	if err := cmd.Run(); err != nil {
		toolErr := &ToolError{
			Tool:     tool,
			Args:     args,
			ExitCode: -1,
			Stderr:   stderr.String(),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		r.logger.Errorf("%s, stdout: %s", toolErr.Error(), stdout.String())
		return stdout.String(), toolErr
	}
	return stdout.String(), nil
}
