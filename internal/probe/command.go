package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/homefleet/fleetd/internal/domain"
)

// CommandProber checks a target by running a command and inspecting its
// exit code. Exit 0 is ok; a non-zero exit or any execution failure is
// failed, with the command's trailing output as the detail.
type CommandProber struct {
	Command []string
	Timeout time.Duration
}

func (p *CommandProber) Check(ctx context.Context) domain.ProbeResult {
	started := time.Now()

	if len(p.Command) == 0 {
		return result(domain.ProbeStatusFailed, started, "no probe command configured")
	}

	checkCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(checkCtx, p.Command[0], p.Command[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
			return result(domain.ProbeStatusFailed, started, DetailTimeout)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := fmt.Sprintf("exit status %d", exitErr.ExitCode())
			if trimmed := lastLine(out); trimmed != "" {
				detail = fmt.Sprintf("%s: %s", detail, trimmed)
			}
			return result(domain.ProbeStatusFailed, started, detail)
		}

		return failure(err, started)
	}

	return result(domain.ProbeStatusOK, started, "")
}

// lastLine returns the final non-empty line of command output.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
