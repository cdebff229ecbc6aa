// Package remedy runs the external remediation action for a target.
// The action is an operator-configured command (e.g. a playbook run or a
// service restart); fleetd only dispatches it and reports the outcome.
package remedy

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/contracts"
)

var _ contracts.Remediator = (*CommandRunner)(nil)

// CommandRunner executes a target's heal command with a bounded timeout.
// The command must be idempotent: the controller may dispatch it again on
// the next cycle after the cooldown expires regardless of prior outcomes.
type CommandRunner struct {
	target  string
	command []string
	timeout time.Duration
	logger  hclog.Logger
}

// NewCommandRunner builds the remediator for a configured target entry.
func NewCommandRunner(logger hclog.Logger, entry config.TargetEntry) (*CommandRunner, error) {
	if len(entry.HealCommand) == 0 {
		return nil, fmt.Errorf("target '%s' has no heal command configured", entry.Name)
	}

	return &CommandRunner{
		target:  entry.Name,
		command: entry.HealCommand,
		timeout: entry.RemediationTimeout(),
		logger:  logger.Named("remedy"),
	}, nil
}

// Remediate runs the heal command once and reports success with a human
// readable message. It never retries; retry policy belongs to the caller's
// cooldown handling.
func (r *CommandRunner) Remediate(ctx context.Context) (bool, string) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Info("dispatching remediation action", "target", r.target, "command", r.command[0])

	cmd := exec.CommandContext(runCtx, r.command[0], r.command[1:]...)
	out, err := cmd.CombinedOutput()
	summary := summarize(out)

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			r.logger.Error("remediation action timed out", "target", r.target, "timeout", r.timeout)
			return false, fmt.Sprintf("remediation timed out after %s", r.timeout)
		}

		r.logger.Error("remediation action failed", "target", r.target, "error", err)
		if summary != "" {
			return false, fmt.Sprintf("remediation failed: %v (%s)", err, summary)
		}
		return false, fmt.Sprintf("remediation failed: %v", err)
	}

	r.logger.Info("remediation action completed", "target", r.target)
	if summary != "" {
		return true, fmt.Sprintf("remediation completed: %s", summary)
	}
	return true, "remediation completed"
}

// summarize collapses command output to its final non-empty line so
// notification messages stay one-line friendly.
func summarize(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
