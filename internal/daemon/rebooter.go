package daemon

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"

	"github.com/homefleet/fleetd/internal/bot"
	"github.com/homefleet/fleetd/internal/config"
)

var _ bot.Rebooter = (*CommandRebooter)(nil)

// CommandRebooter starts an inventory host's reboot command without waiting
// for it to finish: a host going down for reboot may never send a reply.
type CommandRebooter struct {
	logger hclog.Logger
}

// NewCommandRebooter creates a rebooter.
func NewCommandRebooter(logger hclog.Logger) *CommandRebooter {
	return &CommandRebooter{
		logger: logger.Named("reboot"),
	}
}

func (r *CommandRebooter) Reboot(_ context.Context, host config.InventoryHost) error {
	if len(host.RebootCommand) == 0 {
		return fmt.Errorf("host '%s' has no reboot command configured", host.Name)
	}

	cmd := exec.Command(host.RebootCommand[0], host.RebootCommand[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start reboot command for host '%s': %w", host.Name, err)
	}

	// Reap the process in the background; the exit status is logged only.
	go func() {
		if err := cmd.Wait(); err != nil {
			r.logger.Warn("reboot command exited with error", "host", host.Name, "error", err)
		}
	}()

	return nil
}
