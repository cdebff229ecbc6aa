// Package probe implements bounded health checks against watched targets.
// A probe never returns an error to its caller: every failure mode,
// including the inability to reach the target at all, is represented as a
// failed ProbeResult with a detail string.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/contracts"
	"github.com/homefleet/fleetd/internal/domain"
)

// DetailTimeout is the detail string recorded when a probe exceeds its timeout.
const DetailTimeout = "timeout"

// New builds the prober for a configured target entry.
func New(entry config.TargetEntry) (contracts.Prober, error) {
	switch entry.Probe {
	case config.ProbeKindHTTP:
		return &HTTPProber{URL: entry.Address, Timeout: entry.ProbeTimeout()}, nil
	case config.ProbeKindTCP:
		return &TCPProber{Address: entry.Address, Timeout: entry.ProbeTimeout()}, nil
	case config.ProbeKindCommand:
		return &CommandProber{Command: entry.Command, Timeout: entry.ProbeTimeout()}, nil
	default:
		return nil, fmt.Errorf("unknown probe kind '%s' for target '%s'", entry.Probe, entry.Name)
	}
}

// result assembles a ProbeResult stamped with the probe start time and latency.
func result(status domain.ProbeStatus, started time.Time, detail string) domain.ProbeResult {
	latency := time.Since(started)
	return domain.ProbeResult{
		Status:     status,
		ObservedAt: started.UTC(),
		Latency:    &latency,
		Detail:     detail,
	}
}

// failure classifies a probe error, degrading timeouts to the fixed
// "timeout" detail so callers can tell them apart from connection failures.
func failure(err error, started time.Time) domain.ProbeResult {
	if errors.Is(err, context.DeadlineExceeded) {
		return result(domain.ProbeStatusFailed, started, DetailTimeout)
	}
	return result(domain.ProbeStatusFailed, started, err.Error())
}
