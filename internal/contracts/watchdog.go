package contracts

import (
	"context"
	"time"

	"github.com/homefleet/fleetd/internal/domain"
)

// HealthMonitor provides a way to interact with the health status of watched targets.
type HealthMonitor interface {
	// Status returns the health status for a single tracked target.
	Status(name string) (domain.TargetHealth, error)

	// List returns a copy of all known target health records.
	List() []domain.TargetHealth

	// Update records a probe outcome for a tracked target.
	Update(name string, status domain.ProbeStatus, latency *time.Duration) error

	// RecordHeal stamps the time of the most recent remediation dispatch for a target.
	RecordHeal(name string, at time.Time) error
}

// Prober performs a single bounded health check against the target it was
// built for. Implementations must not mutate shared state and must never
// return an error: every failure mode is represented in the ProbeResult
// itself.
type Prober interface {
	Check(ctx context.Context) domain.ProbeResult
}

// Remediator dispatches the external remediation action for the target it
// was built for. Actions are idempotent by contract of the collaborator;
// the returned message is human readable and suitable for notifications.
type Remediator interface {
	Remediate(ctx context.Context) (ok bool, message string)
}

// Notifier forwards a remediation event to an external channel.
// Implementations are fire-and-forget: a returned error is logged by the
// caller and never aborts the remediation cycle.
type Notifier interface {
	Notify(ctx context.Context, destination string, event domain.RemediationEvent) error
}

// StateStore persists the heal state marker for targets.
// Load returns a HealState with a nil LastHealAt when no marker exists.
type StateStore interface {
	Load(name string) (domain.HealState, error)
	Save(name string, state domain.HealState) error
}

// CycleRunner triggers a full watchdog cycle (probe, decide, act, notify)
// for a named target on demand.
type CycleRunner interface {
	RunCycle(ctx context.Context, target string) (domain.CycleOutcome, error)
}

// EventSink receives remediation events as they happen (live stream fan-out).
type EventSink interface {
	Publish(event domain.RemediationEvent)
}
