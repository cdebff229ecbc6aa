package heal

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/contracts"
)

// Dependencies contains required collaborators for a Controller.
// NewDependencies should be used to create instances of Dependencies.
type Dependencies struct {
	// Target is the configured entry this controller watches.
	Target config.TargetEntry

	// Logger for cycle operations.
	Logger hclog.Logger

	// Prober runs the bounded health check.
	Prober contracts.Prober

	// Remediator dispatches the external remediation action.
	Remediator contracts.Remediator

	// Notifier forwards remediation events; failures are swallowed.
	Notifier contracts.Notifier

	// Store persists the per-target heal state marker.
	Store contracts.StateStore

	// Monitor receives probe outcomes and heal timestamps.
	Monitor contracts.HealthMonitor

	// Sink optionally receives events for live streaming. May be nil.
	Sink contracts.EventSink
}

// NewDependencies creates validated Dependencies.
func NewDependencies(
	logger hclog.Logger,
	target config.TargetEntry,
	prober contracts.Prober,
	remediator contracts.Remediator,
	notifier contracts.Notifier,
	store contracts.StateStore,
	monitor contracts.HealthMonitor,
) (Dependencies, error) {
	deps := Dependencies{
		Target:     target,
		Logger:     logger,
		Prober:     prober,
		Remediator: remediator,
		Notifier:   notifier,
		Store:      store,
		Monitor:    monitor,
	}

	if err := deps.Validate(); err != nil {
		return Dependencies{}, err
	}

	return deps, nil
}

// Validate ensures all required dependencies are provided and valid.
func (d Dependencies) Validate() error {
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	if d.Prober == nil {
		return fmt.Errorf("prober cannot be nil")
	}
	if d.Remediator == nil {
		return fmt.Errorf("remediator cannot be nil")
	}
	if d.Notifier == nil {
		return fmt.Errorf("notifier cannot be nil")
	}
	if d.Store == nil {
		return fmt.Errorf("state store cannot be nil")
	}
	if d.Monitor == nil {
		return fmt.Errorf("health monitor cannot be nil")
	}
	if d.Target.Name == "" {
		return fmt.Errorf("target name cannot be empty")
	}
	if d.Target.Cooldown <= 0 {
		return fmt.Errorf("target cooldown must be positive")
	}

	return nil
}
