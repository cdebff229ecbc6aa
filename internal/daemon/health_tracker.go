package daemon

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/homefleet/fleetd/internal/contracts"
	"github.com/homefleet/fleetd/internal/domain"
	"github.com/homefleet/fleetd/internal/errors"
)

var _ contracts.HealthMonitor = (*HealthTracker)(nil)

// HealthTracker holds the latest known health for every watched target.
type HealthTracker struct {
	mu       sync.RWMutex
	statuses map[string]domain.TargetHealth
}

// NewHealthTracker seeds a tracker with unknown status for each target name.
func NewHealthTracker(targetNames []string) *HealthTracker {
	statuses := make(map[string]domain.TargetHealth, len(targetNames))
	for _, name := range targetNames {
		statuses[name] = domain.TargetHealth{Name: name, Status: domain.ProbeStatusUnknown}
	}
	return &HealthTracker{
		statuses: statuses,
	}
}

// Status returns the health status for a single tracked target.
func (h *HealthTracker) Status(name string) (domain.TargetHealth, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if health, ok := h.statuses[name]; ok {
		return health, nil
	}

	return domain.TargetHealth{}, fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, name)
}

// List returns a copy of all known target health records.
func (h *HealthTracker) List() []domain.TargetHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Collect(maps.Values(h.statuses))
}

// Update records a probe outcome for a tracked target.
// The current time is recorded as LastChecked, and LastSuccessful is updated only if the status is ok.
// Latency can be nil if the probe failed before a connection attempt completed.
func (h *HealthTracker) Update(name string, status domain.ProbeStatus, latency *time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now().UTC()

	prev, exists := h.statuses[name]
	if !exists {
		return fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, name)
	}

	var lastSuccessful *time.Time
	if status == domain.ProbeStatusOK {
		lastSuccessful = &now
	} else {
		lastSuccessful = prev.LastSuccessful
	}

	h.statuses[name] = domain.TargetHealth{
		Name:           name,
		Status:         status,
		Latency:        latency,
		LastChecked:    &now,
		LastSuccessful: lastSuccessful,
		LastHealAt:     prev.LastHealAt,
	}

	return nil
}

// RecordHeal stamps the time of the most recent remediation dispatch.
func (h *HealthTracker) RecordHeal(name string, at time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev, exists := h.statuses[name]
	if !exists {
		return fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, name)
	}

	prev.LastHealAt = &at
	h.statuses[name] = prev

	return nil
}
