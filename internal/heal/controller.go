// Package heal implements the self-healing remediation loop: probe outcome
// evaluation, cooldown-gated remediation dispatch, state persistence and
// notification.
package heal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/homefleet/fleetd/internal/domain"
	"github.com/homefleet/fleetd/internal/errors"
)

// Evaluate applies the cooldown policy to one probe result.
//
// Healthy probes never act. Unhealthy probes heal when the target has never
// been healed, or when the cooldown window has fully elapsed (strict >=
// comparison); otherwise the cycle is suppressed. Evaluate is pure: it
// neither mutates state nor dispatches anything.
func Evaluate(probe domain.ProbeResult, state domain.HealState, now time.Time) domain.Decision {
	if !probe.Unhealthy() {
		return domain.DecisionNoAction
	}

	if state.LastHealAt == nil {
		return domain.DecisionHeal
	}

	if now.Sub(*state.LastHealAt) >= state.Cooldown {
		return domain.DecisionHeal
	}

	return domain.DecisionSkipCooldown
}

// Controller runs the full watchdog cycle for a single target:
// probe, decide, act at most once, persist the cooldown, notify.
//
// Concurrent cycle triggers for the same target (timer tick vs. a manual
// heal request) collapse through a singleflight group so only one cycle is
// ever active per target.
type Controller struct {
	name             string
	cooldown         time.Duration
	notifyTo         string
	notifySuppressed bool

	deps  Dependencies
	clock func() time.Time
	group singleflight.Group
}

// NewController creates a controller with the provided dependencies and options.
func NewController(deps Dependencies, opt ...Option) (*Controller, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for controller: %w", err)
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid controller options: %w", err)
	}

	return &Controller{
		name:             deps.Target.Name,
		cooldown:         deps.Target.Cooldown.Std(),
		notifyTo:         deps.Target.Notify,
		notifySuppressed: deps.Target.NotifySuppressed,
		deps:             deps,
		clock:            opts.Clock,
	}, nil
}

// Name returns the target this controller watches.
func (c *Controller) Name() string {
	return c.name
}

// RunCycle executes one full watchdog cycle. Overlapping calls for the same
// controller share a single execution.
func (c *Controller) RunCycle(ctx context.Context) (domain.CycleOutcome, error) {
	v, err, _ := c.group.Do(c.name, func() (any, error) {
		return c.cycle(ctx)
	})

	outcome, ok := v.(domain.CycleOutcome)
	if !ok {
		outcome = domain.CycleOutcome{}
	}
	return outcome, err
}

func (c *Controller) cycle(ctx context.Context) (domain.CycleOutcome, error) {
	logger := c.deps.Logger

	res := c.deps.Prober.Check(ctx)
	if err := c.deps.Monitor.Update(c.name, res.Status, res.Latency); err != nil {
		logger.Warn("failed to update health tracker", "target", c.name, "error", err)
	}

	// Read the persisted marker before deciding. A failed read aborts the
	// cycle before any dispatch: healing with an unknown cooldown could
	// violate the at-most-once guarantee.
	st, err := c.deps.Store.Load(c.name)
	if err != nil {
		logger.Error("heal state unavailable, skipping cycle", "target", c.name, "error", err)
		return domain.CycleOutcome{Probe: res}, err
	}
	st.Cooldown = c.cooldown

	now := c.clock()
	decision := Evaluate(res, st, now)
	outcome := domain.CycleOutcome{Probe: res, Decision: decision}

	switch decision {
	case domain.DecisionNoAction:
		return outcome, nil

	case domain.DecisionSkipCooldown:
		logger.Debug("remediation suppressed by cooldown",
			"target", c.name, "status", res.Status, "last_heal_at", st.LastHealAt)
		if c.notifySuppressed {
			event := c.newEvent(now, domain.EventResultSuppressed,
				fmt.Sprintf("probe %s (%s), remediation suppressed by cooldown", res.Status, res.Detail))
			outcome.Event = &event
			c.emit(ctx, event)
		}
		return outcome, nil

	case domain.DecisionHeal:
		return c.dispatch(ctx, outcome, now)

	default:
		return outcome, fmt.Errorf("unknown decision '%s' for target '%s'", decision, c.name)
	}
}

// dispatch invokes the remediation action exactly once and records the new
// cooldown. The marker is advanced even when the action reports failure:
// retrying a failing action every probe interval is the flap this loop
// exists to prevent.
func (c *Controller) dispatch(ctx context.Context, outcome domain.CycleOutcome, now time.Time) (domain.CycleOutcome, error) {
	logger := c.deps.Logger

	logger.Info("probe unhealthy, dispatching remediation",
		"target", c.name, "status", outcome.Probe.Status, "detail", outcome.Probe.Detail)

	ok, message := c.deps.Remediator.Remediate(ctx)

	result := domain.EventResultSuccess
	if !ok {
		result = domain.EventResultFailure
	}
	event := c.newEvent(now, result, message)
	outcome.Event = &event

	writeErr := c.deps.Store.Save(c.name, domain.HealState{LastHealAt: &now})
	if writeErr != nil {
		// The action already ran; surface the write failure so an operator
		// can intervene before the next cycle re-dispatches.
		logger.Error("failed to persist heal state after dispatch", "target", c.name, "error", writeErr)
	}

	if err := c.deps.Monitor.RecordHeal(c.name, now); err != nil {
		logger.Warn("failed to record heal in health tracker", "target", c.name, "error", err)
	}

	c.emit(ctx, event)

	if writeErr != nil {
		return outcome, writeErr
	}
	if !ok {
		return outcome, fmt.Errorf("%w: target '%s': %s", errors.ErrRemediationFailed, c.name, message)
	}
	return outcome, nil
}

// emit forwards an event to the notifier and the live stream. Notification
// failures are logged and swallowed; the cooldown already written stays
// authoritative even if nobody was told.
func (c *Controller) emit(ctx context.Context, event domain.RemediationEvent) {
	if c.deps.Sink != nil {
		c.deps.Sink.Publish(event)
	}

	if err := c.deps.Notifier.Notify(ctx, c.notifyTo, event); err != nil {
		c.deps.Logger.Warn("failed to deliver notification",
			"target", c.name, "destination", c.notifyTo, "error", err)
	}
}

func (c *Controller) newEvent(at time.Time, result domain.EventResult, message string) domain.RemediationEvent {
	return domain.RemediationEvent{
		ID:          uuid.NewString(),
		Target:      c.name,
		TriggeredAt: at,
		Result:      result,
		Message:     message,
	}
}
