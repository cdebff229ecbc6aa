package domain

import "time"

const (
	// DecisionNoAction is returned for healthy probes; state is untouched.
	DecisionNoAction Decision = "no_action"

	// DecisionHeal dispatches the remediation action and starts a cooldown.
	DecisionHeal Decision = "heal"

	// DecisionSkipCooldown suppresses remediation for an unhealthy probe
	// because a cooldown window is still active.
	DecisionSkipCooldown Decision = "skip_cooldown"
)

// Decision is the outcome of evaluating one probe result against the
// persisted heal state for a target.
type Decision string

// HealState is the persisted remediation state for a single target.
// A nil LastHealAt means the target has never been healed and no cooldown
// is active. The state is mutated only immediately after a remediation
// action is dispatched, never on a suppressed cycle.
type HealState struct {
	LastHealAt *time.Time    `json:"last_heal_at,omitempty"`
	Cooldown   time.Duration `json:"-"`
}

const (
	EventResultSuccess    EventResult = "success"
	EventResultFailure    EventResult = "failure"
	EventResultSuppressed EventResult = "suppressed"
)

// EventResult classifies a remediation event for notification purposes.
type EventResult string

// CycleOutcome reports what one watchdog cycle observed and did.
type CycleOutcome struct {
	Probe    ProbeResult
	Decision Decision
	Event    *RemediationEvent
}

// RemediationEvent records the outcome of one remediation dispatch (or a
// cooldown suppression, for targets that opt into suppressed notifications).
// Events are handed to the notifier and the live stream; no history is kept.
type RemediationEvent struct {
	ID          string      `json:"id"`
	Target      string      `json:"target"`
	TriggeredAt time.Time   `json:"triggered_at"`
	Result      EventResult `json:"result"`
	Message     string      `json:"message"`
}
