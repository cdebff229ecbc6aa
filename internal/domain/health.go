package domain

import "time"

const (
	ProbeStatusOK       ProbeStatus = "ok"
	ProbeStatusDegraded ProbeStatus = "degraded"
	ProbeStatusFailed   ProbeStatus = "failed"
	ProbeStatusUnknown  ProbeStatus = "unknown"
)

// ProbeStatus represents the classified outcome of a single health probe.
// Probes only ever produce ok, degraded or failed; unknown exists for
// tracked targets that have not been probed yet.
type ProbeStatus string

// ProbeResult is the outcome of one probe invocation against a target.
// Results are produced fresh on every check, are immutable, and are never
// persisted.
type ProbeResult struct {
	Status     ProbeStatus
	ObservedAt time.Time
	Latency    *time.Duration
	Detail     string
}

// Unhealthy reports whether the result should be considered for remediation.
func (r ProbeResult) Unhealthy() bool {
	return r.Status == ProbeStatusDegraded || r.Status == ProbeStatusFailed
}

// TargetHealth tracks the internal health state for a monitored target.
type TargetHealth struct {
	Name           string
	Status         ProbeStatus
	Latency        *time.Duration
	LastChecked    *time.Time
	LastSuccessful *time.Time
	LastHealAt     *time.Time
}
