package api

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/contracts"
	"github.com/homefleet/fleetd/internal/domain"
)

// Target describes one watched target as configured.
type Target struct {
	Name     string `json:"name"`
	Probe    string `json:"probe"`
	Address  string `json:"address,omitempty"`
	Interval string `json:"interval"`
	Cooldown string `json:"cooldown"`
	Notify   string `json:"notify,omitempty"`
}

// TargetsResponse is the response for GET /targets
type TargetsResponse struct {
	Body struct {
		Targets []Target `doc:"Watched targets" json:"targets"`
	}
}

// HealRequest represents the incoming request to trigger remediation for a target.
type HealRequest struct {
	Name string `doc:"Name of the target to remediate" example:"wireguard" path:"name"`
}

// RemediationEvent describes a dispatched (or suppressed) remediation action.
type RemediationEvent struct {
	ID          string    `json:"id"`
	Target      string    `json:"target"`
	TriggeredAt time.Time `json:"triggeredAt"`
	Result      string    `json:"result"`
	Message     string    `json:"message"`
}

// HealResponse reports what a manually triggered watchdog cycle observed and did.
type HealResponse struct {
	Body struct {
		Target      string            `doc:"Name of the target" json:"target"`
		ProbeStatus HealthStatus      `doc:"Probe outcome observed by the cycle" json:"probeStatus"`
		ProbeDetail string            `doc:"Probe failure detail, if any" json:"probeDetail,omitempty"`
		Decision    string            `doc:"Remediation decision for the cycle" json:"decision"`
		Event       *RemediationEvent `doc:"Dispatched remediation event, if any" json:"event,omitempty"`
	}
}

// RegisterTargetRoutes sets up target-related API endpoint routes.
func RegisterTargetRoutes(routerAPI huma.API, cfg config.Modifier, runner contracts.CycleRunner, apiPathPrefix string) {
	targetAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Targets"}

	huma.Register(
		targetAPI,
		huma.Operation{
			OperationID: "listTargets",
			Method:      http.MethodGet,
			Path:        "",
			Summary:     "List all watched targets",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*TargetsResponse, error) {
			return handleListTargets(cfg)
		},
	)

	huma.Register(
		targetAPI,
		huma.Operation{
			OperationID: "healTarget",
			Method:      http.MethodPost,
			Path:        "/{name}/heal",
			Summary:     "Trigger a watchdog cycle for a target",
			Description: "Runs probe, decision and (cooldown permitting) the remediation action for the named target.",
			Tags:        tags,
		},
		func(ctx context.Context, input *HealRequest) (*HealResponse, error) {
			return handleHealTarget(ctx, runner, input.Name)
		},
	)
}

// handleListTargets is the handler for listing all configured targets.
func handleListTargets(cfg config.Modifier) (*TargetsResponse, error) {
	entries := cfg.ListTargets()

	slices.SortFunc(entries, func(a, b config.TargetEntry) int {
		return strings.Compare(a.Name, b.Name)
	})

	targets := make([]Target, 0, len(entries))
	for _, e := range entries {
		targets = append(targets, Target{
			Name:     e.Name,
			Probe:    e.Probe,
			Address:  e.Address,
			Interval: e.ProbeInterval().String(),
			Cooldown: e.Cooldown.Std().String(),
			Notify:   e.Notify,
		})
	}

	resp := &TargetsResponse{}
	resp.Body.Targets = targets

	return resp, nil
}

// handleHealTarget is the handler for manually triggering a watchdog cycle.
func handleHealTarget(ctx context.Context, runner contracts.CycleRunner, name string) (*HealResponse, error) {
	outcome, err := runner.RunCycle(ctx, name)
	if err != nil {
		return nil, err
	}

	status, err := parseHealthStatus(outcome.Probe.Status)
	if err != nil {
		return nil, err
	}

	resp := &HealResponse{}
	resp.Body.Target = name
	resp.Body.ProbeStatus = status
	resp.Body.ProbeDetail = outcome.Probe.Detail
	resp.Body.Decision = string(outcome.Decision)
	resp.Body.Event = toAPIEvent(outcome.Event)

	return resp, nil
}

func toAPIEvent(event *domain.RemediationEvent) *RemediationEvent {
	if event == nil {
		return nil
	}
	return &RemediationEvent{
		ID:          event.ID,
		Target:      event.Target,
		TriggeredAt: event.TriggeredAt,
		Result:      string(event.Result),
		Message:     event.Message,
	}
}
