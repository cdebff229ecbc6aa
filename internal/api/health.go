package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/homefleet/fleetd/internal/contracts"
	"github.com/homefleet/fleetd/internal/domain"
)

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusFailed   HealthStatus = "failed"
	HealthStatusUnknown  HealthStatus = "unknown"
)

// DomainTargetHealth is a wrapper that allows receivers to be declared in the API package that deal with domain types.
type DomainTargetHealth domain.TargetHealth

// HealthStatus represents the current status of a watched target as established by its probes.
type HealthStatus string

// TargetHealth is used to provide information about the ongoing health checks performed on watched targets.
type TargetHealth struct {
	Name           string       `json:"name"`
	Status         HealthStatus `json:"status"`
	Latency        *string      `json:"latency,omitempty"`
	LastChecked    *time.Time   `json:"lastChecked,omitempty"`
	LastSuccessful *time.Time   `json:"lastSuccessful,omitempty"`
	LastHealAt     *time.Time   `json:"lastHealAt,omitempty"`
}

// TargetsHealthResponse is the response for GET /health/targets
type TargetsHealthResponse struct {
	Body struct {
		Targets []TargetHealth `doc:"Tracked target health statuses" json:"targets"`
	}
}

// TargetHealthRequest represents the incoming request for obtaining TargetHealth.
type TargetHealthRequest struct {
	Name string `doc:"Name of the target to check" example:"wireguard" path:"name"`
}

// TargetHealthResponse represents the wrapped API response for a TargetHealth.
type TargetHealthResponse struct {
	Body TargetHealth
}

// ToAPIType can be used to convert a wrapped domain type to an API-safe type.
func (d DomainTargetHealth) ToAPIType() (TargetHealth, error) {
	status, err := parseHealthStatus(d.Status)
	if err != nil {
		return TargetHealth{}, err
	}

	var latency *string
	if d.Latency != nil {
		s := d.Latency.String()
		latency = &s
	}
	return TargetHealth{
		Name:           d.Name,
		Status:         status,
		Latency:        latency,
		LastChecked:    d.LastChecked,
		LastSuccessful: d.LastSuccessful,
		LastHealAt:     d.LastHealAt,
	}, nil
}

// RegisterHealthRoutes sets up health-related API endpoint routes.
func RegisterHealthRoutes(routerAPI huma.API, monitor contracts.HealthMonitor, apiPathPrefix string) {
	healthAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Health"}

	huma.Register(
		healthAPI,
		huma.Operation{
			OperationID: "listTargetsHealth",
			Method:      http.MethodGet,
			Path:        "/targets",
			Summary:     "List the health statuses for all targets",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*TargetsHealthResponse, error) {
			return handleHealthTargets(monitor)
		},
	)

	huma.Register(
		healthAPI,
		huma.Operation{
			OperationID: "getTargetHealth",
			Method:      http.MethodGet,
			Path:        "/targets/{name}",
			Summary:     "Get the health status of a target",
			Tags:        tags,
		},
		func(ctx context.Context, input *TargetHealthRequest) (*TargetHealthResponse, error) {
			return handleHealthTarget(monitor, input.Name)
		},
	)
}

// handleHealthTargets is the handler for retrieving the current health for all watched targets.
func handleHealthTargets(monitor contracts.HealthMonitor) (*TargetsHealthResponse, error) {
	targets := monitor.List()

	slices.SortFunc(targets, func(a, b domain.TargetHealth) int {
		return strings.Compare(a.Name, b.Name)
	})

	apiTargets := make([]TargetHealth, 0, len(targets))
	for _, t := range targets {
		data, err := DomainTargetHealth(t).ToAPIType()
		if err != nil {
			return nil, err
		}
		apiTargets = append(apiTargets, data)
	}

	resp := &TargetsHealthResponse{}
	resp.Body.Targets = apiTargets

	return resp, nil
}

// handleHealthTarget is the handler for retrieving the current health of the specified watched target.
func handleHealthTarget(monitor contracts.HealthMonitor, name string) (*TargetHealthResponse, error) {
	health, err := monitor.Status(name)
	if err != nil {
		return nil, err
	}

	data, err := DomainTargetHealth(health).ToAPIType()
	if err != nil {
		return nil, err
	}

	response := TargetHealthResponse{}
	response.Body = data

	return &response, nil
}

func parseHealthStatus(status domain.ProbeStatus) (HealthStatus, error) {
	switch status {
	case domain.ProbeStatusOK:
		return HealthStatusOK, nil
	case domain.ProbeStatusDegraded:
		return HealthStatusDegraded, nil
	case domain.ProbeStatusFailed:
		return HealthStatusFailed, nil
	case domain.ProbeStatusUnknown:
		return HealthStatusUnknown, nil
	default:
		return "", fmt.Errorf("unknown health status: %s", status)
	}
}
