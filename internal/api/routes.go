package api

import (
	"fmt"
	"net/url"
	"reflect"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/homefleet/fleetd/internal/agent"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/contracts"
)

// APIVersion is the version used in the OpenAPI spec and URL paths.
const APIVersion = "v1"

// RegisterRoutes registers all API routes on the provided Huma router.
// This is the single source of truth for the API route structure.
// Returns the API path prefix (e.g., "/api/v1") under which the routes are created.
func RegisterRoutes(
	router huma.API,
	monitor contracts.HealthMonitor,
	cfg config.Modifier,
	runner contracts.CycleRunner,
	reports *agent.Store,
	reportMaxAge time.Duration,
) (string, error) {
	if router == nil || reflect.ValueOf(router).IsNil() {
		return "", fmt.Errorf("router cannot be nil")
	}
	if monitor == nil || reflect.ValueOf(monitor).IsNil() {
		return "", fmt.Errorf("health monitor cannot be nil")
	}
	if cfg == nil || reflect.ValueOf(cfg).IsNil() {
		return "", fmt.Errorf("config cannot be nil")
	}
	if runner == nil || reflect.ValueOf(runner).IsNil() {
		return "", fmt.Errorf("cycle runner cannot be nil")
	}
	if reports == nil {
		return "", fmt.Errorf("report store cannot be nil")
	}

	// Safe way to ensure /api/{version}.
	apiPathPrefix, err := url.JoinPath("/api", APIVersion)
	if err != nil {
		return "", fmt.Errorf("failed to construct API path prefix: %w", err)
	}

	// Group all routes under the /api/{version} prefix.
	versionedGroup := huma.NewGroup(router, apiPathPrefix)
	RegisterHealthRoutes(versionedGroup, monitor, "/health")
	RegisterTargetRoutes(versionedGroup, cfg, runner, "/targets")
	RegisterReportRoutes(versionedGroup, reports, reportMaxAge, "/reports")

	return apiPathPrefix, nil
}
