package daemon

import (
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/homefleet/fleetd/internal/agent"
	"github.com/homefleet/fleetd/internal/bot"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/contracts"
)

// APIDependencies contains required dependencies for the APIServer.
type APIDependencies struct {
	// Addr specifies the network address to bind.
	Addr string

	// Logger for API server operations.
	Logger hclog.Logger

	// HealthTracker monitors target health status.
	HealthTracker contracts.HealthMonitor

	// Config provides the configured targets.
	Config config.Modifier

	// Runner triggers manual remediation cycles.
	Runner contracts.CycleRunner

	// Reports retains agent fleet health documents.
	Reports *agent.Store

	// ReportMaxAge is the staleness cutoff applied when listing reports.
	ReportMaxAge time.Duration

	// Dispatcher handles chat-gateway webhook messages.
	Dispatcher *bot.Dispatcher

	// Stream serves the WebSocket remediation-event feed.
	Stream http.Handler
}

// Validate ensures all required dependencies are provided and valid.
func (d APIDependencies) Validate() error {
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	if d.HealthTracker == nil {
		return fmt.Errorf("health tracker cannot be nil")
	}
	if d.Config == nil || reflect.ValueOf(d.Config).IsNil() {
		return fmt.Errorf("config cannot be nil")
	}
	if d.Runner == nil {
		return fmt.Errorf("cycle runner cannot be nil")
	}
	if d.Reports == nil {
		return fmt.Errorf("report store cannot be nil")
	}
	if d.Dispatcher == nil {
		return fmt.Errorf("chat dispatcher cannot be nil")
	}

	if err := validateAddr(d.Addr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.Addr, err)
	}

	return nil
}
