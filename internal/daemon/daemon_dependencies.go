package daemon

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/homefleet/fleetd/internal/config"
)

// Dependencies contains required dependencies for the Daemon.
// NewDependencies should be used to create instances of Dependencies.
type Dependencies struct {
	// APIAddr specifies the network address for the APIServer to bind (e.g., "0.0.0.0:8090").
	APIAddr string

	// Logger for daemon and subcomponent (API server, watch loops) operations.
	Logger hclog.Logger

	// Config is the loaded fleetd configuration.
	Config config.Modifier

	// StateDir is the directory holding persisted heal state markers.
	StateDir string
}

// NewDependencies creates validated Dependencies.
func NewDependencies(
	logger hclog.Logger,
	cfg config.Modifier,
	apiAddr string,
	stateDir string,
) (Dependencies, error) {
	deps := Dependencies{
		APIAddr:  apiAddr,
		Logger:   logger,
		Config:   cfg,
		StateDir: stateDir,
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

	if d.Config == nil || reflect.ValueOf(d.Config).IsNil() {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateAddr(d.APIAddr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.APIAddr, err)
	}

	if len(d.Config.ListTargets()) == 0 {
		return fmt.Errorf("no watched targets configured")
	}

	if d.StateDir == "" {
		return fmt.Errorf("state directory cannot be empty")
	}

	return nil
}
