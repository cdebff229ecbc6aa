package daemon

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/homefleet/fleetd/internal/agent"
	"github.com/homefleet/fleetd/internal/bot"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/contracts"
	"github.com/homefleet/fleetd/internal/domain"
	"github.com/homefleet/fleetd/internal/errors"
	"github.com/homefleet/fleetd/internal/heal"
	"github.com/homefleet/fleetd/internal/notify"
	"github.com/homefleet/fleetd/internal/probe"
	"github.com/homefleet/fleetd/internal/remedy"
	"github.com/homefleet/fleetd/internal/state"
)

var _ contracts.CycleRunner = (*Daemon)(nil)

// Daemon wires the watchdog together: one watch loop per configured target,
// the shared health tracker, the live event stream, and the HTTP API.
type Daemon struct {
	logger      hclog.Logger
	apiServer   *APIServer
	tracker     *HealthTracker
	stream      *EventStream
	reports     *agent.Store
	controllers map[string]*heal.Controller
	probers     map[string]contracts.Prober
	intervals   map[string]time.Duration
}

// NewDaemon creates a fully wired daemon from validated dependencies.
func NewDaemon(deps Dependencies, opt ...Option) (*Daemon, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for daemon: %w", err)
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid daemon options: %w", err)
	}

	logger := deps.Logger.Named("daemon")
	targets := deps.Config.ListTargets()

	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name)
	}

	d := &Daemon{
		logger:      logger,
		tracker:     NewHealthTracker(names),
		stream:      NewEventStream(logger),
		reports:     agent.NewStore(),
		controllers: make(map[string]*heal.Controller, len(targets)),
		probers:     make(map[string]contracts.Prober, len(targets)),
		intervals:   make(map[string]time.Duration, len(targets)),
	}

	store, err := state.NewFileStore(deps.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create heal state store: %w", err)
	}

	notifier := notify.NewWebhookNotifier(logger, deps.Config.Notifier())

	for _, entry := range targets {
		prober, err := probe.New(entry)
		if err != nil {
			return nil, err
		}

		remediator, err := remedy.NewCommandRunner(logger, entry)
		if err != nil {
			return nil, err
		}

		controllerDeps := heal.Dependencies{
			Target:     entry,
			Logger:     logger.Named("watchdog"),
			Prober:     prober,
			Remediator: remediator,
			Notifier:   notifier,
			Store:      store,
			Monitor:    d.tracker,
			Sink:       d.stream,
		}

		controller, err := heal.NewController(controllerDeps)
		if err != nil {
			return nil, fmt.Errorf("failed to create controller for target '%s': %w", entry.Name, err)
		}

		d.controllers[entry.Name] = controller
		d.probers[entry.Name] = prober
		d.intervals[entry.Name] = entry.ProbeInterval()
	}

	inventory, err := config.LoadInventory(deps.Config.InventoryFile())
	if err != nil {
		return nil, err
	}

	dispatcher, err := bot.NewDispatcher(bot.Dependencies{
		Logger:       logger,
		Bot:          deps.Config.Bot(),
		Monitor:      d.tracker,
		Reports:      d.reports,
		ReportMaxAge: opts.ReportMaxAge,
		Runner:       d,
		Fleet:        d,
		Rebooter:     NewCommandRebooter(logger),
		Inventory:    inventory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat dispatcher: %w", err)
	}

	apiDeps := APIDependencies{
		Addr:         deps.APIAddr,
		Logger:       logger,
		HealthTracker: d.tracker,
		Config:       deps.Config,
		Runner:       d,
		Reports:      d.reports,
		ReportMaxAge: opts.ReportMaxAge,
		Dispatcher:   dispatcher,
		Stream:       d.stream,
	}

	apiServer, err := NewAPIServer(apiDeps, opts.APIOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon API server: %w", err)
	}
	d.apiServer = apiServer

	return d, nil
}

// StartAndManage runs the API server and one watch loop per target until
// the context is canceled.
func (d *Daemon) StartAndManage(ctx context.Context) error {
	d.logger.Info("starting watchdog", "targets", len(d.controllers))

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.apiServer.Start(groupCtx)
	})

	for name, controller := range d.controllers {
		g.Go(func() error {
			d.watchLoop(groupCtx, controller, d.intervals[name])
			return nil
		})
	}

	return g.Wait()
}

// watchLoop drives the remediation cycle for one target on its configured
// cadence, starting with an immediate cycle.
func (d *Daemon) watchLoop(ctx context.Context, controller *heal.Controller, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.runScheduledCycle(ctx, controller)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("stopping watch loop", "target", controller.Name())
			return
		case <-ticker.C:
			d.runScheduledCycle(ctx, controller)
		}
	}
}

// runScheduledCycle runs one cycle and logs cycle-level failures; scheduled
// cycles have no caller to propagate errors to.
func (d *Daemon) runScheduledCycle(ctx context.Context, controller *heal.Controller) {
	if _, err := controller.RunCycle(ctx); err != nil {
		d.logger.Error("watchdog cycle failed", "target", controller.Name(), "error", err)
	}
}

// RunCycle triggers a full cycle for a named target (manual heal via API or
// chat). Concurrent triggers collapse into the target's active cycle.
func (d *Daemon) RunCycle(ctx context.Context, target string) (domain.CycleOutcome, error) {
	controller, ok := d.controllers[target]
	if !ok {
		return domain.CycleOutcome{}, fmt.Errorf("%w: %s", errors.ErrTargetNotFound, target)
	}
	return controller.RunCycle(ctx)
}

// ProbeAll probes every configured target once, concurrently, and returns
// the results keyed by target name. Used by the chat 'pingall' command.
func (d *Daemon) ProbeAll(ctx context.Context) map[string]domain.ProbeResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]domain.ProbeResult, len(d.probers))
	)

	for name, prober := range d.probers {
		wg.Add(1)
		go func(name string, prober contracts.Prober) {
			defer wg.Done()

			res := prober.Check(ctx)

			mu.Lock()
			results[name] = res
			mu.Unlock()
		}(name, prober)
	}

	wg.Wait()
	return results
}

// IsValidAddr returns an error if the address is not a valid "host:port" string.
func IsValidAddr(addr string) error {
	return validateAddr(addr)
}

// validateAddr checks if the address is a valid "host:port" string.
func validateAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address format: %w", err)
	}

	if port == "" {
		return fmt.Errorf("address missing port")
	}

	if _, err := strconv.Atoi(port); err != nil {
		if _, err := net.LookupPort("tcp", port); err != nil {
			return fmt.Errorf("invalid address port: %s", port)
		}
	}

	_ = host // it's ok to accept an empty host (listens on all interfaces)

	return nil
}
