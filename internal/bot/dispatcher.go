// Package bot implements the chat-gateway command dispatcher. Incoming
// messages from the messaging gateway webhook are matched against a small
// command registry (fleet summaries, probes, manual heals, reboots) and
// answered with plain text suitable for a chat reply.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/homefleet/fleetd/internal/agent"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/contracts"
	"github.com/homefleet/fleetd/internal/domain"
)

// FleetProber probes every configured target once and returns the results
// keyed by target name.
type FleetProber interface {
	ProbeAll(ctx context.Context) map[string]domain.ProbeResult
}

// Rebooter dispatches the reboot command for an inventory host.
type Rebooter interface {
	Reboot(ctx context.Context, host config.InventoryHost) error
}

type keywordHandler func(ctx context.Context) string

type prefixHandler func(ctx context.Context, argument string) string

// Dispatcher routes incoming chat messages to command handlers.
type Dispatcher struct {
	logger       hclog.Logger
	allowed      map[string]struct{}
	monitor      contracts.HealthMonitor
	reports      *agent.Store
	reportMaxAge time.Duration
	runner       contracts.CycleRunner
	fleet        FleetProber
	rebooter     Rebooter
	inventory    config.Inventory
	clock        func() time.Time

	keywords map[string]keywordHandler
	prefixes map[string]prefixHandler
}

// Dependencies contains required collaborators for the Dispatcher.
type Dependencies struct {
	Logger       hclog.Logger
	Bot          config.BotConfig
	Monitor      contracts.HealthMonitor
	Reports      *agent.Store
	ReportMaxAge time.Duration
	Runner       contracts.CycleRunner
	Fleet        FleetProber
	Rebooter     Rebooter
	Inventory    config.Inventory
}

// Validate ensures all required dependencies are provided.
func (d Dependencies) Validate() error {
	if d.Logger == nil {
		return fmt.Errorf("logger cannot be nil")
	}
	if d.Monitor == nil {
		return fmt.Errorf("health monitor cannot be nil")
	}
	if d.Reports == nil {
		return fmt.Errorf("report store cannot be nil")
	}
	if d.Runner == nil {
		return fmt.Errorf("cycle runner cannot be nil")
	}
	if d.Fleet == nil {
		return fmt.Errorf("fleet prober cannot be nil")
	}
	return nil
}

// NewDispatcher creates a dispatcher with the command registry populated.
func NewDispatcher(deps Dependencies) (*Dispatcher, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for dispatcher: %w", err)
	}

	allowed := make(map[string]struct{}, len(deps.Bot.AllowedSenders))
	for _, sender := range deps.Bot.AllowedSenders {
		if s := strings.TrimSpace(sender); s != "" {
			allowed[s] = struct{}{}
		}
	}

	d := &Dispatcher{
		logger:       deps.Logger.Named("bot"),
		allowed:      allowed,
		monitor:      deps.Monitor,
		reports:      deps.Reports,
		reportMaxAge: deps.ReportMaxAge,
		runner:       deps.Runner,
		fleet:        deps.Fleet,
		rebooter:     deps.Rebooter,
		inventory:    deps.Inventory,
		clock:        func() time.Time { return time.Now().UTC() },
	}

	// Keyword commands take no argument; prefix commands consume the rest
	// of the message.
	d.keywords = map[string]keywordHandler{
		"fleet":   d.handleFleet,
		"stats":   d.handleFleet,
		"pingall": d.handlePingAll,
		"help":    d.handleHelp,
	}
	d.prefixes = map[string]prefixHandler{
		"status": d.handleStatus,
		"heal":   d.handleHeal,
		"reboot": d.handleReboot,
	}

	return d, nil
}

// Authorized reports whether the sender is on the allow-list. An empty
// allow-list refuses everyone: the webhook is reachable by the gateway and
// must not default open.
func (d *Dispatcher) Authorized(sender string) bool {
	_, ok := d.allowed[strings.TrimSpace(sender)]
	return ok
}

// Handle routes one incoming message and returns the reply text.
func (d *Dispatcher) Handle(ctx context.Context, sender, body string) string {
	if !d.Authorized(sender) {
		d.logger.Warn("unauthorized chat command rejected", "sender", sender)
		return "Unauthorized."
	}

	body = strings.ToLower(strings.TrimSpace(body))
	d.logger.Info("chat command received", "sender", sender, "command", body)

	for prefix, handler := range d.prefixes {
		if strings.HasPrefix(body, prefix+" ") {
			argument := strings.TrimSpace(strings.TrimPrefix(body, prefix+" "))
			return handler(ctx, argument)
		}
	}

	if handler, ok := d.keywords[body]; ok {
		return handler(ctx)
	}

	return d.handleHelp(ctx)
}

func (d *Dispatcher) handleFleet(_ context.Context) string {
	var b strings.Builder
	b.WriteString("Fleet dashboard")

	for _, th := range sortedHealths(d.monitor.List()) {
		b.WriteString(fmt.Sprintf("\n%s: %s", th.Name, th.Status))
		if th.LastChecked != nil {
			b.WriteString(fmt.Sprintf(" (checked %s)", th.LastChecked.Format(time.TimeOnly)))
		}
	}

	now := d.clock()
	for _, report := range sortedReports(d.reports.List()) {
		if report.Stale(now, d.reportMaxAge) {
			b.WriteString(fmt.Sprintf("\n%s: offline (last report %s)",
				report.Host, report.ReportedAt.Format(time.TimeOnly)))
			continue
		}
		b.WriteString(fmt.Sprintf("\n%s: up %s", report.Host, report.Uptime))
	}

	return b.String()
}

func (d *Dispatcher) handlePingAll(ctx context.Context) string {
	results := d.fleet.ProbeAll(ctx)

	online := 0
	for _, res := range results {
		if res.Status == domain.ProbeStatusOK {
			online++
		}
	}

	return fmt.Sprintf("Fleet ping\nOnline: %d/%d", online, len(results))
}

func (d *Dispatcher) handleStatus(_ context.Context, target string) string {
	th, err := d.monitor.Status(target)
	if err != nil {
		return fmt.Sprintf("Unknown target: %s", target)
	}

	reply := fmt.Sprintf("%s: %s", th.Name, th.Status)
	if th.LastHealAt != nil {
		reply += fmt.Sprintf("\nLast healed: %s", th.LastHealAt.Format(time.RFC3339))
	}
	return reply
}

func (d *Dispatcher) handleHeal(ctx context.Context, target string) string {
	outcome, err := d.runner.RunCycle(ctx, target)
	if err != nil {
		return fmt.Sprintf("Heal failed for %s: %v", target, err)
	}

	switch outcome.Decision {
	case domain.DecisionNoAction:
		return fmt.Sprintf("%s is healthy, nothing to do", target)
	case domain.DecisionSkipCooldown:
		return fmt.Sprintf("%s is unhealthy but cooling down, no action taken", target)
	case domain.DecisionHeal:
		if outcome.Event != nil {
			return fmt.Sprintf("Healing %s: %s", target, outcome.Event.Message)
		}
		return fmt.Sprintf("Healing %s", target)
	default:
		return fmt.Sprintf("Heal ran for %s", target)
	}
}

func (d *Dispatcher) handleReboot(ctx context.Context, host string) string {
	entry, ok := d.inventory.Host(host)
	if !ok {
		return fmt.Sprintf("Unknown host: %s", host)
	}
	if len(entry.RebootCommand) == 0 {
		return fmt.Sprintf("Host %s has no reboot command configured", host)
	}
	if d.rebooter == nil {
		return "Reboots are not enabled."
	}

	if err := d.rebooter.Reboot(ctx, entry); err != nil {
		return fmt.Sprintf("Reboot failed for %s: %v", host, err)
	}

	d.logger.Info("reboot dispatched", "host", host)
	return fmt.Sprintf("Reboot command sent to %s", host)
}

func (d *Dispatcher) handleHelp(_ context.Context) string {
	return "Commands:\n" +
		"- fleet: full dashboard\n" +
		"- pingall: probe every target\n" +
		"- status <target>\n" +
		"- heal <target>\n" +
		"- reboot <host>"
}
