package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefleet/fleetd/internal/agent"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/domain"
)

type stubMonitor struct {
	healths map[string]domain.TargetHealth
}

func (s *stubMonitor) Status(name string) (domain.TargetHealth, error) {
	if th, ok := s.healths[name]; ok {
		return th, nil
	}
	return domain.TargetHealth{}, fmt.Errorf("health not tracked for target '%s'", name)
}

func (s *stubMonitor) List() []domain.TargetHealth {
	out := make([]domain.TargetHealth, 0, len(s.healths))
	for _, th := range s.healths {
		out = append(out, th)
	}
	return out
}

func (s *stubMonitor) Update(string, domain.ProbeStatus, *time.Duration) error {
	return nil
}

func (s *stubMonitor) RecordHeal(string, time.Time) error {
	return nil
}

type stubRunner struct {
	outcome domain.CycleOutcome
	err     error
	calls   []string
}

func (s *stubRunner) RunCycle(_ context.Context, target string) (domain.CycleOutcome, error) {
	s.calls = append(s.calls, target)
	return s.outcome, s.err
}

type stubFleet struct {
	results map[string]domain.ProbeResult
}

func (s *stubFleet) ProbeAll(_ context.Context) map[string]domain.ProbeResult {
	return s.results
}

type stubRebooter struct {
	err   error
	hosts []string
}

func (s *stubRebooter) Reboot(_ context.Context, host config.InventoryHost) error {
	s.hosts = append(s.hosts, host.Name)
	return s.err
}

type dispatcherFixture struct {
	monitor    *stubMonitor
	reports    *agent.Store
	runner     *stubRunner
	fleet      *stubFleet
	rebooter   *stubRebooter
	dispatcher *Dispatcher
}

func newDispatcherFixture(t *testing.T, allowed []string) *dispatcherFixture {
	t.Helper()

	f := &dispatcherFixture{
		monitor: &stubMonitor{healths: map[string]domain.TargetHealth{
			"wireguard": {Name: "wireguard", Status: domain.ProbeStatusOK},
		}},
		reports:  agent.NewStore(),
		runner:   &stubRunner{},
		fleet:    &stubFleet{results: map[string]domain.ProbeResult{}},
		rebooter: &stubRebooter{},
	}

	dispatcher, err := NewDispatcher(Dependencies{
		Logger:       hclog.NewNullLogger(),
		Bot:          config.BotConfig{AllowedSenders: allowed},
		Monitor:      f.monitor,
		Reports:      f.reports,
		ReportMaxAge: 5 * time.Minute,
		Runner:       f.runner,
		Fleet:        f.fleet,
		Rebooter:     f.rebooter,
		Inventory: config.Inventory{Hosts: []config.InventoryHost{
			{Name: "aws", RebootCommand: []string{"ssh", "aws", "sudo", "reboot"}},
			{Name: "bare", RebootCommand: nil},
		}},
	})
	require.NoError(t, err)

	f.dispatcher = dispatcher
	return f
}

const sender = "whatsapp:+15550001111"

func TestDispatcher_Authorized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		allowed  []string
		sender   string
		expected bool
	}{
		{
			name:     "listed sender is authorized",
			allowed:  []string{sender},
			sender:   sender,
			expected: true,
		},
		{
			name:     "unlisted sender is refused",
			allowed:  []string{sender},
			sender:   "whatsapp:+15559998888",
			expected: false,
		},
		{
			name:     "empty allow-list refuses everyone",
			allowed:  nil,
			sender:   sender,
			expected: false,
		},
		{
			name:     "sender is trimmed before matching",
			allowed:  []string{sender},
			sender:   "  " + sender + "  ",
			expected: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newDispatcherFixture(t, tc.allowed)
			require.Equal(t, tc.expected, f.dispatcher.Authorized(tc.sender))
		})
	}
}

func TestDispatcher_Handle_Unauthorized(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture(t, nil)
	reply := f.dispatcher.Handle(t.Context(), sender, "fleet")

	require.Equal(t, "Unauthorized.", reply)
	require.Empty(t, f.runner.calls)
}

func TestDispatcher_Handle_UnknownCommandShowsHelp(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture(t, []string{sender})
	reply := f.dispatcher.Handle(t.Context(), sender, "make me a sandwich")

	require.Contains(t, reply, "Commands:")
}

func TestDispatcher_Handle_Fleet(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture(t, []string{sender})

	fresh := time.Now().UTC().Add(-time.Minute)
	stale := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, f.reports.Upsert(agent.Report{Host: "pi4", Uptime: "3 days, 4:12", ReportedAt: fresh}))
	require.NoError(t, f.reports.Upsert(agent.Report{Host: "aws", Uptime: "9 days, 1:03", ReportedAt: stale}))

	reply := f.dispatcher.Handle(t.Context(), sender, "fleet")

	assert.Contains(t, reply, "wireguard: ok")
	assert.Contains(t, reply, "pi4: up 3 days, 4:12")
	assert.Contains(t, reply, "aws: offline")
}

func TestDispatcher_Handle_PingAll(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture(t, []string{sender})
	f.fleet.results = map[string]domain.ProbeResult{
		"wireguard": {Status: domain.ProbeStatusOK},
		"plex":      {Status: domain.ProbeStatusFailed},
		"web":       {Status: domain.ProbeStatusOK},
	}

	reply := f.dispatcher.Handle(t.Context(), sender, "pingall")
	require.Contains(t, reply, "Online: 2/3")
}

func TestDispatcher_Handle_Status(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture(t, []string{sender})

	reply := f.dispatcher.Handle(t.Context(), sender, "status wireguard")
	require.Contains(t, reply, "wireguard: ok")

	reply = f.dispatcher.Handle(t.Context(), sender, "status ghost")
	require.Contains(t, reply, "Unknown target: ghost")
}

func TestDispatcher_Handle_Heal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		outcome  domain.CycleOutcome
		err      error
		expected string
	}{
		{
			name:     "healthy target",
			outcome:  domain.CycleOutcome{Decision: domain.DecisionNoAction},
			expected: "wireguard is healthy, nothing to do",
		},
		{
			name:     "cooldown active",
			outcome:  domain.CycleOutcome{Decision: domain.DecisionSkipCooldown},
			expected: "wireguard is unhealthy but cooling down, no action taken",
		},
		{
			name: "heal dispatched",
			outcome: domain.CycleOutcome{
				Decision: domain.DecisionHeal,
				Event:    &domain.RemediationEvent{Message: "remediation completed"},
			},
			expected: "Healing wireguard: remediation completed",
		},
		{
			name:     "cycle error",
			err:      fmt.Errorf("boom"),
			expected: "Heal failed for wireguard: boom",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newDispatcherFixture(t, []string{sender})
			f.runner.outcome = tc.outcome
			f.runner.err = tc.err

			reply := f.dispatcher.Handle(t.Context(), sender, "heal wireguard")
			require.Equal(t, tc.expected, reply)
			require.Equal(t, []string{"wireguard"}, f.runner.calls)
		})
	}
}

func TestDispatcher_Handle_Reboot(t *testing.T) {
	t.Parallel()

	t.Run("known host", func(t *testing.T) {
		t.Parallel()

		f := newDispatcherFixture(t, []string{sender})
		reply := f.dispatcher.Handle(t.Context(), sender, "reboot aws")

		require.Equal(t, "Reboot command sent to aws", reply)
		require.Equal(t, []string{"aws"}, f.rebooter.hosts)
	})

	t.Run("unknown host", func(t *testing.T) {
		t.Parallel()

		f := newDispatcherFixture(t, []string{sender})
		reply := f.dispatcher.Handle(t.Context(), sender, "reboot ghost")

		require.Equal(t, "Unknown host: ghost", reply)
		require.Empty(t, f.rebooter.hosts)
	})

	t.Run("host without reboot command", func(t *testing.T) {
		t.Parallel()

		f := newDispatcherFixture(t, []string{sender})
		reply := f.dispatcher.Handle(t.Context(), sender, "reboot bare")

		require.Contains(t, reply, "no reboot command configured")
		require.Empty(t, f.rebooter.hosts)
	})

	t.Run("reboot failure is reported", func(t *testing.T) {
		t.Parallel()

		f := newDispatcherFixture(t, []string{sender})
		f.rebooter.err = fmt.Errorf("ssh unreachable")

		reply := f.dispatcher.Handle(t.Context(), sender, "reboot aws")
		require.Contains(t, reply, "Reboot failed for aws")
	})
}

func TestDispatcher_Handle_CommandsAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture(t, []string{sender})
	reply := f.dispatcher.Handle(t.Context(), sender, "  STATUS wireguard ")

	require.Contains(t, reply, "wireguard: ok")
}
