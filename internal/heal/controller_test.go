package heal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/domain"
	"github.com/homefleet/fleetd/internal/errors"
)

type fakeProber struct {
	mu     sync.Mutex
	result domain.ProbeResult
	delay  time.Duration
	calls  int
}

func (f *fakeProber) Check(_ context.Context) domain.ProbeResult {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = f.calls + 1
	return f.result
}

type fakeRemediator struct {
	mu      sync.Mutex
	ok      bool
	message string
	calls   int
}

func (f *fakeRemediator) Remediate(_ context.Context) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = f.calls + 1
	return f.ok, f.message
}

func (f *fakeRemediator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu     sync.Mutex
	err    error
	events []domain.RemediationEvent
	dests  []string
}

func (f *fakeNotifier) Notify(_ context.Context, destination string, event domain.RemediationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	f.dests = append(f.dests, destination)
	return f.err
}

type fakeStore struct {
	mu      sync.Mutex
	state   domain.HealState
	loadErr error
	saveErr error
	saves   []domain.HealState
}

func (f *fakeStore) Load(_ string) (domain.HealState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return domain.HealState{}, f.loadErr
	}
	return f.state, nil
}

func (f *fakeStore) Save(_ string, state domain.HealState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, state)
	f.state = state
	return nil
}

type fakeMonitor struct {
	mu      sync.Mutex
	updates int
	heals   []time.Time
}

func (f *fakeMonitor) Status(name string) (domain.TargetHealth, error) {
	return domain.TargetHealth{Name: name}, nil
}

func (f *fakeMonitor) List() []domain.TargetHealth {
	return nil
}

func (f *fakeMonitor) Update(_ string, _ domain.ProbeStatus, _ *time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = f.updates + 1
	return nil
}

func (f *fakeMonitor) RecordHeal(_ string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heals = append(f.heals, at)
	return nil
}

type fakeSink struct {
	mu     sync.Mutex
	events []domain.RemediationEvent
}

func (f *fakeSink) Publish(event domain.RemediationEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func testEntry(t *testing.T) config.TargetEntry {
	t.Helper()

	return config.TargetEntry{
		Name:        "wireguard",
		Probe:       config.ProbeKindCommand,
		Command:     []string{"true"},
		Cooldown:    config.Duration(10 * time.Minute),
		HealCommand: []string{"systemctl", "restart", "wg-quick@wg0"},
		Notify:      "ops",
	}
}

type controllerFixture struct {
	prober     *fakeProber
	remediator *fakeRemediator
	notifier   *fakeNotifier
	store      *fakeStore
	monitor    *fakeMonitor
	sink       *fakeSink
	controller *Controller
}

func newControllerFixture(t *testing.T, entry config.TargetEntry, now time.Time) *controllerFixture {
	t.Helper()

	f := &controllerFixture{
		prober:     &fakeProber{result: domain.ProbeResult{Status: domain.ProbeStatusFailed, Detail: "timeout"}},
		remediator: &fakeRemediator{ok: true, message: "remediation completed"},
		notifier:   &fakeNotifier{},
		store:      &fakeStore{},
		monitor:    &fakeMonitor{},
		sink:       &fakeSink{},
	}

	controller, err := NewController(Dependencies{
		Target:     entry,
		Logger:     hclog.NewNullLogger(),
		Prober:     f.prober,
		Remediator: f.remediator,
		Notifier:   f.notifier,
		Store:      f.store,
		Monitor:    f.monitor,
		Sink:       f.sink,
	}, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	f.controller = controller
	return f
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 10 * time.Minute
	healedAt := func(ago time.Duration) *time.Time {
		at := now.Add(-ago)
		return &at
	}

	tests := []struct {
		name     string
		probe    domain.ProbeResult
		state    domain.HealState
		expected domain.Decision
	}{
		{
			name:     "healthy probe never acts",
			probe:    domain.ProbeResult{Status: domain.ProbeStatusOK},
			state:    domain.HealState{LastHealAt: healedAt(time.Hour), Cooldown: cooldown},
			expected: domain.DecisionNoAction,
		},
		{
			name:     "unknown probe never acts",
			probe:    domain.ProbeResult{Status: domain.ProbeStatusUnknown},
			state:    domain.HealState{Cooldown: cooldown},
			expected: domain.DecisionNoAction,
		},
		{
			name:     "never healed heals immediately",
			probe:    domain.ProbeResult{Status: domain.ProbeStatusFailed},
			state:    domain.HealState{Cooldown: cooldown},
			expected: domain.DecisionHeal,
		},
		{
			name:     "degraded counts as unhealthy",
			probe:    domain.ProbeResult{Status: domain.ProbeStatusDegraded},
			state:    domain.HealState{Cooldown: cooldown},
			expected: domain.DecisionHeal,
		},
		{
			name:     "heal just dispatched suppresses",
			probe:    domain.ProbeResult{Status: domain.ProbeStatusFailed},
			state:    domain.HealState{LastHealAt: healedAt(0), Cooldown: cooldown},
			expected: domain.DecisionSkipCooldown,
		},
		{
			name:     "mid cooldown suppresses",
			probe:    domain.ProbeResult{Status: domain.ProbeStatusFailed},
			state:    domain.HealState{LastHealAt: healedAt(5 * time.Minute), Cooldown: cooldown},
			expected: domain.DecisionSkipCooldown,
		},
		{
			name:     "one second before boundary suppresses",
			probe:    domain.ProbeResult{Status: domain.ProbeStatusFailed},
			state:    domain.HealState{LastHealAt: healedAt(cooldown - time.Second), Cooldown: cooldown},
			expected: domain.DecisionSkipCooldown,
		},
		{
			name:     "exact boundary heals",
			probe:    domain.ProbeResult{Status: domain.ProbeStatusFailed},
			state:    domain.HealState{LastHealAt: healedAt(cooldown), Cooldown: cooldown},
			expected: domain.DecisionHeal,
		},
		{
			name:     "past boundary heals",
			probe:    domain.ProbeResult{Status: domain.ProbeStatusFailed},
			state:    domain.HealState{LastHealAt: healedAt(cooldown + time.Second), Cooldown: cooldown},
			expected: domain.DecisionHeal,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, Evaluate(tc.probe, tc.state, now))
		})
	}
}

func TestController_RunCycle_HealthyNeverDispatches(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newControllerFixture(t, testEntry(t), now)
	f.prober.result = domain.ProbeResult{Status: domain.ProbeStatusOK}

	outcome, err := f.controller.RunCycle(t.Context())
	require.NoError(t, err)

	require.Equal(t, domain.DecisionNoAction, outcome.Decision)
	require.Nil(t, outcome.Event)
	require.Zero(t, f.remediator.callCount())
	require.Empty(t, f.store.saves)
	require.Empty(t, f.notifier.events)
	require.Equal(t, 1, f.monitor.updates)
}

func TestController_RunCycle_FirstFailureHeals(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newControllerFixture(t, testEntry(t), now)

	outcome, err := f.controller.RunCycle(t.Context())
	require.NoError(t, err)

	require.Equal(t, domain.DecisionHeal, outcome.Decision)
	require.Equal(t, 1, f.remediator.callCount())

	require.NotNil(t, outcome.Event)
	assert.Equal(t, domain.EventResultSuccess, outcome.Event.Result)
	assert.Equal(t, "wireguard", outcome.Event.Target)
	assert.Equal(t, now, outcome.Event.TriggeredAt)
	assert.NotEmpty(t, outcome.Event.ID)

	require.Len(t, f.store.saves, 1)
	require.NotNil(t, f.store.saves[0].LastHealAt)
	assert.Equal(t, now, *f.store.saves[0].LastHealAt)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, "ops", f.notifier.dests[0])
	require.Len(t, f.sink.events, 1)
	require.Len(t, f.monitor.heals, 1)
}

func TestController_RunCycle_CooldownSuppresses(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newControllerFixture(t, testEntry(t), now)

	lastHeal := now.Add(-5 * time.Minute)
	f.store.state = domain.HealState{LastHealAt: &lastHeal}

	outcome, err := f.controller.RunCycle(t.Context())
	require.NoError(t, err)

	require.Equal(t, domain.DecisionSkipCooldown, outcome.Decision)
	require.Nil(t, outcome.Event)
	require.Zero(t, f.remediator.callCount())
	require.Empty(t, f.store.saves, "suppressed cycles must not touch the cooldown marker")
	require.Empty(t, f.notifier.events)
}

func TestController_RunCycle_SuppressedNotificationOptIn(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := testEntry(t)
	entry.NotifySuppressed = true
	f := newControllerFixture(t, entry, now)

	lastHeal := now.Add(-5 * time.Minute)
	f.store.state = domain.HealState{LastHealAt: &lastHeal}

	outcome, err := f.controller.RunCycle(t.Context())
	require.NoError(t, err)

	require.Equal(t, domain.DecisionSkipCooldown, outcome.Decision)
	require.Zero(t, f.remediator.callCount())
	require.Empty(t, f.store.saves)

	require.NotNil(t, outcome.Event)
	assert.Equal(t, domain.EventResultSuppressed, outcome.Event.Result)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, domain.EventResultSuppressed, f.notifier.events[0].Result)
}

func TestController_RunCycle_CooldownElapsedHealsAgain(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newControllerFixture(t, testEntry(t), now)

	lastHeal := now.Add(-10 * time.Minute) // exactly the configured cooldown
	f.store.state = domain.HealState{LastHealAt: &lastHeal}

	outcome, err := f.controller.RunCycle(t.Context())
	require.NoError(t, err)

	require.Equal(t, domain.DecisionHeal, outcome.Decision)
	require.Equal(t, 1, f.remediator.callCount())
	require.Len(t, f.store.saves, 1)
	assert.Equal(t, now, *f.store.saves[0].LastHealAt)
}

func TestController_RunCycle_FailedActionStillStartsCooldown(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newControllerFixture(t, testEntry(t), now)
	f.remediator.ok = false
	f.remediator.message = "remediation failed: exit status 1"

	outcome, err := f.controller.RunCycle(t.Context())
	require.ErrorIs(t, err, errors.ErrRemediationFailed)

	require.Equal(t, domain.DecisionHeal, outcome.Decision)
	require.NotNil(t, outcome.Event)
	assert.Equal(t, domain.EventResultFailure, outcome.Event.Result)

	// A failing action must not retry every probe interval.
	require.Len(t, f.store.saves, 1)
	require.NotNil(t, f.store.saves[0].LastHealAt)
	assert.Equal(t, now, *f.store.saves[0].LastHealAt)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, domain.EventResultFailure, f.notifier.events[0].Result)
}

func TestController_RunCycle_StateReadFailureAbortsBeforeDispatch(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newControllerFixture(t, testEntry(t), now)
	f.store.loadErr = errors.ErrStateRead

	_, err := f.controller.RunCycle(t.Context())
	require.ErrorIs(t, err, errors.ErrStateRead)

	require.Zero(t, f.remediator.callCount(), "must not dispatch with an unknown cooldown")
	require.Empty(t, f.notifier.events)
}

func TestController_RunCycle_StateWriteFailureSurfacesAfterSingleDispatch(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newControllerFixture(t, testEntry(t), now)
	f.store.saveErr = errors.ErrStateWrite

	outcome, err := f.controller.RunCycle(t.Context())
	require.ErrorIs(t, err, errors.ErrStateWrite)

	require.Equal(t, 1, f.remediator.callCount())
	require.NotNil(t, outcome.Event)
	assert.Equal(t, domain.EventResultSuccess, outcome.Event.Result)
	require.Len(t, f.notifier.events, 1, "the event still goes out after a write failure")
}

func TestController_RunCycle_NotifierFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newControllerFixture(t, testEntry(t), now)
	f.notifier.err = errors.ErrNotificationFailed

	outcome, err := f.controller.RunCycle(t.Context())
	require.NoError(t, err)

	require.Equal(t, domain.DecisionHeal, outcome.Decision)
	require.Len(t, f.store.saves, 1, "cooldown stays authoritative even when nobody was told")
}

func TestController_RunCycle_ConcurrentTriggersShareOneCycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newControllerFixture(t, testEntry(t), now)
	f.prober.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.controller.RunCycle(t.Context())
		}()
	}
	wg.Wait()

	require.Equal(t, 1, f.remediator.callCount(), "overlapping triggers collapse into one dispatch")
}
