package api

import (
	"context"
	"fmt"
	"time"

	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/domain"
	"github.com/homefleet/fleetd/internal/errors"
)

type stubMonitor struct {
	healths []domain.TargetHealth
}

func (s *stubMonitor) Status(name string) (domain.TargetHealth, error) {
	for _, th := range s.healths {
		if th.Name == name {
			return th, nil
		}
	}
	return domain.TargetHealth{}, fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, name)
}

func (s *stubMonitor) List() []domain.TargetHealth {
	out := make([]domain.TargetHealth, len(s.healths))
	copy(out, s.healths)
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

type stubConfig struct {
	targets []config.TargetEntry
}

func (s *stubConfig) AddTarget(entry config.TargetEntry) error {
	s.targets = append(s.targets, entry)
	return nil
}

func (s *stubConfig) RemoveTarget(string) error {
	return nil
}

func (s *stubConfig) ListTargets() []config.TargetEntry {
	out := make([]config.TargetEntry, len(s.targets))
	copy(out, s.targets)
	return out
}

func (s *stubConfig) Target(name string) (config.TargetEntry, bool) {
	for _, t := range s.targets {
		if t.Name == name {
			return t, true
		}
	}
	return config.TargetEntry{}, false
}

func (s *stubConfig) Notifier() config.NotifierConfig {
	return config.NotifierConfig{}
}

func (s *stubConfig) Bot() config.BotConfig {
	return config.BotConfig{}
}

func (s *stubConfig) Daemon() config.DaemonConfig {
	return config.DaemonConfig{}
}

func (s *stubConfig) InventoryFile() string {
	return ""
}
