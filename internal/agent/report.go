// Package agent handles fleet health reports pushed by hosts. Each host
// periodically publishes a small JSON document describing its own state;
// the daemon validates and retains the latest document per host so chat
// and dashboard surfaces can render a whole-fleet view.
package agent

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/homefleet/fleetd/internal/errors"
)

// Report is one host's self-reported health document.
type Report struct {
	Host       string    `json:"host"`
	Uptime     string    `json:"uptime,omitempty"`
	Net        string    `json:"net,omitempty"`
	Docker     string    `json:"docker,omitempty"`
	ReportedAt time.Time `json:"reported_at"`
}

// Stale reports whether the document is older than maxAge at the given time.
func (r Report) Stale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(r.ReportedAt) > maxAge
}

// Store retains the most recent report per host.
type Store struct {
	mu      sync.RWMutex
	reports map[string]Report
}

// NewStore creates an empty report store.
func NewStore() *Store {
	return &Store{
		reports: make(map[string]Report),
	}
}

// Upsert replaces the stored report for the document's host.
func (s *Store) Upsert(report Report) error {
	host := strings.TrimSpace(report.Host)
	if host == "" {
		return fmt.Errorf("%w: report host cannot be empty", errors.ErrReportInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[host] = report

	return nil
}

// Get returns the latest report for a host.
func (s *Store) Get(host string) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if report, ok := s.reports[host]; ok {
		return report, nil
	}

	return Report{}, fmt.Errorf("%w: %s", errors.ErrReportNotFound, host)
}

// List returns a copy of all retained reports.
func (s *Store) List() []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(maps.Values(s.reports))
}
