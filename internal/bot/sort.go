package bot

import (
	"slices"
	"strings"

	"github.com/homefleet/fleetd/internal/agent"
	"github.com/homefleet/fleetd/internal/domain"
)

func sortedHealths(healths []domain.TargetHealth) []domain.TargetHealth {
	slices.SortFunc(healths, func(a, b domain.TargetHealth) int {
		return strings.Compare(a.Name, b.Name)
	})
	return healths
}

func sortedReports(reports []agent.Report) []agent.Report {
	slices.SortFunc(reports, func(a, b agent.Report) int {
		return strings.Compare(a.Host, b.Host)
	})
	return reports
}
