package api

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/homefleet/fleetd/internal/agent"
)

// FleetReport is one host's self-reported health document plus its derived staleness.
type FleetReport struct {
	Host       string    `json:"host"`
	Uptime     string    `json:"uptime,omitempty"`
	Net        string    `json:"net,omitempty"`
	Docker     string    `json:"docker,omitempty"`
	ReportedAt time.Time `json:"reportedAt"`
	Stale      bool      `json:"stale"`
}

// SubmitReportRequest carries the raw report document so it can be validated
// against the report schema before decoding.
type SubmitReportRequest struct {
	RawBody []byte `contentType:"application/json"`
}

// SubmitReportResponse acknowledges an accepted report.
type SubmitReportResponse struct {
	Body struct {
		Host string `doc:"Host the report was stored for" json:"host"`
	}
}

// FleetReportsResponse is the response for GET /reports
type FleetReportsResponse struct {
	Body struct {
		Reports []FleetReport `doc:"Latest report per host" json:"reports"`
	}
}

// RegisterReportRoutes sets up fleet report API endpoint routes.
func RegisterReportRoutes(routerAPI huma.API, store *agent.Store, maxAge time.Duration, apiPathPrefix string) {
	reportAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Reports"}

	huma.Register(
		reportAPI,
		huma.Operation{
			OperationID: "submitReport",
			Method:      http.MethodPost,
			Path:        "",
			Summary:     "Submit a host health report",
			Tags:        tags,
		},
		func(ctx context.Context, input *SubmitReportRequest) (*SubmitReportResponse, error) {
			return handleSubmitReport(store, input.RawBody)
		},
	)

	huma.Register(
		reportAPI,
		huma.Operation{
			OperationID: "listReports",
			Method:      http.MethodGet,
			Path:        "",
			Summary:     "List the latest report for each host",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*FleetReportsResponse, error) {
			return handleListReports(store, maxAge)
		},
	)
}

// handleSubmitReport validates and stores an incoming host report.
func handleSubmitReport(store *agent.Store, body []byte) (*SubmitReportResponse, error) {
	report, err := agent.ParseReport(body)
	if err != nil {
		return nil, err
	}

	if err := store.Upsert(report); err != nil {
		return nil, err
	}

	resp := &SubmitReportResponse{}
	resp.Body.Host = report.Host

	return resp, nil
}

// handleListReports is the handler for listing retained host reports.
func handleListReports(store *agent.Store, maxAge time.Duration) (*FleetReportsResponse, error) {
	reports := store.List()

	slices.SortFunc(reports, func(a, b agent.Report) int {
		return strings.Compare(a.Host, b.Host)
	})

	now := time.Now().UTC()
	apiReports := make([]FleetReport, 0, len(reports))
	for _, r := range reports {
		apiReports = append(apiReports, FleetReport{
			Host:       r.Host,
			Uptime:     r.Uptime,
			Net:        r.Net,
			Docker:     r.Docker,
			ReportedAt: r.ReportedAt,
			Stale:      r.Stale(now, maxAge),
		})
	}

	resp := &FleetReportsResponse{}
	resp.Body.Reports = apiReports

	return resp, nil
}
