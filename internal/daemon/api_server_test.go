package daemon

import (
	"context"
	stdErrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefleet/fleetd/internal/agent"
	"github.com/homefleet/fleetd/internal/bot"
	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/domain"
	"github.com/homefleet/fleetd/internal/errors"
)

type noopRunner struct{}

func (noopRunner) RunCycle(context.Context, string) (domain.CycleOutcome, error) {
	return domain.CycleOutcome{Decision: domain.DecisionNoAction}, nil
}

type noopFleet struct{}

func (noopFleet) ProbeAll(context.Context) map[string]domain.ProbeResult {
	return nil
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "bad request",
			err:            errors.ErrBadRequest,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid report",
			err:            errors.ErrReportInvalid,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "target not found",
			err:            errors.ErrTargetNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "health not tracked",
			err:            errors.ErrHealthNotTracked,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "report not found",
			err:            errors.ErrReportNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "unknown host",
			err:            errors.ErrUnknownHost,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "remediation failed",
			err:            errors.ErrRemediationFailed,
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "state read failed",
			err:            errors.ErrStateRead,
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "state write failed",
			err:            errors.ErrStateWrite,
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "wrapped error still maps",
			err:            stdErrors.Join(errors.ErrTargetNotFound, stdErrors.New("wireguard")),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "unexpected error defaults to 500",
			err:            stdErrors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			statusErr := mapError(hclog.NewNullLogger(), tc.err)
			require.Equal(t, tc.expectedStatus, statusErr.GetStatus())
		})
	}
}

func newTestAPIServer(t *testing.T, allowedSenders []string) *APIServer {
	t.Helper()

	logger := hclog.NewNullLogger()
	tracker := NewHealthTracker([]string{"wireguard"})
	reports := agent.NewStore()

	dispatcher, err := bot.NewDispatcher(bot.Dependencies{
		Logger:       logger,
		Bot:          config.BotConfig{AllowedSenders: allowedSenders},
		Monitor:      tracker,
		Reports:      reports,
		ReportMaxAge: 5 * time.Minute,
		Runner:       noopRunner{},
		Fleet:        noopFleet{},
	})
	require.NoError(t, err)

	srv, err := NewAPIServer(APIDependencies{
		Addr:          "localhost:8090",
		Logger:        logger,
		HealthTracker: tracker,
		Config:        &config.Config{},
		Runner:        noopRunner{},
		Reports:       reports,
		ReportMaxAge:  5 * time.Minute,
		Dispatcher:    dispatcher,
	})
	require.NoError(t, err)

	return srv
}

func TestAPIServer_HandleChatWebhook(t *testing.T) {
	t.Parallel()

	const sender = "whatsapp:+15550001111"

	t.Run("authorized sender gets a reply", func(t *testing.T) {
		t.Parallel()

		srv := newTestAPIServer(t, []string{sender})

		form := url.Values{"Body": {"heal wireguard"}, "From": {sender}}
		req := httptest.NewRequest(http.MethodPost, "/hooks/chat", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		srv.handleChatWebhook(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, "wireguard is healthy, nothing to do", string(body))
	})

	t.Run("unknown sender is refused", func(t *testing.T) {
		t.Parallel()

		srv := newTestAPIServer(t, []string{sender})

		form := url.Values{"Body": {"fleet"}, "From": {"whatsapp:+15559998888"}}
		req := httptest.NewRequest(http.MethodPost, "/hooks/chat", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		srv.handleChatWebhook(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, "Unauthorized.", string(body))
	})
}

func TestNewAPIServer_InvalidDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewAPIServer(APIDependencies{})
	require.Error(t, err)
}
