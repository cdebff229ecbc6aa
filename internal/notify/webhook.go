// Package notify forwards remediation events to an external messaging
// gateway. Delivery is fire-and-forget: a failed notification is logged by
// the caller and must never abort or roll back a remediation cycle.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/homefleet/fleetd/internal/config"
	"github.com/homefleet/fleetd/internal/contracts"
	"github.com/homefleet/fleetd/internal/domain"
	"github.com/homefleet/fleetd/internal/errors"
)

var (
	_ contracts.Notifier = (*WebhookNotifier)(nil)
	_ contracts.Notifier = (*NopNotifier)(nil)
)

// DefaultTimeout bounds a single webhook delivery attempt.
const DefaultTimeout = 5 * time.Second

// payload is the JSON document posted to the gateway.
type payload struct {
	Destination string    `json:"destination"`
	Target      string    `json:"target"`
	Result      string    `json:"result"`
	Message     string    `json:"message"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// WebhookNotifier posts remediation events to a configured gateway URL.
type WebhookNotifier struct {
	url     string
	timeout time.Duration
	logger  hclog.Logger

	// client overrides the HTTP client, primarily for tests.
	client *http.Client
}

// NewWebhookNotifier builds a notifier from the notifier config section.
// When no webhook URL is configured a NopNotifier is returned instead, so
// callers never need to nil-check.
func NewWebhookNotifier(logger hclog.Logger, cfg config.NotifierConfig) contracts.Notifier {
	url := strings.TrimSpace(cfg.WebhookURL)
	if url == "" {
		return &NopNotifier{}
	}

	timeout := DefaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout.Std()
	}

	return &WebhookNotifier{
		url:     url,
		timeout: timeout,
		logger:  logger.Named("notify"),
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, destination string, event domain.RemediationEvent) error {
	body, err := json.Marshal(payload{
		Destination: destination,
		Target:      event.Target,
		Result:      string(event.Result),
		Message:     event.Message,
		TriggeredAt: event.TriggeredAt,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrNotificationFailed, err)
	}

	notifyCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(notifyCtx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrNotificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrNotificationFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: gateway returned status %d", errors.ErrNotificationFailed, resp.StatusCode)
	}

	n.logger.Debug("notification delivered", "destination", destination, "target", event.Target)
	return nil
}

// NopNotifier discards events; used when no gateway is configured.
type NopNotifier struct{}

func (n *NopNotifier) Notify(_ context.Context, _ string, _ domain.RemediationEvent) error {
	return nil
}
