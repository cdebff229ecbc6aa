package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/homefleet/fleetd/internal/domain"
)

// HTTPProber checks a target by issuing a GET request to its health URL.
// 2xx responses are ok, 5xx responses that still arrive within the timeout
// are degraded (the endpoint answers but reports trouble), everything else
// is failed.
type HTTPProber struct {
	URL     string
	Timeout time.Duration

	// Client overrides the HTTP client, primarily for tests.
	Client *http.Client
}

func (p *HTTPProber) Check(ctx context.Context) domain.ProbeResult {
	started := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, p.URL, nil)
	if err != nil {
		return result(domain.ProbeStatusFailed, started, fmt.Sprintf("invalid probe url: %v", err))
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		// The transport wraps deadline errors in *url.Error; unwrap so
		// timeouts keep their fixed detail string.
		var urlErr *url.Error
		if errors.As(err, &urlErr) && (urlErr.Timeout() || os.IsTimeout(urlErr)) {
			return result(domain.ProbeStatusFailed, started, DetailTimeout)
		}
		return failure(err, started)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return result(domain.ProbeStatusOK, started, "")
	case resp.StatusCode >= 500:
		return result(domain.ProbeStatusDegraded, started, fmt.Sprintf("http status %d", resp.StatusCode))
	default:
		return result(domain.ProbeStatusFailed, started, fmt.Sprintf("http status %d", resp.StatusCode))
	}
}
