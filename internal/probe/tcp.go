package probe

import (
	"context"
	"net"
	"time"

	"github.com/homefleet/fleetd/internal/domain"
)

// TCPProber checks a target by dialing its host:port address.
// A completed dial within the timeout is ok; anything else is failed.
type TCPProber struct {
	Address string
	Timeout time.Duration
}

func (p *TCPProber) Check(ctx context.Context) domain.ProbeResult {
	started := time.Now()

	dialer := &net.Dialer{Timeout: p.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return result(domain.ProbeStatusFailed, started, DetailTimeout)
		}
		return failure(err, started)
	}
	_ = conn.Close()

	return result(domain.ProbeStatusOK, started, "")
}
