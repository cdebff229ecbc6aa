package daemon

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/homefleet/fleetd/internal/contracts"
	"github.com/homefleet/fleetd/internal/domain"
)

var _ contracts.EventSink = (*EventStream)(nil)

// EventStream fans remediation events out to WebSocket subscribers so a
// dashboard can follow the watchdog live. Slow subscribers are dropped
// rather than allowed to block the publishing cycle.
type EventStream struct {
	logger   hclog.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[chan domain.RemediationEvent]struct{}
}

// NewEventStream creates an empty stream.
func NewEventStream(logger hclog.Logger) *EventStream {
	return &EventStream{
		logger: logger.Named("stream"),
		upgrader: websocket.Upgrader{
			// The API already sits behind CORS configuration; the stream
			// accepts any origin the router let through.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subs: make(map[chan domain.RemediationEvent]struct{}),
	}
}

// Publish delivers an event to every subscriber without blocking.
func (s *EventStream) Publish(event domain.RemediationEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- event:
		default:
			// Subscriber is not keeping up; close and forget it.
			close(ch)
			delete(s.subs, ch)
		}
	}
}

// ServeHTTP upgrades the connection and streams events as JSON messages
// until the client disconnects.
func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				s.logger.Debug("websocket write failed, dropping subscriber", "error", err)
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (s *EventStream) subscribe() chan domain.RemediationEvent {
	ch := make(chan domain.RemediationEvent, 16)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[ch] = struct{}{}

	return ch
}

func (s *EventStream) unsubscribe(ch chan domain.RemediationEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}
