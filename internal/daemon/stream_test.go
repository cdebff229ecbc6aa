package daemon

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefleet/fleetd/internal/domain"
)

func TestEventStream_PublishReachesSubscriber(t *testing.T) {
	t.Parallel()

	stream := NewEventStream(hclog.NewNullLogger())

	srv := httptest.NewServer(stream)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	t.Cleanup(func() { _ = resp.Body.Close() })

	// Give the server goroutine a moment to register the subscriber.
	require.Eventually(t, func() bool {
		stream.mu.Lock()
		defer stream.mu.Unlock()
		return len(stream.subs) == 1
	}, time.Second, 10*time.Millisecond)

	published := domain.RemediationEvent{
		ID:          "evt-1",
		Target:      "wireguard",
		TriggeredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Result:      domain.EventResultSuccess,
		Message:     "remediation completed",
	}
	stream.Publish(published)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var received domain.RemediationEvent
	require.NoError(t, conn.ReadJSON(&received))

	assert.Equal(t, published.ID, received.ID)
	assert.Equal(t, published.Target, received.Target)
	assert.Equal(t, published.Result, received.Result)
	assert.Equal(t, published.Message, received.Message)
}

func TestEventStream_PublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	t.Parallel()

	stream := NewEventStream(hclog.NewNullLogger())

	done := make(chan struct{})
	go func() {
		stream.Publish(domain.RemediationEvent{ID: "evt-1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}

func TestEventStream_SlowSubscriberIsDropped(t *testing.T) {
	t.Parallel()

	stream := NewEventStream(hclog.NewNullLogger())

	// Register a subscriber directly and never drain it.
	ch := stream.subscribe()

	for range cap(ch) + 1 {
		stream.Publish(domain.RemediationEvent{ID: "evt"})
	}

	stream.mu.Lock()
	_, stillSubscribed := stream.subs[ch]
	stream.mu.Unlock()

	require.False(t, stillSubscribed, "a subscriber that stops draining must be dropped")
}
