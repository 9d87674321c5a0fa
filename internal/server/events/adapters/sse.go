package adapters

import (
	"strconv"

	"github.com/agentstation/laprelay/internal/server/events"
	"github.com/agentstation/laprelay/internal/server/sse"
)

// SSESubscriber forwards group events to SSE streams. Events addressed to a
// single client are skipped, as SSE viewers cannot send commands.
type SSESubscriber struct {
	broadcaster *sse.Broadcaster
}

// NewSSESubscriber creates a new SSE subscriber.
func NewSSESubscriber(broadcaster *sse.Broadcaster) *SSESubscriber {
	return &SSESubscriber{broadcaster: broadcaster}
}

// Send delivers a group event to matching SSE streams.
func (s *SSESubscriber) Send(event events.Event) error {
	if event.ClientID != "" {
		return nil
	}
	s.broadcaster.BroadcastToGroup(event.Group, sse.Event{
		Event: string(event.Type),
		ID:    strconv.FormatInt(event.Timestamp.UnixNano(), 10),
		Data:  event.Data,
	})
	return nil
}

// Close is a no-op; the broadcaster manages its own lifecycle.
func (s *SSESubscriber) Close() error {
	return nil
}
