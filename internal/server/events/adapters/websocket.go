// Package adapters connects the event broker to viewer transports and side
// stores by implementing events.Subscriber.
package adapters

import (
	"github.com/agentstation/laprelay/internal/server/events"
	ws "github.com/agentstation/laprelay/internal/server/websocket"
)

// WebSocketSubscriber routes broker events to WebSocket clients.
type WebSocketSubscriber struct {
	hub *ws.Hub
}

// NewWebSocketSubscriber creates a new WebSocket subscriber.
func NewWebSocketSubscriber(hub *ws.Hub) *WebSocketSubscriber {
	return &WebSocketSubscriber{hub: hub}
}

// Send delivers an event to its client, its group, or everyone, in that
// order of precedence.
func (w *WebSocketSubscriber) Send(event events.Event) error {
	msg := ws.Message{
		Type:      string(event.Type),
		Timestamp: event.Timestamp,
		Data:      event.Data,
	}
	switch {
	case event.ClientID != "":
		w.hub.SendToClient(event.ClientID, msg)
	case event.Group != "":
		w.hub.SendToGroup(event.Group, msg)
	default:
		w.hub.Broadcast(msg)
	}
	return nil
}

// Close is a no-op; the hub manages its own lifecycle.
func (w *WebSocketSubscriber) Close() error {
	return nil
}
