package server

import (
	"github.com/agentstation/laprelay/internal/server/events"
	ws "github.com/agentstation/laprelay/internal/server/websocket"
)

// relayPublisher carries tracking signals to viewers. Group membership
// lives in the WebSocket hub; signals go through the broker so every
// transport sees them in order.
type relayPublisher struct {
	hub    *ws.Hub
	broker *events.Broker
}

func (p *relayPublisher) Join(clientID, group string) {
	p.hub.Join(clientID, group)
}

func (p *relayPublisher) Leave(clientID, group string) {
	p.hub.Leave(clientID, group)
}

func (p *relayPublisher) EmitToGroup(group, event string, data any) {
	p.broker.PublishToGroup(group, events.EventType(event), data)
}

func (p *relayPublisher) EmitToClient(clientID, event string, data any) {
	p.broker.PublishToClient(clientID, events.EventType(event), data)
}
