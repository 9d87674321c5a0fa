// Package websocket provides the viewer WebSocket transport: a hub of
// connected clients organised in driver groups, and per-connection pumps
// that turn incoming frames into tracking commands.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CommandHandler reacts to client commands and disconnects. Calls for one
// client are sequential. The command context is canceled when the client
// disconnects, and HandleDisconnect runs after the last command returns.
type CommandHandler interface {
	HandleCommand(ctx context.Context, clientID string, cmd Command)
	HandleDisconnect(clientID string)
}

// Hub maintains active WebSocket connections and routes messages to all
// clients, one group, or one client.
type Hub struct {
	clients    map[*Client]bool
	byID       map[string]*Client
	groups     map[string]map[*Client]bool
	deliveries chan delivery
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zerolog.Logger
	handler    CommandHandler
}

// delivery is a message with its audience; empty group and clientID mean
// every client.
type delivery struct {
	message  Message
	group    string
	clientID string
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byID:       make(map[string]*Client),
		groups:     make(map[string]map[*Client]bool),
		deliveries: make(chan delivery, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// SetCommandHandler sets the receiver of client commands.
func (h *Hub) SetCommandHandler(handler CommandHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

func (h *Hub) commandHandler() CommandHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handler
}

// Run starts the hub's delivery loop. Should be called in a goroutine.
// The hub will run until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.byID = make(map[string]*Client)
			h.groups = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			h.logger.Info().Msg("WebSocket hub shut down")
			return

		case d := <-h.deliveries:
			h.deliver(d)
		}
	}
}

func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var targets []*Client
	switch {
	case d.clientID != "":
		if c, ok := h.byID[d.clientID]; ok {
			targets = []*Client{c}
		}
	case d.group != "":
		for c := range h.groups[d.group] {
			targets = append(targets, c)
		}
	default:
		for c := range h.clients {
			targets = append(targets, c)
		}
	}

	for _, client := range targets {
		select {
		case client.send <- d.message:
		default:
			h.logger.Warn().Str("client_id", client.id).Msg("WebSocket client buffer full, disconnecting")
			h.removeLocked(client)
		}
	}
}

// Register adds a client. It takes effect immediately so the client's first
// command can already join a group.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.byID[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().
		Str("client_id", client.id).
		Int("total_clients", total).
		Msg("WebSocket client connected")
}

// Unregister removes a client and its group memberships.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	h.removeLocked(client)
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().
		Str("client_id", client.id).
		Int("total_clients", total).
		Msg("WebSocket client disconnected")
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if h.byID[client.id] == client {
		delete(h.byID, client.id)
	}
	for name, members := range h.groups {
		delete(members, client)
		if len(members) == 0 {
			delete(h.groups, name)
		}
	}
	close(client.send)
}

// Join adds a connected client to a group. Unknown clients are ignored.
func (h *Hub) Join(clientID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.byID[clientID]
	if !ok {
		return
	}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Client]bool)
		h.groups[group] = members
	}
	members[client] = true
}

// Leave removes a client from a group.
func (h *Hub) Leave(clientID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.byID[clientID]
	if !ok {
		return
	}
	if members, ok := h.groups[group]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.deliveries <- d:
	case <-h.done:
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(message Message) {
	h.enqueue(delivery{message: message})
}

// SendToGroup sends a message to every member of group.
func (h *Hub) SendToGroup(group string, message Message) {
	h.enqueue(delivery{message: message, group: group})
}

// SendToClient sends a message to one client.
func (h *Hub) SendToClient(clientID string, message Message) {
	h.enqueue(delivery{message: message, clientID: clientID})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GroupSize returns the number of clients in group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Message represents a WebSocket message.
type Message struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
