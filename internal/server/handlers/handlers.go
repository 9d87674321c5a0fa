// Package handlers provides HTTP request handlers for the relay gateway.
package handlers

import (
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/laprelay/internal/server/cache"
	"github.com/agentstation/laprelay/internal/server/sse"
	ws "github.com/agentstation/laprelay/internal/server/websocket"
	"github.com/agentstation/laprelay/internal/tracking"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	manager        *tracking.Manager
	cache          *cache.Cache
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
}

// New creates a new Handlers instance.
func New(
	manager *tracking.Manager,
	cache *cache.Cache,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		manager:        manager,
		cache:          cache,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		logger:         logger,
	}
}
