package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/laprelay/internal/server/response"
	ws "github.com/agentstation/laprelay/internal/server/websocket"
	"github.com/agentstation/laprelay/pkg/logging"
)

// HandleWebSocket handles WebSocket connections at /api/v1/ws. Each
// connection gets a fresh client id and is served until it closes.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	clientID := uuid.NewString()
	client := ws.NewClient(clientID, h.wsHub, conn)
	h.wsHub.Register(client)

	h.wsHub.SendToClient(clientID, ws.Message{
		Type:      "connected",
		Timestamp: time.Now(),
		Data: map[string]any{
			"client_id": clientID,
		},
	})

	go client.WritePump()
	// The hijacked request context lives until ReadPump returns.
	client.ReadPump(logging.WithClient(r.Context(), clientID))
}

// HandleDriverStream handles GET /api/v1/drivers/{name}/stream, an SSE
// stream of one driver group for read-only viewers.
func (h *Handlers) HandleDriverStream(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if strings.TrimSpace(name) == "" {
		response.BadRequest(w, "Driver name required", "")
		return
	}
	h.sseBroadcaster.ServeGroup(w, r, name)
}
