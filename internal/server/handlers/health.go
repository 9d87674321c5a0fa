package handlers

import (
	"net/http"

	"github.com/agentstation/laprelay/internal/feed"
	"github.com/agentstation/laprelay/internal/server/response"
)

// HandleHealth handles GET /health and GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "laprelay",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready. The relay is ready when the
// configured feed URL yields a usable stream endpoint.
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	ep, err := feed.ParseEndpoint(h.manager.FeedURL())
	if err != nil {
		response.ServiceUnavailable(w, feed.InvalidEndpointMessage)
		return
	}

	response.OK(w, map[string]any{
		"status": "ready",
		"feed": map[string]any{
			"tid":  ep.TID,
			"host": ep.Host,
		},
		"sessions": h.manager.Len(),
		"cache": map[string]any{
			"items": h.cache.ItemCount(),
		},
		"websocket_clients": h.wsHub.ClientCount(),
		"sse_clients":       h.sseBroadcaster.ClientCount(),
	})
}
