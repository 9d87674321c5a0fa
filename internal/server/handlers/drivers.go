package handlers

import (
	"net/http"

	"github.com/agentstation/laprelay/internal/server/response"
	"github.com/agentstation/laprelay/pkg/errors"
)

// HandleDriverLap handles GET /api/v1/drivers/{name}/lap with the latest
// lap published to the driver's group.
func (h *Handlers) HandleDriverLap(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rec, ok := h.cache.Lap(name)
	if !ok {
		response.ErrorFromType(w, errors.NewNotFoundError("lap for driver", name))
		return
	}
	response.OK(w, rec)
}

// HandleSessions handles GET /api/v1/sessions.
func (h *Handlers) HandleSessions(w http.ResponseWriter, _ *http.Request) {
	sessions := h.manager.Active()
	response.OK(w, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}
