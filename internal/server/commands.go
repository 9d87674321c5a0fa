package server

import (
	"context"

	"github.com/rs/zerolog"

	ws "github.com/agentstation/laprelay/internal/server/websocket"
	"github.com/agentstation/laprelay/internal/tracking"
	"github.com/agentstation/laprelay/pkg/errors"
	"github.com/agentstation/laprelay/pkg/logging"
)

// trackingCommands turns WebSocket commands into session manager calls.
type trackingCommands struct {
	manager *tracking.Manager
	logger  *zerolog.Logger
}

// HandleCommand runs one client command. Failures have already been
// reported to the client by the manager, so they are only logged here.
func (c *trackingCommands) HandleCommand(ctx context.Context, clientID string, cmd ws.Command) {
	switch cmd.Type {
	case ws.CommandStartTracking:
		ctx = logging.WithDriver(ctx, cmd.Data)
		if err := c.manager.Start(ctx, clientID, cmd.Data); err != nil {
			ev := logging.FromContext(ctx).Warn()
			if errors.IsValidationError(err) || errors.IsCanceled(err) {
				ev = logging.FromContext(ctx).Debug()
			}
			ev.Err(err).Msg("startTracking failed")
		}
	case ws.CommandStopTracking:
		c.manager.Stop(clientID)
	default:
		c.logger.Debug().
			Str("client_id", clientID).
			Str("command", cmd.Type).
			Msg("Ignoring unknown command")
	}
}

// HandleDisconnect tears down the client's session, if any.
func (c *trackingCommands) HandleDisconnect(clientID string) {
	c.manager.Stop(clientID)
}
