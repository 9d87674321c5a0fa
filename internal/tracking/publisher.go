package tracking

import (
	"context"
	"io"

	"github.com/agentstation/laprelay/internal/feed"
)

// Signal names emitted to viewers.
const (
	EventLapData        = "lapData"
	EventDriverNotFound = "driverNotFound"
	EventError          = "error"
)

// Client-visible error messages.
const (
	MsgDriverRequired = "Driver name required"
	MsgInternalError  = "Internal server error"
)

// Publisher delivers signals to viewers. Groups are keyed by driver name.
// Implementations must be safe for concurrent use.
type Publisher interface {
	Join(clientID, group string)
	Leave(clientID, group string)
	EmitToGroup(group, event string, data any)
	EmitToClient(clientID, event string, data any)
}

// Source opens feed subscriptions. The returned Closer must stop delivery
// synchronously.
type Source interface {
	Subscribe(ctx context.Context, streamURL string, h feed.Handler) (io.Closer, error)
}

// FeedSource adapts a feed client to Source.
func FeedSource(c *feed.Client) Source {
	return feedSource{client: c}
}

type feedSource struct {
	client *feed.Client
}

func (f feedSource) Subscribe(ctx context.Context, streamURL string, h feed.Handler) (io.Closer, error) {
	sub, err := f.client.Subscribe(ctx, streamURL, h)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Observer receives session lifecycle counters.
type Observer interface {
	SessionStarted()
	SetupFailed()
}

type nopObserver struct{}

func (nopObserver) SessionStarted() {}
func (nopObserver) SetupFailed()    {}
