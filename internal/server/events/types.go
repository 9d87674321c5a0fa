// Package events provides the event pipeline between tracking sessions and
// viewer transports.
//
// Sessions publish lap signals to the Broker, which fans each event out to
// every registered Subscriber (WebSocket hub, SSE broadcaster, lap snapshot
// cache, metrics) in publish order.
package events

import "time"

// EventType is the signal name sent to viewers.
type EventType string

// Event types.
const (
	// LapData carries a timing.LapRecord to a driver group.
	LapData EventType = "lapData"
	// DriverNotFound tells a driver group the driver is absent from the feed.
	DriverNotFound EventType = "driverNotFound"
	// Error carries a message to a single client.
	Error EventType = "error"

	// ClientConnected is sent to a client when its connection is accepted.
	ClientConnected EventType = "connected"
)

// Event is one signal with its audience. Exactly one of Group and ClientID
// is normally set; an event with neither goes to everyone.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Group     string    `json:"-"`
	ClientID  string    `json:"-"`
	Data      any       `json:"data"`
}
