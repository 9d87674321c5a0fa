package tracking

import "time"

// SessionState is the lifecycle phase of a Session.
type SessionState int32

// Session lifecycle phases.
const (
	StateStarting SessionState = iota
	StateActive
	StateClosing
	StateClosed
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// State is the per-client tracking record. It is only mutated by the
// session's event handler.
type State struct {
	ClientID         string
	DriverName       string
	LastPublishedLap *int
	DriverEverFound  bool
	NotFoundSignaled bool
}

// SessionInfo is a point-in-time view of a session.
type SessionInfo struct {
	ClientID    string    `json:"client_id" yaml:"client_id"`
	Driver      string    `json:"driver" yaml:"driver"`
	State       string    `json:"state" yaml:"state"`
	LastLap     *int      `json:"last_lap" yaml:"last_lap"`
	DriverFound bool      `json:"driver_found" yaml:"driver_found"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
}
