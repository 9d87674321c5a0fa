package events

// Subscriber is an interface for event consumers.
// Implementations adapt the event stream to a transport or a side store.
type Subscriber interface {
	// Send delivers an event to the subscriber. It is called from the
	// broker loop, one event at a time, and must not block for long.
	Send(Event) error

	// Close cleanly shuts down the subscriber.
	Close() error
}
