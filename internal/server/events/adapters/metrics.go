package adapters

import "github.com/agentstation/laprelay/internal/server/events"

// SignalCounter counts published viewer signals.
type SignalCounter interface {
	IncLapsPublished()
	IncDriverNotFound()
}

// MetricsSubscriber counts lapData and driverNotFound events.
type MetricsSubscriber struct {
	counter SignalCounter
}

// NewMetricsSubscriber creates a subscriber reporting into counter.
func NewMetricsSubscriber(counter SignalCounter) *MetricsSubscriber {
	return &MetricsSubscriber{counter: counter}
}

// Send counts the event by type.
func (s *MetricsSubscriber) Send(event events.Event) error {
	switch event.Type {
	case events.LapData:
		s.counter.IncLapsPublished()
	case events.DriverNotFound:
		s.counter.IncDriverNotFound()
	}
	return nil
}

// Close is a no-op.
func (s *MetricsSubscriber) Close() error {
	return nil
}
