package ports

// Event is one outbound, fire-and-forget message on an instance channel.
type Event struct {
	Method string
	Args   any
}

// EventSink is the consumer side of a per-instance channel.
type EventSink interface {
	// Emit delivers an event to the consumer.
	Emit(event Event) error
}

// EventSinkFunc is a function adapter for EventSink.
type EventSinkFunc func(event Event) error

// Emit implements EventSink.
func (f EventSinkFunc) Emit(event Event) error {
	return f(event)
}
