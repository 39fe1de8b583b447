package mocks

import (
	"sync"
	"time"

	"github.com/user/mediactl/pkg/ports"
)

// EventSink records emitted events.
type EventSink struct {
	mu     sync.Mutex
	events []ports.Event
	notify chan struct{}

	EmitFunc func(event ports.Event) error
}

// NewEventSink creates a recording sink.
func NewEventSink() *EventSink {
	return &EventSink{notify: make(chan struct{}, 1)}
}

func (m *EventSink) Emit(event ports.Event) error {
	if m.EmitFunc != nil {
		if err := m.EmitFunc(event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

// Events returns a copy of the recorded events.
func (m *EventSink) Events() []ports.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Event{}, m.events...)
}

// Named returns the recorded events with the given method.
func (m *EventSink) Named(method string) []ports.Event {
	var out []ports.Event
	for _, e := range m.Events() {
		if e.Method == method {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears the recorded events.
func (m *EventSink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// WaitFor waits until at least n events with the given method have been
// recorded and returns them. It returns whatever was recorded on timeout.
func (m *EventSink) WaitFor(method string, n int, timeout time.Duration) []ports.Event {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if got := m.Named(method); len(got) >= n {
			return got
		}
		select {
		case <-m.notify:
		case <-deadline.C:
			return m.Named(method)
		}
	}
}

var _ ports.EventSink = (*EventSink)(nil)
