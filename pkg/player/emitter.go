package player

import (
	"fmt"

	"github.com/user/mediactl/pkg/ports"
)

// DefaultEventBuffer is the number of events queued for a consumer before
// new events are dropped.
const DefaultEventBuffer = 64

// Emitter delivers events to one consumer on a single goroutine, preserving
// order. Delivery is best effort: events are dropped when the queue is full
// or once the emitter is closed, and consumer failures never propagate back
// to the producer.
type Emitter struct {
	sink   ports.EventSink
	logger ports.Logger
	queue  chan ports.Event
	done   chan struct{}
	exited chan struct{}
	closed bool
}

// NewEmitter starts a delivery goroutine for sink.
func NewEmitter(sink ports.EventSink, buffer int, logger ports.Logger) *Emitter {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	e := &Emitter{
		sink:   sink,
		logger: logger.WithComponent("emitter"),
		queue:  make(chan ports.Event, buffer),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go e.run()
	return e
}

// Send queues an event. It never blocks. Send and Close must be called from
// the same goroutine.
func (e *Emitter) Send(event ports.Event) bool {
	if e.closed {
		return false
	}
	select {
	case e.queue <- event:
		return true
	default:
		e.logger.Debug("Dropped event %s: consumer queue full", event.Method)
		return false
	}
}

// Close stops delivery. Queued events are dropped.
func (e *Emitter) Close() {
	if e.closed {
		return
	}
	e.closed = true
	close(e.done)
}

// Sink returns the consumer this emitter delivers to.
func (e *Emitter) Sink() ports.EventSink {
	return e.sink
}

func (e *Emitter) run() {
	defer close(e.exited)
	for {
		select {
		case <-e.done:
			return
		case event := <-e.queue:
			// Close may have raced the receive.
			select {
			case <-e.done:
				return
			default:
			}
			if err := e.deliver(event); err != nil {
				e.logger.Warn("Failed to deliver event %s: %s", event.Method, err)
			}
		}
	}
}

func (e *Emitter) deliver(event ports.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consumer panic: %v", r)
		}
	}()
	return e.sink.Emit(event)
}

// Exited is closed once the delivery goroutine has returned.
func (e *Emitter) Exited() <-chan struct{} {
	return e.exited
}
