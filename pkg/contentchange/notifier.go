// Package contentchange republishes media library changes to a subscriber.
//
// The notifier registers its store watch once, at Start, independently of
// the playback core. While a sink is subscribed, every change is forwarded
// to it from a single goroutine; without a subscriber, changes are dropped.
// Identical consecutive changes within the coalescing window are reported
// once.
package contentchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/mediactl/pkg/ports"
)

// DefaultCoalesce is the default window for folding repeated changes.
const DefaultCoalesce = 250 * time.Millisecond

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("contentchange: notifier closed")

// Notifier forwards store changes to the current subscriber.
type Notifier struct {
	store    ports.ContentStore
	coalesce time.Duration
	logger   ports.Logger
	clock    func() time.Time

	mu      sync.Mutex
	sink    ports.ChangeSink
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	closed  bool

	// Owned by the forwarding goroutine.
	lastURI string
	lastAt  time.Time
}

// New creates a notifier over store. A zero coalesce disables folding.
func New(store ports.ContentStore, coalesce time.Duration, logger ports.Logger) *Notifier {
	return &Notifier{
		store:    store,
		coalesce: coalesce,
		logger:   logger.WithComponent("contentchange"),
		clock:    time.Now,
	}
}

// Start registers the store watch and starts forwarding. It may be called
// once.
func (n *Notifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrClosed
	}
	if n.started {
		return fmt.Errorf("contentchange: already started")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	changes, err := n.store.Watch(watchCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("watch content store: %w", err)
	}
	n.started = true
	n.cancel = cancel
	n.done = make(chan struct{})
	go n.run(changes, n.done)
	return nil
}

// Subscribe starts forwarding changes to sink, replacing any previous
// subscriber.
func (n *Notifier) Subscribe(sink ports.ChangeSink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sink = sink
	n.logger.Debug("Library subscriber attached")
}

// Unsubscribe stops forwarding. Later changes are dropped.
func (n *Notifier) Unsubscribe() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sink = nil
	n.logger.Debug("Library subscriber detached")
}

// Close unregisters the store watch and waits for the forwarding goroutine
// to exit. It is safe to call more than once.
func (n *Notifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.sink = nil
	cancel, done := n.cancel, n.done
	n.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Done is closed when forwarding stops, either by Close or because the store
// closed its channel. It is nil before Start.
func (n *Notifier) Done() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.done
}

func (n *Notifier) run(changes <-chan ports.ContentChange, done chan struct{}) {
	defer close(done)
	for change := range changes {
		if n.coalesced(change) {
			continue
		}
		n.mu.Lock()
		sink := n.sink
		n.mu.Unlock()
		if sink == nil {
			n.logger.Debug("Dropped library change %s: no subscriber", change.URI)
			continue
		}
		n.deliver(sink, change)
	}
}

func (n *Notifier) coalesced(change ports.ContentChange) bool {
	now := n.clock()
	if n.coalesce > 0 && change.URI == n.lastURI && !n.lastAt.IsZero() && now.Sub(n.lastAt) < n.coalesce {
		return true
	}
	n.lastURI = change.URI
	n.lastAt = now
	return false
}

func (n *Notifier) deliver(sink ports.ChangeSink, change ports.ContentChange) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("Failed to deliver library change %s: %s", change.URI, fmt.Sprint(r))
		}
	}()
	if err := sink.ContentChanged(change); err != nil {
		n.logger.Warn("Failed to deliver library change %s: %s", change.URI, err)
	}
}
