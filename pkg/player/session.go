package player

import (
	"context"
	"errors"
	"sync"

	"github.com/user/mediactl/pkg/ports"
)

// Session is one view of an instance: a surface and an event consumer
// bound to the shared player for the instance id. Closing a session
// detaches the view but leaves the player alive for the next view.
type Session struct {
	id       int
	registry *Registry
	surface  ports.Surface
	sink     ports.EventSink

	mu       sync.Mutex
	attached *Player
	closed   bool
}

// ID returns the instance id.
func (s *Session) ID() int {
	return s.id
}

// player returns the registered player for the id, creating it and
// attaching this view when needed.
func (s *Session) player(ctx context.Context) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrReleased
	}
	p, _ := s.registry.GetOrCreate(s.id)
	if s.attached == p {
		return p, nil
	}
	if err := p.Attach(ctx, s, s.surface, s.sink); err != nil {
		return nil, err
	}
	s.attached = p
	return p, nil
}

// live returns the registered player for the id without creating one.
func (s *Session) live() (*Player, error) {
	p, ok := s.registry.Get(s.id)
	if !ok {
		return nil, ErrReleased
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrReleased
	}
	if s.attached != p {
		// Another view owns the replacement player.
		return nil, ErrReleased
	}
	return p, nil
}

// Close detaches the view. The player keeps running.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	p := s.attached
	s.closed = true
	s.attached = nil
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	if err := p.Detach(ctx, s); err != nil && !errors.Is(err, ErrReleased) {
		return err
	}
	return nil
}
