package player

import (
	"context"
	"sort"
	"sync"

	"github.com/user/mediactl/pkg/ports"
)

// Registry maps instance ids to players. A player is created on first
// reference to its id and lives until the id is released, independently of
// the views attached to it.
type Registry struct {
	mu      sync.Mutex
	players map[int]*Player
	factory ports.EngineFactory
	opts    Options
	logger  ports.Logger
}

// NewRegistry creates an empty registry. factory builds one engine with
// default configuration per created player.
func NewRegistry(factory ports.EngineFactory, opts Options, logger ports.Logger) *Registry {
	return &Registry{
		players: make(map[int]*Player),
		factory: factory,
		opts:    opts,
		logger:  logger.WithComponent("registry"),
	}
}

// GetOrCreate returns the player for id, creating it if needed. Creation is
// an atomic get-or-insert: concurrent callers for the same id share one
// engine.
func (r *Registry) GetOrCreate(id int) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[id]; ok {
		return p, false
	}
	p := newPlayer(id, r.factory(), r.opts, r.logger.WithComponent("player"))
	r.players[id] = p
	r.logger.Info("Created player %d", id)
	return p, true
}

// Get returns the live player for id.
func (r *Registry) Get(id int) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	return p, ok
}

// Release detaches the player for id from the registry and tears it down.
// Releasing an unknown or already released id is a no-op.
func (r *Registry) Release(ctx context.Context, id int) error {
	r.mu.Lock()
	p, ok := r.players[id]
	delete(r.players, id)
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("Release of player %d ignored: not registered", id)
		return nil
	}
	return p.release(ctx)
}

// ReleaseAll releases every registered player.
func (r *Registry) ReleaseAll(ctx context.Context) error {
	for _, id := range r.IDs() {
		if err := r.Release(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// IDs returns the registered instance ids in ascending order.
func (r *Registry) IDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Open attaches a view to the player for id, creating the player on first
// reference.
func (r *Registry) Open(ctx context.Context, id int, surface ports.Surface, sink ports.EventSink) (*Session, error) {
	s := &Session{
		id:       id,
		registry: r,
		surface:  surface,
		sink:     sink,
	}
	if _, err := s.player(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
