package mocks

import (
	"context"
	"sync"

	"github.com/user/mediactl/pkg/ports"
)

// ContentStore is a mock implementation of ports.ContentStore whose
// changes are pushed by the test.
type ContentStore struct {
	mu      sync.Mutex
	ch      chan ports.ContentChange
	watches int

	WatchFunc func(ctx context.Context) (<-chan ports.ContentChange, error)
}

// NewContentStore creates a mock store.
func NewContentStore() *ContentStore {
	return &ContentStore{ch: make(chan ports.ContentChange, 16)}
}

func (m *ContentStore) Watch(ctx context.Context) (<-chan ports.ContentChange, error) {
	if m.WatchFunc != nil {
		return m.WatchFunc(ctx)
	}
	m.mu.Lock()
	m.watches++
	m.mu.Unlock()

	out := make(chan ports.ContentChange)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-m.ch:
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Push reports a change.
func (m *ContentStore) Push(uri string) {
	m.ch <- ports.ContentChange{URI: uri}
}

// Watches returns how many times Watch was called.
func (m *ContentStore) Watches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watches
}

var _ ports.ContentStore = (*ContentStore)(nil)
