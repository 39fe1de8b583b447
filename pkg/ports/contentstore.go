package ports

import "context"

// ContentChange reports a modification of the backing media store.
// URI is empty when the store cannot name the changed resource.
type ContentChange struct {
	URI string
}

// ContentStore abstracts a media library that reports modifications.
type ContentStore interface {
	// Watch registers for change notifications. The returned channel is
	// closed when ctx is cancelled or the store stops watching.
	Watch(ctx context.Context) (<-chan ContentChange, error)
}

// ChangeSink receives library change notifications.
type ChangeSink interface {
	ContentChanged(change ContentChange) error
}

// ChangeSinkFunc is a function adapter for ChangeSink.
type ChangeSinkFunc func(change ContentChange) error

// ContentChanged implements ChangeSink.
func (f ChangeSinkFunc) ContentChanged(change ContentChange) error {
	return f(change)
}
