package store

import (
	"context"
	"sync"
)

// Identity is the id of the local user once it has been resolved.
type Identity struct {
	mu    sync.Mutex
	id    string
	ready chan struct{}
}

// NewIdentity returns an unresolved identity.
func NewIdentity() *Identity {
	return &Identity{ready: make(chan struct{})}
}

// Set resolves the identity and wakes any waiters. Setting an empty id is
// ignored.
func (i *Identity) Set(id string) {
	if id == "" {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	wasResolved := i.id != ""
	i.id = id
	if !wasResolved {
		close(i.ready)
	}
}

// ID returns the local user id and whether it is resolved.
func (i *Identity) ID() (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.id, i.id != ""
}

// Ready returns a channel closed once the identity is resolved. A later Clear
// replaces it, so callers must fetch it again after a logout.
func (i *Identity) Ready() <-chan struct{} {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ready
}

// Wait blocks until the identity is resolved or ctx is done.
func (i *Identity) Wait(ctx context.Context) (string, error) {
	select {
	case <-i.Ready():
		id, _ := i.ID()
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Clear forgets the identity.
func (i *Identity) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.id != "" {
		i.id = ""
		i.ready = make(chan struct{})
	}
}
