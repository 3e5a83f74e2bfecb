package docstore

import (
	"context"
	"fmt"
	"sync"
)

// Ensure Memory implements Store at compile time.
var _ Store = (*Memory)(nil)

// Memory is an in-process Store. It backs tests and offline use; semantics
// match the HTTP server (sparse merge, monotonic revisions, blocking watch).
// The zero value is ready to use.
type Memory struct {
	mu   sync.Mutex
	docs map[string]*memDoc
}

type memDoc struct {
	state    Patch
	revision uint64
	// changed is closed and replaced on every merge so watchers can block
	// on the current generation.
	changed chan struct{}
}

// Get returns the current snapshot, or ErrNotFound for a never-written path.
func (m *Memory) Get(ctx context.Context, path Path) (Snapshot, error) {
	if err := path.Validate(); err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[path.String()]
	if !ok {
		return Snapshot{}, fmt.Errorf("get %s: %w", path.String(), ErrNotFound)
	}
	return Snapshot{Patch: doc.state, Revision: doc.revision}, nil
}

// Merge overlays the present fields of patch and bumps the revision,
// creating the document on first write. The HTTP server enforces scope
// access rules; in process the caller is trusted.
func (m *Memory) Merge(ctx context.Context, path Path, patch Patch) error {
	if err := path.Validate(); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.docs == nil {
		m.docs = make(map[string]*memDoc)
	}
	doc, ok := m.docs[path.String()]
	if !ok {
		doc = &memDoc{changed: make(chan struct{})}
		m.docs[path.String()] = doc
	}
	doc.state = doc.state.Overlay(patch)
	doc.revision++
	close(doc.changed)
	doc.changed = make(chan struct{})
	return nil
}

// Watch blocks until the revision exceeds since or the context ends. Unlike
// the HTTP client there is no wait window; cancellation is the only way out
// of an idle watch.
func (m *Memory) Watch(ctx context.Context, path Path, since uint64) (Snapshot, error) {
	if err := path.Validate(); err != nil {
		return Snapshot{}, err
	}
	for {
		m.mu.Lock()
		if m.docs == nil {
			m.docs = make(map[string]*memDoc)
		}
		doc, ok := m.docs[path.String()]
		if !ok {
			doc = &memDoc{changed: make(chan struct{})}
			m.docs[path.String()] = doc
		}
		if doc.revision > since {
			snap := Snapshot{Patch: doc.state, Revision: doc.revision}
			m.mu.Unlock()
			return snap, nil
		}
		changed := doc.changed
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case <-changed:
		}
	}
}
