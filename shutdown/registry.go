// Package shutdown coordinates orderly teardown of the process: cleanup
// functions run in priority order, a first signal cancels the session context
// and a second one forces exit, and leftover temp files from interrupted
// writes are swept from the backgrounds directory.
package shutdown

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// CleanupFunc is a function executed during shutdown. The context carries the
// shutdown deadline.
type CleanupFunc func(ctx context.Context) error

// entry holds a registered cleanup function with metadata.
type entry struct {
	name     string
	fn       CleanupFunc
	priority int // lower runs earlier
}

// Registry maintains an ordered collection of cleanup functions.
type Registry struct {
	mu      sync.Mutex
	entries []entry
	closed  bool
}

// NewRegistry creates a Registry ready to accept registrations.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a cleanup function. Lower priority values execute earlier.
// Registration after Shutdown has run is a no-op.
func (r *Registry) Register(name string, priority int, fn CleanupFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.entries = append(r.entries, entry{name: name, fn: fn, priority: priority})
}

// Names returns the registered names in execution order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := make([]entry, len(r.entries))
	copy(sorted, r.entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].priority < sorted[j].priority })
	names := make([]string, len(sorted))
	for i, e := range sorted {
		names[i] = e.name
	}
	return names
}

// Count returns the number of registered cleanup functions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Shutdown executes every registered function in priority order. All
// functions run even when earlier ones fail; failures are collected and
// returned. The registry is closed afterwards, so Shutdown is one-shot.
func (r *Registry) Shutdown(ctx context.Context) []error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	sorted := make([]entry, len(r.entries))
	copy(sorted, r.entries)
	r.mu.Unlock()

	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].priority < sorted[j].priority })

	var errs []error
	for _, e := range sorted {
		if err := e.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errs
}
