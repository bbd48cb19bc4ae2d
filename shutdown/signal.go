package shutdown

import "sync"

// SignalCounter tracks repeated shutdown signals. The first signal starts a
// graceful shutdown; when the count reaches forceAfter the onForce callback
// fires, typically to exit immediately.
type SignalCounter struct {
	mu         sync.Mutex
	count      int
	forceAfter int
	onForce    func()
}

// NewSignalCounter creates a SignalCounter. onForce may be nil.
func NewSignalCounter(forceAfter int, onForce func()) *SignalCounter {
	return &SignalCounter{forceAfter: forceAfter, onForce: onForce}
}

// Increment records one signal and returns the new count, invoking onForce
// when the threshold is reached.
func (c *SignalCounter) Increment() int {
	c.mu.Lock()
	c.count++
	count := c.count
	onForce := c.onForce
	c.mu.Unlock()

	if count >= c.forceAfter && onForce != nil {
		onForce()
	}
	return count
}

// Count returns the number of signals seen so far.
func (c *SignalCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
