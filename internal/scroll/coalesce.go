package scroll

import "sync"

// Coalescer is a single-slot mailbox for scroll progress. Push overwrites an
// unconsumed value, so a burst of scroll events between two display refreshes
// collapses into the latest one.
type Coalescer struct {
	mu      sync.Mutex
	pending float64
	has     bool
	dropped int
}

func (c *Coalescer) Push(p float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.has {
		c.dropped++
	}
	c.pending = p
	c.has = true
}

// Take returns the latest pushed value, if any, and empties the slot.
func (c *Coalescer) Take() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.has {
		return 0, false
	}
	c.has = false
	return c.pending, true
}

// Dropped returns how many values were overwritten before being taken.
func (c *Coalescer) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
