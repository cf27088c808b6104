package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs hands out UUID-shaped ids from a counter.
//
// The same construction sequence with a fresh SequentialIDs produces the
// same ids, which keeps encoded charts and flushed batches byte-identical
// across runs and usable as golden files. Ids sort in creation order.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequentialIDs creates a generator whose first id ends in 1.
//
// The prefix distinguishes generators used side by side (e.g. two charts
// in one test). It is truncated or padded to 8 hex-safe characters; the
// empty prefix becomes "00000000".
func NewSequentialIDs(prefix string) *SequentialIDs {
	switch {
	case len(prefix) > 8:
		prefix = prefix[:8]
	case len(prefix) < 8:
		prefix += "00000000"[len(prefix):]
	}
	return &SequentialIDs{prefix: prefix}
}

// NewID returns the next id.
//
// Implements chart.IDGenerator.
func (g *SequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-0000-7000-8000-%012d", g.prefix, g.n)
}

// Count returns how many ids have been handed out.
func (g *SequentialIDs) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Reset restarts the sequence. The next id ends in 1 again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
