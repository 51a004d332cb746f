package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDs generates run IDs "run-0001", "run-0002", ... for tests.
//
// Unlike engine.FixedGenerator it never runs out, and it can be reset so
// the same scenario produces identical run IDs on every pass.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialRunIDs struct {
	mu  sync.Mutex
	seq int
}

// NewSequentialRunIDs creates a generator whose first ID is "run-0001".
func NewSequentialRunIDs() *SequentialRunIDs {
	return &SequentialRunIDs{}
}

// Generate returns the next run ID. Implements engine.RunIDGenerator.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("run-%04d", g.seq)
}

// Issued returns how many IDs have been generated since the last Reset.
func (g *SequentialRunIDs) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence at "run-0001".
func (g *SequentialRunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
