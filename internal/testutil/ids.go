package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates render ids of the form "<prefix>-0001",
// "<prefix>-0002" and so on. It implements engine.IDGenerator.
//
// The same scenario run with a fresh SequentialIDs produces the same ids,
// which keeps golden snapshots byte-identical.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix becomes "render".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "render"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
