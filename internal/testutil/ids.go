package testutil

import (
	"fmt"
	"sync"
)

// FixedID generates the same identifier every time.
//
// Thread-safety: FixedID is stateless and safe for concurrent use.
type FixedID struct {
	id string
}

// NewFixedID creates a generator returning id.
// If id is empty, Generate returns "test-report-default".
func NewFixedID(id string) *FixedID {
	if id == "" {
		id = "test-report-default"
	}
	return &FixedID{id: id}
}

// Generate returns the fixed identifier.
func (g *FixedID) Generate() string {
	return g.id
}

// SequenceID generates prefix-1, prefix-2, ... in call order.
//
// Thread-safety: SequenceID is safe for concurrent use via internal mutex.
type SequenceID struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceID creates a sequential generator.
func NewSequenceID(prefix string) *SequenceID {
	return &SequenceID{prefix: prefix}
}

// Generate returns the next identifier.
func (g *SequenceID) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
