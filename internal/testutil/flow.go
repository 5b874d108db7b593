// Package testutil provides deterministic stand-ins for the engine's
// nondeterministic inputs: flow tokens and issue timestamps. Installing them
// makes event logs byte-identical across runs, which golden traces depend on.
package testutil

import (
	"fmt"
	"sync"
)

// FixedFlowGenerator returns the same flow token on every call. Useful when
// every operation in a scenario should share one flow.
type FixedFlowGenerator struct {
	token string
}

// NewFixedFlowGenerator creates a generator for token. An empty token
// defaults to "test-flow-default".
func NewFixedFlowGenerator(token string) *FixedFlowGenerator {
	if token == "" {
		token = "test-flow-default"
	}
	return &FixedFlowGenerator{token: token}
}

// Generate returns the fixed flow token.
func (g *FixedFlowGenerator) Generate() string {
	return g.token
}

// SequencedFlowGenerator returns "flow-000001", "flow-000002", ... so each
// operation in a scenario gets its own reproducible token.
type SequencedFlowGenerator struct {
	mu sync.Mutex
	n  int
}

// NewSequencedFlowGenerator creates a generator starting at flow-000001.
func NewSequencedFlowGenerator() *SequencedFlowGenerator {
	return &SequencedFlowGenerator{}
}

// Generate returns the next token in the sequence.
func (g *SequencedFlowGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("flow-%06d", g.n)
}
