package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedFlowGenerator(t *testing.T) {
	g := NewFixedFlowGenerator("scenario-flow-1")
	assert.Equal(t, "scenario-flow-1", g.Generate())
	assert.Equal(t, "scenario-flow-1", g.Generate())
}

func TestFixedFlowGeneratorDefault(t *testing.T) {
	g := NewFixedFlowGenerator("")
	assert.Equal(t, "test-flow-default", g.Generate())
}

func TestSequencedFlowGenerator(t *testing.T) {
	g := NewSequencedFlowGenerator()
	assert.Equal(t, "flow-000001", g.Generate())
	assert.Equal(t, "flow-000002", g.Generate())
	assert.Equal(t, "flow-000003", g.Generate())
}
