package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeSourceAdvances(t *testing.T) {
	ts := NewTimeSource(1_700_000_000_000_000_000, 1_000_000_000)
	assert.Equal(t, int64(1_700_000_000_000_000_000), ts.Now())
	assert.Equal(t, int64(1_700_000_001_000_000_000), ts.Now())
	assert.Equal(t, int64(1_700_000_002_000_000_000), ts.Now())
}

func TestTimeSourceFrozen(t *testing.T) {
	ts := NewTimeSource(42, 0)
	assert.Equal(t, int64(42), ts.Now())
	assert.Equal(t, int64(42), ts.Now())
}

func TestTimeSourceReset(t *testing.T) {
	ts := NewTimeSource(10, 5)
	ts.Now()
	ts.Now()
	ts.Reset(10)
	assert.Equal(t, int64(10), ts.Now())
}
