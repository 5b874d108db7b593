package mint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintick/mintick/internal/series"
	"github.com/mintick/mintick/internal/token"
)

func u64(v uint64) *uint64 { return &v }

func newEngine(t *testing.T) (*Engine, *series.Registry, *token.Ledger, series.ID) {
	t.Helper()
	reg := series.NewRegistry()
	items := token.NewLedger()
	eventID, _, err := reg.CreateEvent(
		"creator.near",
		series.Metadata{Title: "Summer Show", Copies: u64(3)},
		nil, nil, nil, 300,
	)
	require.NoError(t, err)
	return NewEngine(reg, items), reg, items, eventID
}

func TestComposeTitle(t *testing.T) {
	assert.Equal(t, "Summer Show  # 1|1  # 1", ComposeTitle("Summer Show", "1|1", 1))
	assert.Equal(t, "Summer Show  # 1|1  # 12", ComposeTitle("Summer Show", "1|1", 12))
}

func TestMintOne(t *testing.T) {
	eng, reg, items, eventID := newEngine(t)

	res, err := eng.MintOne(eventID, "alice.near", 1700000000)
	require.NoError(t, err)
	assert.Equal(t, token.ItemID("1|1:1"), res.ItemID)
	assert.Equal(t, uint64(1), res.Seq)
	assert.Equal(t, "Summer Show  # 1|1  # 1", res.Title)
	assert.True(t, res.Mintable)

	owner, err := items.Owner(res.ItemID)
	require.NoError(t, err)
	assert.Equal(t, "alice.near", string(owner))

	meta, err := items.Meta(res.ItemID)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), meta.IssuedAt)

	s, err := reg.Get(eventID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.MintedCount())
}

func TestMintSequenceMonotonic(t *testing.T) {
	eng, _, _, eventID := newEngine(t)

	for n := uint64(1); n <= 3; n++ {
		res, err := eng.MintOne(eventID, "alice.near", 0)
		require.NoError(t, err)
		assert.Equal(t, n, res.Seq)
	}
}

func TestMintClosesEventAtCap(t *testing.T) {
	eng, reg, _, eventID := newEngine(t)

	var last Result
	for i := 0; i < 3; i++ {
		var err error
		last, err = eng.MintOne(eventID, "alice.near", 0)
		require.NoError(t, err)
	}
	assert.False(t, last.Mintable)

	_, err := eng.MintOne(eventID, "alice.near", 0)
	assert.ErrorIs(t, err, series.ErrNotMintable)

	s, err := reg.Get(eventID)
	require.NoError(t, err)
	assert.False(t, s.Mintable)
}

func TestMintUnknownSeries(t *testing.T) {
	eng, _, _, _ := newEngine(t)

	_, err := eng.MintOne("1|9", "alice.near", 0)
	assert.ErrorIs(t, err, series.ErrNotFound)
}
