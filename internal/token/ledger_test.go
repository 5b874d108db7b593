package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintick/mintick/internal/ledger"
)

func TestRegisterAndOwner(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{Title: "Show #1|1 #1", IssuedAt: 42}))

	owner, err := l.Owner("1|1:1")
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountID("alice.near"), owner)

	meta, err := l.Meta("1|1:1")
	require.NoError(t, err)
	assert.Equal(t, "Show #1|1 #1", meta.Title)
	assert.Equal(t, int64(42), meta.IssuedAt)

	assert.Error(t, l.Register("1|1:1", "bob.near", Meta{}))
}

func TestOwnerNotFound(t *testing.T) {
	l := NewLedger()
	_, err := l.Owner("1|1:9")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestItemIDSeriesID(t *testing.T) {
	assert.Equal(t, "2|7", ItemID("2|7:3").SeriesID())
}

func TestTransferByOwner(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{}))

	prev, err := l.Transfer("alice.near", "bob.near", "1|1:1", nil)
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountID("alice.near"), prev)

	owner, err := l.Owner("1|1:1")
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountID("bob.near"), owner)
	assert.Equal(t, 0, l.SupplyForOwner("alice.near"))
	assert.Equal(t, 1, l.SupplyForOwner("bob.near"))
}

func TestTransferByStrangerRejected(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{}))

	_, err := l.Transfer("mallory.near", "bob.near", "1|1:1", nil)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestTransferToSelfRejected(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{}))

	_, err := l.Transfer("alice.near", "alice.near", "1|1:1", nil)
	assert.Error(t, err)
}

func TestApprovedTransfer(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{}))

	approvalID, err := l.Approve("alice.near", "1|1:1", "market.near")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), approvalID)

	prev, err := l.Transfer("market.near", "bob.near", "1|1:1", &approvalID)
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountID("alice.near"), prev)

	// Approvals do not survive a transfer.
	approvals, err := l.Approvals("1|1:1")
	require.NoError(t, err)
	assert.Empty(t, approvals)
}

func TestApprovalIDMismatch(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{}))

	_, err := l.Approve("alice.near", "1|1:1", "market.near")
	require.NoError(t, err)

	stale := uint64(99)
	_, err = l.Transfer("market.near", "bob.near", "1|1:1", &stale)
	assert.ErrorIs(t, err, ErrBadApprovalID)

	// Item stays put.
	owner, err := l.Owner("1|1:1")
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountID("alice.near"), owner)
}

func TestApprovalIDsIncrementPerItem(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{}))
	require.NoError(t, l.Register("1|1:2", "alice.near", Meta{}))

	id1, err := l.Approve("alice.near", "1|1:1", "market.near")
	require.NoError(t, err)
	id2, err := l.Approve("alice.near", "1|1:1", "other.near")
	require.NoError(t, err)
	id3, err := l.Approve("alice.near", "1|1:2", "market.near")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), id1)
	assert.Equal(t, uint64(2), id2)
	assert.Equal(t, uint64(1), id3)
}

func TestOnlyOwnerApproves(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{}))

	_, err := l.Approve("mallory.near", "1|1:1", "market.near")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestRevoke(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{}))
	_, err := l.Approve("alice.near", "1|1:1", "market.near")
	require.NoError(t, err)

	require.NoError(t, l.Revoke("alice.near", "1|1:1", "market.near"))
	assert.False(t, l.IsApproved("1|1:1", "market.near", nil))

	// Revoking an account that was never approved is a no-op.
	require.NoError(t, l.Revoke("alice.near", "1|1:1", "ghost.near"))
}

func TestRevokeAll(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{}))
	_, err := l.Approve("alice.near", "1|1:1", "market.near")
	require.NoError(t, err)
	_, err = l.Approve("alice.near", "1|1:1", "other.near")
	require.NoError(t, err)

	require.NoError(t, l.RevokeAll("alice.near", "1|1:1"))
	approvals, err := l.Approvals("1|1:1")
	require.NoError(t, err)
	assert.Empty(t, approvals)
}

func TestBurnRemovesEverything(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{Title: "Show #1|1 #1"}))
	require.NoError(t, l.Register("1|1:2", "alice.near", Meta{Title: "Show #1|1 #2"}))
	_, err := l.Approve("alice.near", "1|1:1", "market.near")
	require.NoError(t, err)

	before := l.UsageBytes()
	owner, err := l.Burn("1|1:1")
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountID("alice.near"), owner)

	_, err = l.Owner("1|1:1")
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, 1, l.TotalSupply())
	assert.Equal(t, 1, l.SupplyForOwner("alice.near"))
	assert.Less(t, l.UsageBytes(), before)

	_, err = l.Burn("1|1:1")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestEnumerationOrderAndPagination(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{}))
	require.NoError(t, l.Register("1|1:2", "bob.near", Meta{}))
	require.NoError(t, l.Register("2|1:1", "alice.near", Meta{}))
	require.NoError(t, l.Register("1|1:3", "alice.near", Meta{}))

	assert.Equal(t, []ItemID{"1|1:1", "1|1:2", "2|1:1", "1|1:3"}, l.Items(0, 0))
	assert.Equal(t, []ItemID{"1|1:2", "2|1:1"}, l.Items(1, 2))
	assert.Nil(t, l.Items(4, 10))

	assert.Equal(t, []ItemID{"1|1:1", "2|1:1", "1|1:3"}, l.ItemsForOwner("alice.near", 0, 0))
	assert.Equal(t, []ItemID{"2|1:1"}, l.ItemsForOwner("alice.near", 1, 1))
	assert.Nil(t, l.ItemsForOwner("nobody.near", 0, 0))
}

func TestTransferPreservesAcquisitionOrder(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{}))
	require.NoError(t, l.Register("1|1:2", "bob.near", Meta{}))

	_, err := l.Transfer("bob.near", "alice.near", "1|1:2", nil)
	require.NoError(t, err)

	// The transferred item lands at the end of the receiver's list.
	assert.Equal(t, []ItemID{"1|1:1", "1|1:2"}, l.ItemsForOwner("alice.near", 0, 0))
}

func TestUsageBytesGrowsWithRegistrations(t *testing.T) {
	l := NewLedger()
	require.Equal(t, int64(0), l.UsageBytes())
	require.NoError(t, l.Register("1|1:1", "alice.near", Meta{Title: "Show #1|1 #1"}))
	afterRegister := l.UsageBytes()
	assert.Positive(t, afterRegister)

	_, err := l.Approve("alice.near", "1|1:1", "market.near")
	require.NoError(t, err)
	assert.Greater(t, l.UsageBytes(), afterRegister)

	require.NoError(t, l.RevokeAll("alice.near", "1|1:1"))
	assert.Equal(t, afterRegister, l.UsageBytes())
}
