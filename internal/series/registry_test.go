package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/pricing"
)

const vaultFee = uint32(300)

func u64(v uint64) *uint64 { return &v }

func decimal(s string) *pricing.Decimal {
	d := pricing.MustDecimal(s)
	return &d
}

func eventMeta(title string, copies *uint64) Metadata {
	return Metadata{Title: title, Description: "desc", Media: "ipfs://m", Copies: copies}
}

func TestCreateEvent_AllocatesCompanion(t *testing.T) {
	r := NewRegistry()

	eventID, companionID, err := r.CreateEvent("creator.near", eventMeta("Launch Party", u64(100)),
		decimal("10.0"), nil, nil, vaultFee)
	require.NoError(t, err)
	assert.Equal(t, ID("1|1"), eventID)
	assert.Equal(t, ID("2|1"), companionID)

	event, err := r.Get(eventID)
	require.NoError(t, err)
	assert.Equal(t, []ID{companionID}, event.Bundled)
	assert.True(t, event.Mintable)
	assert.True(t, event.ForSale())

	companion, err := r.Get(companionID)
	require.NoError(t, err)
	assert.Equal(t, "This is the let me in of the event", companion.Metadata.Description)
	assert.Equal(t, eventID.String(), companion.Metadata.Reference)
	assert.Nil(t, companion.Metadata.Copies)
	assert.False(t, companion.ForSale())
	assert.Empty(t, companion.Royalty)
	assert.Empty(t, companion.RoyaltyOnPurchase)
}

func TestCreateEvent_IndependentCounters(t *testing.T) {
	r := NewRegistry()

	e1, c1, err := r.CreateEvent("creator.near", eventMeta("A", nil), nil, nil, nil, vaultFee)
	require.NoError(t, err)
	e2, c2, err := r.CreateEvent("creator.near", eventMeta("B", nil), nil, nil, nil, vaultFee)
	require.NoError(t, err)

	assert.Equal(t, ID("1|1"), e1)
	assert.Equal(t, ID("1|2"), e2)
	assert.Equal(t, ID("2|1"), c1)
	assert.Equal(t, ID("2|2"), c2)
}

func TestCreateEvent_TitleRequired(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.CreateEvent("creator.near", Metadata{}, nil, nil, nil, vaultFee)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "title")
}

func TestCreateEvent_RoyaltyCaps(t *testing.T) {
	r := NewRegistry()

	// royalty sum over 9000 rejected
	_, _, err := r.CreateEvent("creator.near", eventMeta("E", nil), nil,
		map[ledger.AccountID]uint32{"a.near": 5000, "b.near": 4001}, nil, vaultFee)
	assert.ErrorContains(t, err, "9000")

	// exactly 9000 accepted
	_, _, err = r.CreateEvent("creator.near", eventMeta("E", nil), nil,
		map[ledger.AccountID]uint32{"a.near": 5000, "b.near": 4000}, nil, vaultFee)
	assert.NoError(t, err)

	// royalty_buy cap depends on the vault fee: 9000-300 = 8700
	_, _, err = r.CreateEvent("creator.near", eventMeta("E", nil), nil, nil,
		map[ledger.AccountID]uint32{"a.near": 8701}, vaultFee)
	assert.ErrorContains(t, err, "8700")

	_, _, err = r.CreateEvent("creator.near", eventMeta("E", nil), nil, nil,
		map[ledger.AccountID]uint32{"a.near": 8700}, vaultFee)
	assert.NoError(t, err)
}

func TestCreateEvent_RoyaltyCardinality(t *testing.T) {
	r := NewRegistry()

	big := map[ledger.AccountID]uint32{}
	for _, a := range []ledger.AccountID{
		"a1.near", "a2.near", "a3.near", "a4.near", "a5.near",
		"a6.near", "a7.near", "a8.near", "a9.near", "b1.near", "b2.near",
	} {
		big[a] = 10
	}
	_, _, err := r.CreateEvent("creator.near", eventMeta("E", nil), nil, big, nil, vaultFee)
	assert.ErrorContains(t, err, "10 accounts")

	six := map[ledger.AccountID]uint32{}
	for _, a := range []ledger.AccountID{"a1.near", "a2.near", "a3.near", "a4.near", "a5.near", "a6.near"} {
		six[a] = 10
	}
	_, _, err = r.CreateEvent("creator.near", eventMeta("E", nil), nil, nil, six, vaultFee)
	assert.ErrorContains(t, err, "5 accounts")
}

func TestCreateEvent_CreatorExcludedFromPurchaseSplit(t *testing.T) {
	r := NewRegistry()

	_, _, err := r.CreateEvent("creator.near", eventMeta("E", nil), nil, nil,
		map[ledger.AccountID]uint32{"creator.near": 100}, vaultFee)
	assert.ErrorContains(t, err, "creator cannot be on the split list")

	// creator is allowed in the secondary-sale table
	_, _, err = r.CreateEvent("creator.near", eventMeta("E", nil), nil,
		map[ledger.AccountID]uint32{"creator.near": 100}, nil, vaultFee)
	assert.NoError(t, err)
}

func TestCreateEvent_MalformedRoyaltyAccount(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.CreateEvent("creator.near", eventMeta("E", nil), nil,
		map[ledger.AccountID]uint32{"Bad..Account": 100}, nil, vaultFee)
	assert.ErrorContains(t, err, "not valid account_id")
}

func TestCreateEvent_RoyaltyRoundTrip(t *testing.T) {
	r := NewRegistry()
	table := map[ledger.AccountID]uint32{"a.near": 1500, "b.near": 2500}

	eventID, _, err := r.CreateEvent("creator.near", eventMeta("E", nil), nil, table, nil, vaultFee)
	require.NoError(t, err)

	s, err := r.Get(eventID)
	require.NoError(t, err)
	assert.Equal(t, table, s.Royalty)

	// registry keeps its own copy
	table["a.near"] = 9999
	assert.Equal(t, uint32(1500), s.Royalty["a.near"])
}

func TestCreateCompanion(t *testing.T) {
	r := NewRegistry()
	eventID, _, err := r.CreateEvent("creator.near", eventMeta("E", nil), nil, nil, nil, vaultFee)
	require.NoError(t, err)

	id, err := r.CreateCompanion("other.near", Metadata{Title: "VIP Drink", Copies: u64(5)}, eventID)
	require.NoError(t, err)
	assert.Equal(t, ID("3|2"), id) // object counter shared with auto-companions

	s, err := r.Get(id)
	require.NoError(t, err)
	assert.Nil(t, s.Metadata.Copies, "companion caps are cleared")
	assert.Equal(t, eventID.String(), s.Metadata.Reference)

	event, _ := r.Get(eventID)
	assert.Contains(t, event.Bundled, id)
}

func TestCreateCompanion_TargetMustBeEvent(t *testing.T) {
	r := NewRegistry()
	_, companionID, err := r.CreateEvent("creator.near", eventMeta("E", nil), nil, nil, nil, vaultFee)
	require.NoError(t, err)

	_, err = r.CreateCompanion("creator.near", Metadata{Title: "X"}, companionID)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = r.CreateCompanion("creator.near", Metadata{Title: "X"}, ID("1|999"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIssueNext_SequencesAndCapClose(t *testing.T) {
	r := NewRegistry()
	eventID, _, err := r.CreateEvent("creator.near", eventMeta("E", u64(2)), nil, nil, nil, vaultFee)
	require.NoError(t, err)

	itemID, seq, mintable, err := r.IssueNext(eventID)
	require.NoError(t, err)
	assert.Equal(t, "1|1:1", itemID)
	assert.Equal(t, uint64(1), seq)
	assert.True(t, mintable)

	// reaching the cap closes an event series atomically with the issue
	itemID, seq, mintable, err = r.IssueNext(eventID)
	require.NoError(t, err)
	assert.Equal(t, "1|1:2", itemID)
	assert.Equal(t, uint64(2), seq)
	assert.False(t, mintable)

	_, _, _, err = r.IssueNext(eventID)
	assert.ErrorIs(t, err, ErrNotMintable)
}

func TestIssueNext_NonEventNeverAutoCloses(t *testing.T) {
	r := NewRegistry()
	eventID, companionID, err := r.CreateEvent("creator.near", eventMeta("E", nil), nil, nil, nil, vaultFee)
	require.NoError(t, err)
	_ = eventID

	for i := 0; i < 5; i++ {
		_, _, mintable, err := r.IssueNext(companionID)
		require.NoError(t, err)
		assert.True(t, mintable)
	}
}

func TestIssueNext_SupplyNeverExceedsCap(t *testing.T) {
	r := NewRegistry()
	eventID, _, err := r.CreateEvent("creator.near", eventMeta("E", u64(3)), nil, nil, nil, vaultFee)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, _, err := r.IssueNext(eventID)
		require.NoError(t, err)
	}
	s, _ := r.Get(eventID)
	assert.Equal(t, uint64(3), s.MintedCount())

	// reopening does not resurrect supply
	require.NoError(t, r.Update(eventID, Patch{Mintable: boolPtr(true)}, vaultFee))
	_, _, _, err = r.IssueNext(eventID)
	assert.ErrorIs(t, err, ErrSupplyMaxed)
}

func TestUpdate_PriceRules(t *testing.T) {
	r := NewRegistry()
	eventID, _, err := r.CreateEvent("creator.near", eventMeta("E", nil), decimal("10"), nil, nil, vaultFee)
	require.NoError(t, err)

	// clearing the price leaves mintability alone
	require.NoError(t, r.Update(eventID, Patch{Price: decimal("0")}, vaultFee))
	s, _ := r.Get(eventID)
	assert.False(t, s.ForSale())
	assert.True(t, s.Mintable)

	// price change on a non-mintable series is a state conflict
	require.NoError(t, r.Update(eventID, Patch{Mintable: boolPtr(false)}, vaultFee))
	err = r.Update(eventID, Patch{Price: decimal("5")}, vaultFee)
	assert.ErrorIs(t, err, ErrNotMintable)
}

func TestUpdate_CopiesAdds(t *testing.T) {
	r := NewRegistry()
	eventID, _, err := r.CreateEvent("creator.near", eventMeta("E", u64(10)), nil, nil, nil, vaultFee)
	require.NoError(t, err)

	require.NoError(t, r.Update(eventID, Patch{Copies: u64(5)}, vaultFee))
	s, _ := r.Get(eventID)
	require.NotNil(t, s.Metadata.Copies)
	assert.Equal(t, uint64(15), *s.Metadata.Copies)
	assert.True(t, s.Mintable)

	// unbounded series gets the cap set
	e2, _, err := r.CreateEvent("creator.near", eventMeta("F", nil), nil, nil, nil, vaultFee)
	require.NoError(t, err)
	require.NoError(t, r.Update(e2, Patch{Copies: u64(7)}, vaultFee))
	s2, _ := r.Get(e2)
	assert.Equal(t, uint64(7), *s2.Metadata.Copies)
}

func TestUpdate_RoyaltyReplacedNotMerged(t *testing.T) {
	r := NewRegistry()
	eventID, _, err := r.CreateEvent("creator.near", eventMeta("E", nil), nil,
		map[ledger.AccountID]uint32{"a.near": 1000, "b.near": 1000}, nil, vaultFee)
	require.NoError(t, err)

	replacement := map[ledger.AccountID]uint32{"c.near": 500}
	require.NoError(t, r.Update(eventID, Patch{Royalty: &replacement}, vaultFee))

	s, _ := r.Get(eventID)
	assert.Equal(t, replacement, s.Royalty)
	assert.NotContains(t, s.Royalty, ledger.AccountID("a.near"))
}

func TestUpdate_InvalidPatchLeavesSeriesUntouched(t *testing.T) {
	r := NewRegistry()
	eventID, _, err := r.CreateEvent("creator.near", eventMeta("E", nil), nil,
		map[ledger.AccountID]uint32{"a.near": 1000}, nil, vaultFee)
	require.NoError(t, err)

	title := "New Title"
	bad := map[ledger.AccountID]uint32{"b.near": 9001}
	err = r.Update(eventID, Patch{Title: &title, Royalty: &bad}, vaultFee)
	require.Error(t, err)

	s, _ := r.Get(eventID)
	assert.Equal(t, "E", s.Metadata.Title, "failed patch must not apply partially")
	assert.Equal(t, uint32(1000), s.Royalty["a.near"])
}

func TestAvailableCopies(t *testing.T) {
	r := NewRegistry()
	eventID, companionID, err := r.CreateEvent("creator.near", eventMeta("E", u64(10)), nil, nil, nil, vaultFee)
	require.NoError(t, err)

	n, err := r.AvailableCopies(eventID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), n)

	_, _, _, err = r.IssueNext(eventID)
	require.NoError(t, err)
	n, err = r.AvailableCopies(eventID)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), n)

	_, err = r.AvailableCopies(companionID)
	assert.ErrorIs(t, err, ErrNoCopiesCap)
}

func TestSlice_Pagination(t *testing.T) {
	r := NewRegistry()
	for _, title := range []string{"A", "B", "C"} {
		_, _, err := r.CreateEvent("creator.near", eventMeta(title, nil), nil, nil, nil, vaultFee)
		require.NoError(t, err)
	}
	assert.Equal(t, 6, r.Count()) // three events, three companions

	page := r.Slice(0, 2)
	require.Len(t, page, 2)
	assert.Equal(t, ID("1|1"), page[0].ID)
	assert.Equal(t, ID("2|1"), page[1].ID)

	assert.Len(t, r.Slice(4, 10), 2)
	assert.Nil(t, r.Slice(6, 1))
}

func boolPtr(b bool) *bool { return &b }
