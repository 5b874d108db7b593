package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintick/mintick/internal/event"
)

func runScenario(t *testing.T, src string) *Result {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)
	return result
}

func TestRunFullPurchaseScenario(t *testing.T) {
	result := runScenario(t, `
name: buy-settlement
description: a purchase mints the event instance plus its companion and splits the payment
genesis:
  owner: owner.near
  vault: vault.near
  rate: "2"
steps:
  - op: nft_create_event
    caller: creator.near
    args:
      title: Summer Show
      price: "10"
      copies: 3
      royalty_buy:
        promoter.near: 500
    deposit: "10000000000000000000000"
  - op: nft_buy
    caller: buyer.near
    args:
      token_series_id: "1|1"
    deposit: "5060000000000000000000000"
assertions:
  - type: event_order
    events: [update_tasa, nft_create_event, nft_create_event, nft_buy]
  - type: event_count
    event: nft_buy
    count: 1
  - type: event_contains
    event: nft_buy
    params:
      token_series_id: "1|1"
      price: "5000000000000000000000000"
      amount_mintick: "150000000000000000000000"
      is_mintable: true
  - type: owner_of
    token_id: "1|1:1"
    owner: buyer.near
  - type: owner_of
    token_id: "2|1:1"
    owner: buyer.near
  - type: supply
    owner: buyer.near
    count: 2
  - type: supply
    token_series_id: "1|1"
    count: 1
  - type: supply
    count: 2
`)
	assert.True(t, result.Pass(), "failures: %v", result.Errors)
}

func TestRunExpectedFailure(t *testing.T) {
	result := runScenario(t, `
name: underfunded-buy
description: a short deposit fails settlement and mutates nothing
genesis:
  owner: owner.near
  vault: vault.near
  rate: "2"
steps:
  - op: nft_create_event
    caller: creator.near
    args:
      title: Summer Show
      price: "10"
      copies: 3
    deposit: "10000000000000000000000"
  - op: nft_buy
    caller: buyer.near
    args:
      token_series_id: "1|1"
    deposit: "1"
    expect:
      error: FUNDING
      contains: required minimum
assertions:
  - type: event_count
    event: nft_buy
    count: 0
  - type: supply
    count: 0
`)
	assert.True(t, result.Pass(), "failures: %v", result.Errors)
}

func TestRunReportsUnexpectedOutcomes(t *testing.T) {
	// A step that should fail but succeeds, and one that fails with the
	// wrong code, both surface as failures rather than test errors.
	result := runScenario(t, `
name: divergent
description: expectation mismatches are reported
genesis:
  owner: owner.near
  vault: vault.near
steps:
  - op: update_tasa
    caller: owner.near
    args:
      tasa: "2"
    expect:
      error: AUTHORIZATION
  - op: update_tasa
    caller: stranger.near
    args:
      tasa: "2"
    expect:
      error: FUNDING
`)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected AUTHORIZATION error, got success")
	assert.Contains(t, result.Errors[1], "expected FUNDING error, got AUTHORIZATION")
}

func TestRunReportsFailedAssertions(t *testing.T) {
	result := runScenario(t, `
name: failing-assertions
description: every assertion type can fail
genesis:
  owner: owner.near
  vault: vault.near
steps:
  - op: update_tasa
    caller: owner.near
    args:
      tasa: "2"
assertions:
  - type: event_count
    event: nft_buy
    count: 1
  - type: event_order
    events: [nft_create_event, update_tasa]
  - type: event_contains
    event: update_tasa
    params:
      tasa: "3"
  - type: owner_of
    token_id: "1|1:1"
    owner: nobody.near
  - type: supply
    count: 5
`)
	assert.False(t, result.Pass())
	assert.Len(t, result.Errors, 5)
}

func TestGenesisSeedsRateAndAdmins(t *testing.T) {
	result := runScenario(t, `
name: genesis-seed
description: genesis applies rate and admins before any step
genesis:
  owner: owner.near
  vault: vault.near
  vault_fee_bps: 500
  rate: "2.5"
  admins: [mod.near]
steps:
  - op: add_admin
    caller: mod.near
    args:
      account_id: helper.near
assertions:
  - type: event_order
    events: [update_tasa, add_admin, add_admin]
`)
	require.True(t, result.Pass(), "failures: %v", result.Errors)
	assert.Equal(t, uint32(500), result.Contract.VaultFeeBps())

	rate, ok := result.Contract.Rate()
	require.True(t, ok)
	assert.Equal(t, "2.5", rate.String())
}

func TestToValueRejectsFractionalFloats(t *testing.T) {
	_, err := toValue(1.5)
	require.Error(t, err)

	v, err := toValue(3.0)
	require.NoError(t, err)
	assert.Equal(t, event.Int(3), v)
}
