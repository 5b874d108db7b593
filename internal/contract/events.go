package contract

import (
	"math/big"
	"sort"

	"github.com/mintick/mintick/internal/event"
	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/payout"
	"github.com/mintick/mintick/internal/series"
)

// Event payload builders. Payloads carry decimal strings for every monetary
// field; the event layer rejects floats outright.

func metadataObj(m series.Metadata) event.Obj {
	obj := event.Obj{"title": event.Str(m.Title)}
	if m.Description != "" {
		obj["description"] = event.Str(m.Description)
	}
	if m.Media != "" {
		obj["media"] = event.Str(m.Media)
	}
	if m.Copies != nil {
		obj["copies"] = event.Int(int64(*m.Copies))
	} else {
		obj["copies"] = event.Null{}
	}
	if m.Extra != "" {
		obj["extra"] = event.Str(m.Extra)
	}
	if m.Reference != "" {
		obj["reference"] = event.Str(m.Reference)
	}
	return obj
}

func royaltyObj(table map[ledger.AccountID]uint32) event.Obj {
	obj := make(event.Obj, len(table))
	for account, bps := range table {
		obj[string(account)] = event.Int(int64(bps))
	}
	return obj
}

func seriesIDArr(ids []series.ID) event.Arr {
	arr := make(event.Arr, len(ids))
	for i, id := range ids {
		arr[i] = event.Str(id.String())
	}
	return arr
}

func priceValue(s *series.Series) event.Value {
	if s.Price == nil {
		return event.Null{}
	}
	return event.Str(s.Price.String())
}

func amountStr(v *big.Int) event.Str {
	return event.Str(v.String())
}

// payoutArr renders a payout breakdown in entry order (lexicographic accounts,
// remainder last — the order Split computes).
func payoutArr(entries []payout.Entry) event.Arr {
	arr := make(event.Arr, len(entries))
	for i, e := range entries {
		arr[i] = event.Obj{
			"wallet":     event.Str(string(e.Account)),
			"porcentaje": event.Int(int64(e.Bps)),
			"amount":     event.Str(e.Amount.String()),
		}
	}
	return arr
}

// sortedAccounts returns map keys in lexicographic order for deterministic
// event payload assembly.
func sortedAccounts(table map[ledger.AccountID]uint32) []ledger.AccountID {
	accounts := make([]ledger.AccountID, 0, len(table))
	for account := range table {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })
	return accounts
}

func seriesCreatedParams(s *series.Series, isCompanion bool) event.Obj {
	return event.Obj{
		"token_series_id": event.Str(s.ID.String()),
		"token_metadata":  metadataObj(s.Metadata),
		"creator_id":      event.Str(string(s.Creator)),
		"list_objects":    seriesIDArr(s.Bundled),
		"object_event":    event.Bool(isCompanion),
		"price":           priceValue(s),
		"royalty":         royaltyObj(s.Royalty),
		"royalty_buy":     royaltyObj(s.RoyaltyOnPurchase),
	}
}

func seriesUpdatedParams(s *series.Series) event.Obj {
	return event.Obj{
		"token_series_id": event.Str(s.ID.String()),
		"token_metadata":  metadataObj(s.Metadata),
		"creator_id":      event.Str(string(s.Creator)),
		"price":           priceValue(s),
		"objects_ids":     seriesIDArr(s.Bundled),
		"royalty":         royaltyObj(s.Royalty),
		"royalty_buy":     royaltyObj(s.RoyaltyOnPurchase),
		"is_mintable":     event.Bool(s.Mintable),
	}
}
