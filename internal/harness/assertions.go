package harness

import (
	"reflect"

	"github.com/mintick/mintick/internal/event"
	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/series"
	"github.com/mintick/mintick/internal/token"
)

// evaluateAssertions checks every assertion against the run's trace and
// final state, collecting failures into the result.
func evaluateAssertions(result *Result, assertions []Assertion) {
	for i, a := range assertions {
		switch a.Type {
		case AssertEventCount:
			assertEventCount(result, i, a)
		case AssertEventOrder:
			assertEventOrder(result, i, a)
		case AssertEventContains:
			assertEventContains(result, i, a)
		case AssertOwnerOf:
			assertOwnerOf(result, i, a)
		case AssertSupply:
			assertSupply(result, i, a)
		}
	}
}

func assertEventCount(result *Result, index int, a Assertion) {
	count := 0
	for _, e := range result.Events {
		if e.Type == a.Event {
			count++
		}
	}
	if count != a.Count {
		result.addErrorf("assertions[%d] event_count: %s appeared %d times, expected %d",
			index, a.Event, count, a.Count)
	}
}

// assertEventOrder checks the listed types appear as a subsequence of the
// trace, in order. Extra events in between are allowed.
func assertEventOrder(result *Result, index int, a Assertion) {
	next := 0
	for _, e := range result.Events {
		if next < len(a.Events) && e.Type == a.Events[next] {
			next++
		}
	}
	if next != len(a.Events) {
		result.addErrorf("assertions[%d] event_order: missing %s at position %d",
			index, a.Events[next], next)
	}
}

func assertEventContains(result *Result, index int, a Assertion) {
	want := make(event.Obj, len(a.Params))
	for key, val := range a.Params {
		v, err := toValue(val)
		if err != nil {
			result.addErrorf("assertions[%d] event_contains: param %q: %v", index, key, err)
			return
		}
		want[key] = v
	}

	for _, e := range result.Events {
		if e.Type == a.Event && paramsMatch(e.Params, want) {
			return
		}
	}
	result.addErrorf("assertions[%d] event_contains: no %s event matched params %v",
		index, a.Event, a.Params)
}

// paramsMatch is a subset match: every wanted key must be present and equal.
func paramsMatch(got, want event.Obj) bool {
	for key, wv := range want {
		gv, ok := got[key]
		if !ok || !reflect.DeepEqual(gv, wv) {
			return false
		}
	}
	return true
}

func assertOwnerOf(result *Result, index int, a Assertion) {
	view, err := result.Contract.Token(token.ItemID(a.TokenID))
	if err != nil {
		result.addErrorf("assertions[%d] owner_of: %v", index, err)
		return
	}
	if view.OwnerID != ledger.AccountID(a.Owner) {
		result.addErrorf("assertions[%d] owner_of: %s is owned by %s, expected %s",
			index, a.TokenID, view.OwnerID, a.Owner)
	}
}

func assertSupply(result *Result, index int, a Assertion) {
	switch {
	case a.Owner != "":
		if n := result.Contract.SupplyForOwner(ledger.AccountID(a.Owner)); n != a.Count {
			result.addErrorf("assertions[%d] supply: %s holds %d, expected %d", index, a.Owner, n, a.Count)
		}
	case a.SeriesID != "":
		n, err := result.Contract.SupplyForSeries(series.ID(a.SeriesID))
		if err != nil {
			result.addErrorf("assertions[%d] supply: %v", index, err)
			return
		}
		if int(n) != a.Count {
			result.addErrorf("assertions[%d] supply: series %s issued %d, expected %d", index, a.SeriesID, n, a.Count)
		}
	default:
		if n := result.Contract.TotalSupply(); n != a.Count {
			result.addErrorf("assertions[%d] supply: total is %d, expected %d", index, n, a.Count)
		}
	}
}
