// Package payout splits a fixed amount across a basis-point royalty table.
//
// Conservation is exact: every split sums to the input total, with all
// integer-division rounding loss assigned to a designated remainder account
// (the previous owner on secondary sales, the creator on primary sales).
package payout

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/mintick/mintick/internal/ledger"
)

// Entry is one computed payout.
type Entry struct {
	Account ledger.AccountID
	Bps     uint32   // 0 for the remainder recipient
	Amount  *big.Int
}

// Split divides total across the royalty table. Each non-excluded entry gets
// floor(total * bps / 10000); the excluded account receives the remainder so
// the sum of all entries equals total exactly.
//
// Entries are returned in lexicographic account order with the remainder
// recipient appended last, so iteration order is reproducible.
func Split(total *big.Int, royalty map[ledger.AccountID]uint32, maxRecipients int, excluded ledger.AccountID) ([]Entry, error) {
	if len(royalty) > maxRecipients {
		return nil, fmt.Errorf("cannot payout to more than %d receivers", maxRecipients)
	}

	accounts := make([]ledger.AccountID, 0, len(royalty))
	for acct := range royalty {
		if acct != excluded {
			accounts = append(accounts, acct)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })

	entries := make([]Entry, 0, len(accounts)+1)
	spent := ledger.Zero()
	var totalBps uint64
	for _, acct := range accounts {
		bps := royalty[acct]
		totalBps += uint64(bps)
		if totalBps > ledger.BasisPoints {
			return nil, fmt.Errorf("total payout exceeds %d basis points", ledger.BasisPoints)
		}
		amount := ledger.BpsShare(total, bps)
		spent.Add(spent, amount)
		entries = append(entries, Entry{Account: acct, Bps: bps, Amount: amount})
	}

	entries = append(entries, Entry{
		Account: excluded,
		Amount:  ledger.Sub(total, spent),
	})
	return entries, nil
}

// Sum returns the total of all entry amounts. Test and audit helper.
func Sum(entries []Entry) *big.Int {
	sum := ledger.Zero()
	for _, e := range entries {
		sum.Add(sum, e.Amount)
	}
	return sum
}
