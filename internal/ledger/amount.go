package ledger

import (
	"fmt"
	"math/big"
)

// Amounts are denominated in the chain's smallest unit (yocto): 10^24 smallest
// units per whole native unit. Values routinely exceed uint64 range, so all
// arithmetic is big.Int. Amounts are treated as immutable - helpers always
// allocate, never mutate their operands.

// Basis-point caps shared by the royalty tables and the vault fee.
const (
	BasisPoints = 10_000 // 100%

	MaxRoyaltyBps         = 9_000 // cap on the secondary-sale royalty table
	MaxRoyaltyAccounts    = 10
	MaxRoyaltyBuyAccounts = 5
)

// yocto constants, exact.
var (
	// OneNative is 10^24 smallest units.
	OneNative = exp10(24)

	// BuyMargin is the fixed safety margin required on top of the converted
	// price when buying: 0.00005 of a whole unit, 5*10^22 yocto. It absorbs
	// the storage-refund reconciliation that follows the payment.
	BuyMargin = mustAmount("50000000000000000000000")

	// DisplayMargin is the advisory margin added by the read-side price quote
	// so clients pre-compute a sufficient attachment: 10^23 yocto.
	DisplayMargin = mustAmount("100000000000000000000000")

	// StorageByteCost is the cost of one persisted byte: 10^19 yocto.
	StorageByteCost = exp10(19)

	// DustThreshold is the smallest refund worth sending back: 1 yocto.
	DustThreshold = big.NewInt(1)
)

func exp10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

func mustAmount(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(fmt.Sprintf("bad amount literal %q", s))
	}
	return v
}

// ParseAmount parses a base-10 yocto amount. Negative amounts are rejected.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	return v, nil
}

// BpsShare returns floor(total * bps / 10000).
func BpsShare(total *big.Int, bps uint32) *big.Int {
	share := new(big.Int).Mul(total, big.NewInt(int64(bps)))
	return share.Quo(share, big.NewInt(BasisPoints))
}

// Add returns a+b in a fresh Int.
func Add(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }

// Sub returns a-b in a fresh Int.
func Sub(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }

// Zero returns a fresh zero amount.
func Zero() *big.Int { return new(big.Int) }
