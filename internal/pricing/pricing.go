// Package pricing converts externally-denominated reference prices into native
// smallest-unit amounts using a mutable exchange rate.
//
// The upstream implementation performed this conversion in binary floating
// point, which is platform-sensitive (10^24 is not even representable as a
// float64). Conversion here is exact rational arithmetic instead:
// floor(price / rate * 10^24). The change is deliberate and recorded in
// DESIGN.md.
package pricing

import (
	"errors"
	"math/big"

	"github.com/mintick/mintick/internal/ledger"
)

// ErrRateNotSet is returned when the exchange rate is zero or negative.
var ErrRateNotSet = errors.New("exchange rate must be greater than 0")

// ToNative converts a reference-denominated price into yocto:
// floor(price / rate * 10^24), computed exactly.
func ToNative(refPrice, rate Decimal) (*big.Int, error) {
	if !rate.Positive() {
		return nil, ErrRateNotSet
	}
	q := refPrice.Rat()
	q.Quo(q, rate.Rat())
	// floor(num * 10^24 / den); q is non-negative for valid prices.
	num := new(big.Int).Mul(q.Num(), ledger.OneNative)
	return num.Quo(num, q.Denom()), nil
}

// Quote returns the native price plus the fixed display margin. The margin is
// advisory - it tells a client how much to attach so the later storage
// reconciliation cannot fail, and is never enforced server-side.
func Quote(refPrice, rate Decimal) (*big.Int, error) {
	yocto, err := ToNative(refPrice, rate)
	if err != nil {
		return nil, err
	}
	return ledger.Add(yocto, ledger.DisplayMargin), nil
}

// MinimumDeposit returns the enforced purchase minimum: native price plus the
// fixed buy safety margin.
func MinimumDeposit(nativePrice *big.Int) *big.Int {
	return ledger.Add(nativePrice, ledger.BuyMargin)
}
