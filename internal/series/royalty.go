package series

import (
	"fmt"

	"github.com/mintick/mintick/internal/ledger"
)

// ValidationError reports a rejected royalty table or metadata field.
// Validation failures are hard: no part of the table is applied.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// validateRoyalty checks the secondary-sale royalty table: every account
// syntactically valid, at most MaxRoyaltyAccounts entries, bps sum at most
// MaxRoyaltyBps.
func validateRoyalty(table map[ledger.AccountID]uint32) error {
	var totalBps uint64
	for account, bps := range table {
		if !account.Valid() {
			return validationf("not valid account_id for royalty: %q", account)
		}
		totalBps += uint64(bps)
	}
	if len(table) > ledger.MaxRoyaltyAccounts {
		return validationf("royalty exceeds %d accounts", ledger.MaxRoyaltyAccounts)
	}
	if totalBps > ledger.MaxRoyaltyBps {
		return validationf("exceeds maximum royalty -> %d", ledger.MaxRoyaltyBps)
	}
	return nil
}

// validateRoyaltyOnPurchase checks the primary-purchase royalty table. Its cap
// leaves room for the vault fee, it allows fewer entries, and the creator must
// not appear in it: the creator already receives the residual share, and
// listing them would let rounding loss be double-claimed.
func validateRoyaltyOnPurchase(table map[ledger.AccountID]uint32, creator ledger.AccountID, vaultFeeBps uint32) error {
	var totalBps uint64
	for account, bps := range table {
		if !account.Valid() {
			return validationf("not valid account_id for royalty: %q", account)
		}
		if account == creator {
			return validationf("the creator cannot be on the split list")
		}
		totalBps += uint64(bps)
	}
	if len(table) > ledger.MaxRoyaltyBuyAccounts {
		return validationf("royalty_buy exceeds %d accounts", ledger.MaxRoyaltyBuyAccounts)
	}
	cap := uint64(ledger.MaxRoyaltyBps - vaultFeeBps)
	if totalBps > cap {
		return validationf("exceeds maximum royalty_buy -> %d", cap)
	}
	return nil
}

func copyRoyalty(table map[ledger.AccountID]uint32) map[ledger.AccountID]uint32 {
	out := make(map[ledger.AccountID]uint32, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}
