// Package storagefee reconciles an operation's attached prepayment against the
// persistent-storage bytes it actually consumed.
package storagefee

import (
	"fmt"
	"math/big"

	"github.com/mintick/mintick/internal/ledger"
)

// InsufficientError reports an attachment too small to cover storage growth.
// The message names the exact required amount so the caller can resubmit.
type InsufficientError struct {
	Required *big.Int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("must attach %s yocto to cover storage", e.Required)
}

// Reconcile computes the cost of deltaBytes of new storage and settles it
// against what remains of the attached deposit after alreadySpent.
//
// Returns the refund owed to the caller: available - required, or nil when the
// refund does not exceed the dust threshold of 1 yocto. deltaBytes may be
// negative (storage released), in which case the full remainder is refundable.
func Reconcile(deltaBytes int64, alreadySpent, attached *big.Int) (*big.Int, error) {
	required := ledger.Zero()
	if deltaBytes > 0 {
		required.Mul(big.NewInt(deltaBytes), ledger.StorageByteCost)
	}

	available := ledger.Sub(attached, alreadySpent)
	if required.Cmp(available) > 0 {
		return nil, &InsufficientError{Required: required}
	}

	refund := available.Sub(available, required)
	if refund.Cmp(ledger.DustThreshold) <= 0 {
		return nil, nil
	}
	return refund, nil
}
