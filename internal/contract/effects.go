package contract

import (
	"math/big"

	"github.com/mintick/mintick/internal/ledger"
)

// Effect reasons, recorded on every scheduled outbound transfer.
const (
	EffectVaultShare   = "vault_share"
	EffectRoyaltyShare = "royalty_share"
	EffectCreatorShare = "creator_share"
	EffectRefund       = "storage_refund"
)

// Effect is one outbound value transfer scheduled by an operation. Transfers
// are fire-and-forget relative to the operation that emits them: they are
// recorded after the state transition commits, and their delivery outcome is
// not observed or rolled back here.
type Effect struct {
	Seq    int64
	To     ledger.AccountID
	Amount *big.Int
	Reason string
}

// EffectQueue accumulates pending transfers in emission order. A host
// dispatcher drains it; the engine only appends.
type EffectQueue struct {
	pending []Effect
}

// NewEffectQueue creates an empty queue.
func NewEffectQueue() *EffectQueue { return &EffectQueue{} }

// Emit schedules a transfer. Zero amounts are dropped; there is nothing to
// deliver.
func (q *EffectQueue) Emit(seq int64, to ledger.AccountID, amount *big.Int, reason string) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	q.pending = append(q.pending, Effect{Seq: seq, To: to, Amount: new(big.Int).Set(amount), Reason: reason})
}

// Drain removes and returns all pending effects in emission order.
func (q *EffectQueue) Drain() []Effect {
	out := q.pending
	q.pending = nil
	return out
}

// Pending returns the queued effects without removing them.
func (q *EffectQueue) Pending() []Effect {
	out := make([]Effect, len(q.pending))
	copy(out, q.pending)
	return out
}

// Len returns the number of queued effects.
func (q *EffectQueue) Len() int { return len(q.pending) }
