package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/mintick/mintick/internal/event"
	"github.com/mintick/mintick/internal/ledger"
)

// Operation names. These match the event type tags where an operation emits a
// same-named event; the remainder cover operations that emit differently
// named events or none at all.
const (
	OpAddAdmin        = "add_admin"
	OpSetRate         = "update_tasa"
	OpCreateEvent     = "nft_create_event"
	OpCreateCompanion = "nft_create_object"
	OpUpdateSeries    = "update_nft_series"
	OpBuy             = "nft_buy"
	OpMint            = "nft_mint"
	OpBurn            = "nft_burn"
	OpBurnObject      = "burn_object"
	OpApproveObject   = "approved_object"
	OpApprove         = "nft_approve"
	OpRevoke          = "nft_revoke"
	OpRevokeAll       = "nft_revoke_all"
	OpTransfer        = "nft_transfer"
	OpTransferUnsafe  = "nft_transfer_unsafe"
	OpTransferPayout  = "nft_transfer_payout"
)

// Args is the serialized argument record of one operation. Field names follow
// the wire contract; each operation reads the subset it needs. Pointer fields
// distinguish "absent" from a zero value for partial updates.
type Args struct {
	AccountID   string                      `json:"account_id,omitempty" yaml:"account_id,omitempty"`
	Rate        string                      `json:"tasa,omitempty" yaml:"tasa,omitempty"`
	Title       *string                     `json:"title,omitempty" yaml:"title,omitempty"`
	Description *string                     `json:"description,omitempty" yaml:"description,omitempty"`
	Media       *string                     `json:"media,omitempty" yaml:"media,omitempty"`
	Copies      *uint64                     `json:"copies,omitempty" yaml:"copies,omitempty"`
	Extra       string                      `json:"extra,omitempty" yaml:"extra,omitempty"`
	Price       *string                     `json:"price,omitempty" yaml:"price,omitempty"`
	Royalty     map[ledger.AccountID]uint32 `json:"royalty,omitempty" yaml:"royalty,omitempty"`
	RoyaltyBuy  map[ledger.AccountID]uint32 `json:"royalty_buy,omitempty" yaml:"royalty_buy,omitempty"`
	SeriesID    string                      `json:"token_series_id,omitempty" yaml:"token_series_id,omitempty"`
	TokenID     string                      `json:"token_id,omitempty" yaml:"token_id,omitempty"`
	ReceiverID  string                      `json:"receiver_id,omitempty" yaml:"receiver_id,omitempty"`
	GranteeID   string                      `json:"approved_account_id,omitempty" yaml:"approved_account_id,omitempty"`
	ApprovalID  *uint64                     `json:"approval_id,omitempty" yaml:"approval_id,omitempty"`
	Memo        string                      `json:"memo,omitempty" yaml:"memo,omitempty"`
	Mintable    *bool                       `json:"is_mintable,omitempty" yaml:"is_mintable,omitempty"`
	Balance     *string                     `json:"balance,omitempty" yaml:"balance,omitempty"`
	MaxPayout   int                         `json:"max_len_payout,omitempty" yaml:"max_len_payout,omitempty"`
}

// OpRecord is one accepted operation. Only operations that succeeded are
// journaled; a failed operation mutates nothing and leaves no record.
type OpRecord struct {
	Ordinal int64
	Flow    string
	Name    string
	Caller  ledger.AccountID
	Args    Args
	Deposit *big.Int // nil when no deposit was attached
}

// EventRecord is one persisted event row.
type EventRecord struct {
	ID     string
	Seq    int64
	Flow   string
	Type   string
	Params event.Obj
}

// marshalArgs serializes an Args record to JSON TEXT with HTML escaping
// disabled. Struct field order makes the output deterministic.
func marshalArgs(a Args) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(a); err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalArgs(data string) (Args, error) {
	var a Args
	if data == "" || data == "{}" {
		return a, nil
	}
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return Args{}, fmt.Errorf("unmarshal args: %w", err)
	}
	return a, nil
}

// marshalParams serializes an event payload with sorted keys. Display
// payloads may carry explicit nulls, so this is the display form, not the
// canonical one; the canonical form only exists inside ID hashing.
func marshalParams(params event.Obj) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(params); err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalParams(data string) (event.Obj, error) {
	if data == "" || data == "{}" {
		return event.Obj{}, nil
	}
	var obj event.Obj
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return obj, nil
}

func marshalDeposit(d *big.Int) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func unmarshalDeposit(data string) (*big.Int, error) {
	if data == "" {
		return nil, nil
	}
	return ledger.ParseAmount(data)
}
