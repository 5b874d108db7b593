// Package contract is the settlement engine's top level: one owned state
// struct, every externally invocable operation, and the read-side queries.
//
// The concurrency model is single-writer: each operation runs start to finish
// against the state with no interleaving, guarded by one mutex. All failures
// abort the whole operation before any mutation lands, so there is never a
// partially applied state to observe.
package contract

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mintick/mintick/internal/event"
	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/mint"
	"github.com/mintick/mintick/internal/pricing"
	"github.com/mintick/mintick/internal/series"
	"github.com/mintick/mintick/internal/token"
)

const metadataIcon = "data:image/svg+xml,%3Csvg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 288 288'%3E%3Cg id='l' data-name='l'%3E%3Cpath d='M187.58,79.81l-30.1,44.69a3.2,3.2,0,0,0,4.75,4.2L191.86,103a1.2,1.2,0,0,1,2,.91v80.46a1.2,1.2,0,0,1-2.12.77L102.18,77.93A15.35,15.35,0,0,0,90.47,72.5H87.34A15.34,15.34,0,0,0,72,87.84V201.16A15.34,15.34,0,0,0,87.34,216.5h0a15.35,15.35,0,0,0,13.08-7.31l30.1-44.69a3.2,3.2,0,0,0-4.75-4.2L96.14,186a1.2,1.2,0,0,1-2-.91V104.61a1.2,1.2,0,0,1,2.12-.77l89.55,107.23a15.35,15.35,0,0,0,11.71,5.43h3.13A15.34,15.34,0,0,0,216,201.16V87.84A15.34,15.34,0,0,0,200.66,72.5h0A15.35,15.35,0,0,0,187.58,79.81Z'/%3E%3C/g%3E%3C/svg%3E"

// Metadata describes the contract itself for indexers and wallets.
type Metadata struct {
	Spec   string `json:"spec"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Icon   string `json:"icon,omitempty"`
}

// DefaultMetadata returns the stock contract metadata.
func DefaultMetadata() Metadata {
	return Metadata{
		Spec:   "nft-1.0.0",
		Name:   "Mintick",
		Symbol: "Mintick",
		Icon:   metadataIcon,
	}
}

// TransactionFee is the fixed fee reported by the series detail view.
var TransactionFee = uint64(200)

// DefaultVaultFeeBps is the platform cut applied when no fee is configured.
const DefaultVaultFeeBps = 300

// FlowGenerator produces flow tokens, one per externally invoked operation.
// Flow tokens tie an operation's log records, events and journal row together.
type FlowGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 flow tokens.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Contract is the single owned state struct. Everything mutable lives here;
// there are no package-level globals.
type Contract struct {
	mu sync.Mutex

	metadata    Metadata
	owner       ledger.AccountID
	vault       ledger.AccountID
	vaultFeeBps uint32
	admins      map[ledger.AccountID]struct{}

	// rate is the mutable exchange rate ("tasa"); nil until set. Purchases
	// and series creation require it.
	rate *pricing.Decimal

	registry *series.Registry
	items    *token.Ledger
	minter   *mint.Engine

	clock   *Clock
	events  *event.Log
	effects *EffectQueue
	flows   FlowGenerator
	now     func() int64

	logger *slog.Logger
}

// Option configures a Contract.
type Option func(*Contract)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Contract) { c.logger = l }
}

// WithFlowGenerator overrides the flow-token source. Tests install a fixed
// generator for reproducible traces.
func WithFlowGenerator(g FlowGenerator) Option {
	return func(c *Contract) { c.flows = g }
}

// WithNow overrides the issued-at timestamp source (nanoseconds).
func WithNow(now func() int64) Option {
	return func(c *Contract) { c.now = now }
}

// WithVaultFee overrides the default vault fee.
func WithVaultFee(bps uint32) Option {
	return func(c *Contract) { c.vaultFeeBps = bps }
}

// WithMetadata overrides the contract metadata.
func WithMetadata(m Metadata) Option {
	return func(c *Contract) { c.metadata = m }
}

// WithClock installs a clock resuming from a known position. Used by replay.
func WithClock(clock *Clock) Option {
	return func(c *Contract) { c.clock = clock }
}

// New initializes a contract owned by owner, routing vault shares to vault.
func New(owner, vault ledger.AccountID, opts ...Option) (*Contract, error) {
	if !owner.Valid() {
		return nil, opErrorf(ErrCodeValidation, "new", "owner account %q is not valid", owner)
	}
	if !vault.Valid() {
		return nil, opErrorf(ErrCodeValidation, "new", "vault account %q is not valid", vault)
	}

	registry := series.NewRegistry()
	items := token.NewLedger()
	c := &Contract{
		metadata:    DefaultMetadata(),
		owner:       owner,
		vault:       vault,
		vaultFeeBps: DefaultVaultFeeBps,
		admins:      make(map[ledger.AccountID]struct{}),
		registry:    registry,
		items:       items,
		minter:      mint.NewEngine(registry, items),
		clock:       NewClock(),
		events:      event.NewLog(),
		effects:     NewEffectQueue(),
		flows:       UUIDv7Generator{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.now == nil {
		c.now = func() int64 { return 0 }
	}
	return c, nil
}

// Metadata returns the contract-level metadata.
func (c *Contract) Metadata() Metadata { return c.metadata }

// Owner returns the contract owner.
func (c *Contract) Owner() ledger.AccountID { return c.owner }

// Vault returns the vault account.
func (c *Contract) Vault() ledger.AccountID { return c.vault }

// VaultFeeBps returns the configured platform fee.
func (c *Contract) VaultFeeBps() uint32 { return c.vaultFeeBps }

// Events returns the event log.
func (c *Contract) Events() *event.Log { return c.events }

// Effects returns the pending-transfer queue.
func (c *Contract) Effects() *EffectQueue { return c.effects }

// Seq returns the logical clock's current position.
func (c *Contract) Seq() int64 { return c.clock.Current() }

// isAdmin reports whether the account is the owner or a listed admin.
func (c *Contract) isAdmin(account ledger.AccountID) bool {
	if account == c.owner {
		return true
	}
	_, ok := c.admins[account]
	return ok
}

// authorize is the single access-control predicate. An operation passes the
// capability sets that satisfy it; membership in any one grants access.
type capability int

const (
	capOwner capability = iota
	capAdmin
	capSeriesCreator
	capItemOwner
)

func (c *Contract) authorize(caller ledger.AccountID, creator, itemOwner ledger.AccountID, caps ...capability) bool {
	for _, grant := range caps {
		switch grant {
		case capOwner:
			if caller == c.owner {
				return true
			}
		case capAdmin:
			if _, ok := c.admins[caller]; ok {
				return true
			}
		case capSeriesCreator:
			if creator != "" && caller == creator {
				return true
			}
		case capItemOwner:
			if itemOwner != "" && caller == itemOwner {
				return true
			}
		}
	}
	return false
}

// emit stamps an event with the next clock value, appends it to the log and
// writes a structured log record.
func (c *Contract) emit(flow, typ string, params event.Obj) event.Event {
	e := event.Event{Seq: c.clock.Next(), Type: typ, Params: params}
	c.events.Append(e)
	c.logger.Info("event emitted", "flow", flow, "seq", e.Seq, "type", typ)
	return e
}
