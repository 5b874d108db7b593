package journal

import (
	"context"
	"fmt"
	"math/big"

	"github.com/mintick/mintick/internal/contract"
	"github.com/mintick/mintick/internal/event"
	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/pricing"
	"github.com/mintick/mintick/internal/series"
	"github.com/mintick/mintick/internal/token"
)

// MismatchError reports a replay divergence: the event the fresh contract
// emitted does not match the journaled one at the same position.
type MismatchError struct {
	Flow     string
	Seq      int64
	Recorded string // recorded event ID, empty if the replay emitted extra events
	Replayed string // replayed event ID, empty if the replay emitted fewer events
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("replay mismatch at seq %d (flow %s): recorded %q, replayed %q",
		e.Seq, e.Flow, e.Recorded, e.Replayed)
}

// FlowSource hands the contract a caller-chosen flow token instead of
// generating fresh ones. Replay sets it to each recorded operation's token;
// callers journaling new operations Set the token before applying.
type FlowSource struct {
	token string
}

// Set fixes the token returned by the next Generate calls.
func (f *FlowSource) Set(token string) { f.token = token }

func (f *FlowSource) Generate() string { return f.token }

// Replay rebuilds a contract from the journal by reapplying every recorded
// operation in acceptance order, verifying after each one that the emitted
// events match the journaled history. A divergence returns a MismatchError
// and aborts the rebuild.
//
// The owner, vault and options must match the original deployment; event
// identities cover seq, type and params, so any drift in configuration that
// reaches an event payload is caught.
func Replay(ctx context.Context, j *Journal, owner, vault ledger.AccountID, opts ...contract.Option) (*contract.Contract, error) {
	c, _, err := Resume(ctx, j, owner, vault, opts...)
	return c, err
}

// Resume replays the journal and returns the rebuilt contract together with
// its flow source, so the caller can keep journaling operations against the
// same contract.
func Resume(ctx context.Context, j *Journal, owner, vault ledger.AccountID, opts ...contract.Option) (*contract.Contract, *FlowSource, error) {
	ops, err := j.ReadOps(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("replay: %w", err)
	}
	recorded, err := j.ReadEvents(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("replay: %w", err)
	}
	byFlow := make(map[string][]EventRecord)
	for _, rec := range recorded {
		byFlow[rec.Flow] = append(byFlow[rec.Flow], rec)
	}

	flows := &FlowSource{}
	c, err := contract.New(owner, vault, append(opts, contract.WithFlowGenerator(flows))...)
	if err != nil {
		return nil, nil, fmt.Errorf("replay: %w", err)
	}

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("replay: %w", err)
		}
		flows.Set(op.Flow)
		next := c.Seq() + 1
		if err := Apply(c, op); err != nil {
			return nil, nil, fmt.Errorf("replay %s (flow %s): %w", op.Name, op.Flow, err)
		}
		if err := verify(op.Flow, byFlow[op.Flow], c.Events().Since(next)); err != nil {
			return nil, nil, err
		}
	}
	return c, flows, nil
}

// verify compares one operation's replayed events against the journaled ones
// by position, seq, and content-addressed ID.
func verify(flow string, recorded []EventRecord, replayed []event.Event) error {
	for i := 0; i < len(recorded) || i < len(replayed); i++ {
		mismatch := &MismatchError{Flow: flow}
		switch {
		case i >= len(replayed):
			mismatch.Seq = recorded[i].Seq
			mismatch.Recorded = recorded[i].ID
			return mismatch
		case i >= len(recorded):
			mismatch.Seq = replayed[i].Seq
			mismatch.Replayed = replayed[i].MustID()
			return mismatch
		}
		id, err := replayed[i].ID()
		if err != nil {
			return fmt.Errorf("replay flow %s: %w", flow, err)
		}
		if recorded[i].Seq != replayed[i].Seq || recorded[i].ID != id {
			mismatch.Seq = recorded[i].Seq
			mismatch.Recorded = recorded[i].ID
			mismatch.Replayed = id
			return mismatch
		}
	}
	return nil
}

// Apply dispatches one operation record to the contract. Replay and the
// scenario harness share this single decoding path so a journaled operation
// and a scripted one behave identically.
func Apply(c *contract.Contract, op OpRecord) error {
	a := op.Args
	switch op.Name {
	case OpAddAdmin:
		return c.AddAdmin(op.Caller, ledger.AccountID(a.AccountID))
	case OpSetRate:
		rate, err := pricing.ParseDecimal(a.Rate)
		if err != nil {
			return err
		}
		_, err = c.SetRate(op.Caller, rate)
		return err
	case OpCreateEvent:
		price, err := optDecimal(a.Price)
		if err != nil {
			return err
		}
		_, _, err = c.CreateEvent(op.Caller, metadataOf(a), price, a.Royalty, a.RoyaltyBuy, op.Deposit)
		return err
	case OpCreateCompanion:
		_, err := c.CreateCompanion(op.Caller, metadataOf(a), series.ID(a.SeriesID), op.Deposit)
		return err
	case OpUpdateSeries:
		patch, err := patchOf(a)
		if err != nil {
			return err
		}
		return c.UpdateSeries(op.Caller, series.ID(a.SeriesID), patch)
	case OpBuy:
		_, err := c.Buy(op.Caller, series.ID(a.SeriesID), ledger.AccountID(a.ReceiverID), op.Deposit)
		return err
	case OpMint:
		_, err := c.Mint(op.Caller, series.ID(a.SeriesID), ledger.AccountID(a.ReceiverID), op.Deposit)
		return err
	case OpBurn:
		return c.Burn(op.Caller, token.ItemID(a.TokenID), op.Deposit)
	case OpBurnObject:
		return c.BurnObject(op.Caller, token.ItemID(a.TokenID), op.Deposit)
	case OpApproveObject:
		return c.ApproveObject(op.Caller, token.ItemID(a.TokenID), op.Deposit)
	case OpApprove:
		_, err := c.Approve(op.Caller, token.ItemID(a.TokenID), ledger.AccountID(a.GranteeID), op.Deposit)
		return err
	case OpRevoke:
		return c.Revoke(op.Caller, token.ItemID(a.TokenID), ledger.AccountID(a.GranteeID), op.Deposit)
	case OpRevokeAll:
		return c.RevokeAll(op.Caller, token.ItemID(a.TokenID), op.Deposit)
	case OpTransfer:
		return c.Transfer(op.Caller, ledger.AccountID(a.ReceiverID), token.ItemID(a.TokenID), a.ApprovalID, a.Memo, op.Deposit)
	case OpTransferUnsafe:
		return c.TransferUnsafe(op.Caller, ledger.AccountID(a.ReceiverID), token.ItemID(a.TokenID), a.ApprovalID, a.Memo)
	case OpTransferPayout:
		balance, err := optAmount(a.Balance)
		if err != nil {
			return err
		}
		_, err = c.TransferWithPayout(op.Caller, ledger.AccountID(a.ReceiverID), token.ItemID(a.TokenID),
			a.ApprovalID, balance, a.MaxPayout, op.Deposit)
		return err
	default:
		return fmt.Errorf("unknown operation %q", op.Name)
	}
}

func metadataOf(a Args) series.Metadata {
	return series.Metadata{
		Title:       deref(a.Title),
		Description: deref(a.Description),
		Media:       deref(a.Media),
		Copies:      a.Copies,
		Extra:       a.Extra,
	}
}

func patchOf(a Args) (series.Patch, error) {
	patch := series.Patch{
		Title:       a.Title,
		Description: a.Description,
		Media:       a.Media,
		Copies:      a.Copies,
		Mintable:    a.Mintable,
	}
	price, err := optDecimal(a.Price)
	if err != nil {
		return series.Patch{}, err
	}
	patch.Price = price
	if a.Royalty != nil {
		patch.Royalty = &a.Royalty
	}
	if a.RoyaltyBuy != nil {
		patch.RoyaltyOnPurchase = &a.RoyaltyBuy
	}
	return patch, nil
}

func optDecimal(s *string) (*pricing.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := pricing.ParseDecimal(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optAmount(s *string) (*big.Int, error) {
	if s == nil {
		return nil, nil
	}
	return ledger.ParseAmount(*s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
