package contract

import (
	"errors"
	"math/big"

	"github.com/mintick/mintick/internal/event"
	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/mint"
	"github.com/mintick/mintick/internal/payout"
	"github.com/mintick/mintick/internal/pricing"
	"github.com/mintick/mintick/internal/series"
	"github.com/mintick/mintick/internal/storagefee"
	"github.com/mintick/mintick/internal/token"
)

var oneYocto = big.NewInt(1)

// requireOneYocto is the guard on ops that must prove full-access intent:
// exactly one smallest-unit attached, no more, no less.
func requireOneYocto(op string, deposit *big.Int) error {
	if deposit == nil || deposit.Cmp(oneYocto) != 0 {
		return opErrorf(ErrCodeFunding, op, "requires attached deposit of exactly 1 yocto")
	}
	return nil
}

// translate maps lower-layer failures onto operation error codes.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *series.ValidationError
	if errors.As(err, &ve) {
		return opErrorf(ErrCodeValidation, op, "%s", ve.Message)
	}
	var ie *storagefee.InsufficientError
	if errors.As(err, &ie) {
		return opErrorf(ErrCodeFunding, op, "%s", ie.Error())
	}
	switch {
	case errors.Is(err, series.ErrNotFound), errors.Is(err, token.ErrItemNotFound):
		return opErrorf(ErrCodeNotFound, op, "%s", err)
	case errors.Is(err, series.ErrNotMintable), errors.Is(err, series.ErrSupplyMaxed),
		errors.Is(err, series.ErrNoCopiesCap), errors.Is(err, pricing.ErrRateNotSet):
		return opErrorf(ErrCodeStateConflict, op, "%s", err)
	case errors.Is(err, token.ErrNotAuthorized), errors.Is(err, token.ErrBadApprovalID):
		return opErrorf(ErrCodeAuthorization, op, "%s", err)
	}
	return opErrorf(ErrCodeValidation, op, "%s", err)
}

// AddAdmin adds an account to the admin list. Owner or admin only.
func (c *Contract) AddAdmin(caller, account ledger.AccountID) error {
	const op = "add_admin"
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.authorize(caller, "", "", capOwner, capAdmin) {
		return opErrorf(ErrCodeAuthorization, op, "only administrator")
	}
	if !account.Valid() {
		return opErrorf(ErrCodeValidation, op, "account %q is not valid", account)
	}

	c.admins[account] = struct{}{}
	c.emit(c.flows.Generate(), event.TypeAddAdmin, event.Obj{
		"account_id": event.Str(string(account)),
	})
	return nil
}

// SetRate updates the exchange rate. Owner or admin only; the rate must be
// strictly positive.
func (c *Contract) SetRate(caller ledger.AccountID, rate pricing.Decimal) (pricing.Decimal, error) {
	const op = "update_tasa"
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.authorize(caller, "", "", capOwner, capAdmin) {
		return pricing.Decimal{}, opErrorf(ErrCodeAuthorization, op, "only administrator")
	}
	if !rate.Positive() {
		return pricing.Decimal{}, opErrorf(ErrCodeValidation, op, "exchange rate must be greater than 0")
	}

	c.rate = &rate
	c.emit(c.flows.Generate(), event.TypeRateUpdated, event.Obj{
		"tasa": event.Str(rate.String()),
	})
	return rate, nil
}

// CreateEvent creates an event series plus its auto-generated bundled
// companion. Anyone may call once the exchange rate is set; the deposit must
// cover the storage growth of both series.
func (c *Contract) CreateEvent(
	caller ledger.AccountID,
	meta series.Metadata,
	price *pricing.Decimal,
	royalty map[ledger.AccountID]uint32,
	royaltyOnPurchase map[ledger.AccountID]uint32,
	deposit *big.Int,
) (eventID, companionID series.ID, err error) {
	const op = "nft_create_event"
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rate == nil {
		return "", "", opErrorf(ErrCodeStateConflict, op, "exchange rate must be set before creating an event")
	}
	if !caller.Valid() {
		return "", "", opErrorf(ErrCodeValidation, op, "caller account %q is not valid", caller)
	}

	delta := c.registry.EventCreationBytes(caller, meta, royalty, royaltyOnPurchase)
	refund, err := storagefee.Reconcile(delta, ledger.Zero(), deposit)
	if err != nil {
		return "", "", translate(op, err)
	}

	eventID, companionID, err = c.registry.CreateEvent(caller, meta, price, royalty, royaltyOnPurchase, c.vaultFeeBps)
	if err != nil {
		return "", "", translate(op, err)
	}

	flow := c.flows.Generate()
	c.effects.Emit(c.clock.Current(), caller, refund, EffectRefund)

	eventSeries, _ := c.registry.Get(eventID)
	companion, _ := c.registry.Get(companionID)
	c.emit(flow, event.TypeSeriesCreated, seriesCreatedParams(eventSeries, false))
	c.emit(flow, event.TypeSeriesCreated, seriesCreatedParams(companion, true))

	return eventID, companionID, nil
}

// CreateCompanion creates a standalone companion series bound to an existing
// event series.
func (c *Contract) CreateCompanion(
	caller ledger.AccountID,
	meta series.Metadata,
	target series.ID,
	deposit *big.Int,
) (series.ID, error) {
	const op = "nft_create_object"
	c.mu.Lock()
	defer c.mu.Unlock()

	if !caller.Valid() {
		return "", opErrorf(ErrCodeValidation, op, "caller account %q is not valid", caller)
	}

	delta := c.registry.CompanionCreationBytes(caller, meta, target)
	refund, err := storagefee.Reconcile(delta, ledger.Zero(), deposit)
	if err != nil {
		return "", translate(op, err)
	}

	id, err := c.registry.CreateCompanion(caller, meta, target)
	if err != nil {
		return "", translate(op, err)
	}

	flow := c.flows.Generate()
	c.effects.Emit(c.clock.Current(), caller, refund, EffectRefund)

	created, _ := c.registry.Get(id)
	c.emit(flow, event.TypeObjectCreated, seriesCreatedParams(created, false))
	return id, nil
}

// UpdateSeries applies a partial update to an event series. Contract owner,
// admin, or series creator only.
func (c *Contract) UpdateSeries(caller ledger.AccountID, id series.ID, patch series.Patch) error {
	const op = "update_nft_series"
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.registry.Get(id)
	if err != nil {
		return translate(op, err)
	}
	if !c.authorize(caller, s.Creator, "", capOwner, capAdmin, capSeriesCreator) {
		return opErrorf(ErrCodeAuthorization, op, "only creator or administrator")
	}

	if err := c.registry.Update(id, patch, c.vaultFeeBps); err != nil {
		return translate(op, err)
	}

	c.emit(c.flows.Generate(), event.TypeSeriesUpdated, seriesUpdatedParams(s))
	return nil
}

// BuyReceipt reports the outcome of one settled purchase.
type BuyReceipt struct {
	ItemID       token.ItemID
	BundledItems []token.ItemID
	Rate         pricing.Decimal
	RefPrice     pricing.Decimal
	PriceYocto   *big.Int
	VaultShare   *big.Int
	CreatorShare *big.Int
	Royalties    []payout.Entry // excludes the creator residual
	Refund       *big.Int       // nil when swallowed by the dust threshold
	Mintable     bool           // post-purchase mintability of the series
}

// Buy settles a paid acquisition: converts the reference price, mints the
// event instance plus every bundled companion to the beneficiary, splits the
// payment between vault, purchase royalties and creator, and refunds the
// unspent remainder of the deposit. All-or-nothing; every precondition is
// checked before the first mutation.
func (c *Contract) Buy(
	caller ledger.AccountID,
	id series.ID,
	receiver ledger.AccountID,
	deposit *big.Int,
) (BuyReceipt, error) {
	const op = "nft_buy"
	c.mu.Lock()
	defer c.mu.Unlock()

	if id.Kind() != series.KindEvent {
		return BuyReceipt{}, opErrorf(ErrCodeValidation, op, "series %s is not an event series", id)
	}
	s, err := c.registry.Get(id)
	if err != nil {
		return BuyReceipt{}, translate(op, err)
	}
	if s.Price == nil {
		return BuyReceipt{}, opErrorf(ErrCodeStateConflict, op, "series %s is not for sale", id)
	}
	if c.rate == nil {
		return BuyReceipt{}, opErrorf(ErrCodeStateConflict, op, "exchange rate must be set")
	}

	priceYocto, err := pricing.ToNative(*s.Price, *c.rate)
	if err != nil {
		return BuyReceipt{}, translate(op, err)
	}

	if receiver == "" {
		receiver = caller
	} else if !receiver.Valid() {
		return BuyReceipt{}, opErrorf(ErrCodeValidation, op, "receiver account %q is not valid", receiver)
	}

	required := pricing.MinimumDeposit(priceYocto)
	if deposit == nil || deposit.Cmp(required) < 0 {
		return BuyReceipt{}, opErrorf(ErrCodeFunding, op, "attached deposit is less than the required minimum %s", required)
	}

	// Storage funding settles before any mint so a shortfall aborts cleanly.
	toMint := append([]series.ID{id}, s.Bundled...)
	var delta int64
	for _, sid := range toMint {
		target, err := c.registry.Get(sid)
		if err != nil {
			return BuyReceipt{}, translate(op, err)
		}
		issue, err := c.registry.IssueBytes(sid)
		if err != nil {
			return BuyReceipt{}, translate(op, err)
		}
		itemID, err := c.registry.NextItemID(sid)
		if err != nil {
			return BuyReceipt{}, translate(op, err)
		}
		title := mint.ComposeTitle(target.Metadata.Title, sid, target.MintedCount()+1)
		delta += issue + token.RegisterBytes(token.ItemID(itemID), receiver, token.Meta{Title: title})
	}
	refund, err := storagefee.Reconcile(delta, priceYocto, deposit)
	if err != nil {
		return BuyReceipt{}, translate(op, err)
	}

	// The payout split is computable up front too; the creator takes the
	// post-vault remainder, so conservation is exact by construction.
	vaultShare := ledger.BpsShare(priceYocto, c.vaultFeeBps)
	remaining := ledger.Sub(priceYocto, vaultShare)
	entries, err := payout.Split(remaining, s.RoyaltyOnPurchase, ledger.MaxRoyaltyBuyAccounts, s.Creator)
	if err != nil {
		return BuyReceipt{}, translate(op, err)
	}

	issuedAt := c.now()
	primary, err := c.minter.MintOne(id, receiver, issuedAt)
	if err != nil {
		return BuyReceipt{}, translate(op, err)
	}
	bundled := make([]token.ItemID, 0, len(s.Bundled))
	for _, sid := range s.Bundled {
		res, err := c.minter.MintOne(sid, receiver, issuedAt)
		if err != nil {
			// Bundled companions are unbounded and always mintable, so this
			// cannot fire once the primary mint succeeded.
			return BuyReceipt{}, translate(op, err)
		}
		bundled = append(bundled, res.ItemID)
	}

	flow := c.flows.Generate()
	seq := c.clock.Current()
	c.effects.Emit(seq, c.vault, vaultShare, EffectVaultShare)
	royalties := entries[:len(entries)-1]
	for _, e := range royalties {
		c.effects.Emit(seq, e.Account, e.Amount, EffectRoyaltyShare)
	}
	creatorShare := entries[len(entries)-1].Amount
	c.effects.Emit(seq, s.Creator, creatorShare, EffectCreatorShare)
	c.effects.Emit(seq, caller, refund, EffectRefund)

	c.emit(flow, event.TypeBuy, event.Obj{
		"token_series_id": event.Str(id.String()),
		"list_objects":    seriesIDArr(s.Bundled),
		"tasa":            event.Str(c.rate.String()),
		"price_usd":       event.Str(s.Price.String()),
		"price":           amountStr(priceYocto),
		"amount_mintick":  amountStr(vaultShare),
		"amount_creator":  amountStr(creatorShare),
		"royalty":         payoutArr(royalties),
		"is_mintable":     event.Bool(primary.Mintable),
	})

	return BuyReceipt{
		ItemID:       primary.ItemID,
		BundledItems: bundled,
		Rate:         *c.rate,
		RefPrice:     *s.Price,
		PriceYocto:   priceYocto,
		VaultShare:   vaultShare,
		CreatorShare: creatorShare,
		Royalties:    royalties,
		Refund:       refund,
		Mintable:     primary.Mintable,
	}, nil
}

// Mint issues one instance directly, series creator only. The deposit covers
// storage growth.
func (c *Contract) Mint(caller ledger.AccountID, id series.ID, receiver ledger.AccountID, deposit *big.Int) (token.ItemID, error) {
	const op = "nft_mint"
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.registry.Get(id)
	if err != nil {
		return "", translate(op, err)
	}
	if !c.authorize(caller, s.Creator, "", capSeriesCreator) {
		return "", opErrorf(ErrCodeAuthorization, op, "not creator")
	}
	if !receiver.Valid() {
		return "", opErrorf(ErrCodeValidation, op, "receiver account %q is not valid", receiver)
	}

	issue, err := c.registry.IssueBytes(id)
	if err != nil {
		return "", translate(op, err)
	}
	nextID, err := c.registry.NextItemID(id)
	if err != nil {
		return "", translate(op, err)
	}
	title := mint.ComposeTitle(s.Metadata.Title, id, s.MintedCount()+1)
	delta := issue + token.RegisterBytes(token.ItemID(nextID), receiver, token.Meta{Title: title})
	refund, err := storagefee.Reconcile(delta, ledger.Zero(), deposit)
	if err != nil {
		return "", translate(op, err)
	}

	res, err := c.minter.MintOne(id, receiver, c.now())
	if err != nil {
		return "", translate(op, err)
	}

	flow := c.flows.Generate()
	c.effects.Emit(c.clock.Current(), caller, refund, EffectRefund)
	c.emit(flow, event.TypeMint, event.Obj{
		"token_series_id": event.Str(id.String()),
		"receiver_id":     event.Str(string(receiver)),
		"token_id":        event.Str(res.ItemID.String()),
		"is_mintable":     event.Bool(res.Mintable),
	})
	return res.ItemID, nil
}

// Burn removes an item, owner only. The series' minted count is unaffected;
// the sequence number is never reissued.
func (c *Contract) Burn(caller ledger.AccountID, itemID token.ItemID, deposit *big.Int) error {
	const op = "nft_burn"
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := requireOneYocto(op, deposit); err != nil {
		return err
	}
	owner, err := c.items.Owner(itemID)
	if err != nil {
		return translate(op, err)
	}
	if caller != owner {
		return opErrorf(ErrCodeAuthorization, op, "token owner only")
	}

	if _, err := c.items.Burn(itemID); err != nil {
		return translate(op, err)
	}

	c.emit(c.flows.Generate(), event.TypeBurn, event.Obj{
		"owner_id":        event.Str(string(owner)),
		"token_id":        event.Str(itemID.String()),
		"token_object_id": event.Str(itemID.SeriesID()),
		"user_burn":       event.Str(string(caller)),
	})
	return nil
}

// BurnObject removes a companion-kind item. Contract owner, admin, or the
// item's owner.
func (c *Contract) BurnObject(caller ledger.AccountID, itemID token.ItemID, deposit *big.Int) error {
	const op = "burn_object"
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := requireOneYocto(op, deposit); err != nil {
		return err
	}
	sid := series.ID(itemID.SeriesID())
	if !sid.IsCompanion() {
		return opErrorf(ErrCodeValidation, op, "token %s is not valid for burn_object", itemID)
	}
	owner, err := c.items.Owner(itemID)
	if err != nil {
		return translate(op, err)
	}
	if !c.authorize(caller, "", owner, capOwner, capAdmin, capItemOwner) {
		return opErrorf(ErrCodeAuthorization, op, "only owner or administrator")
	}

	if _, err := c.items.Burn(itemID); err != nil {
		return translate(op, err)
	}

	c.emit(c.flows.Generate(), event.TypeObjectBurned, event.Obj{
		"owner_id":        event.Str(string(owner)),
		"token_id":        event.Str(itemID.String()),
		"token_object_id": event.Str(itemID.SeriesID()),
		"user_burn":       event.Str(string(caller)),
	})
	return nil
}

// ApproveObject records a redemption check on a companion-kind item: the
// series creator, contract owner, or an admin confirms the item belongs to
// its claimed series.
func (c *Contract) ApproveObject(caller ledger.AccountID, itemID token.ItemID, deposit *big.Int) error {
	const op = "approved_object"
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := requireOneYocto(op, deposit); err != nil {
		return err
	}
	sid := series.ID(itemID.SeriesID())
	if !sid.IsCompanion() {
		return opErrorf(ErrCodeValidation, op, "token %s is not valid for approved_object", itemID)
	}
	s, err := c.registry.Get(sid)
	if err != nil {
		return translate(op, err)
	}
	if !c.authorize(caller, s.Creator, "", capOwner, capAdmin, capSeriesCreator) {
		return opErrorf(ErrCodeAuthorization, op, "only administrator")
	}
	if !s.HasMinted(itemID.String()) {
		return opErrorf(ErrCodeNotFound, op, "token %s was not issued by series %s", itemID, sid)
	}

	c.emit(c.flows.Generate(), event.TypeObjectApproved, event.Obj{
		"token_id":      event.Str(itemID.String()),
		"user_approved": event.Str(string(caller)),
	})
	return nil
}

// Approve grants transfer rights on an item to grantee. Item owner only; the
// deposit covers the approval's storage growth.
func (c *Contract) Approve(caller ledger.AccountID, itemID token.ItemID, grantee ledger.AccountID, deposit *big.Int) (uint64, error) {
	const op = "nft_approve"
	c.mu.Lock()
	defer c.mu.Unlock()

	if !grantee.Valid() {
		return 0, opErrorf(ErrCodeValidation, op, "account %q is not valid", grantee)
	}
	refund, err := storagefee.Reconcile(token.ApprovalBytes(grantee), ledger.Zero(), deposit)
	if err != nil {
		return 0, translate(op, err)
	}

	approvalID, err := c.items.Approve(caller, itemID, grantee)
	if err != nil {
		return 0, translate(op, err)
	}
	c.effects.Emit(c.clock.Current(), caller, refund, EffectRefund)
	return approvalID, nil
}

// Revoke removes one account's approval on an item. Item owner only.
func (c *Contract) Revoke(caller ledger.AccountID, itemID token.ItemID, grantee ledger.AccountID, deposit *big.Int) error {
	const op = "nft_revoke"
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := requireOneYocto(op, deposit); err != nil {
		return err
	}
	return translate(op, c.items.Revoke(caller, itemID, grantee))
}

// RevokeAll clears every approval on an item. Item owner only.
func (c *Contract) RevokeAll(caller ledger.AccountID, itemID token.ItemID, deposit *big.Int) error {
	const op = "nft_revoke_all"
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := requireOneYocto(op, deposit); err != nil {
		return err
	}
	return translate(op, c.items.RevokeAll(caller, itemID))
}

// Transfer moves an item to receiver. One-yocto guarded; the sender must be
// the owner or hold a matching approval.
func (c *Contract) Transfer(caller, receiver ledger.AccountID, itemID token.ItemID, approvalID *uint64, memo string, deposit *big.Int) error {
	const op = "nft_transfer"
	if err := requireOneYocto(op, deposit); err != nil {
		return err
	}
	return c.transfer(op, caller, receiver, itemID, approvalID, memo)
}

// TransferUnsafe is Transfer without the one-yocto guard, for hosts that
// cannot attach a deposit to the call.
func (c *Contract) TransferUnsafe(caller, receiver ledger.AccountID, itemID token.ItemID, approvalID *uint64, memo string) error {
	return c.transfer("nft_transfer_unsafe", caller, receiver, itemID, approvalID, memo)
}

func (c *Contract) transfer(op string, caller, receiver ledger.AccountID, itemID token.ItemID, approvalID *uint64, memo string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !receiver.Valid() {
		return opErrorf(ErrCodeValidation, op, "receiver account %q is not valid", receiver)
	}
	previous, err := c.items.Transfer(caller, receiver, itemID, approvalID)
	if err != nil {
		return translate(op, err)
	}

	params := event.Obj{
		"old_owner_id": event.Str(string(previous)),
		"new_owner_id": event.Str(string(receiver)),
		"token_ids":    event.Arr{event.Str(itemID.String())},
	}
	if memo != "" {
		params["memo"] = event.Str(memo)
	}
	if caller != previous {
		params["authorized_id"] = event.Str(string(caller))
	}
	c.emit(c.flows.Generate(), event.TypeTransfer, params)
	return nil
}

// TransferWithPayout transfers an item and returns the secondary-sale royalty
// split of balance, with the previous owner taking the remainder. The split
// is validated before the transfer so a bad table aborts the whole operation.
func (c *Contract) TransferWithPayout(
	caller, receiver ledger.AccountID,
	itemID token.ItemID,
	approvalID *uint64,
	balance *big.Int,
	maxRecipients int,
	deposit *big.Int,
) ([]payout.Entry, error) {
	const op = "nft_transfer_payout"
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := requireOneYocto(op, deposit); err != nil {
		return nil, err
	}
	if !receiver.Valid() {
		return nil, opErrorf(ErrCodeValidation, op, "receiver account %q is not valid", receiver)
	}

	previous, err := c.items.Owner(itemID)
	if err != nil {
		return nil, translate(op, err)
	}

	var entries []payout.Entry
	if balance != nil {
		s, err := c.registry.Get(series.ID(itemID.SeriesID()))
		if err != nil {
			return nil, translate(op, err)
		}
		entries, err = payout.Split(balance, s.Royalty, maxRecipients, previous)
		if err != nil {
			return nil, opErrorf(ErrCodeValidation, op, "%s", err)
		}
	}

	if _, err := c.items.Transfer(caller, receiver, itemID, approvalID); err != nil {
		return nil, translate(op, err)
	}

	params := event.Obj{
		"old_owner_id": event.Str(string(previous)),
		"new_owner_id": event.Str(string(receiver)),
		"token_ids":    event.Arr{event.Str(itemID.String())},
	}
	if caller != previous {
		params["authorized_id"] = event.Str(string(caller))
	}
	c.emit(c.flows.Generate(), event.TypeTransfer, params)
	return entries, nil
}
