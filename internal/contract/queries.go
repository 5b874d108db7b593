package contract

import (
	"math/big"
	"sort"

	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/payout"
	"github.com/mintick/mintick/internal/pricing"
	"github.com/mintick/mintick/internal/series"
	"github.com/mintick/mintick/internal/token"
)

// Read-side views. Items carry only a title and issue timestamp; every other
// descriptive field is resolved here by joining back to the owning series.

// SeriesView is one catalog listing entry.
type SeriesView struct {
	SeriesID  series.ID                   `json:"token_series_id"`
	Metadata  series.Metadata             `json:"metadata"`
	CreatorID ledger.AccountID            `json:"creator_id"`
	Price     *big.Int                    `json:"price,omitempty"`     // yocto at the current rate
	PriceRef  *pricing.Decimal            `json:"price_usd,omitempty"` // reference-denominated
	Mintable  bool                        `json:"is_mintable"`
	Royalty   map[ledger.AccountID]uint32 `json:"royalty"`
}

// SeriesDetail is the single-series view, with the fixed transaction fee the
// platform reports to clients.
type SeriesDetail struct {
	SeriesID       series.ID                   `json:"token_series_id"`
	Metadata       series.Metadata             `json:"metadata"`
	CreatorID      ledger.AccountID            `json:"creator_id"`
	Royalty        map[ledger.AccountID]uint32 `json:"royalty"`
	TransactionFee uint64                      `json:"transaction_fee"`
}

// TokenMetadataView is the joined item metadata.
type TokenMetadataView struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Media       string  `json:"media,omitempty"`
	Copies      *uint64 `json:"copies,omitempty"`
	IssuedAt    int64   `json:"issued_at"`
	Extra       string  `json:"extra,omitempty"`
	Reference   string  `json:"reference,omitempty"`
}

// TokenView is one item with its joined metadata, approvals, and the owning
// series' secondary-sale royalty table.
type TokenView struct {
	TokenID          token.ItemID                `json:"token_id"`
	OwnerID          ledger.AccountID            `json:"owner_id"`
	Metadata         TokenMetadataView           `json:"metadata"`
	ApprovedAccounts map[ledger.AccountID]uint64 `json:"approved_account_ids"`
	Royalty          map[ledger.AccountID]uint32 `json:"royalty"`
}

// Rate returns the current exchange rate and whether one has been set.
func (c *Contract) Rate() (pricing.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rate == nil {
		return pricing.Decimal{}, false
	}
	return *c.rate, true
}

// Admins returns the admin list in lexicographic order.
func (c *Contract) Admins() []ledger.AccountID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ledger.AccountID, 0, len(c.admins))
	for a := range c.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func checkPage(op string, count, from, limit int) error {
	if from >= count {
		return opErrorf(ErrCodeValidation, op, "out of bounds, please use a smaller from_index")
	}
	if limit <= 0 {
		return opErrorf(ErrCodeValidation, op, "cannot provide limit of 0")
	}
	return nil
}

// SeriesList returns catalog entries in creation order, paginated.
func (c *Contract) SeriesList(from, limit int) ([]SeriesView, error) {
	const op = "get_nft_series"
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkPage(op, c.registry.Count(), from, limit); err != nil {
		return nil, err
	}

	page := c.registry.Slice(from, limit)
	out := make([]SeriesView, 0, len(page))
	for _, s := range page {
		out = append(out, c.seriesView(s))
	}
	return out, nil
}

func (c *Contract) seriesView(s *series.Series) SeriesView {
	view := SeriesView{
		SeriesID:  s.ID,
		Metadata:  s.Metadata,
		CreatorID: s.Creator,
		PriceRef:  s.Price,
		Mintable:  s.Mintable,
		Royalty:   s.Royalty,
	}
	if s.Price != nil && c.rate != nil {
		if yocto, err := pricing.ToNative(*s.Price, *c.rate); err == nil {
			view.Price = yocto
		}
	}
	return view
}

// SeriesSingle returns one series with the reported transaction fee.
func (c *Contract) SeriesSingle(id series.ID) (SeriesDetail, error) {
	const op = "nft_get_series_single"
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.registry.Get(id)
	if err != nil {
		return SeriesDetail{}, translate(op, err)
	}
	return SeriesDetail{
		SeriesID:       s.ID,
		Metadata:       s.Metadata,
		CreatorID:      s.Creator,
		Royalty:        s.Royalty,
		TransactionFee: TransactionFee,
	}, nil
}

// SeriesPrice returns the native purchase quote for a series: converted price
// plus the display margin. Returns nil when the series is not for sale.
func (c *Contract) SeriesPrice(id series.ID) (*big.Int, error) {
	const op = "nft_get_series_price"
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.registry.Get(id)
	if err != nil {
		return nil, translate(op, err)
	}
	if s.Price == nil {
		return nil, nil
	}
	if c.rate == nil {
		return nil, opErrorf(ErrCodeStateConflict, op, "exchange rate must be set")
	}
	quote, err := pricing.Quote(*s.Price, *c.rate)
	if err != nil {
		return nil, translate(op, err)
	}
	return quote, nil
}

// AvailableCopies returns cap minus minted count for a capped series.
func (c *Contract) AvailableCopies(id series.ID) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.registry.AvailableCopies(id)
	return n, translate("get_nft_series_copies_availables", err)
}

// TotalSupply returns the number of live items across all series.
func (c *Contract) TotalSupply() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.TotalSupply()
}

// SupplyForSeries returns the number of instances ever issued from a series.
// Burned items still count; sequence numbers are never reissued.
func (c *Contract) SupplyForSeries(id series.ID) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.registry.Get(id)
	if err != nil {
		return 0, translate("nft_supply_for_series", err)
	}
	return s.MintedCount(), nil
}

// SupplyForOwner returns the number of items an account currently holds.
func (c *Contract) SupplyForOwner(account ledger.AccountID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.SupplyForOwner(account)
}

// Token returns one item's joined view.
func (c *Contract) Token(id token.ItemID) (TokenView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokenView(id)
}

func (c *Contract) tokenView(id token.ItemID) (TokenView, error) {
	const op = "nft_token"
	owner, err := c.items.Owner(id)
	if err != nil {
		return TokenView{}, translate(op, err)
	}
	meta, err := c.items.Meta(id)
	if err != nil {
		return TokenView{}, translate(op, err)
	}
	approvals, err := c.items.Approvals(id)
	if err != nil {
		return TokenView{}, translate(op, err)
	}
	s, err := c.registry.Get(series.ID(id.SeriesID()))
	if err != nil {
		return TokenView{}, translate(op, err)
	}

	return TokenView{
		TokenID: id,
		OwnerID: owner,
		Metadata: TokenMetadataView{
			Title:       meta.Title,
			Description: s.Metadata.Description,
			Media:       s.Metadata.Media,
			Copies:      s.Metadata.Copies,
			IssuedAt:    meta.IssuedAt,
			Extra:       s.Metadata.Extra,
			Reference:   s.Metadata.Reference,
		},
		ApprovedAccounts: approvals,
		Royalty:          s.Royalty,
	}, nil
}

// Tokens returns items in global issue order, paginated.
func (c *Contract) Tokens(from, limit int) ([]TokenView, error) {
	const op = "nft_tokens"
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkPage(op, c.items.TotalSupply(), from, limit); err != nil {
		return nil, err
	}
	out := make([]TokenView, 0, limit)
	for _, id := range c.items.Items(from, limit) {
		view, err := c.tokenView(id)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// TokensForOwner returns the holder's items in acquisition order. An account
// holding nothing yields an empty result regardless of pagination.
func (c *Contract) TokensForOwner(account ledger.AccountID, from, limit int) ([]TokenView, error) {
	const op = "nft_tokens_for_owner"
	c.mu.Lock()
	defer c.mu.Unlock()

	held := c.items.SupplyForOwner(account)
	if held == 0 {
		return nil, nil
	}
	if err := checkPage(op, held, from, limit); err != nil {
		return nil, err
	}
	out := make([]TokenView, 0, limit)
	for _, id := range c.items.ItemsForOwner(account, from, limit) {
		view, err := c.tokenView(id)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// PayoutPreview computes the secondary-sale royalty split of balance for an
// item without transferring it. The current owner takes the remainder.
func (c *Contract) PayoutPreview(id token.ItemID, balance *big.Int, maxRecipients int) ([]payout.Entry, error) {
	const op = "nft_payout"
	c.mu.Lock()
	defer c.mu.Unlock()

	owner, err := c.items.Owner(id)
	if err != nil {
		return nil, translate(op, err)
	}
	s, err := c.registry.Get(series.ID(id.SeriesID()))
	if err != nil {
		return nil, translate(op, err)
	}
	entries, err := payout.Split(balance, s.Royalty, maxRecipients, owner)
	if err != nil {
		return nil, opErrorf(ErrCodeValidation, op, "%s", err)
	}
	return entries, nil
}
