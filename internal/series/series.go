// Package series owns the catalog of token series: creation, metadata and
// royalty mutation, mintability transitions, and supply accounting.
package series

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/pricing"
)

// Kind is the series category. The numeric values are part of the public
// identifier format and must not change.
type Kind uint8

const (
	// KindEvent is a primary, purchasable event series.
	KindEvent Kind = 1
	// KindCompanion is the redeemable companion auto-created with an event.
	KindCompanion Kind = 2
	// KindStandalone is a companion created separately and bound to an event.
	KindStandalone Kind = 3
)

func (k Kind) String() string { return strconv.Itoa(int(k)) }

// ID is a series identifier with the stable wire format "<kind>|<sequence>".
type ID string

// MakeID builds a series ID from its kind and sequence number.
func MakeID(kind Kind, seq uint64) ID {
	return ID(fmt.Sprintf("%d|%d", kind, seq))
}

// Kind extracts the kind prefix. Returns 0 for malformed identifiers.
func (id ID) Kind() Kind {
	prefix, _, ok := strings.Cut(string(id), "|")
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(prefix, 10, 8)
	if err != nil {
		return 0
	}
	switch Kind(n) {
	case KindEvent, KindCompanion, KindStandalone:
		return Kind(n)
	}
	return 0
}

// IsCompanion reports whether the series is one of the two companion kinds.
func (id ID) IsCompanion() bool {
	k := id.Kind()
	return k == KindCompanion || k == KindStandalone
}

func (id ID) String() string { return string(id) }

// Metadata is the descriptive record shared by a series' instances.
// Copies is the total supply cap; nil means unbounded.
type Metadata struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Media       string  `json:"media,omitempty"`
	Copies      *uint64 `json:"copies,omitempty"`
	Extra       string  `json:"extra,omitempty"`
	Reference   string  `json:"reference,omitempty"` // owning event series for companions
}

// Series is one catalog entry. Mutate only through Registry methods.
type Series struct {
	ID       ID
	Metadata Metadata
	Creator  ledger.AccountID

	// minted holds issued item identifiers; membership and count matter,
	// order does not. mintedCount is the 1-based sequence source and never
	// decreases, even if an item is later burned from the item ledger.
	minted      map[string]struct{}
	mintedCount uint64

	// Bundled lists companion series minted alongside every purchase,
	// in link order for reproducible iteration.
	Bundled []ID

	// Price is the reference-denominated sale price; nil means not for sale.
	Price *pricing.Decimal

	Mintable bool

	// Royalty applies on secondary-sale payouts; RoyaltyOnPurchase only at
	// primary purchase time.
	Royalty           map[ledger.AccountID]uint32
	RoyaltyOnPurchase map[ledger.AccountID]uint32
}

// MintedCount returns the number of instances ever issued from this series.
func (s *Series) MintedCount() uint64 { return s.mintedCount }

// HasMinted reports whether the given item was issued from this series.
func (s *Series) HasMinted(itemID string) bool {
	_, ok := s.minted[itemID]
	return ok
}

// ForSale reports whether the series has a positive reference price.
func (s *Series) ForSale() bool { return s.Price != nil }

// recordMint registers a freshly issued item id. Caller (the minting engine,
// via Registry) has already checked mintability and supply.
func (s *Series) recordMint(itemID string) {
	s.minted[itemID] = struct{}{}
	s.mintedCount++
}

// capOrMax returns the copies cap, or MaxUint64 when unbounded.
func (s *Series) capOrMax() uint64 {
	if s.Metadata.Copies == nil {
		return ^uint64(0)
	}
	return *s.Metadata.Copies
}
