package series

import (
	"errors"
	"fmt"

	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/pricing"
)

// Companion series created alongside an event are stamped with a fixed
// template; their media points at the shared redeemable-object asset.
const (
	companionDescription = "This is the let me in of the event"
	companionMedia       = "https://mintickt.mypinata.cloud/ipfs/QmdW7LfjTfHWmpRadqk2o5oUUFutPuqUx2dZj3C4CH2Jjr"
)

// Registry state errors. Validation failures use *ValidationError instead.
var (
	ErrNotFound    = errors.New("token series does not exist")
	ErrNotMintable = errors.New("token series is not mintable")
	ErrSupplyMaxed = errors.New("series supply maxed")
	ErrNoCopiesCap = errors.New("series has no copies cap")
)

// Registry owns every series. It is not safe for concurrent use; the contract
// serializes all access (one operation at a time, run to completion).
type Registry struct {
	byID  map[ID]*Series
	order []ID // creation order, for stable pagination

	eventSeq  uint64
	objectSeq uint64

	usageBytes int64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[ID]*Series)}
}

// CreateEvent allocates a new event series plus its auto-generated bundled
// companion. Both share the creator; the companion carries no price, no
// royalties, template description/media, and a reference back to the event.
func (r *Registry) CreateEvent(
	creator ledger.AccountID,
	meta Metadata,
	price *pricing.Decimal,
	royalty map[ledger.AccountID]uint32,
	royaltyOnPurchase map[ledger.AccountID]uint32,
	vaultFeeBps uint32,
) (eventID, companionID ID, err error) {
	if meta.Title == "" {
		return "", "", validationf("event metadata title is required")
	}
	if err := validateRoyaltyOnPurchase(royaltyOnPurchase, creator, vaultFeeBps); err != nil {
		return "", "", err
	}
	if err := validateRoyalty(royalty); err != nil {
		return "", "", err
	}
	if price != nil && !price.Positive() {
		return "", "", validationf("price must be greater than 0")
	}

	r.eventSeq++
	eventID = MakeID(KindEvent, r.eventSeq)
	r.objectSeq++
	companionID = MakeID(KindCompanion, r.objectSeq)

	event := &Series{
		ID:                eventID,
		Metadata:          meta,
		Creator:           creator,
		minted:            make(map[string]struct{}),
		Price:             price,
		Mintable:          true,
		Royalty:           copyRoyalty(royalty),
		RoyaltyOnPurchase: copyRoyalty(royaltyOnPurchase),
	}

	companionMeta := meta
	companionMeta.Description = companionDescription
	companionMeta.Media = companionMedia
	companionMeta.Copies = nil
	companionMeta.Reference = eventID.String()

	companion := &Series{
		ID:       companionID,
		Metadata: companionMeta,
		Creator:  creator,
		minted:   make(map[string]struct{}),
		Mintable: true,
	}

	r.insert(event)
	r.insert(companion)
	event.Bundled = append(event.Bundled, companionID)
	r.usageBytes += linkBytes(companionID)

	return eventID, companionID, nil
}

// CreateCompanion creates a standalone companion series (kind 3) bound to an
// existing event series and links it into the event's bundled set.
func (r *Registry) CreateCompanion(creator ledger.AccountID, meta Metadata, target ID) (ID, error) {
	if target.Kind() != KindEvent {
		return "", validationf("token_series_id_assignment %q is not an event series", target)
	}
	event, ok := r.byID[target]
	if !ok {
		return "", fmt.Errorf("target series %s: %w", target, ErrNotFound)
	}

	r.objectSeq++
	id := MakeID(KindStandalone, r.objectSeq)

	meta.Copies = nil
	meta.Reference = target.String()

	r.insert(&Series{
		ID:       id,
		Metadata: meta,
		Creator:  creator,
		minted:   make(map[string]struct{}),
		Mintable: true,
	})
	event.Bundled = append(event.Bundled, id)
	r.usageBytes += linkBytes(id)

	return id, nil
}

// Patch is a partial update: only non-nil fields are applied.
type Patch struct {
	Title       *string
	Description *string
	Media       *string

	// Price: a positive value sets the price (and forces mintable); zero or
	// negative clears it (not for sale) without touching mintability.
	Price *pricing.Decimal

	// Copies adds to the existing cap (or sets it when unbounded) and forces
	// the series mintable again.
	Copies *uint64

	Mintable *bool

	// Royalty tables replace the existing ones wholesale after revalidation.
	Royalty           *map[ledger.AccountID]uint32
	RoyaltyOnPurchase *map[ledger.AccountID]uint32
}

// Update applies a partial update to an event series. Authorization is the
// caller's concern; the registry enforces only domain invariants.
func (r *Registry) Update(id ID, patch Patch, vaultFeeBps uint32) error {
	if id.Kind() != KindEvent {
		return validationf("series %q is not an event series", id)
	}
	s, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("series %s: %w", id, ErrNotFound)
	}

	// Validate both tables before mutating anything: a rejected patch must
	// leave the series untouched.
	if patch.RoyaltyOnPurchase != nil {
		if err := validateRoyaltyOnPurchase(*patch.RoyaltyOnPurchase, s.Creator, vaultFeeBps); err != nil {
			return err
		}
	}
	if patch.Royalty != nil {
		if err := validateRoyalty(*patch.Royalty); err != nil {
			return err
		}
	}
	if patch.Price != nil && !s.Mintable {
		return ErrNotMintable
	}

	if patch.Title != nil {
		r.usageBytes += int64(len(*patch.Title) - len(s.Metadata.Title))
		s.Metadata.Title = *patch.Title
	}
	if patch.Description != nil {
		r.usageBytes += int64(len(*patch.Description) - len(s.Metadata.Description))
		s.Metadata.Description = *patch.Description
	}
	if patch.Media != nil {
		r.usageBytes += int64(len(*patch.Media) - len(s.Metadata.Media))
		s.Metadata.Media = *patch.Media
	}
	if patch.Price != nil {
		if patch.Price.Positive() {
			p := *patch.Price
			s.Price = &p
			s.Mintable = true
		} else {
			s.Price = nil
		}
	}
	if patch.Copies != nil {
		if s.Metadata.Copies == nil {
			c := *patch.Copies
			s.Metadata.Copies = &c
		} else {
			c := *s.Metadata.Copies + *patch.Copies
			s.Metadata.Copies = &c
		}
		s.Mintable = true
	}
	if patch.Mintable != nil {
		s.Mintable = *patch.Mintable
	}
	if patch.RoyaltyOnPurchase != nil {
		s.RoyaltyOnPurchase = copyRoyalty(*patch.RoyaltyOnPurchase)
	}
	if patch.Royalty != nil {
		s.Royalty = copyRoyalty(*patch.Royalty)
	}

	return nil
}

// Get resolves a series by id.
func (r *Registry) Get(id ID) (*Series, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("series %s: %w", id, ErrNotFound)
	}
	return s, nil
}

// IssueNext reserves the next instance number from a series, enforcing
// mintability and the supply cap, and flipping an event series closed when
// this issue reaches the cap. The flip is part of the same state transition
// as the issue; there is no intermediate observable state.
//
// Returns the new item identifier "<series_id>:<n>" and the post-issue
// mintability flag.
func (r *Registry) IssueNext(id ID) (itemID string, seq uint64, mintable bool, err error) {
	s, ok := r.byID[id]
	if !ok {
		return "", 0, false, fmt.Errorf("series %s: %w", id, ErrNotFound)
	}
	if !s.Mintable {
		return "", 0, false, ErrNotMintable
	}
	supplyCap := s.capOrMax()
	if s.mintedCount >= supplyCap {
		return "", 0, false, ErrSupplyMaxed
	}

	seq = s.mintedCount + 1
	if seq >= supplyCap && id.Kind() == KindEvent {
		s.Mintable = false
	}

	itemID = fmt.Sprintf("%s:%d", id, seq)
	s.recordMint(itemID)
	r.usageBytes += linkBytes(ID(itemID))

	return itemID, seq, s.Mintable, nil
}

// AvailableCopies returns cap minus minted count. Unbounded series have no
// meaningful answer and fail.
func (r *Registry) AvailableCopies(id ID) (uint64, error) {
	s, ok := r.byID[id]
	if !ok {
		return 0, fmt.Errorf("series %s: %w", id, ErrNotFound)
	}
	if s.Metadata.Copies == nil {
		return 0, ErrNoCopiesCap
	}
	return *s.Metadata.Copies - s.mintedCount, nil
}

// Count returns the number of series in the catalog.
func (r *Registry) Count() int { return len(r.order) }

// Slice returns series in creation order starting at start, at most limit.
// Bounds checking is the caller's concern (the contract's pagination layer).
func (r *Registry) Slice(start, limit int) []*Series {
	if start >= len(r.order) {
		return nil
	}
	end := len(r.order)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	out := make([]*Series, 0, end-start)
	for _, id := range r.order[start:end] {
		out = append(out, r.byID[id])
	}
	return out
}

// UsageBytes returns the estimated persisted size of the catalog. The contract
// meters storage growth per operation by diffing this value.
func (r *Registry) UsageBytes() int64 { return r.usageBytes }

func (r *Registry) insert(s *Series) {
	r.byID[s.ID] = s
	r.order = append(r.order, s.ID)
	r.usageBytes += seriesBytes(s)
}

// Storage estimates approximate the serialized size of each record. Constant
// overheads cover keys, counters and flags.
const (
	seriesOverheadBytes = 64
	linkOverheadBytes   = 8
)

func seriesBytes(s *Series) int64 {
	n := len(s.ID) + len(s.Creator) +
		len(s.Metadata.Title) + len(s.Metadata.Description) + len(s.Metadata.Media) +
		len(s.Metadata.Extra) + len(s.Metadata.Reference)
	for account := range s.Royalty {
		n += len(account) + 4
	}
	for account := range s.RoyaltyOnPurchase {
		n += len(account) + 4
	}
	return int64(n + seriesOverheadBytes)
}

func linkBytes(id ID) int64 {
	return int64(len(id) + linkOverheadBytes)
}
