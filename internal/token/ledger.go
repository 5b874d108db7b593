// Package token is the generic item ledger: who holds which item, approval
// lists, and enumeration by holder. The settlement engine consumes this
// contract; it does not redesign it.
package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mintick/mintick/internal/ledger"
)

// ItemID identifies one minted instance: "<series_id>:<instance-number>".
// The format is a stable wire contract.
type ItemID string

// SeriesID returns the owning series identifier ("<kind>|<sequence>").
func (id ItemID) SeriesID() string {
	s, _, _ := strings.Cut(string(id), ":")
	return s
}

func (id ItemID) String() string { return string(id) }

// Meta is the per-item record. Items deliberately carry only a synthesized
// title and issue timestamp; every other descriptive field is resolved by
// joining back to the owning series at read time.
type Meta struct {
	Title    string
	IssuedAt int64 // nanoseconds
}

var (
	// ErrItemNotFound is returned when an item id does not resolve.
	ErrItemNotFound = errors.New("item does not exist")

	// ErrNotAuthorized is returned when the sender is neither the owner nor
	// an approved account for the item.
	ErrNotAuthorized = errors.New("sender is neither item owner nor approved")

	// ErrBadApprovalID is returned when the supplied approval id does not
	// match the granted one.
	ErrBadApprovalID = errors.New("approval id mismatch")
)

// Ledger tracks item ownership and approvals. Iteration orders (per-owner and
// global) are insertion order, so enumeration is reproducible. Not safe for
// concurrent use; the contract serializes all access.
type Ledger struct {
	ownerByID map[ItemID]ledger.AccountID
	metaByID  map[ItemID]Meta

	perOwner map[ledger.AccountID][]ItemID
	order    []ItemID // global insertion order

	approvals      map[ItemID]map[ledger.AccountID]uint64
	nextApprovalID map[ItemID]uint64

	usageBytes int64
}

// NewLedger creates an empty item ledger.
func NewLedger() *Ledger {
	return &Ledger{
		ownerByID:      make(map[ItemID]ledger.AccountID),
		metaByID:       make(map[ItemID]Meta),
		perOwner:       make(map[ledger.AccountID][]ItemID),
		approvals:      make(map[ItemID]map[ledger.AccountID]uint64),
		nextApprovalID: make(map[ItemID]uint64),
	}
}

// Register records a newly minted item under its first owner.
func (l *Ledger) Register(id ItemID, owner ledger.AccountID, meta Meta) error {
	if _, exists := l.ownerByID[id]; exists {
		return fmt.Errorf("item %s already registered", id)
	}
	l.ownerByID[id] = owner
	l.metaByID[id] = meta
	l.perOwner[owner] = append(l.perOwner[owner], id)
	l.order = append(l.order, id)
	l.usageBytes += itemBytes(id, owner, meta)
	return nil
}

// Owner resolves the current holder of an item.
func (l *Ledger) Owner(id ItemID) (ledger.AccountID, error) {
	owner, ok := l.ownerByID[id]
	if !ok {
		return "", fmt.Errorf("item %s: %w", id, ErrItemNotFound)
	}
	return owner, nil
}

// Meta returns the per-item record.
func (l *Ledger) Meta(id ItemID) (Meta, error) {
	meta, ok := l.metaByID[id]
	if !ok {
		return Meta{}, fmt.Errorf("item %s: %w", id, ErrItemNotFound)
	}
	return meta, nil
}

// Approvals returns the item's approval map. Never nil for existing items.
func (l *Ledger) Approvals(id ItemID) (map[ledger.AccountID]uint64, error) {
	if _, ok := l.ownerByID[id]; !ok {
		return nil, fmt.Errorf("item %s: %w", id, ErrItemNotFound)
	}
	out := make(map[ledger.AccountID]uint64, len(l.approvals[id]))
	for k, v := range l.approvals[id] {
		out[k] = v
	}
	return out, nil
}

// Approve grants transfer rights to an account and returns the approval id.
// Only the owner may approve; repeated approvals refresh the id.
func (l *Ledger) Approve(sender ledger.AccountID, id ItemID, grantee ledger.AccountID) (uint64, error) {
	owner, err := l.Owner(id)
	if err != nil {
		return 0, err
	}
	if sender != owner {
		return 0, fmt.Errorf("approve %s: %w", id, ErrNotAuthorized)
	}
	l.nextApprovalID[id]++
	approvalID := l.nextApprovalID[id]
	if l.approvals[id] == nil {
		l.approvals[id] = make(map[ledger.AccountID]uint64)
	}
	l.approvals[id][grantee] = approvalID
	l.usageBytes += int64(len(grantee)) + 8
	return approvalID, nil
}

// Revoke removes one account's approval.
func (l *Ledger) Revoke(sender ledger.AccountID, id ItemID, grantee ledger.AccountID) error {
	owner, err := l.Owner(id)
	if err != nil {
		return err
	}
	if sender != owner {
		return fmt.Errorf("revoke %s: %w", id, ErrNotAuthorized)
	}
	if granted, ok := l.approvals[id][grantee]; ok {
		delete(l.approvals[id], grantee)
		l.usageBytes -= int64(len(grantee)) + 8
		_ = granted
	}
	return nil
}

// RevokeAll clears every approval on an item.
func (l *Ledger) RevokeAll(sender ledger.AccountID, id ItemID) error {
	owner, err := l.Owner(id)
	if err != nil {
		return err
	}
	if sender != owner {
		return fmt.Errorf("revoke all %s: %w", id, ErrNotAuthorized)
	}
	for grantee := range l.approvals[id] {
		l.usageBytes -= int64(len(grantee)) + 8
	}
	delete(l.approvals, id)
	return nil
}

// IsApproved reports whether grantee may transfer the item, optionally
// requiring an exact approval id.
func (l *Ledger) IsApproved(id ItemID, grantee ledger.AccountID, approvalID *uint64) bool {
	granted, ok := l.approvals[id][grantee]
	if !ok {
		return false
	}
	return approvalID == nil || *approvalID == granted
}

// Transfer moves an item from its current owner to receiver. The sender must
// be the owner or hold a matching approval. All approvals are cleared on
// transfer. Returns the previous owner.
func (l *Ledger) Transfer(sender ledger.AccountID, receiver ledger.AccountID, id ItemID, approvalID *uint64) (ledger.AccountID, error) {
	owner, err := l.Owner(id)
	if err != nil {
		return "", err
	}
	if sender != owner {
		granted, ok := l.approvals[id][sender]
		if !ok {
			return "", fmt.Errorf("transfer %s: %w", id, ErrNotAuthorized)
		}
		if approvalID != nil && *approvalID != granted {
			return "", fmt.Errorf("transfer %s: %w", id, ErrBadApprovalID)
		}
	}
	if receiver == owner {
		return "", fmt.Errorf("transfer %s: receiver is already the owner", id)
	}

	l.removeFromOwner(owner, id)
	l.ownerByID[id] = receiver
	l.perOwner[receiver] = append(l.perOwner[receiver], id)
	for grantee := range l.approvals[id] {
		l.usageBytes -= int64(len(grantee)) + 8
	}
	delete(l.approvals, id)

	return owner, nil
}

// Burn removes an item and all its bookkeeping. The sequence number it
// occupied in its series is never reissued; that is the registry's invariant.
func (l *Ledger) Burn(id ItemID) (ledger.AccountID, error) {
	owner, err := l.Owner(id)
	if err != nil {
		return "", err
	}
	meta := l.metaByID[id]

	l.removeFromOwner(owner, id)
	for i, existing := range l.order {
		if existing == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	for grantee := range l.approvals[id] {
		l.usageBytes -= int64(len(grantee)) + 8
	}
	delete(l.approvals, id)
	delete(l.nextApprovalID, id)
	delete(l.ownerByID, id)
	delete(l.metaByID, id)
	l.usageBytes -= itemBytes(id, owner, meta)

	return owner, nil
}

// TotalSupply returns the number of live items.
func (l *Ledger) TotalSupply() int { return len(l.order) }

// SupplyForOwner returns the number of items held by an account.
func (l *Ledger) SupplyForOwner(owner ledger.AccountID) int {
	return len(l.perOwner[owner])
}

// Items returns item ids in global insertion order starting at start, at most
// limit (0 = no limit).
func (l *Ledger) Items(start, limit int) []ItemID {
	return slicePage(l.order, start, limit)
}

// ItemsForOwner returns the holder's items in acquisition order.
func (l *Ledger) ItemsForOwner(owner ledger.AccountID, start, limit int) []ItemID {
	return slicePage(l.perOwner[owner], start, limit)
}

// UsageBytes returns the estimated persisted size of the ledger.
func (l *Ledger) UsageBytes() int64 { return l.usageBytes }

func (l *Ledger) removeFromOwner(owner ledger.AccountID, id ItemID) {
	items := l.perOwner[owner]
	for i, existing := range items {
		if existing == id {
			l.perOwner[owner] = append(items[:i], items[i+1:]...)
			break
		}
	}
	if len(l.perOwner[owner]) == 0 {
		delete(l.perOwner, owner)
	}
}

func slicePage(items []ItemID, start, limit int) []ItemID {
	if start >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	out := make([]ItemID, end-start)
	copy(out, items[start:end])
	return out
}

const itemOverheadBytes = 40

func itemBytes(id ItemID, owner ledger.AccountID, meta Meta) int64 {
	return int64(len(id) + len(owner) + len(meta.Title) + itemOverheadBytes)
}

// RegisterBytes returns the ledger growth of registering this item. Exposed so
// operations can settle storage funding before mutating.
func RegisterBytes(id ItemID, owner ledger.AccountID, meta Meta) int64 {
	return itemBytes(id, owner, meta)
}

// ApprovalBytes returns the ledger growth of granting one approval.
func ApprovalBytes(grantee ledger.AccountID) int64 {
	return int64(len(grantee)) + 8
}
