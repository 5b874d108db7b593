package series

import (
	"fmt"

	"github.com/mintick/mintick/internal/ledger"
)

// Cost precomputation. Operations settle their storage funding before any
// mutation, so the registry exposes the exact growth each mutation would add.
// These functions share the byte model with the mutating paths; a divergence
// between a precomputed cost and the observed UsageBytes delta is a bug.

// EventCreationBytes returns the catalog growth CreateEvent would add for
// these inputs, without mutating the catalog.
func (r *Registry) EventCreationBytes(
	creator ledger.AccountID,
	meta Metadata,
	royalty map[ledger.AccountID]uint32,
	royaltyOnPurchase map[ledger.AccountID]uint32,
) int64 {
	eventID := MakeID(KindEvent, r.eventSeq+1)
	companionID := MakeID(KindCompanion, r.objectSeq+1)

	event := &Series{
		ID:                eventID,
		Metadata:          meta,
		Creator:           creator,
		Royalty:           royalty,
		RoyaltyOnPurchase: royaltyOnPurchase,
	}

	companionMeta := meta
	companionMeta.Description = companionDescription
	companionMeta.Media = companionMedia
	companionMeta.Copies = nil
	companionMeta.Reference = eventID.String()
	companion := &Series{ID: companionID, Metadata: companionMeta, Creator: creator}

	return seriesBytes(event) + seriesBytes(companion) + linkBytes(companionID)
}

// CompanionCreationBytes returns the catalog growth CreateCompanion would add.
func (r *Registry) CompanionCreationBytes(creator ledger.AccountID, meta Metadata, target ID) int64 {
	id := MakeID(KindStandalone, r.objectSeq+1)
	meta.Copies = nil
	meta.Reference = target.String()
	return seriesBytes(&Series{ID: id, Metadata: meta, Creator: creator}) + linkBytes(id)
}

// NextItemID returns the identifier the next issue from this series would
// receive, without reserving it.
func (r *Registry) NextItemID(id ID) (string, error) {
	s, ok := r.byID[id]
	if !ok {
		return "", fmt.Errorf("series %s: %w", id, ErrNotFound)
	}
	return fmt.Sprintf("%s:%d", id, s.mintedCount+1), nil
}

// IssueBytes returns the catalog growth of the next issue from this series.
func (r *Registry) IssueBytes(id ID) (int64, error) {
	next, err := r.NextItemID(id)
	if err != nil {
		return 0, err
	}
	return linkBytes(ID(next)), nil
}
