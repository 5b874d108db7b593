// Package mint binds the series catalog to the item ledger: it turns a
// reserved instance number into a registered, titled item.
package mint

import (
	"fmt"

	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/series"
	"github.com/mintick/mintick/internal/token"
)

// titleDelimiter separates the series title from the series id and instance
// number in a synthesized item title. The surrounding spaces are part of the
// wire format.
const titleDelimiter = " #"

// Engine mints numbered instances. It owns no state of its own; the registry
// holds supply accounting and the token ledger holds ownership.
type Engine struct {
	registry *series.Registry
	items    *token.Ledger
}

// NewEngine creates a minting engine over a catalog and an item ledger.
func NewEngine(registry *series.Registry, items *token.Ledger) *Engine {
	return &Engine{registry: registry, items: items}
}

// Result describes one successful mint.
type Result struct {
	ItemID   token.ItemID
	Seq      uint64
	Title    string
	Mintable bool // post-mint mintability of the series
}

// MintOne issues the next instance of a series to receiver. Supply
// reservation and ledger registration succeed or fail together.
func (e *Engine) MintOne(id series.ID, receiver ledger.AccountID, issuedAt int64) (Result, error) {
	s, err := e.registry.Get(id)
	if err != nil {
		return Result{}, err
	}
	title := s.Metadata.Title

	itemID, seq, mintable, err := e.registry.IssueNext(id)
	if err != nil {
		return Result{}, err
	}

	composed := ComposeTitle(title, id, seq)
	if err := e.items.Register(token.ItemID(itemID), receiver, token.Meta{
		Title:    composed,
		IssuedAt: issuedAt,
	}); err != nil {
		// The registry never issues the same number twice, so a collision
		// here means the ledger and catalog have diverged.
		return Result{}, fmt.Errorf("mint %s: %w", itemID, err)
	}

	return Result{
		ItemID:   token.ItemID(itemID),
		Seq:      seq,
		Title:    composed,
		Mintable: mintable,
	}, nil
}

// ComposeTitle builds the display title for instance n of a series:
// "<title> <#> <series_id> <#> <n>" with single-space joins.
func ComposeTitle(title string, id series.ID, n uint64) string {
	return fmt.Sprintf("%s %s %s %s %d", title, titleDelimiter, id, titleDelimiter, n)
}
