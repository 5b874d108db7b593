// Package event defines the settlement engine's append-only event log: a
// typed {type, params} envelope per state change, content-addressed over
// canonical JSON so replays can be verified byte for byte.
package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Event type tags. The strings are a stable wire contract consumed by
// downstream indexers.
const (
	TypeAddAdmin       = "add_admin"
	TypeRateUpdated    = "update_tasa"
	TypeSeriesCreated  = "nft_create_event"
	TypeObjectCreated  = "nft_create_object"
	TypeSeriesUpdated  = "update_nft_series"
	TypeBuy            = "nft_buy"
	TypeMint           = "nft_mint"
	TypeBurn           = "nft_burn"
	TypeObjectBurned   = "burn_object"
	TypeObjectApproved = "approved_object"
	TypeTransfer       = "nft_transfer"
)

// hashDomain prefixes event hashing input. The version suffix leaves room for
// an algorithm migration without colliding with v1 identities.
const hashDomain = "mintick/event/v1"

// Event is one emitted log entry. Seq is the engine's logical clock value at
// emission, so the full ordered history is recoverable from any store.
type Event struct {
	Seq    int64  `json:"seq"`
	Type   string `json:"type"`
	Params Obj    `json:"params"`
}

// ID computes the event's content-addressed identity:
// SHA256(domain + 0x00 + canonical JSON of {seq, type, params}).
// The null byte keeps the domain/data boundary unambiguous.
func (e Event) ID() (string, error) {
	canonical, err := MarshalCanonical(Obj{
		"seq":    Int(e.Seq),
		"type":   Str(e.Type),
		"params": stripNulls(e.Params),
	})
	if err != nil {
		return "", fmt.Errorf("event id: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MustID is ID for payloads known to be hashable. Test helper.
func (e Event) MustID() string {
	id, err := e.ID()
	if err != nil {
		panic(err)
	}
	return id
}

// stripNulls drops null-valued keys recursively. Display payloads carry
// explicit nulls for absent optionals; canonical hashing forbids them, and an
// absent key hashes the same as a null one by construction.
func stripNulls(o Obj) Obj {
	out := make(Obj, len(o))
	for k, v := range o {
		switch val := v.(type) {
		case nil, Null:
			continue
		case Obj:
			out[k] = stripNulls(val)
		case Arr:
			out[k] = stripNullsArr(val)
		default:
			out[k] = v
		}
	}
	return out
}

func stripNullsArr(a Arr) Arr {
	out := make(Arr, 0, len(a))
	for _, v := range a {
		switch val := v.(type) {
		case nil, Null:
			continue
		case Obj:
			out = append(out, stripNulls(val))
		case Arr:
			out = append(out, stripNullsArr(val))
		default:
			out = append(out, v)
		}
	}
	return out
}

// Log is an in-memory append-only event sequence. The journal persists the
// same entries; this copy serves queries and golden traces.
type Log struct {
	events []Event
}

// NewLog creates an empty log.
func NewLog() *Log { return &Log{} }

// Append adds an event. Events arrive in seq order because the engine is
// single-writer.
func (l *Log) Append(e Event) { l.events = append(l.events, e) }

// Len returns the number of recorded events.
func (l *Log) Len() int { return len(l.events) }

// All returns the full history in emission order. The slice is a copy.
func (l *Log) All() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Since returns events with Seq >= seq, in order.
func (l *Log) Since(seq int64) []Event {
	var out []Event
	for _, e := range l.events {
		if e.Seq >= seq {
			out = append(out, e)
		}
	}
	return out
}
