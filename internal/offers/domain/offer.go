// Package domain defines the offer aggregate and its side entities.
// Types here carry no persistence or transport concerns; engines and
// repositories operate on these structs.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OfferStatus is the lifecycle state of an offer. The core defines the
// stable states; a domain plugin may contribute intermediate states between
// draft and sent (e.g. a tasting round for catering).
type OfferStatus string

const (
	OfferStatusDraft    OfferStatus = "draft"
	OfferStatusSent     OfferStatus = "sent"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
	OfferStatusExpired  OfferStatus = "expired"
)

// coreTransitions lists the legal transitions between core statuses.
var coreTransitions = map[OfferStatus][]OfferStatus{
	OfferStatusDraft:    {OfferStatusSent},
	OfferStatusSent:     {OfferStatusAccepted, OfferStatusRejected, OfferStatusExpired},
	OfferStatusAccepted: {},
	OfferStatusRejected: {},
	OfferStatusExpired:  {},
}

// CanTransition reports whether moving from s to target is legal under the
// core lifecycle. Plugin-contributed intermediate states are checked by the
// service against the plugin's own transition table.
func (s OfferStatus) CanTransition(target OfferStatus) bool {
	for _, allowed := range coreTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further core transition is possible.
func (s OfferStatus) IsTerminal() bool {
	return len(coreTransitions[s]) == 0 && s != ""
}

// DiscountType selects how Offer.DiscountValue is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage" // value is whole percent
	DiscountFixed      DiscountType = "fixed"      // value is cents
)

// Offer is the aggregate root: an ordered list of blocks plus money totals.
//
// Aggregate invariants:
//
//	TotalCents    == SubtotalCents + TaxCents - DiscountCents
//	SubtotalCents == sum(block.SubtotalCents)
type Offer struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	OfferNumber    string
	Title          string
	Status         OfferStatus
	Currency       string

	// Version is a monotonically increasing counter bumped on every
	// persisted update; stale writes are rejected by the repository.
	Version int64

	Blocks []*Block

	SubtotalCents int64
	TaxCents      int64
	DiscountCents int64
	TotalCents    int64

	DiscountType  DiscountType
	DiscountValue int64

	Metadata map[string]any

	ValidUntil *time.Time
	Notes      *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Block is a named, time-scoped grouping of items within an offer (one meal
// service, for catering). Scheduling fields such as date windows, headcount
// and location are domain-specific and live in Metadata, not in the type.
//
// Invariant: SubtotalCents == sum(item.LineTotalCents).
type Block struct {
	ID       uuid.UUID
	OfferID  uuid.UUID
	Name     string
	Position int

	Items []*Item

	SubtotalCents int64
	Metadata      map[string]any

	// PendingCreate marks a block created locally and not yet persisted.
	// The save reconciler branches on this flag, never on identity shape.
	PendingCreate bool
}

// Item is a single priced line within a block.
//
// Invariant: LineTotalCents == Quantity * UnitPriceCents.
type Item struct {
	ID      uuid.UUID
	BlockID uuid.UUID

	// Type is an open-ended tag defined by the domain plugin
	// (menu item, equipment, service, delivery, custom, ...).
	Type string

	Name        string
	Description string

	// CatalogItemID references the read-only catalog, when the item was
	// picked from it rather than entered free-form.
	CatalogItemID *uuid.UUID

	Quantity       int64 // non-negative
	UnitPriceCents int64
	TaxRateBps     int // 0..10000

	LineTotalCents int64

	IsOptional bool
	Position   int

	// PendingCreate marks an item created locally and not yet persisted.
	PendingCreate bool
}

// BlockByID returns the block with the given id, or nil.
func (o *Offer) BlockByID(id uuid.UUID) *Block {
	for _, b := range o.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// ItemByID returns the item with the given id, or nil.
func (b *Block) ItemByID(id uuid.UUID) *Item {
	for _, it := range b.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Clone returns a deep copy of the offer tree. Snapshots and the pre-edit
// state held by the builder must never alias the live aggregate.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Metadata = cloneMap(o.Metadata)
	if o.ValidUntil != nil {
		t := *o.ValidUntil
		cp.ValidUntil = &t
	}
	if o.Notes != nil {
		n := *o.Notes
		cp.Notes = &n
	}
	cp.Blocks = make([]*Block, len(o.Blocks))
	for i, b := range o.Blocks {
		cp.Blocks[i] = b.Clone()
	}
	return &cp
}

// Clone returns a deep copy of the block and its items.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Metadata = cloneMap(b.Metadata)
	cp.Items = make([]*Item, len(b.Items))
	for i, it := range b.Items {
		cp.Items[i] = it.Clone()
	}
	return &cp
}

// Clone returns a copy of the item.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	cp := *it
	if it.CatalogItemID != nil {
		id := *it.CatalogItemID
		cp.CatalogItemID = &id
	}
	return &cp
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
