package domain

import (
	"time"

	"github.com/google/uuid"
)

// AdjustmentStatus is the review state of a proposed change.
type AdjustmentStatus string

const (
	AdjustmentStatusPending  AdjustmentStatus = "pending"
	AdjustmentStatusApproved AdjustmentStatus = "approved"
	AdjustmentStatusRejected AdjustmentStatus = "rejected"
	AdjustmentStatusApplied  AdjustmentStatus = "applied"
)

// adjustmentTransitions lists the legal transitions of the review workflow.
// Review moves pending to approved or rejected; only an approved adjustment
// may be applied. Rejected and applied are terminal.
var adjustmentTransitions = map[AdjustmentStatus][]AdjustmentStatus{
	AdjustmentStatusPending:  {AdjustmentStatusApproved, AdjustmentStatusRejected},
	AdjustmentStatusApproved: {AdjustmentStatusApplied},
	AdjustmentStatusRejected: {},
	AdjustmentStatusApplied:  {},
}

// CanTransition reports whether moving from s to target is legal.
func (s AdjustmentStatus) CanTransition(target AdjustmentStatus) bool {
	for _, allowed := range adjustmentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AdjustmentType categorizes what a proposed change touches.
type AdjustmentType string

const (
	AdjustmentTypeQuantity   AdjustmentType = "quantity"
	AdjustmentTypePrice      AdjustmentType = "price"
	AdjustmentTypeItemAdd    AdjustmentType = "item_add"
	AdjustmentTypeItemRemove AdjustmentType = "item_remove"
	AdjustmentTypeTimeChange AdjustmentType = "time_change"
	AdjustmentTypeOther      AdjustmentType = "other"
)

// TargetKind names the entity an adjustment points at.
type TargetKind string

const (
	TargetOffer TargetKind = "offer"
	TargetBlock TargetKind = "block"
	TargetItem  TargetKind = "item"
)

// Adjustment is a proposed change to an offer, subject to review before it
// may be merged into the aggregate. Adjustments reference the offer by id
// and are lifecycled independently of it.
type Adjustment struct {
	ID      uuid.UUID
	OfferID uuid.UUID

	RequestedBy   string
	RequesterRole string

	Type       AdjustmentType
	TargetKind TargetKind
	TargetID   uuid.UUID

	Description string

	// ProposedChange is the structured payload merged into the aggregate
	// when the adjustment is applied. Its keys depend on Type: quantity
	// changes carry "quantity", price changes "unitPriceCents", item adds
	// an item field set, time changes block metadata fields.
	ProposedChange map[string]any

	PriceImpactCents int64

	Status AdjustmentStatus

	ReviewedBy *string
	ReviewedAt *time.Time

	Comments []AdjustmentComment

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AdjustmentComment is free-form discussion on an adjustment. Comments may
// be attached in any state and never affect the state machine.
type AdjustmentComment struct {
	ID           uuid.UUID
	AdjustmentID uuid.UUID
	Author       string
	Body         string
	CreatedAt    time.Time
}
