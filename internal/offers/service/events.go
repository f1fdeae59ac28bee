package service

import (
	"offerbuilder_backend/platform/events"

	"github.com/google/uuid"
)

// Event names published by the offers service. Subscribers (email, scheduler)
// register against these.
const (
	EventOfferCreated       = "offers.offer_created"
	EventOfferSaved         = "offers.offer_saved"
	EventOfferStatusChanged = "offers.status_changed"
	EventAdjustmentCreated  = "offers.adjustment_created"
	EventAdjustmentReviewed = "offers.adjustment_reviewed"
	EventAdjustmentApplied  = "offers.adjustment_applied"
)

// OfferCreatedEvent fires when a new offer is persisted.
type OfferCreatedEvent struct {
	events.BaseEvent
	OrganizationID uuid.UUID
	OfferID        uuid.UUID
	OfferNumber    string
}

func (OfferCreatedEvent) EventName() string { return EventOfferCreated }

// OfferSavedEvent fires after a reconciliation pass completes and a new
// version snapshot is appended.
type OfferSavedEvent struct {
	events.BaseEvent
	OrganizationID uuid.UUID
	OfferID        uuid.UUID
	Version        int64
	TotalCents     int64
}

func (OfferSavedEvent) EventName() string { return EventOfferSaved }

// OfferStatusChangedEvent fires on every legal status transition.
type OfferStatusChangedEvent struct {
	events.BaseEvent
	OrganizationID uuid.UUID
	OfferID        uuid.UUID
	OfferNumber    string
	From           string
	To             string
}

func (OfferStatusChangedEvent) EventName() string { return EventOfferStatusChanged }

// AdjustmentCreatedEvent fires when a change is proposed against an offer.
type AdjustmentCreatedEvent struct {
	events.BaseEvent
	OrganizationID uuid.UUID
	OfferID        uuid.UUID
	AdjustmentID   uuid.UUID
	Type           string
}

func (AdjustmentCreatedEvent) EventName() string { return EventAdjustmentCreated }

// AdjustmentReviewedEvent fires when a pending adjustment is approved or
// rejected.
type AdjustmentReviewedEvent struct {
	events.BaseEvent
	OrganizationID uuid.UUID
	OfferID        uuid.UUID
	AdjustmentID   uuid.UUID
	Decision       string
}

func (AdjustmentReviewedEvent) EventName() string { return EventAdjustmentReviewed }

// AdjustmentAppliedEvent fires after an approved adjustment is merged into
// the offer.
type AdjustmentAppliedEvent struct {
	events.BaseEvent
	OrganizationID   uuid.UUID
	OfferID          uuid.UUID
	AdjustmentID     uuid.UUID
	PriceImpactCents int64
}

func (AdjustmentAppliedEvent) EventName() string { return EventAdjustmentApplied }
