package domain

import (
	"time"

	"github.com/google/uuid"
)

// Version is an append-only full snapshot of an offer, written every time a
// save completes or an adjustment is applied. Versions are never mutated or
// deleted.
type Version struct {
	ID      uuid.UUID
	OfferID uuid.UUID

	// Sequence increases by one per snapshot of the same offer.
	Sequence int64

	// Snapshot is the complete offer tree at the time of capture.
	Snapshot *Offer

	// ChangeLog is a human-readable description of what changed since the
	// previous version.
	ChangeLog string

	// ChangedFields lists the top-level field names that differ from the
	// previous version.
	ChangedFields []string

	CreatedAt time.Time
}
