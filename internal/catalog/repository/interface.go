package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Item is a read-only catalog entry: reference data the offer engine reads
// but never mutates.
type Item struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	Type           string    `db:"type"`
	Name           string    `db:"name"`
	Description    *string   `db:"description"`
	PriceCents     int64     `db:"price_cents"`
	TaxRateBps     int       `db:"tax_rate_bps"`
	Category       string    `db:"category"`
	Tags           []string  `db:"tags"`
	Available      bool      `db:"available"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Filters narrows catalog queries. Zero values mean "no constraint".
type Filters struct {
	Types         []string
	Categories    []string
	Tags          []string
	OnlyAvailable bool
	Limit         int
	Offset        int
}

// Repository defines read-only catalog storage operations.
type Repository interface {
	GetItems(ctx context.Context, orgID uuid.UUID, filters Filters) ([]Item, error)
	GetItemByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (Item, error)
	SearchItems(ctx context.Context, orgID uuid.UUID, query string, filters Filters) ([]Item, error)
	GetItemsByType(ctx context.Context, orgID uuid.UUID, itemType string) ([]Item, error)
	GetItemsByCategory(ctx context.Context, orgID uuid.UUID, category string) ([]Item, error)
}
