package repository

import (
	"context"

	"offerbuilder_backend/internal/offers/domain"

	"github.com/google/uuid"
)

// ListParams contains parameters for listing offers.
type ListParams struct {
	OrganizationID uuid.UUID
	Status         *domain.OfferStatus
	Search         string
	SortBy         string
	SortOrder      string
	Page           int
	PageSize       int
}

// ListResult contains the paginated result of listing offers. Items carry
// header fields only; blocks are fetched with GetByID.
type ListResult struct {
	Items      []*domain.Offer
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// OfferRepository is the persistence contract the engine core is defined
// against. Every create operation returns the persisted entity carrying a
// repository-assigned identity distinct from any client placeholder, with
// PendingCreate cleared.
type OfferRepository interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Offer, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Create(ctx context.Context, offer *domain.Offer) (*domain.Offer, error)
	// Update persists offer header fields. The offer's Version counter must
	// match the stored one; a stale counter yields a Conflict error. On
	// success the returned offer carries the incremented counter.
	Update(ctx context.Context, offer *domain.Offer) (*domain.Offer, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status domain.OfferStatus) error
	NextOfferNumber(ctx context.Context, orgID uuid.UUID) (string, error)

	CreateBlock(ctx context.Context, orgID uuid.UUID, block *domain.Block) (*domain.Block, error)
	UpdateBlock(ctx context.Context, orgID uuid.UUID, block *domain.Block) (*domain.Block, error)
	// DeleteBlock cascade-deletes the block's items.
	DeleteBlock(ctx context.Context, orgID, id uuid.UUID) error

	CreateItem(ctx context.Context, orgID uuid.UUID, item *domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, orgID uuid.UUID, item *domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, orgID, id uuid.UUID) error
	ReorderItems(ctx context.Context, orgID, blockID uuid.UUID, orderedIDs []uuid.UUID) error
}

// AdjustmentRepository persists proposed-change records and their comments.
type AdjustmentRepository interface {
	GetByOfferID(ctx context.Context, orgID, offerID uuid.UUID) ([]*domain.Adjustment, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Adjustment, error)
	Create(ctx context.Context, adj *domain.Adjustment) (*domain.Adjustment, error)
	Update(ctx context.Context, adj *domain.Adjustment) (*domain.Adjustment, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	AddComment(ctx context.Context, orgID uuid.UUID, comment *domain.AdjustmentComment) (*domain.AdjustmentComment, error)
}

// VersionRepository is append-only: versions are never updated or deleted.
type VersionRepository interface {
	Append(ctx context.Context, orgID uuid.UUID, version *domain.Version) (*domain.Version, error)
	ListByOfferID(ctx context.Context, orgID, offerID uuid.UUID) ([]*domain.Version, error)
	GetBySequence(ctx context.Context, orgID, offerID uuid.UUID, sequence int64) (*domain.Version, error)
	LatestSequence(ctx context.Context, orgID, offerID uuid.UUID) (int64, error)
}
