package transport

import (
	"time"

	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/versioning"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateOfferRequest is the request body for creating a new offer
type CreateOfferRequest struct {
	Title         string         `json:"title" validate:"required,min=1,max=500"`
	Currency      string         `json:"currency" validate:"required,len=3"`
	DiscountType  string         `json:"discountType" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue int64          `json:"discountValue" validate:"min=0"`
	ValidUntil    *time.Time     `json:"validUntil"`
	Notes         string         `json:"notes"`
	Metadata      map[string]any `json:"metadata"`
}

// UpdateOfferRequest is the request body for updating offer header fields
type UpdateOfferRequest struct {
	Title         *string         `json:"title" validate:"omitempty,min=1,max=500"`
	DiscountType  *string         `json:"discountType" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue *int64          `json:"discountValue" validate:"omitempty,min=0"`
	ValidUntil    *time.Time      `json:"validUntil"`
	Notes         *string         `json:"notes"`
	Metadata      *map[string]any `json:"metadata"`
}

// UpdateOfferStatusRequest is the request body for a status transition
type UpdateOfferStatusRequest struct {
	Status string `json:"status" validate:"required,min=1,max=100"`
}

// ListOffersRequest defines the query parameters for listing offers
type ListOffersRequest struct {
	Status    string `form:"status"`
	Search    string `form:"search"`
	SortBy    string `form:"sortBy" validate:"omitempty,oneof=offerNumber title status total createdAt updatedAt"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// CreateBlockRequest is the request body for adding a block to an offer
type CreateBlockRequest struct {
	Name     string         `json:"name" validate:"omitempty,max=500"`
	Metadata map[string]any `json:"metadata"`
}

// UpdateBlockRequest is the request body for changing block fields. Metadata
// keys set to null are removed; other keys are merged in.
type UpdateBlockRequest struct {
	Name     *string        `json:"name" validate:"omitempty,min=1,max=500"`
	Metadata map[string]any `json:"metadata"`
}

// CreateItemRequest is the request body for adding an item to a block. When
// CatalogItemID is set, name/price/tax default from the catalog entry and a
// zero quantity asks the suggestion engine for one.
type CreateItemRequest struct {
	CatalogItemID  *uuid.UUID `json:"catalogItemId"`
	Type           string     `json:"type" validate:"omitempty,max=100"`
	Name           string     `json:"name" validate:"omitempty,max=500"`
	Description    string     `json:"description" validate:"omitempty,max=2000"`
	Quantity       int64      `json:"quantity" validate:"min=0"`
	UnitPriceCents int64      `json:"unitPriceCents" validate:"min=0"`
	TaxRateBps     int        `json:"taxRateBps" validate:"min=0,max=10000"`
	IsOptional     bool       `json:"isOptional"`
}

// UpdateItemRequest is the request body for changing item fields
type UpdateItemRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=500"`
	Description    *string `json:"description" validate:"omitempty,max=2000"`
	Quantity       *int64  `json:"quantity" validate:"omitempty,min=1"`
	UnitPriceCents *int64  `json:"unitPriceCents" validate:"omitempty,min=0"`
	TaxRateBps     *int    `json:"taxRateBps" validate:"omitempty,min=0,max=10000"`
	IsOptional     *bool   `json:"isOptional"`
}

// ReorderItemsRequest carries the full desired ordering of a block's items
type ReorderItemsRequest struct {
	ItemIDs []uuid.UUID `json:"itemIds" validate:"required,min=1"`
}

// CreateAdjustmentRequest is the request body for proposing a change against
// a sent offer
type CreateAdjustmentRequest struct {
	Type           string         `json:"type" validate:"required,oneof=quantity price item_add item_remove time_change other"`
	TargetKind     string         `json:"targetKind" validate:"required,oneof=offer block item"`
	TargetID       uuid.UUID      `json:"targetId"`
	ProposedChange map[string]any `json:"proposedChange" validate:"required"`
	Description    string         `json:"description" validate:"omitempty,max=2000"`
	RequestedBy    string         `json:"requestedBy" validate:"omitempty,max=200"`
	RequesterRole  string         `json:"requesterRole" validate:"omitempty,oneof=customer staff"`
}

// ReviewAdjustmentRequest approves or rejects a pending adjustment
type ReviewAdjustmentRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Comment  string `json:"comment" validate:"omitempty,max=2000"`
}

// AdjustmentCommentRequest adds a threaded comment to an adjustment
type AdjustmentCommentRequest struct {
	AuthorName string `json:"authorName" validate:"omitempty,max=200"`
	Body       string `json:"body" validate:"required,min=1,max=2000"`
}

// DiffVersionsRequest selects the two snapshots to compare
type DiffVersionsRequest struct {
	From int64 `form:"from" validate:"required,min=1"`
	To   int64 `form:"to" validate:"required,min=1"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// ItemResponse is a priced line item within a block
type ItemResponse struct {
	ID             uuid.UUID  `json:"id"`
	Type           string     `json:"type"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	CatalogItemID  *uuid.UUID `json:"catalogItemId,omitempty"`
	Quantity       int64      `json:"quantity"`
	UnitPriceCents int64      `json:"unitPriceCents"`
	TaxRateBps     int        `json:"taxRateBps"`
	LineTotalCents int64      `json:"lineTotalCents"`
	IsOptional     bool       `json:"isOptional"`
	Position       int        `json:"position"`
}

// BlockResponse is a named section of an offer
type BlockResponse struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Position      int            `json:"position"`
	SubtotalCents int64          `json:"subtotalCents"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Items         []ItemResponse `json:"items"`
}

// OfferResponse is the full offer aggregate
type OfferResponse struct {
	ID             uuid.UUID       `json:"id"`
	OfferNumber    string          `json:"offerNumber"`
	Title          string          `json:"title"`
	Status         string          `json:"status"`
	Currency       string          `json:"currency"`
	Version        int64           `json:"version"`
	SubtotalCents  int64           `json:"subtotalCents"`
	TaxCents       int64           `json:"taxCents"`
	DiscountCents  int64           `json:"discountCents"`
	TotalCents     int64           `json:"totalCents"`
	DiscountType   string          `json:"discountType,omitempty"`
	DiscountValue  int64           `json:"discountValue,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
	ValidUntil     *time.Time      `json:"validUntil,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Blocks         []BlockResponse `json:"blocks"`
	Violations     []string        `json:"violations,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// OfferListResponse is a paginated page of offer headers
type OfferListResponse struct {
	Items      []OfferResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// SuggestedItemResponse is a catalog candidate for a block
type SuggestedItemResponse struct {
	CatalogItemID     uuid.UUID `json:"catalogItemId"`
	Type              string    `json:"type"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	PriceCents        int64     `json:"priceCents"`
	TaxRateBps        int       `json:"taxRateBps"`
	Category          string    `json:"category,omitempty"`
	SuggestedQuantity int64     `json:"suggestedQuantity"`
}

// ValidationResponse lists rule violations for the current aggregate
type ValidationResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// AdjustmentCommentResponse is one comment in an adjustment thread
type AdjustmentCommentResponse struct {
	ID        uuid.UUID `json:"id"`
	Author    string    `json:"author,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdjustmentResponse is a proposed change and its review state
type AdjustmentResponse struct {
	ID               uuid.UUID                   `json:"id"`
	OfferID          uuid.UUID                   `json:"offerId"`
	Type             string                      `json:"type"`
	TargetKind       string                      `json:"targetKind"`
	TargetID         uuid.UUID                   `json:"targetId"`
	Status           string                      `json:"status"`
	ProposedChange   map[string]any              `json:"proposedChange"`
	Description      string                      `json:"description,omitempty"`
	PriceImpactCents int64                       `json:"priceImpactCents"`
	RequestedBy      string                      `json:"requestedBy,omitempty"`
	RequesterRole    string                      `json:"requesterRole,omitempty"`
	ReviewedBy       *string                     `json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time                  `json:"reviewedAt,omitempty"`
	Comments         []AdjustmentCommentResponse `json:"comments"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

// VersionResponse is one immutable snapshot in an offer's history
type VersionResponse struct {
	ID            uuid.UUID      `json:"id"`
	OfferID       uuid.UUID      `json:"offerId"`
	Sequence      int64          `json:"sequence"`
	ChangeLog     string         `json:"changeLog,omitempty"`
	ChangedFields []string       `json:"changedFields,omitempty"`
	Snapshot      *OfferResponse `json:"snapshot,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// OfferBundleResponse is the full editing context for one offer: the offer
// itself plus its adjustment thread and version history
type OfferBundleResponse struct {
	Offer       OfferResponse        `json:"offer"`
	Adjustments []AdjustmentResponse `json:"adjustments"`
	Versions    []VersionResponse    `json:"versions"`
}

// DiffResponse is the structural diff between two snapshots
type DiffResponse struct {
	FromSequence int64           `json:"fromSequence"`
	ToSequence   int64           `json:"toSequence"`
	Diff         versioning.Diff `json:"diff"`
	ChangeLog    string          `json:"changeLog,omitempty"`
}

// ShareTokenResponse carries a signed public link for an offer
type ShareTokenResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	QRCodeURL string    `json:"qrCodeUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PublicItemResponse is a customer-facing line item, pre-rendered by the
// plugin's formatter
type PublicItemResponse struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	DisplayQuantity string `json:"displayQuantity"`
	DisplayPrice    string `json:"displayPrice"`
	DisplayTotal    string `json:"displayTotal"`
	IsOptional      bool   `json:"isOptional"`
}

// PublicBlockResponse is a customer-facing section of a shared offer
type PublicBlockResponse struct {
	Label           string               `json:"label"`
	DisplaySubtotal string               `json:"displaySubtotal"`
	Items           []PublicItemResponse `json:"items"`
}

// PublicOfferResponse is the read-only view behind a share link
type PublicOfferResponse struct {
	OfferNumber     string                `json:"offerNumber"`
	Title           string                `json:"title"`
	Status          string                `json:"status"`
	Currency        string                `json:"currency"`
	DisplaySubtotal string                `json:"displaySubtotal"`
	DisplayTax      string                `json:"displayTax"`
	DisplayDiscount string                `json:"displayDiscount,omitempty"`
	DisplayTotal    string                `json:"displayTotal"`
	ValidUntil      *time.Time            `json:"validUntil,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	Blocks          []PublicBlockResponse `json:"blocks"`
}

// ── Mapping ───────────────────────────────────────────────────────────────────

// ToOfferResponse maps a domain aggregate to its transport shape.
func ToOfferResponse(o *domain.Offer) *OfferResponse {
	blocks := make([]BlockResponse, len(o.Blocks))
	for i, b := range o.Blocks {
		blocks[i] = ToBlockResponse(b)
	}
	return &OfferResponse{
		ID:            o.ID,
		OfferNumber:   o.OfferNumber,
		Title:         o.Title,
		Status:        string(o.Status),
		Currency:      o.Currency,
		Version:       o.Version,
		SubtotalCents: o.SubtotalCents,
		TaxCents:      o.TaxCents,
		DiscountCents: o.DiscountCents,
		TotalCents:    o.TotalCents,
		DiscountType:  string(o.DiscountType),
		DiscountValue: o.DiscountValue,
		Metadata:      o.Metadata,
		ValidUntil:    o.ValidUntil,
		Notes:         derefString(o.Notes),
		Blocks:        blocks,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// ToBlockResponse maps a domain block to its transport shape.
func ToBlockResponse(b *domain.Block) BlockResponse {
	items := make([]ItemResponse, len(b.Items))
	for i, it := range b.Items {
		items[i] = ItemResponse{
			ID:             it.ID,
			Type:           it.Type,
			Name:           it.Name,
			Description:    it.Description,
			CatalogItemID:  it.CatalogItemID,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			TaxRateBps:     it.TaxRateBps,
			LineTotalCents: it.LineTotalCents,
			IsOptional:     it.IsOptional,
			Position:       it.Position,
		}
	}
	return BlockResponse{
		ID:            b.ID,
		Name:          b.Name,
		Position:      b.Position,
		SubtotalCents: b.SubtotalCents,
		Metadata:      b.Metadata,
		Items:         items,
	}
}

// ToAdjustmentResponse maps a domain adjustment to its transport shape.
func ToAdjustmentResponse(a *domain.Adjustment) *AdjustmentResponse {
	comments := make([]AdjustmentCommentResponse, len(a.Comments))
	for i, c := range a.Comments {
		comments[i] = AdjustmentCommentResponse{
			ID:        c.ID,
			Author:    c.Author,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		}
	}
	return &AdjustmentResponse{
		ID:               a.ID,
		OfferID:          a.OfferID,
		Type:             string(a.Type),
		TargetKind:       string(a.TargetKind),
		TargetID:         a.TargetID,
		Status:           string(a.Status),
		ProposedChange:   a.ProposedChange,
		Description:      a.Description,
		PriceImpactCents: a.PriceImpactCents,
		RequestedBy:      a.RequestedBy,
		RequesterRole:    a.RequesterRole,
		ReviewedBy:       a.ReviewedBy,
		ReviewedAt:       a.ReviewedAt,
		Comments:         comments,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// ToVersionResponse maps a stored snapshot. withSnapshot controls whether the
// full aggregate body is included or only the header fields.
func ToVersionResponse(v *domain.Version, withSnapshot bool) *VersionResponse {
	resp := &VersionResponse{
		ID:            v.ID,
		OfferID:       v.OfferID,
		Sequence:      v.Sequence,
		ChangeLog:     v.ChangeLog,
		ChangedFields: v.ChangedFields,
		CreatedAt:     v.CreatedAt,
	}
	if withSnapshot && v.Snapshot != nil {
		resp.Snapshot = ToOfferResponse(v.Snapshot)
	}
	return resp
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
