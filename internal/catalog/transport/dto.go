package transport

import (
	"time"

	"offerbuilder_backend/internal/catalog/repository"

	"github.com/google/uuid"
)

// ListItemsRequest filters a catalog listing. Multi-value filters are
// comma-separated query parameters.
type ListItemsRequest struct {
	Types         string `form:"types"`
	Categories    string `form:"categories"`
	Tags          string `form:"tags"`
	OnlyAvailable bool   `form:"available"`
	Limit         int    `form:"limit" binding:"omitempty,min=1"`
	Offset        int    `form:"offset" binding:"omitempty,min=0"`
}

// SearchItemsRequest is a free-text catalog search.
type SearchItemsRequest struct {
	Query         string `form:"q" binding:"required"`
	Types         string `form:"types"`
	OnlyAvailable bool   `form:"available"`
	Limit         int    `form:"limit" binding:"omitempty,min=1"`
}

// ItemResponse is a catalog item as returned by the API.
type ItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	TaxRateBps  int       `json:"taxRateBps"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoriesResponse lists the distinct categories of a catalog.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// ToItemResponse maps a stored item to its API shape.
func ToItemResponse(item repository.Item) ItemResponse {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return ItemResponse{
		ID:          item.ID,
		Type:        item.Type,
		Name:        item.Name,
		Description: item.Description,
		PriceCents:  item.PriceCents,
		TaxRateBps:  item.TaxRateBps,
		Category:    item.Category,
		Tags:        tags,
		Available:   item.Available,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// ToItemResponses maps a slice of stored items.
func ToItemResponses(items []repository.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ToItemResponse(item))
	}
	return out
}
