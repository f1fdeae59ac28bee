package service

import (
	"context"

	catalogrepo "offerbuilder_backend/internal/catalog/repository"
	"offerbuilder_backend/internal/offers/builder"
	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/plugin"
	"offerbuilder_backend/internal/offers/transport"
	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
)

// AddBlock appends a block to the offer and persists the tree
func (s *Service) AddBlock(ctx context.Context, tenantID, offerID uuid.UUID, req transport.CreateBlockRequest) (*transport.OfferResponse, error) {
	return s.edit(ctx, tenantID, offerID, func(b *builder.Builder) error {
		block := b.AddBlock(req.Name)
		for k, v := range req.Metadata {
			block.Metadata[k] = v
		}
		return nil
	})
}

// UpdateBlock changes block fields and persists the tree
func (s *Service) UpdateBlock(ctx context.Context, tenantID, offerID, blockID uuid.UUID, req transport.UpdateBlockRequest) (*transport.OfferResponse, error) {
	return s.edit(ctx, tenantID, offerID, func(b *builder.Builder) error {
		_, err := b.UpdateBlock(blockID, req.Name, req.Metadata)
		return err
	})
}

// DeleteBlock removes a block and its items
func (s *Service) DeleteBlock(ctx context.Context, tenantID, offerID, blockID uuid.UUID) (*transport.OfferResponse, error) {
	return s.edit(ctx, tenantID, offerID, func(b *builder.Builder) error {
		return b.RemoveBlock(blockID)
	})
}

// AddItem appends an item to a block, either free-form or sourced from the
// catalog, and persists the tree
func (s *Service) AddItem(ctx context.Context, tenantID, offerID, blockID uuid.UUID, req transport.CreateItemRequest) (*transport.OfferResponse, error) {
	return s.edit(ctx, tenantID, offerID, func(b *builder.Builder) error {
		if req.CatalogItemID != nil {
			entry, err := s.catalogItem(ctx, tenantID, *req.CatalogItemID)
			if err != nil {
				return err
			}
			_, err = b.AddCatalogItem(blockID, *entry, req.Quantity)
			return err
		}

		if req.Name == "" {
			return apperr.Validation("item name is required for free-form items")
		}
		if _, ok := plugin.ItemType(s.plug, req.Type); !ok {
			return apperr.Validation("unknown item type: " + req.Type)
		}
		qty := req.Quantity
		if qty < 1 {
			qty = 1
		}
		_, err := b.AddItem(blockID, &domain.Item{
			Type:           req.Type,
			Name:           req.Name,
			Description:    req.Description,
			Quantity:       qty,
			UnitPriceCents: req.UnitPriceCents,
			TaxRateBps:     req.TaxRateBps,
			IsOptional:     req.IsOptional,
		})
		return err
	})
}

// UpdateItem changes item fields and persists the tree
func (s *Service) UpdateItem(ctx context.Context, tenantID, offerID, blockID, itemID uuid.UUID, req transport.UpdateItemRequest) (*transport.OfferResponse, error) {
	return s.edit(ctx, tenantID, offerID, func(b *builder.Builder) error {
		_, err := b.UpdateItem(blockID, itemID, func(it *domain.Item) {
			if req.Name != nil {
				it.Name = *req.Name
			}
			if req.Description != nil {
				it.Description = *req.Description
			}
			if req.Quantity != nil {
				it.Quantity = *req.Quantity
			}
			if req.UnitPriceCents != nil {
				it.UnitPriceCents = *req.UnitPriceCents
			}
			if req.TaxRateBps != nil {
				it.TaxRateBps = *req.TaxRateBps
			}
			if req.IsOptional != nil {
				it.IsOptional = *req.IsOptional
			}
		})
		return err
	})
}

// DeleteItem removes an item from its block
func (s *Service) DeleteItem(ctx context.Context, tenantID, offerID, blockID, itemID uuid.UUID) (*transport.OfferResponse, error) {
	return s.edit(ctx, tenantID, offerID, func(b *builder.Builder) error {
		return b.RemoveItem(blockID, itemID)
	})
}

// ReorderItems rewrites the position of every item in a block
func (s *Service) ReorderItems(ctx context.Context, tenantID, offerID, blockID uuid.UUID, req transport.ReorderItemsRequest) (*transport.OfferResponse, error) {
	return s.edit(ctx, tenantID, offerID, func(b *builder.Builder) error {
		block := b.Offer().BlockByID(blockID)
		if block == nil {
			return apperr.NotFound("block not found")
		}
		if len(req.ItemIDs) != len(block.Items) {
			return apperr.Validation("reorder must list every item of the block exactly once")
		}

		seen := make(map[uuid.UUID]bool, len(req.ItemIDs))
		reordered := make([]*domain.Item, 0, len(block.Items))
		for i, id := range req.ItemIDs {
			if seen[id] {
				return apperr.Validation("duplicate item in reorder list")
			}
			seen[id] = true
			it := block.ItemByID(id)
			if it == nil {
				return apperr.Validation("unknown item in reorder list")
			}
			it.Position = i
			reordered = append(reordered, it)
		}
		block.Items = reordered
		return nil
	})
}

// SuggestItems proposes catalog candidates (with quantities) for a block
func (s *Service) SuggestItems(ctx context.Context, tenantID, offerID, blockID uuid.UUID) ([]transport.SuggestedItemResponse, error) {
	if s.catalog == nil {
		return []transport.SuggestedItemResponse{}, nil
	}

	b := builder.New(s.offers, s.plug, s.log, tenantID)
	if err := b.Load(ctx, offerID); err != nil {
		return nil, err
	}
	if err := b.LoadCatalog(ctx, s.catalog, catalogrepo.Filters{OnlyAvailable: true}); err != nil {
		return nil, err
	}

	block := b.Offer().BlockByID(blockID)
	if block == nil {
		return nil, apperr.NotFound("block not found")
	}

	candidates, err := b.SuggestItems(blockID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.SuggestedItemResponse, len(candidates))
	for i, c := range candidates {
		description := ""
		if c.Description != nil {
			description = *c.Description
		}
		out[i] = transport.SuggestedItemResponse{
			CatalogItemID:     c.ID,
			Type:              c.Type,
			Name:              c.Name,
			Description:       description,
			PriceCents:        c.PriceCents,
			TaxRateBps:        c.TaxRateBps,
			Category:          c.Category,
			SuggestedQuantity: b.SuggestQuantityFor(c, block),
		}
	}
	return out, nil
}

// catalogItem fetches one catalog entry and rejects unavailable ones.
func (s *Service) catalogItem(ctx context.Context, tenantID, id uuid.UUID) (*catalogrepo.Item, error) {
	if s.catalog == nil {
		return nil, apperr.BadRequest("catalog is not configured")
	}
	entry, err := s.catalog.GetItemByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entry.Available {
		return nil, apperr.Validation("catalog item is not available")
	}
	return &entry, nil
}
