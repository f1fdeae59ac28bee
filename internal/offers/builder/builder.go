// Package builder contains the stateful offer-authoring orchestrator. A
// Builder loads one offer and the catalog, applies local edits optimistically
// to its in-memory aggregate, and reconciles a full-tree save against the
// repository contract.
//
// A Builder is single-flight: it is owned by one editing session
// and must not be shared between goroutines. Two builders editing the same
// offer do not observe each other's in-flight changes; the repository's
// version counter rejects the later, stale save with a conflict.
package builder

import (
	"context"
	"time"

	catalogrepo "offerbuilder_backend/internal/catalog/repository"
	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/plugin"
	"offerbuilder_backend/internal/offers/pricing"
	"offerbuilder_backend/internal/offers/repository"
	"offerbuilder_backend/internal/offers/suggest"
	"offerbuilder_backend/internal/offers/validation"
	"offerbuilder_backend/platform/apperr"
	"offerbuilder_backend/platform/logger"

	"github.com/google/uuid"
)

// CatalogReader is the narrow catalog port the builder needs.
type CatalogReader interface {
	GetItems(ctx context.Context, orgID uuid.UUID, filters catalogrepo.Filters) ([]catalogrepo.Item, error)
}

// SaveStats counts the repository calls one reconciliation pass issued.
type SaveStats struct {
	BlocksCreated int
	BlocksUpdated int
	BlocksDeleted int
	ItemsCreated  int
	ItemsUpdated  int
	ItemsDeleted  int
}

// Builder coordinates local edits and reconciliation for a single offer.
type Builder struct {
	repo   repository.OfferRepository
	plug   plugin.Plugin
	prices *pricing.Engine
	rules  *validation.Engine
	logic  *suggest.Engine
	log    *logger.Logger

	orgID uuid.UUID

	// offer is the live aggregate, mutated in place between repository
	// calls. baseline is the last persisted state; the save diff is
	// computed against it.
	offer    *domain.Offer
	baseline *domain.Offer

	catalog []catalogrepo.Item
}

// New creates a builder for the given organization.
func New(repo repository.OfferRepository, plug plugin.Plugin, log *logger.Logger, orgID uuid.UUID) *Builder {
	return &Builder{
		repo:   repo,
		plug:   plug,
		prices: pricing.New(plug),
		rules:  validation.New(plug),
		logic:  suggest.New(plug),
		log:    log,
		orgID:  orgID,
	}
}

// Load fetches the offer and records it as the reconciliation baseline.
func (b *Builder) Load(ctx context.Context, offerID uuid.UUID) error {
	offer, err := b.repo.GetByID(ctx, b.orgID, offerID)
	if err != nil {
		return err
	}
	b.offer = offer
	b.baseline = offer.Clone()
	return nil
}

// LoadCatalog fetches catalog items for the suggestion engine.
func (b *Builder) LoadCatalog(ctx context.Context, reader CatalogReader, filters catalogrepo.Filters) error {
	items, err := reader.GetItems(ctx, b.orgID, filters)
	if err != nil {
		return err
	}
	b.catalog = items
	return nil
}

// Offer returns the live aggregate.
func (b *Builder) Offer() *domain.Offer {
	return b.offer
}

// Catalog returns the loaded catalog items.
func (b *Builder) Catalog() []catalogrepo.Item {
	return b.catalog
}

// Validate runs the plugin rule sets plus the block metadata schema over the
// live aggregate. The result is advisory; Save never consults it.
func (b *Builder) Validate() []string {
	if b.offer == nil {
		return nil
	}
	violations := b.rules.ValidateOffer(b.offer)
	if b.plug != nil {
		for _, block := range b.offer.Blocks {
			violations = append(violations, validation.ValidateBlockMetadata(b.plug, block)...)
		}
	}
	return violations
}

// SuggestItems proposes catalog candidates for the block.
func (b *Builder) SuggestItems(blockID uuid.UUID) ([]catalogrepo.Item, error) {
	block := b.offer.BlockByID(blockID)
	if block == nil {
		return nil, apperr.NotFound("block not found")
	}
	return b.logic.SuggestItems(block, b.offer, b.catalog), nil
}

// AddBlock appends a new block seeded from the plugin's template for its
// position. The block carries a placeholder identity and PendingCreate until
// the next save persists it.
func (b *Builder) AddBlock(name string) *domain.Block {
	position := len(b.offer.Blocks)
	tpl := b.logic.SuggestBlockTemplate(position)
	if name == "" {
		name = tpl.Name
	}

	block := &domain.Block{
		ID:            uuid.New(),
		OfferID:       b.offer.ID,
		Name:          name,
		Position:      position,
		Metadata:      tpl.Metadata,
		PendingCreate: true,
	}
	if block.Metadata == nil {
		block.Metadata = make(map[string]any)
	}
	b.offer.Blocks = append(b.offer.Blocks, block)
	b.Recalculate()
	return block
}

// UpdateBlock applies field changes to a block in memory.
func (b *Builder) UpdateBlock(blockID uuid.UUID, name *string, metadata map[string]any) (*domain.Block, error) {
	block := b.offer.BlockByID(blockID)
	if block == nil {
		return nil, apperr.NotFound("block not found")
	}
	if name != nil {
		block.Name = *name
	}
	if metadata != nil {
		if block.Metadata == nil {
			block.Metadata = make(map[string]any)
		}
		for k, v := range metadata {
			if v == nil {
				delete(block.Metadata, k)
				continue
			}
			block.Metadata[k] = v
		}
	}
	b.Recalculate()
	return block, nil
}

// RemoveBlock drops the block from the aggregate. The next save issues the
// delete-block call for blocks that were already persisted.
func (b *Builder) RemoveBlock(blockID uuid.UUID) error {
	for i, block := range b.offer.Blocks {
		if block.ID == blockID {
			b.offer.Blocks = append(b.offer.Blocks[:i], b.offer.Blocks[i+1:]...)
			for j := i; j < len(b.offer.Blocks); j++ {
				b.offer.Blocks[j].Position = j
			}
			b.Recalculate()
			return nil
		}
	}
	return apperr.NotFound("block not found")
}

// AddItem appends an item to a block with a placeholder identity.
func (b *Builder) AddItem(blockID uuid.UUID, item *domain.Item) (*domain.Item, error) {
	block := b.offer.BlockByID(blockID)
	if block == nil {
		return nil, apperr.NotFound("block not found")
	}

	item.ID = uuid.New()
	item.BlockID = block.ID
	item.Position = len(block.Items)
	item.PendingCreate = true
	block.Items = append(block.Items, item)
	b.Recalculate()
	return item, nil
}

// AddCatalogItem appends an item built from a catalog entry. A zero quantity
// asks the suggestion engine for one.
func (b *Builder) AddCatalogItem(blockID uuid.UUID, catalogItem catalogrepo.Item, quantity int64) (*domain.Item, error) {
	block := b.offer.BlockByID(blockID)
	if block == nil {
		return nil, apperr.NotFound("block not found")
	}
	if quantity <= 0 {
		quantity = b.logic.SuggestQuantity(catalogItem, block, b.offer)
	}

	refID := catalogItem.ID
	description := ""
	if catalogItem.Description != nil {
		description = *catalogItem.Description
	}
	item := &domain.Item{
		Type:           catalogItem.Type,
		Name:           catalogItem.Name,
		Description:    description,
		CatalogItemID:  &refID,
		Quantity:       quantity,
		UnitPriceCents: catalogItem.PriceCents,
		TaxRateBps:     catalogItem.TaxRateBps,
	}
	return b.AddItem(blockID, item)
}

// SuggestQuantityFor proposes a quantity for adding the catalog entry to the
// block, without mutating anything.
func (b *Builder) SuggestQuantityFor(entry catalogrepo.Item, block *domain.Block) int64 {
	return b.logic.SuggestQuantity(entry, block, b.offer)
}

// UpdateItem applies field changes to an item in memory.
func (b *Builder) UpdateItem(blockID, itemID uuid.UUID, apply func(*domain.Item)) (*domain.Item, error) {
	block := b.offer.BlockByID(blockID)
	if block == nil {
		return nil, apperr.NotFound("block not found")
	}
	item := block.ItemByID(itemID)
	if item == nil {
		return nil, apperr.NotFound("item not found")
	}
	apply(item)
	b.Recalculate()
	return item, nil
}

// RemoveItem drops an item from its block.
func (b *Builder) RemoveItem(blockID, itemID uuid.UUID) error {
	block := b.offer.BlockByID(blockID)
	if block == nil {
		return apperr.NotFound("block not found")
	}
	for i, it := range block.Items {
		if it.ID == itemID {
			block.Items = append(block.Items[:i], block.Items[i+1:]...)
			for j := i; j < len(block.Items); j++ {
				block.Items[j].Position = j
			}
			b.Recalculate()
			return nil
		}
	}
	return apperr.NotFound("item not found")
}

// Recalculate rewrites every computed money field from the pricing engine:
// item line totals, block subtotals, then the offer's subtotal, tax,
// discount and total.
func (b *Builder) Recalculate() {
	if b.offer == nil {
		return
	}
	for _, block := range b.offer.Blocks {
		for _, it := range block.Items {
			it.LineTotalCents = b.prices.CalculateItemPrice(it, block, b.offer)
		}
		block.SubtotalCents = b.prices.CalculateBlockSubtotal(block, b.offer)
	}

	var subtotal int64
	for _, block := range b.offer.Blocks {
		subtotal += block.SubtotalCents
	}
	b.offer.SubtotalCents = subtotal
	b.offer.TaxCents = b.prices.CalculateTax(pricing.AllItems(b.offer))
	b.offer.DiscountCents = b.prices.CalculateDiscount(subtotal, b.offer)
	b.offer.TotalCents = b.prices.CalculateTotal(subtotal, b.offer.TaxCents, b.offer.DiscountCents)
}

// Save reconciles the locally edited tree against the repository:
//
//  1. The offer header is updated (stale version counters surface as a
//     conflict before any block call is issued).
//  2. Blocks flagged PendingCreate get a create-block call, then a
//     create-item call per item; all items of a new block are new,
//     whatever their flags say.
//  3. Persisted blocks get an update-block call, then create-item or
//     update-item per item depending on its PendingCreate flag.
//  4. Items present in the baseline of a block but absent now get a
//     delete-item call.
//  5. Blocks present in the baseline but absent now get a delete-block
//     call; the repository cascade-deletes their items.
//  6. The offer is re-fetched by id and becomes the new live aggregate
//     and baseline.
//
// Calls are issued sequentially, awaiting each before the next. The pass is
// not transactional: a failure propagates immediately, already-issued calls
// stay applied, and nothing is rolled back or retried. The caller's recovery
// path is to re-fetch and re-diff.
func (b *Builder) Save(ctx context.Context) (*domain.Offer, error) {
	if b.offer == nil {
		return nil, apperr.BadRequest("no offer loaded")
	}

	b.Recalculate()
	b.offer.UpdatedAt = time.Now()

	var stats SaveStats

	header, err := b.repo.Update(ctx, b.offer)
	if err != nil {
		return nil, err
	}
	b.offer.Version = header.Version

	for _, block := range b.offer.Blocks {
		if block.PendingCreate {
			if err := b.saveNewBlock(ctx, block, &stats); err != nil {
				return nil, err
			}
			continue
		}
		if err := b.saveExistingBlock(ctx, block, &stats); err != nil {
			return nil, err
		}
	}

	for _, prev := range b.baseline.Blocks {
		if b.offer.BlockByID(prev.ID) != nil {
			continue
		}
		if err := b.repo.DeleteBlock(ctx, b.orgID, prev.ID); err != nil {
			return nil, err
		}
		stats.BlocksDeleted++
	}

	fresh, err := b.repo.GetByID(ctx, b.orgID, b.offer.ID)
	if err != nil {
		return nil, err
	}
	b.offer = fresh
	b.baseline = fresh.Clone()

	if b.log != nil {
		b.log.SaveReconciled(fresh.ID.String(),
			stats.BlocksCreated+stats.ItemsCreated,
			stats.BlocksUpdated+stats.ItemsUpdated,
			stats.BlocksDeleted+stats.ItemsDeleted,
		)
	}
	return fresh, nil
}

func (b *Builder) saveNewBlock(ctx context.Context, block *domain.Block, stats *SaveStats) error {
	persisted, err := b.repo.CreateBlock(ctx, b.orgID, block)
	if err != nil {
		return err
	}
	stats.BlocksCreated++
	block.ID = persisted.ID
	block.PendingCreate = false

	for _, it := range block.Items {
		it.BlockID = block.ID
		created, err := b.repo.CreateItem(ctx, b.orgID, it)
		if err != nil {
			return err
		}
		stats.ItemsCreated++
		it.ID = created.ID
		it.PendingCreate = false
	}
	return nil
}

func (b *Builder) saveExistingBlock(ctx context.Context, block *domain.Block, stats *SaveStats) error {
	if _, err := b.repo.UpdateBlock(ctx, b.orgID, block); err != nil {
		return err
	}
	stats.BlocksUpdated++

	for _, it := range block.Items {
		if it.PendingCreate {
			it.BlockID = block.ID
			created, err := b.repo.CreateItem(ctx, b.orgID, it)
			if err != nil {
				return err
			}
			stats.ItemsCreated++
			it.ID = created.ID
			it.PendingCreate = false
			continue
		}
		if _, err := b.repo.UpdateItem(ctx, b.orgID, it); err != nil {
			return err
		}
		stats.ItemsUpdated++
	}

	baselineBlock := b.baseline.BlockByID(block.ID)
	if baselineBlock == nil {
		return nil
	}
	for _, prev := range baselineBlock.Items {
		if block.ItemByID(prev.ID) != nil {
			continue
		}
		if err := b.repo.DeleteItem(ctx, b.orgID, prev.ID); err != nil {
			return err
		}
		stats.ItemsDeleted++
	}
	return nil
}
