package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	offerNotFoundMsg = "offer not found"
	blockNotFoundMsg = "block not found"
	itemNotFoundMsg  = "item not found"
)

// MemoryStore is the reference in-memory implementation of the repository
// contracts. It backs tests and local development; the Postgres
// implementation is the production adapter.
type MemoryStore struct {
	mu sync.Mutex

	offers map[uuid.UUID]*domain.Offer // header only, Blocks nil
	blocks map[uuid.UUID]*domain.Block // Items nil
	items  map[uuid.UUID]*domain.Item

	adjustments map[uuid.UUID]*domain.Adjustment
	versions    map[uuid.UUID][]*domain.Version // keyed by offer id

	counters map[uuid.UUID]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		offers:      make(map[uuid.UUID]*domain.Offer),
		blocks:      make(map[uuid.UUID]*domain.Block),
		items:       make(map[uuid.UUID]*domain.Item),
		adjustments: make(map[uuid.UUID]*domain.Adjustment),
		versions:    make(map[uuid.UUID][]*domain.Version),
		counters:    make(map[uuid.UUID]int),
	}
}

// ── OfferRepository ───────────────────────────────────────────────────────────

// GetByID assembles the full offer tree, blocks and items in position order.
func (s *MemoryStore) GetByID(_ context.Context, orgID, id uuid.UUID) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assembleLocked(orgID, id)
}

func (s *MemoryStore) assembleLocked(orgID, id uuid.UUID) (*domain.Offer, error) {
	stored, ok := s.offers[id]
	if !ok || stored.OrganizationID != orgID {
		return nil, apperr.NotFound(offerNotFoundMsg)
	}
	offer := stored.Clone()
	for _, b := range s.blocks {
		if b.OfferID != id {
			continue
		}
		block := b.Clone()
		for _, it := range s.items {
			if it.BlockID == block.ID {
				block.Items = append(block.Items, it.Clone())
			}
		}
		sort.Slice(block.Items, func(i, j int) bool {
			return block.Items[i].Position < block.Items[j].Position
		})
		offer.Blocks = append(offer.Blocks, block)
	}
	sort.Slice(offer.Blocks, func(i, j int) bool {
		return offer.Blocks[i].Position < offer.Blocks[j].Position
	})
	return offer, nil
}

// List returns offer headers matching the params.
func (s *MemoryStore) List(_ context.Context, params ListParams) (*ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.Offer
	for _, o := range s.offers {
		if o.OrganizationID != params.OrganizationID {
			continue
		}
		if params.Status != nil && o.Status != *params.Status {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(o.Title+" "+o.OfferNumber), strings.ToLower(params.Search)) {
			continue
		}
		matched = append(matched, o.Clone())
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	page, size := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = total
		if size == 0 {
			size = 1
		}
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return &ListResult{
		Items:      matched[start:end],
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}, nil
}

// Create persists the full offer tree, assigning fresh identities throughout
// and clearing every PendingCreate flag.
func (s *MemoryStore) Create(_ context.Context, offer *domain.Offer) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	persisted := offer.Clone()
	persisted.ID = uuid.New()
	persisted.Version = 1
	persisted.CreatedAt = now
	persisted.UpdatedAt = now
	if persisted.OfferNumber == "" {
		persisted.OfferNumber = s.nextNumberLocked(persisted.OrganizationID)
	}

	header := persisted.Clone()
	header.Blocks = nil
	s.offers[persisted.ID] = header

	for _, block := range persisted.Blocks {
		block.ID = uuid.New()
		block.OfferID = persisted.ID
		block.PendingCreate = false
		stored := block.Clone()
		stored.Items = nil
		s.blocks[block.ID] = stored
		for _, it := range block.Items {
			it.ID = uuid.New()
			it.BlockID = block.ID
			it.PendingCreate = false
			s.items[it.ID] = it.Clone()
		}
	}
	return persisted, nil
}

// Update persists header fields after an optimistic-concurrency check.
func (s *MemoryStore) Update(_ context.Context, offer *domain.Offer) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.offers[offer.ID]
	if !ok || stored.OrganizationID != offer.OrganizationID {
		return nil, apperr.NotFound(offerNotFoundMsg)
	}
	if stored.Version != offer.Version {
		return nil, apperr.Conflict("offer was modified by another save")
	}

	header := offer.Clone()
	header.Blocks = nil
	header.Version = stored.Version + 1
	header.CreatedAt = stored.CreatedAt
	header.UpdatedAt = time.Now()
	s.offers[offer.ID] = header

	out := header.Clone()
	return out, nil
}

// Delete removes the offer, its blocks and items.
func (s *MemoryStore) Delete(_ context.Context, orgID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.offers[id]
	if !ok || stored.OrganizationID != orgID {
		return apperr.NotFound(offerNotFoundMsg)
	}
	delete(s.offers, id)
	for bid, b := range s.blocks {
		if b.OfferID == id {
			s.deleteBlockLocked(bid)
		}
	}
	return nil
}

// UpdateStatus sets the offer status without touching the version counter.
func (s *MemoryStore) UpdateStatus(_ context.Context, orgID, id uuid.UUID, status domain.OfferStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.offers[id]
	if !ok || stored.OrganizationID != orgID {
		return apperr.NotFound(offerNotFoundMsg)
	}
	stored.Status = status
	stored.UpdatedAt = time.Now()
	return nil
}

// NextOfferNumber generates the next per-organization offer number.
func (s *MemoryStore) NextOfferNumber(_ context.Context, orgID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextNumberLocked(orgID), nil
}

func (s *MemoryStore) nextNumberLocked(orgID uuid.UUID) string {
	s.counters[orgID]++
	return fmt.Sprintf("OFF-%d-%04d", time.Now().Year(), s.counters[orgID])
}

// CreateBlock persists the block record. Items are not persisted here; the
// reconciler issues per-item create calls.
func (s *MemoryStore) CreateBlock(_ context.Context, orgID uuid.UUID, block *domain.Block) (*domain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.offers[block.OfferID]
	if !ok || owner.OrganizationID != orgID {
		return nil, apperr.NotFound(offerNotFoundMsg)
	}

	stored := block.Clone()
	stored.ID = uuid.New()
	stored.PendingCreate = false
	stored.Items = nil
	s.blocks[stored.ID] = stored

	out := stored.Clone()
	return out, nil
}

// UpdateBlock persists the block's current field values.
func (s *MemoryStore) UpdateBlock(_ context.Context, orgID uuid.UUID, block *domain.Block) (*domain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.blocks[block.ID]
	if !ok {
		return nil, apperr.NotFound(blockNotFoundMsg)
	}
	if owner, ok := s.offers[stored.OfferID]; !ok || owner.OrganizationID != orgID {
		return nil, apperr.NotFound(blockNotFoundMsg)
	}

	updated := block.Clone()
	updated.OfferID = stored.OfferID
	updated.PendingCreate = false
	updated.Items = nil
	s.blocks[block.ID] = updated

	return updated.Clone(), nil
}

// DeleteBlock removes the block and cascade-deletes its items.
func (s *MemoryStore) DeleteBlock(_ context.Context, orgID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.blocks[id]
	if !ok {
		return apperr.NotFound(blockNotFoundMsg)
	}
	if owner, ok := s.offers[stored.OfferID]; !ok || owner.OrganizationID != orgID {
		return apperr.NotFound(blockNotFoundMsg)
	}
	s.deleteBlockLocked(id)
	return nil
}

func (s *MemoryStore) deleteBlockLocked(id uuid.UUID) {
	delete(s.blocks, id)
	for iid, it := range s.items {
		if it.BlockID == id {
			delete(s.items, iid)
		}
	}
}

// CreateItem persists the item with a fresh identity.
func (s *MemoryStore) CreateItem(_ context.Context, orgID uuid.UUID, item *domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkItemScopeLocked(orgID, item.BlockID); err != nil {
		return nil, err
	}

	stored := item.Clone()
	stored.ID = uuid.New()
	stored.PendingCreate = false
	s.items[stored.ID] = stored
	return stored.Clone(), nil
}

// UpdateItem persists the item's current field values.
func (s *MemoryStore) UpdateItem(_ context.Context, orgID uuid.UUID, item *domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return nil, apperr.NotFound(itemNotFoundMsg)
	}
	if err := s.checkItemScopeLocked(orgID, stored.BlockID); err != nil {
		return nil, err
	}

	updated := item.Clone()
	updated.BlockID = stored.BlockID
	updated.PendingCreate = false
	s.items[item.ID] = updated
	return updated.Clone(), nil
}

// DeleteItem removes the item.
func (s *MemoryStore) DeleteItem(_ context.Context, orgID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[id]
	if !ok {
		return apperr.NotFound(itemNotFoundMsg)
	}
	if err := s.checkItemScopeLocked(orgID, stored.BlockID); err != nil {
		return err
	}
	delete(s.items, id)
	return nil
}

// ReorderItems rewrites item positions to match orderedIDs.
func (s *MemoryStore) ReorderItems(_ context.Context, orgID, blockID uuid.UUID, orderedIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkItemScopeLocked(orgID, blockID); err != nil {
		return err
	}
	for pos, id := range orderedIDs {
		it, ok := s.items[id]
		if !ok || it.BlockID != blockID {
			return apperr.NotFound(itemNotFoundMsg)
		}
		it.Position = pos
	}
	return nil
}

func (s *MemoryStore) checkItemScopeLocked(orgID, blockID uuid.UUID) error {
	block, ok := s.blocks[blockID]
	if !ok {
		return apperr.NotFound(blockNotFoundMsg)
	}
	owner, ok := s.offers[block.OfferID]
	if !ok || owner.OrganizationID != orgID {
		return apperr.NotFound(blockNotFoundMsg)
	}
	return nil
}

// Adjustments returns the store's AdjustmentRepository view.
func (s *MemoryStore) Adjustments() AdjustmentRepository {
	return &memoryAdjustments{s: s}
}

// Versions returns the store's VersionRepository view.
func (s *MemoryStore) Versions() VersionRepository {
	return &memoryVersions{s: s}
}

// Compile-time check that MemoryStore implements the offer contract.
var _ OfferRepository = (*MemoryStore)(nil)
