package repository

import (
	"context"
	"sort"
	"time"

	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
)

const adjustmentNotFoundMsg = "adjustment not found"

// memoryAdjustments is the AdjustmentRepository view over a MemoryStore.
type memoryAdjustments struct {
	s *MemoryStore
}

// GetByOfferID returns the offer's adjustments, oldest first.
func (m *memoryAdjustments) GetByOfferID(_ context.Context, orgID, offerID uuid.UUID) ([]*domain.Adjustment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if owner, ok := m.s.offers[offerID]; !ok || owner.OrganizationID != orgID {
		return nil, apperr.NotFound(offerNotFoundMsg)
	}

	var out []*domain.Adjustment
	for _, adj := range m.s.adjustments {
		if adj.OfferID == offerID {
			out = append(out, cloneAdjustment(adj))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetByID returns a single adjustment with its comments.
func (m *memoryAdjustments) GetByID(_ context.Context, orgID, id uuid.UUID) (*domain.Adjustment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.getLocked(orgID, id)
}

func (m *memoryAdjustments) getLocked(orgID, id uuid.UUID) (*domain.Adjustment, error) {
	adj, ok := m.s.adjustments[id]
	if !ok {
		return nil, apperr.NotFound(adjustmentNotFoundMsg)
	}
	if owner, ok := m.s.offers[adj.OfferID]; !ok || owner.OrganizationID != orgID {
		return nil, apperr.NotFound(adjustmentNotFoundMsg)
	}
	return cloneAdjustment(adj), nil
}

// Create persists a new adjustment in pending state.
func (m *memoryAdjustments) Create(_ context.Context, adj *domain.Adjustment) (*domain.Adjustment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.offers[adj.OfferID]; !ok {
		return nil, apperr.NotFound(offerNotFoundMsg)
	}

	now := time.Now()
	stored := cloneAdjustment(adj)
	stored.ID = uuid.New()
	if stored.Status == "" {
		stored.Status = domain.AdjustmentStatusPending
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.s.adjustments[stored.ID] = stored
	return cloneAdjustment(stored), nil
}

// Update persists the adjustment's current field values. Comments are
// append-only and managed by AddComment, not replaced here.
func (m *memoryAdjustments) Update(_ context.Context, adj *domain.Adjustment) (*domain.Adjustment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.adjustments[adj.ID]
	if !ok {
		return nil, apperr.NotFound(adjustmentNotFoundMsg)
	}

	updated := cloneAdjustment(adj)
	updated.OfferID = stored.OfferID
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now()
	updated.Comments = stored.Comments
	m.s.adjustments[adj.ID] = updated
	return cloneAdjustment(updated), nil
}

// Delete removes an adjustment and its comments.
func (m *memoryAdjustments) Delete(_ context.Context, orgID, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, err := m.getLocked(orgID, id); err != nil {
		return err
	}
	delete(m.s.adjustments, id)
	return nil
}

// AddComment appends a comment to an adjustment; comments never affect the
// review state machine.
func (m *memoryAdjustments) AddComment(_ context.Context, orgID uuid.UUID, comment *domain.AdjustmentComment) (*domain.AdjustmentComment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	adj, ok := m.s.adjustments[comment.AdjustmentID]
	if !ok {
		return nil, apperr.NotFound(adjustmentNotFoundMsg)
	}
	if owner, ok := m.s.offers[adj.OfferID]; !ok || owner.OrganizationID != orgID {
		return nil, apperr.NotFound(adjustmentNotFoundMsg)
	}

	stored := *comment
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	adj.Comments = append(adj.Comments, stored)

	out := stored
	return &out, nil
}

func cloneAdjustment(adj *domain.Adjustment) *domain.Adjustment {
	cp := *adj
	if adj.ProposedChange != nil {
		cp.ProposedChange = make(map[string]any, len(adj.ProposedChange))
		for k, v := range adj.ProposedChange {
			cp.ProposedChange[k] = v
		}
	}
	if adj.ReviewedBy != nil {
		rb := *adj.ReviewedBy
		cp.ReviewedBy = &rb
	}
	if adj.ReviewedAt != nil {
		ra := *adj.ReviewedAt
		cp.ReviewedAt = &ra
	}
	cp.Comments = append([]domain.AdjustmentComment(nil), adj.Comments...)
	return &cp
}

// Compile-time check.
var _ AdjustmentRepository = (*memoryAdjustments)(nil)
