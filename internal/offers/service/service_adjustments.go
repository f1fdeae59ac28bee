package service

import (
	"context"
	"fmt"
	"time"

	"offerbuilder_backend/internal/offers/builder"
	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/transport"
	"offerbuilder_backend/platform/apperr"
	"offerbuilder_backend/platform/events"
	"offerbuilder_backend/platform/sanitize"

	"github.com/google/uuid"
)

// CreateAdjustment proposes a change against a sent offer. The offer itself
// stays untouched until the adjustment is approved and applied.
func (s *Service) CreateAdjustment(ctx context.Context, tenantID, offerID uuid.UUID, req transport.CreateAdjustmentRequest) (*transport.AdjustmentResponse, error) {
	offer, err := s.offers.GetByID(ctx, tenantID, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status != domain.OfferStatusSent {
		return nil, apperr.Conflict(fmt.Sprintf("adjustments can only be proposed against sent offers, offer is %q", offer.Status))
	}

	targetKind := domain.TargetKind(req.TargetKind)
	if err := s.checkTarget(offer, targetKind, req.TargetID); err != nil {
		return nil, err
	}

	now := time.Now()
	adj := &domain.Adjustment{
		ID:             uuid.New(),
		OfferID:        offerID,
		RequestedBy:    sanitize.Text(req.RequestedBy),
		RequesterRole:  req.RequesterRole,
		Type:           domain.AdjustmentType(req.Type),
		TargetKind:     targetKind,
		TargetID:       req.TargetID,
		Description:    sanitize.Text(req.Description),
		ProposedChange: req.ProposedChange,
		Status:         domain.AdjustmentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.adjustments.Create(ctx, adj)
	if err != nil {
		return nil, err
	}

	s.log.AdjustmentEvent(created.ID.String(), offerID.String(), "", string(domain.AdjustmentStatusPending))
	s.publish(ctx, AdjustmentCreatedEvent{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: tenantID,
		OfferID:        offerID,
		AdjustmentID:   created.ID,
		Type:           string(created.Type),
	})

	return transport.ToAdjustmentResponse(created), nil
}

// ListAdjustments returns every adjustment proposed against the offer
func (s *Service) ListAdjustments(ctx context.Context, tenantID, offerID uuid.UUID) ([]transport.AdjustmentResponse, error) {
	adjs, err := s.adjustments.GetByOfferID(ctx, tenantID, offerID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.AdjustmentResponse, len(adjs))
	for i, a := range adjs {
		out[i] = *transport.ToAdjustmentResponse(a)
	}
	return out, nil
}

// GetAdjustment returns one adjustment with its comment thread
func (s *Service) GetAdjustment(ctx context.Context, tenantID, id uuid.UUID) (*transport.AdjustmentResponse, error) {
	adj, err := s.adjustments.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return transport.ToAdjustmentResponse(adj), nil
}

// ReviewAdjustment moves a pending adjustment to approved or rejected. Any
// other starting state is a conflict; rejected and applied are terminal.
func (s *Service) ReviewAdjustment(ctx context.Context, tenantID, id uuid.UUID, reviewer string, req transport.ReviewAdjustmentRequest) (*transport.AdjustmentResponse, error) {
	adj, err := s.adjustments.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	target := domain.AdjustmentStatus(req.Decision)
	if !adj.Status.CanTransition(target) {
		return nil, apperr.Conflict(fmt.Sprintf("adjustment in status %q cannot be %s", adj.Status, target))
	}

	from := adj.Status
	now := time.Now()
	adj.Status = target
	adj.ReviewedBy = &reviewer
	adj.ReviewedAt = &now
	adj.UpdatedAt = now

	updated, err := s.adjustments.Update(ctx, adj)
	if err != nil {
		return nil, err
	}

	if req.Comment != "" {
		comment := &domain.AdjustmentComment{
			ID:           uuid.New(),
			AdjustmentID: adj.ID,
			Author:       reviewer,
			Body:         sanitize.Text(req.Comment),
			CreatedAt:    now,
		}
		if _, err := s.adjustments.AddComment(ctx, tenantID, comment); err != nil {
			s.log.RepositoryError("adjustments.add_comment", err)
		} else {
			updated.Comments = append(updated.Comments, *comment)
		}
	}

	s.log.AdjustmentEvent(adj.ID.String(), adj.OfferID.String(), string(from), string(target))
	s.publish(ctx, AdjustmentReviewedEvent{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: tenantID,
		OfferID:        adj.OfferID,
		AdjustmentID:   adj.ID,
		Decision:       string(target),
	})

	return transport.ToAdjustmentResponse(updated), nil
}

// ApplyAdjustment merges an approved adjustment's proposed change into the
// offer through a normal builder session, records the realized price impact,
// and marks the adjustment applied.
func (s *Service) ApplyAdjustment(ctx context.Context, tenantID, id uuid.UUID) (*transport.AdjustmentResponse, error) {
	adj, err := s.adjustments.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !adj.Status.CanTransition(domain.AdjustmentStatusApplied) {
		return nil, apperr.Conflict(fmt.Sprintf("adjustment in status %q cannot be applied", adj.Status))
	}

	offer, err := s.offers.GetByID(ctx, tenantID, adj.OfferID)
	if err != nil {
		return nil, err
	}
	totalBefore := offer.TotalCents

	// Sent offers are locked for direct edits; applying an approved
	// adjustment is the one sanctioned path through.
	saved, err := s.editSession(ctx, tenantID, adj.OfferID, false, func(b *builder.Builder) error {
		return s.mergeAdjustment(b, adj)
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	adj.Status = domain.AdjustmentStatusApplied
	adj.PriceImpactCents = saved.TotalCents - totalBefore
	adj.UpdatedAt = now

	updated, err := s.adjustments.Update(ctx, adj)
	if err != nil {
		return nil, err
	}

	s.log.AdjustmentEvent(adj.ID.String(), adj.OfferID.String(), string(domain.AdjustmentStatusApproved), string(domain.AdjustmentStatusApplied))
	s.publish(ctx, AdjustmentAppliedEvent{
		BaseEvent:        events.NewBaseEvent(),
		OrganizationID:   tenantID,
		OfferID:          adj.OfferID,
		AdjustmentID:     adj.ID,
		PriceImpactCents: adj.PriceImpactCents,
	})

	return transport.ToAdjustmentResponse(updated), nil
}

// AddAdjustmentComment appends a comment to the thread. Comments are legal
// in every state and never move the state machine.
func (s *Service) AddAdjustmentComment(ctx context.Context, tenantID, id uuid.UUID, req transport.AdjustmentCommentRequest) (*transport.AdjustmentResponse, error) {
	adj, err := s.adjustments.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	comment := &domain.AdjustmentComment{
		ID:           uuid.New(),
		AdjustmentID: adj.ID,
		Author:       sanitize.Text(req.AuthorName),
		Body:         sanitize.Text(req.Body),
		CreatedAt:    time.Now(),
	}
	if _, err := s.adjustments.AddComment(ctx, tenantID, comment); err != nil {
		return nil, err
	}
	return s.GetAdjustment(ctx, tenantID, id)
}

// checkTarget verifies the adjustment points at an entity that exists in the
// offer tree.
func (s *Service) checkTarget(offer *domain.Offer, kind domain.TargetKind, targetID uuid.UUID) error {
	switch kind {
	case domain.TargetOffer:
		return nil
	case domain.TargetBlock:
		if offer.BlockByID(targetID) == nil {
			return apperr.Validation("target block does not exist in the offer")
		}
	case domain.TargetItem:
		for _, block := range offer.Blocks {
			if block.ItemByID(targetID) != nil {
				return nil
			}
		}
		return apperr.Validation("target item does not exist in the offer")
	default:
		return apperr.Validation("unknown target kind")
	}
	return nil
}

// mergeAdjustment translates the proposed change into builder edits.
func (s *Service) mergeAdjustment(b *builder.Builder, adj *domain.Adjustment) error {
	switch adj.Type {
	case domain.AdjustmentTypeQuantity:
		qty, ok := changeInt64(adj.ProposedChange, "quantity")
		if !ok || qty < 1 {
			return apperr.Validation("quantity adjustment requires a positive quantity")
		}
		blockID, err := s.blockOfItem(b.Offer(), adj.TargetID)
		if err != nil {
			return err
		}
		_, err = b.UpdateItem(blockID, adj.TargetID, func(it *domain.Item) {
			it.Quantity = qty
		})
		return err

	case domain.AdjustmentTypePrice:
		price, ok := changeInt64(adj.ProposedChange, "unitPriceCents")
		if !ok || price < 0 {
			return apperr.Validation("price adjustment requires a non-negative unitPriceCents")
		}
		blockID, err := s.blockOfItem(b.Offer(), adj.TargetID)
		if err != nil {
			return err
		}
		_, err = b.UpdateItem(blockID, adj.TargetID, func(it *domain.Item) {
			it.UnitPriceCents = price
		})
		return err

	case domain.AdjustmentTypeItemAdd:
		name, _ := changeString(adj.ProposedChange, "name")
		itemType, _ := changeString(adj.ProposedChange, "type")
		if name == "" || itemType == "" {
			return apperr.Validation("item_add adjustment requires name and type")
		}
		qty, ok := changeInt64(adj.ProposedChange, "quantity")
		if !ok || qty < 1 {
			qty = 1
		}
		price, _ := changeInt64(adj.ProposedChange, "unitPriceCents")
		taxBps, _ := changeInt64(adj.ProposedChange, "taxRateBps")
		description, _ := changeString(adj.ProposedChange, "description")

		_, err := b.AddItem(adj.TargetID, &domain.Item{
			Type:           itemType,
			Name:           name,
			Description:    description,
			Quantity:       qty,
			UnitPriceCents: price,
			TaxRateBps:     int(taxBps),
		})
		return err

	case domain.AdjustmentTypeItemRemove:
		blockID, err := s.blockOfItem(b.Offer(), adj.TargetID)
		if err != nil {
			return err
		}
		return b.RemoveItem(blockID, adj.TargetID)

	case domain.AdjustmentTypeTimeChange:
		metadata := make(map[string]any, len(adj.ProposedChange))
		for k, v := range adj.ProposedChange {
			metadata[k] = v
		}
		_, err := b.UpdateBlock(adj.TargetID, nil, metadata)
		return err

	case domain.AdjustmentTypeOther:
		// Free-form proposals merge into offer metadata; humans sort out
		// the rest through comments.
		offer := b.Offer()
		if offer.Metadata == nil {
			offer.Metadata = make(map[string]any)
		}
		for k, v := range adj.ProposedChange {
			offer.Metadata[k] = v
		}
		return nil

	default:
		return apperr.Validation("unknown adjustment type")
	}
}

func (s *Service) blockOfItem(offer *domain.Offer, itemID uuid.UUID) (uuid.UUID, error) {
	for _, block := range offer.Blocks {
		if block.ItemByID(itemID) != nil {
			return block.ID, nil
		}
	}
	return uuid.Nil, apperr.NotFound("target item no longer exists in the offer")
}

func changeInt64(change map[string]any, key string) (int64, bool) {
	switch v := change[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func changeString(change map[string]any, key string) (string, bool) {
	v, ok := change[key].(string)
	return v, ok
}
