package service

import (
	"context"
	"fmt"

	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/transport"
	"offerbuilder_backend/platform/apperr"
	"offerbuilder_backend/platform/events"

	"github.com/google/uuid"
)

// UpdateStatus moves an offer through its lifecycle. The core table governs
// draft/sent/accepted/rejected/expired; the plugin's transition table
// contributes intermediate states on top of it.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateOfferStatusRequest) (*transport.OfferResponse, error) {
	offer, err := s.offers.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	target := domain.OfferStatus(req.Status)
	if !s.canTransition(offer.Status, target) {
		return nil, apperr.Conflict(fmt.Sprintf("cannot transition offer from %q to %q", offer.Status, target))
	}

	if err := s.offers.UpdateStatus(ctx, tenantID, id, target); err != nil {
		return nil, err
	}

	s.publish(ctx, OfferStatusChangedEvent{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: tenantID,
		OfferID:        offer.ID,
		OfferNumber:    offer.OfferNumber,
		From:           string(offer.Status),
		To:             string(target),
	})

	// A sent offer with a validity date expires on its own; the check runs
	// out of process, so scheduling failures only cost the automatic expiry.
	if target == domain.OfferStatusSent && offer.ValidUntil != nil && s.expiry != nil {
		if err := s.expiry.ScheduleOfferExpiry(ctx, tenantID, offer.ID, *offer.ValidUntil); err != nil {
			s.log.Warn("offer expiry scheduling failed", "offer_id", offer.ID, "error", err)
		}
	}

	return s.GetByID(ctx, tenantID, id)
}

// AllowedTransitions lists the statuses the offer may move to from its
// current state, merged from the core and plugin tables.
func (s *Service) AllowedTransitions(ctx context.Context, tenantID, id uuid.UUID) ([]string, error) {
	offer, err := s.offers.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[domain.OfferStatus]bool)
	out := []string{}
	for _, candidate := range []domain.OfferStatus{
		domain.OfferStatusDraft,
		domain.OfferStatusSent,
		domain.OfferStatusAccepted,
		domain.OfferStatusRejected,
		domain.OfferStatusExpired,
	} {
		if offer.Status.CanTransition(candidate) && !seen[candidate] {
			seen[candidate] = true
			out = append(out, string(candidate))
		}
	}
	if s.plug != nil {
		for _, target := range s.plug.StatusTransitions()[offer.Status] {
			if !seen[target] {
				seen[target] = true
				out = append(out, string(target))
			}
		}
	}
	return out, nil
}

func (s *Service) canTransition(from, to domain.OfferStatus) bool {
	if from.CanTransition(to) {
		return true
	}
	if s.plug == nil {
		return false
	}
	for _, allowed := range s.plug.StatusTransitions()[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
