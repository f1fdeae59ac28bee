package service

import (
	"context"

	"offerbuilder_backend/internal/offers/transport"
	"offerbuilder_backend/internal/offers/versioning"
	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
)

// ListVersions returns the offer's snapshot history, newest last, without
// snapshot bodies.
func (s *Service) ListVersions(ctx context.Context, tenantID, offerID uuid.UUID) ([]transport.VersionResponse, error) {
	if _, err := s.offers.GetByID(ctx, tenantID, offerID); err != nil {
		return nil, err
	}
	versions, err := s.versions.ListByOfferID(ctx, tenantID, offerID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.VersionResponse, len(versions))
	for i, v := range versions {
		out[i] = *transport.ToVersionResponse(v, false)
	}
	return out, nil
}

// GetVersion returns one snapshot including its full aggregate body
func (s *Service) GetVersion(ctx context.Context, tenantID, offerID uuid.UUID, sequence int64) (*transport.VersionResponse, error) {
	v, err := s.versions.GetBySequence(ctx, tenantID, offerID, sequence)
	if err != nil {
		return nil, err
	}
	return transport.ToVersionResponse(v, true), nil
}

// DiffVersions computes the structural differences between two snapshots of
// the same offer.
func (s *Service) DiffVersions(ctx context.Context, tenantID, offerID uuid.UUID, req transport.DiffVersionsRequest) (*transport.DiffResponse, error) {
	if req.From == req.To {
		return nil, apperr.BadRequest("from and to must differ")
	}

	from, err := s.versions.GetBySequence(ctx, tenantID, offerID, req.From)
	if err != nil {
		return nil, err
	}
	to, err := s.versions.GetBySequence(ctx, tenantID, offerID, req.To)
	if err != nil {
		return nil, err
	}

	d := versioning.Compute(from.Snapshot, to.Snapshot)
	return &transport.DiffResponse{
		FromSequence: from.Sequence,
		ToSequence:   to.Sequence,
		Diff:         d,
		ChangeLog:    versioning.ChangeLog(from.Snapshot, to.Snapshot, d),
	}, nil
}
