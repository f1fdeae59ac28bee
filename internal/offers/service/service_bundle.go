package service

import (
	"context"

	"offerbuilder_backend/internal/offers/transport"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// GetBundle returns the offer with its adjustments and version history in
// one response. The three reads are independent, so they run concurrently;
// only the save path is sequential.
func (s *Service) GetBundle(ctx context.Context, tenantID, id uuid.UUID) (*transport.OfferBundleResponse, error) {
	var (
		offer       *transport.OfferResponse
		adjustments []transport.AdjustmentResponse
		versions    []transport.VersionResponse
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		offer, err = s.GetByID(ctx, tenantID, id)
		return err
	})
	g.Go(func() error {
		var err error
		adjustments, err = s.ListAdjustments(ctx, tenantID, id)
		return err
	})
	g.Go(func() error {
		var err error
		versions, err = s.ListVersions(ctx, tenantID, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &transport.OfferBundleResponse{
		Offer:       *offer,
		Adjustments: adjustments,
		Versions:    versions,
	}, nil
}
