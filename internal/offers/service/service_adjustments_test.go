package service

import (
	"context"
	"testing"

	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/plugin/catering"
	"offerbuilder_backend/internal/offers/repository"
	"offerbuilder_backend/internal/offers/transport"
	"offerbuilder_backend/platform/apperr"
	"offerbuilder_backend/platform/logger"

	"github.com/google/uuid"
)

type adjustmentFixture struct {
	svc    *Service
	orgID  uuid.UUID
	offer  *domain.Offer
	itemID uuid.UUID
}

// newAdjustmentFixture seeds a sent offer with one dinner block so
// adjustments have something to target. Tax-free prices keep the expected
// totals trivial to compute by hand.
func newAdjustmentFixture(t *testing.T) *adjustmentFixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	orgID := uuid.New()

	offer, err := store.Create(ctx, &domain.Offer{
		OrganizationID: orgID,
		Title:          "Autumn banquet",
		Status:         domain.OfferStatusDraft,
		Currency:       "EUR",
		DiscountType:   domain.DiscountPercentage,
		SubtotalCents:  74000,
		TotalCents:     74000,
		Blocks: []*domain.Block{
			{
				Name:          "Dinner",
				PendingCreate: true,
				Metadata: map[string]any{
					"date":      "2026-10-03",
					"startTime": "18:00",
					"endTime":   "22:00",
					"headcount": 40,
				},
				Items: []*domain.Item{
					{
						Type:           "menu_item",
						Name:           "Risotto",
						Quantity:       40,
						UnitPriceCents: 1850,
						LineTotalCents: 74000,
						PendingCreate:  true,
					},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("seed offer: %v", err)
	}
	if err := store.UpdateStatus(ctx, orgID, offer.ID, domain.OfferStatusSent); err != nil {
		t.Fatalf("mark offer sent: %v", err)
	}

	svc := New(store, store.Adjustments(), store.Versions(), catering.New(), logger.NewNop())
	return &adjustmentFixture{
		svc:    svc,
		orgID:  orgID,
		offer:  offer,
		itemID: offer.Blocks[0].Items[0].ID,
	}
}

func (f *adjustmentFixture) propose(t *testing.T) *transport.AdjustmentResponse {
	t.Helper()
	adj, err := f.svc.CreateAdjustment(context.Background(), f.orgID, f.offer.ID, transport.CreateAdjustmentRequest{
		Type:           string(domain.AdjustmentTypeQuantity),
		TargetKind:     string(domain.TargetItem),
		TargetID:       f.itemID,
		ProposedChange: map[string]any{"quantity": 50},
		RequestedBy:    "Client kitchen",
		RequesterRole:  "customer",
	})
	if err != nil {
		t.Fatalf("create adjustment: %v", err)
	}
	return adj
}

func TestCreateAdjustmentRequiresSentOffer(t *testing.T) {
	f := newAdjustmentFixture(t)
	ctx := context.Background()

	if err := f.svc.offers.UpdateStatus(ctx, f.orgID, f.offer.ID, domain.OfferStatusDraft); err != nil {
		t.Fatalf("reset status: %v", err)
	}

	_, err := f.svc.CreateAdjustment(ctx, f.orgID, f.offer.ID, transport.CreateAdjustmentRequest{
		Type:           string(domain.AdjustmentTypeQuantity),
		TargetKind:     string(domain.TargetItem),
		TargetID:       f.itemID,
		ProposedChange: map[string]any{"quantity": 50},
	})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("adjustment against draft = %v, want conflict", err)
	}
}

func TestCreateAdjustmentValidatesTarget(t *testing.T) {
	f := newAdjustmentFixture(t)

	_, err := f.svc.CreateAdjustment(context.Background(), f.orgID, f.offer.ID, transport.CreateAdjustmentRequest{
		Type:           string(domain.AdjustmentTypeQuantity),
		TargetKind:     string(domain.TargetItem),
		TargetID:       uuid.New(),
		ProposedChange: map[string]any{"quantity": 50},
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("unknown target = %v, want validation error", err)
	}
}

func TestReviewMovesPendingToApprovedOnce(t *testing.T) {
	f := newAdjustmentFixture(t)
	ctx := context.Background()
	adj := f.propose(t)

	reviewed, err := f.svc.ReviewAdjustment(ctx, f.orgID, adj.ID, "Pat", transport.ReviewAdjustmentRequest{
		Decision: string(domain.AdjustmentStatusApproved),
		Comment:  "Numbers confirmed by the venue.",
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != string(domain.AdjustmentStatusApproved) {
		t.Fatalf("status = %q, want approved", reviewed.Status)
	}
	if reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != "Pat" {
		t.Fatalf("reviewedBy = %v, want Pat", reviewed.ReviewedBy)
	}
	if len(reviewed.Comments) != 1 {
		t.Fatalf("comments = %d, want the review comment", len(reviewed.Comments))
	}

	_, err = f.svc.ReviewAdjustment(ctx, f.orgID, adj.ID, "Pat", transport.ReviewAdjustmentRequest{
		Decision: string(domain.AdjustmentStatusRejected),
	})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("second review = %v, want conflict", err)
	}
}

func TestApplyRequiresApproval(t *testing.T) {
	f := newAdjustmentFixture(t)
	adj := f.propose(t)

	_, err := f.svc.ApplyAdjustment(context.Background(), f.orgID, adj.ID)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("apply on pending = %v, want conflict", err)
	}
}

func TestApplyMergesChangeAndRecordsPriceImpact(t *testing.T) {
	f := newAdjustmentFixture(t)
	ctx := context.Background()
	adj := f.propose(t)

	if _, err := f.svc.ReviewAdjustment(ctx, f.orgID, adj.ID, "Pat", transport.ReviewAdjustmentRequest{
		Decision: string(domain.AdjustmentStatusApproved),
	}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	applied, err := f.svc.ApplyAdjustment(ctx, f.orgID, adj.ID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied.Status != string(domain.AdjustmentStatusApplied) {
		t.Fatalf("status = %q, want applied", applied.Status)
	}
	// 10 extra portions at 1850 cents each.
	if applied.PriceImpactCents != 18500 {
		t.Fatalf("price impact = %d cents, want 18500", applied.PriceImpactCents)
	}

	offer, err := f.svc.offers.GetByID(ctx, f.orgID, f.offer.ID)
	if err != nil {
		t.Fatalf("reload offer: %v", err)
	}
	if got := offer.Blocks[0].Items[0].Quantity; got != 50 {
		t.Fatalf("item quantity = %d, want 50", got)
	}
	if offer.TotalCents != 92500 {
		t.Fatalf("offer total = %d cents, want 92500", offer.TotalCents)
	}

	if _, err := f.svc.ApplyAdjustment(ctx, f.orgID, adj.ID); apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("second apply = %v, want conflict", err)
	}
}

func TestRejectedAdjustmentNeverTouchesTheOffer(t *testing.T) {
	f := newAdjustmentFixture(t)
	ctx := context.Background()
	adj := f.propose(t)

	if _, err := f.svc.ReviewAdjustment(ctx, f.orgID, adj.ID, "Pat", transport.ReviewAdjustmentRequest{
		Decision: string(domain.AdjustmentStatusRejected),
		Comment:  "Kitchen capacity is maxed out.",
	}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if _, err := f.svc.ApplyAdjustment(ctx, f.orgID, adj.ID); apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("apply after reject = %v, want conflict", err)
	}

	offer, err := f.svc.offers.GetByID(ctx, f.orgID, f.offer.ID)
	if err != nil {
		t.Fatalf("reload offer: %v", err)
	}
	if got := offer.Blocks[0].Items[0].Quantity; got != 40 {
		t.Fatalf("item quantity = %d, want unchanged 40", got)
	}
}

func TestApplyTimeChangeAppendsVersion(t *testing.T) {
	f := newAdjustmentFixture(t)
	ctx := context.Background()
	blockID := f.offer.Blocks[0].ID

	adj, err := f.svc.CreateAdjustment(ctx, f.orgID, f.offer.ID, transport.CreateAdjustmentRequest{
		Type:           string(domain.AdjustmentTypeTimeChange),
		TargetKind:     string(domain.TargetBlock),
		TargetID:       blockID,
		ProposedChange: map[string]any{"startTime": "19:00", "endTime": "23:00"},
	})
	if err != nil {
		t.Fatalf("create adjustment: %v", err)
	}
	if _, err := f.svc.ReviewAdjustment(ctx, f.orgID, adj.ID, "Pat", transport.ReviewAdjustmentRequest{
		Decision: string(domain.AdjustmentStatusApproved),
	}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	applied, err := f.svc.ApplyAdjustment(ctx, f.orgID, adj.ID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied.PriceImpactCents != 0 {
		t.Fatalf("price impact = %d, want 0 for a pure time change", applied.PriceImpactCents)
	}

	// A metadata-only change sits outside the structural diff, but the
	// application still completed a save, so history gains a version.
	versions, err := f.svc.ListVersions(ctx, f.orgID, f.offer.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("versions after apply = %d, want 1", len(versions))
	}

	offer, err := f.svc.offers.GetByID(ctx, f.orgID, f.offer.ID)
	if err != nil {
		t.Fatalf("reload offer: %v", err)
	}
	meta := offer.Blocks[0].Metadata
	if meta["startTime"] != "19:00" || meta["endTime"] != "23:00" {
		t.Fatalf("block metadata after apply = %v", meta)
	}
}
