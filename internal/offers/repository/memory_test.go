package repository

import (
	"context"
	"strings"
	"testing"

	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
)

func seedOffer(t *testing.T, store *MemoryStore, orgID uuid.UUID) *domain.Offer {
	t.Helper()
	offer := &domain.Offer{
		OrganizationID: orgID,
		Title:          "Summer gala",
		Status:         domain.OfferStatusDraft,
		Currency:       "EUR",
		Blocks: []*domain.Block{
			{
				Name:          "Dinner",
				Position:      0,
				PendingCreate: true,
				Items: []*domain.Item{
					{Type: "menu_item", Name: "Risotto", Quantity: 40, UnitPriceCents: 1850, Position: 0, PendingCreate: true},
					{Type: "beverage", Name: "Wine", Quantity: 20, UnitPriceCents: 2400, Position: 1, PendingCreate: true},
				},
			},
			{Name: "Logistics", Position: 1, PendingCreate: true},
		},
	}
	created, err := store.Create(context.Background(), offer)
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return created
}

func TestCreateAssignsIdentitiesAndClearsPendingFlags(t *testing.T) {
	store := NewMemoryStore()
	created := seedOffer(t, store, uuid.New())

	if created.ID == uuid.Nil {
		t.Fatal("offer id not assigned")
	}
	if created.Version != 1 {
		t.Fatalf("version = %d, want 1", created.Version)
	}
	if created.OfferNumber == "" || !strings.HasPrefix(created.OfferNumber, "OFF-") {
		t.Fatalf("offer number = %q, want OFF- prefix", created.OfferNumber)
	}
	for _, b := range created.Blocks {
		if b.ID == uuid.Nil || b.OfferID != created.ID || b.PendingCreate {
			t.Fatalf("block not fully persisted: %+v", b)
		}
		for _, it := range b.Items {
			if it.ID == uuid.Nil || it.BlockID != b.ID || it.PendingCreate {
				t.Fatalf("item not fully persisted: %+v", it)
			}
		}
	}
}

func TestGetByIDAssemblesTreeInPositionOrder(t *testing.T) {
	store := NewMemoryStore()
	orgID := uuid.New()
	created := seedOffer(t, store, orgID)

	got, err := store.GetByID(context.Background(), orgID, created.ID)
	if err != nil {
		t.Fatalf("get offer: %v", err)
	}
	if len(got.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(got.Blocks))
	}
	if got.Blocks[0].Name != "Dinner" || got.Blocks[1].Name != "Logistics" {
		t.Fatalf("block order = %q, %q", got.Blocks[0].Name, got.Blocks[1].Name)
	}
	items := got.Blocks[0].Items
	if len(items) != 2 || items[0].Name != "Risotto" || items[1].Name != "Wine" {
		t.Fatalf("item order wrong: %+v", items)
	}
}

func TestGetByIDIsScopedToOrganization(t *testing.T) {
	store := NewMemoryStore()
	created := seedOffer(t, store, uuid.New())

	_, err := store.GetByID(context.Background(), uuid.New(), created.ID)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("cross-organization read = %v, want not found", err)
	}
}

func TestUpdateRejectsStaleVersion(t *testing.T) {
	store := NewMemoryStore()
	orgID := uuid.New()
	created := seedOffer(t, store, orgID)

	first := created.Clone()
	first.Title = "Summer gala, revised"
	updated, err := store.Update(context.Background(), first)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("version after update = %d, want 2", updated.Version)
	}

	stale := created.Clone() // still carries version 1
	stale.Title = "Summer gala, lost update"
	if _, err := store.Update(context.Background(), stale); apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("stale update = %v, want conflict", err)
	}
}

func TestDeleteCascadesToBlocksAndItems(t *testing.T) {
	store := NewMemoryStore()
	orgID := uuid.New()
	created := seedOffer(t, store, orgID)

	if err := store.Delete(context.Background(), orgID, created.ID); err != nil {
		t.Fatalf("delete offer: %v", err)
	}
	if _, err := store.GetByID(context.Background(), orgID, created.ID); apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("deleted offer still readable: %v", err)
	}
	orphan := created.Blocks[0].Items[0]
	if _, err := store.UpdateItem(context.Background(), orgID, orphan); apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("item survived offer delete: %v", err)
	}
}

func TestBlockAndItemLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orgID := uuid.New()
	created := seedOffer(t, store, orgID)

	block, err := store.CreateBlock(ctx, orgID, &domain.Block{OfferID: created.ID, Name: "Tasting", Position: 2})
	if err != nil {
		t.Fatalf("create block: %v", err)
	}

	item, err := store.CreateItem(ctx, orgID, &domain.Item{BlockID: block.ID, Type: "service", Name: "Chef table", Quantity: 1, UnitPriceCents: 25000})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	item.Quantity = 2
	if _, err := store.UpdateItem(ctx, orgID, item); err != nil {
		t.Fatalf("update item: %v", err)
	}

	got, err := store.GetByID(ctx, orgID, created.ID)
	if err != nil {
		t.Fatalf("reload offer: %v", err)
	}
	tasting := got.BlockByID(block.ID)
	if tasting == nil || len(tasting.Items) != 1 || tasting.Items[0].Quantity != 2 {
		t.Fatalf("tasting block state wrong: %+v", tasting)
	}

	if err := store.DeleteBlock(ctx, orgID, block.ID); err != nil {
		t.Fatalf("delete block: %v", err)
	}
	if _, err := store.UpdateItem(ctx, orgID, item); apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("item survived block delete: %v", err)
	}
}

func TestReorderItemsRewritesPositions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orgID := uuid.New()
	created := seedOffer(t, store, orgID)

	dinner := created.Blocks[0]
	reversed := []uuid.UUID{dinner.Items[1].ID, dinner.Items[0].ID}
	if err := store.ReorderItems(ctx, orgID, dinner.ID, reversed); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	got, err := store.GetByID(ctx, orgID, created.ID)
	if err != nil {
		t.Fatalf("reload offer: %v", err)
	}
	items := got.BlockByID(dinner.ID).Items
	if items[0].Name != "Wine" || items[1].Name != "Risotto" {
		t.Fatalf("order after reorder: %q, %q", items[0].Name, items[1].Name)
	}
}

func TestNextOfferNumberCountsPerOrganization(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orgA, orgB := uuid.New(), uuid.New()

	first, err := store.NextOfferNumber(ctx, orgA)
	if err != nil {
		t.Fatalf("next number: %v", err)
	}
	second, err := store.NextOfferNumber(ctx, orgA)
	if err != nil {
		t.Fatalf("next number: %v", err)
	}
	other, err := store.NextOfferNumber(ctx, orgB)
	if err != nil {
		t.Fatalf("next number: %v", err)
	}

	if !strings.HasSuffix(first, "-0001") || !strings.HasSuffix(second, "-0002") {
		t.Fatalf("sequence for one organization = %q, %q", first, second)
	}
	if !strings.HasSuffix(other, "-0001") {
		t.Fatalf("counter leaked across organizations: %q", other)
	}
}
