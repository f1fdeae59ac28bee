package builder

import (
	"context"
	"fmt"
	"testing"

	catalogrepo "offerbuilder_backend/internal/catalog/repository"
	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/plugin/catering"
	"offerbuilder_backend/internal/offers/repository"
	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
)

// recordingRepo implements repository.OfferRepository and records every call
// in order. Create calls hand out server-side identities distinct from the
// placeholders the builder passes in.
type recordingRepo struct {
	calls []string
	fresh *domain.Offer

	updateErr error
	blockErr  error
}

var _ repository.OfferRepository = (*recordingRepo)(nil)

func (r *recordingRepo) GetByID(_ context.Context, _, _ uuid.UUID) (*domain.Offer, error) {
	r.calls = append(r.calls, "get-offer")
	return r.fresh.Clone(), nil
}

func (r *recordingRepo) List(_ context.Context, _ repository.ListParams) (*repository.ListResult, error) {
	r.calls = append(r.calls, "list")
	return &repository.ListResult{}, nil
}

func (r *recordingRepo) Create(_ context.Context, offer *domain.Offer) (*domain.Offer, error) {
	r.calls = append(r.calls, "create-offer")
	return offer, nil
}

func (r *recordingRepo) Update(_ context.Context, offer *domain.Offer) (*domain.Offer, error) {
	r.calls = append(r.calls, "update-offer")
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	out := offer.Clone()
	out.Version++
	return out, nil
}

func (r *recordingRepo) Delete(_ context.Context, _, _ uuid.UUID) error {
	r.calls = append(r.calls, "delete-offer")
	return nil
}

func (r *recordingRepo) UpdateStatus(_ context.Context, _, _ uuid.UUID, _ domain.OfferStatus) error {
	r.calls = append(r.calls, "update-status")
	return nil
}

func (r *recordingRepo) NextOfferNumber(_ context.Context, _ uuid.UUID) (string, error) {
	return "OFF-2026-0001", nil
}

func (r *recordingRepo) CreateBlock(_ context.Context, _ uuid.UUID, block *domain.Block) (*domain.Block, error) {
	r.calls = append(r.calls, "create-block:"+block.Name)
	out := block.Clone()
	out.ID = uuid.New()
	out.PendingCreate = false
	return out, nil
}

func (r *recordingRepo) UpdateBlock(_ context.Context, _ uuid.UUID, block *domain.Block) (*domain.Block, error) {
	r.calls = append(r.calls, "update-block:"+block.Name)
	if r.blockErr != nil {
		return nil, r.blockErr
	}
	return block.Clone(), nil
}

func (r *recordingRepo) DeleteBlock(_ context.Context, _, id uuid.UUID) error {
	r.calls = append(r.calls, "delete-block:"+shortID(id))
	return nil
}

func (r *recordingRepo) CreateItem(_ context.Context, _ uuid.UUID, item *domain.Item) (*domain.Item, error) {
	r.calls = append(r.calls, "create-item:"+item.Name)
	out := item.Clone()
	out.ID = uuid.New()
	out.PendingCreate = false
	return out, nil
}

func (r *recordingRepo) UpdateItem(_ context.Context, _ uuid.UUID, item *domain.Item) (*domain.Item, error) {
	r.calls = append(r.calls, "update-item:"+item.Name)
	return item.Clone(), nil
}

func (r *recordingRepo) DeleteItem(_ context.Context, _, id uuid.UUID) error {
	r.calls = append(r.calls, "delete-item:"+shortID(id))
	return nil
}

func (r *recordingRepo) ReorderItems(_ context.Context, _, _ uuid.UUID, _ []uuid.UUID) error {
	r.calls = append(r.calls, "reorder-items")
	return nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func persistedOffer(orgID uuid.UUID) *domain.Offer {
	offerID := uuid.New()
	blockA := &domain.Block{
		ID:      uuid.New(),
		OfferID: offerID,
		Name:    "Lunch",
		Items: []*domain.Item{
			{ID: uuid.New(), Type: catering.TypeMenuItem, Name: "Sandwich platter", Quantity: 10, UnitPriceCents: 850, TaxRateBps: 900},
			{ID: uuid.New(), Type: catering.TypeBeverage, Name: "Coffee", Quantity: 20, UnitPriceCents: 250, TaxRateBps: 900},
		},
	}
	blockB := &domain.Block{
		ID:       uuid.New(),
		OfferID:  offerID,
		Name:     "Equipment",
		Position: 1,
		Items: []*domain.Item{
			{ID: uuid.New(), Type: catering.TypeEquipment, Name: "Chafing dish", Quantity: 2, UnitPriceCents: 1500, TaxRateBps: 2100},
		},
	}
	return &domain.Offer{
		ID:             offerID,
		OrganizationID: orgID,
		OfferNumber:    "OFF-2026-0001",
		Title:          "Office lunch",
		Status:         domain.OfferStatusDraft,
		Currency:       "EUR",
		Version:        1,
		Blocks:         []*domain.Block{blockA, blockB},
	}
}

func countPrefix(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func newLoadedBuilder(t *testing.T) (*Builder, *recordingRepo) {
	t.Helper()
	orgID := uuid.New()
	offer := persistedOffer(orgID)
	repo := &recordingRepo{fresh: offer.Clone()}

	b := New(repo, catering.New(), nil, orgID)
	b.offer = offer
	b.baseline = offer.Clone()
	return b, repo
}

func TestSaveReconcilesMixedEdits(t *testing.T) {
	b, repo := newLoadedBuilder(t)
	offer := b.Offer()
	blockA, blockB := offer.Blocks[0], offer.Blocks[1]

	// Rename A and bump its first item.
	name := "Lunch buffet"
	if _, err := b.UpdateBlock(blockA.ID, &name, nil); err != nil {
		t.Fatalf("UpdateBlock: %v", err)
	}
	if _, err := b.UpdateItem(blockA.ID, blockA.Items[0].ID, func(it *domain.Item) {
		it.Quantity = 12
	}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	// Drop B entirely, add a new block C with one item.
	if err := b.RemoveBlock(blockB.ID); err != nil {
		t.Fatalf("RemoveBlock: %v", err)
	}
	blockC := b.AddBlock("Dessert")
	if _, err := b.AddItem(blockC.ID, &domain.Item{
		Type: catering.TypeMenuItem, Name: "Tiramisu", Quantity: 10, UnitPriceCents: 450, TaxRateBps: 900,
	}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if _, err := b.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if got := countPrefix(repo.calls, "update-block:"); got != 1 {
		t.Fatalf("update-block calls = %d, want 1: %v", got, repo.calls)
	}
	if got := countPrefix(repo.calls, "create-block:"); got != 1 {
		t.Fatalf("create-block calls = %d, want 1: %v", got, repo.calls)
	}
	if got := countPrefix(repo.calls, "delete-block:"); got != 1 {
		t.Fatalf("delete-block calls = %d, want 1: %v", got, repo.calls)
	}
	// A's two items are updates, C's item is a create.
	if got := countPrefix(repo.calls, "update-item:"); got != 2 {
		t.Fatalf("update-item calls = %d, want 2: %v", got, repo.calls)
	}
	if got := countPrefix(repo.calls, "create-item:"); got != 1 {
		t.Fatalf("create-item calls = %d, want 1: %v", got, repo.calls)
	}
	// B's item goes with the block cascade, never individually.
	if got := countPrefix(repo.calls, "delete-item:"); got != 0 {
		t.Fatalf("delete-item calls = %d, want 0: %v", got, repo.calls)
	}

	// New-block items are created after their block.
	blockIdx, itemIdx := -1, -1
	for i, c := range repo.calls {
		switch c {
		case "create-block:Dessert":
			blockIdx = i
		case "create-item:Tiramisu":
			itemIdx = i
		}
	}
	if blockIdx == -1 || itemIdx == -1 || itemIdx < blockIdx {
		t.Fatalf("create-item must follow create-block: %v", repo.calls)
	}

	// The header update precedes every block call, the re-fetch ends the pass.
	if repo.calls[0] != "update-offer" {
		t.Fatalf("first call = %q, want update-offer", repo.calls[0])
	}
	if last := repo.calls[len(repo.calls)-1]; last != "get-offer" {
		t.Fatalf("last call = %q, want get-offer", last)
	}
}

func TestSaveDeletesRemovedItems(t *testing.T) {
	b, repo := newLoadedBuilder(t)
	blockA := b.Offer().Blocks[0]
	removed := blockA.Items[1].ID

	if err := b.RemoveItem(blockA.ID, removed); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, err := b.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	want := "delete-item:" + shortID(removed)
	found := false
	for _, c := range repo.calls {
		if c == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing %q in calls: %v", want, repo.calls)
	}
	// Every surviving persisted item is updated on save: the remaining
	// item of the edited block plus the Equipment block's item.
	if got := countPrefix(repo.calls, "update-item:"); got != 2 {
		t.Fatalf("update-item calls = %d, want 2: %v", got, repo.calls)
	}
}

func TestSaveAdoptsServerIdentities(t *testing.T) {
	b, repo := newLoadedBuilder(t)

	blockC := b.AddBlock("Beverages")
	placeholder := blockC.ID
	if !blockC.PendingCreate {
		t.Fatal("new block must be flagged as pending")
	}

	// Second save must not re-create the block.
	if _, err := b.Save(context.Background()); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	firstCreates := countPrefix(repo.calls, "create-block:")

	// The re-fetch replaced the aggregate; the fake's fresh tree has no C,
	// so the pending flag path is exhausted. Verify the persisted copy in
	// flight carried the server identity, not the placeholder.
	if firstCreates != 1 {
		t.Fatalf("create-block calls = %d, want 1", firstCreates)
	}
	for _, c := range repo.calls {
		if c == "delete-block:"+shortID(placeholder) {
			t.Fatalf("placeholder identity leaked into a delete call: %v", repo.calls)
		}
	}
}

func TestSaveStopsOnConflict(t *testing.T) {
	b, repo := newLoadedBuilder(t)
	repo.updateErr = apperr.Conflict("offer was modified concurrently")

	b.AddBlock("Extras")
	if _, err := b.Save(context.Background()); apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("Save error kind = %v, want conflict", apperr.GetKind(err))
	}
	// No block call may run after the header update fails.
	if got := countPrefix(repo.calls, "create-block:"); got != 0 {
		t.Fatalf("create-block calls after conflict = %d, want 0: %v", got, repo.calls)
	}
}

func TestSaveStopsMidwayOnBlockError(t *testing.T) {
	b, repo := newLoadedBuilder(t)
	repo.blockErr = fmt.Errorf("connection reset")

	if _, err := b.Save(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	// The first block update fails; no later call is issued and nothing is
	// rolled back.
	if got := countPrefix(repo.calls, "update-item:"); got != 0 {
		t.Fatalf("update-item calls after failure = %d, want 0: %v", got, repo.calls)
	}
	if last := repo.calls[len(repo.calls)-1]; last != "update-block:Lunch" {
		t.Fatalf("last call = %q, want update-block:Lunch", last)
	}
}

func TestRecalculateRewritesTotals(t *testing.T) {
	b, _ := newLoadedBuilder(t)
	offer := b.Offer()

	b.Recalculate()

	// 10*850 + 20*250 = 13500; 2*1500 = 3000.
	if got := offer.Blocks[0].SubtotalCents; got != 13500 {
		t.Fatalf("block A subtotal = %d, want 13500", got)
	}
	if got := offer.SubtotalCents; got != 16500 {
		t.Fatalf("subtotal = %d, want 16500", got)
	}
	// Tax per item: 8500@900=765, 5000@900=450, 3000@2100=630.
	if got := offer.TaxCents; got != 1845 {
		t.Fatalf("tax = %d, want 1845", got)
	}
	if got := offer.TotalCents; got != 18345 {
		t.Fatalf("total = %d, want 18345", got)
	}
}

func TestAddCatalogItemSuggestsQuantity(t *testing.T) {
	b, _ := newLoadedBuilder(t)
	blockA := b.Offer().Blocks[0]
	blockA.Metadata = map[string]any{catering.FieldHeadcount: float64(30)}

	item, err := b.AddCatalogItem(blockA.ID, catalogrepo.Item{
		ID:         uuid.New(),
		Type:       catering.TypeBeverage,
		Name:       "Orange juice",
		Category:   "beverage",
		PriceCents: 300,
		TaxRateBps: 900,
		Available:  true,
	}, 0)
	if err != nil {
		t.Fatalf("AddCatalogItem: %v", err)
	}
	// Beverages scale at two per head.
	if item.Quantity != 60 {
		t.Fatalf("suggested quantity = %d, want 60", item.Quantity)
	}
	if !item.PendingCreate {
		t.Fatal("catalog item must enter as pending")
	}
	if item.CatalogItemID == nil {
		t.Fatal("catalog provenance must be kept")
	}
}
