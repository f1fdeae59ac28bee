package versioning

import (
	"strings"
	"testing"

	"offerbuilder_backend/internal/offers/domain"

	"github.com/google/uuid"
)

func cloneOffer(o *domain.Offer) *domain.Offer {
	out := *o
	out.Blocks = make([]*domain.Block, len(o.Blocks))
	for i, b := range o.Blocks {
		blk := *b
		blk.Items = make([]*domain.Item, len(b.Items))
		for j, it := range b.Items {
			item := *it
			blk.Items[j] = &item
		}
		out.Blocks[i] = &blk
	}
	return &out
}

func sampleOffer() *domain.Offer {
	itemA := &domain.Item{ID: uuid.New(), Name: "Coffee", Quantity: 10, UnitPriceCents: 250}
	itemB := &domain.Item{ID: uuid.New(), Name: "Croissant", Quantity: 10, UnitPriceCents: 350}
	block := &domain.Block{ID: uuid.New(), Name: "Breakfast", Items: []*domain.Item{itemA, itemB}}
	return &domain.Offer{
		ID:            uuid.New(),
		Title:         "Team offsite",
		Status:        domain.OfferStatusDraft,
		Currency:      "EUR",
		SubtotalCents: 6000,
		TotalCents:    6000,
		Blocks:        []*domain.Block{block},
	}
}

func TestNilBeforeReportsEveryBlockAdded(t *testing.T) {
	after := sampleOffer()

	d := Compute(nil, after)

	if len(d.AddedBlocks) != 1 || d.AddedBlocks[0].BlockID != after.Blocks[0].ID {
		t.Fatalf("added blocks = %+v, want the single snapshot block", d.AddedBlocks)
	}
	if len(d.RemovedBlocks) != 0 || len(d.ModifiedBlocks) != 0 {
		t.Fatalf("first snapshot should only add blocks, got %+v", d)
	}
	if len(d.ChangedFields) == 0 {
		t.Fatal("first snapshot should report changed fields")
	}
}

func TestIdenticalOffersProduceEmptyDiff(t *testing.T) {
	before := sampleOffer()
	after := cloneOffer(before)

	d := Compute(before, after)

	if !d.Empty() {
		t.Fatalf("diff of identical offers not empty: %+v", d)
	}
}

func TestModifiedItemRecordsDeltas(t *testing.T) {
	before := sampleOffer()
	after := cloneOffer(before)
	after.Blocks[0].Items[0].Quantity = 14
	after.Blocks[0].Items[0].UnitPriceCents = 200

	d := Compute(before, after)

	if len(d.ModifiedBlocks) != 1 {
		t.Fatalf("modified blocks = %d, want 1", len(d.ModifiedBlocks))
	}
	mods := d.ModifiedBlocks[0].ModifiedItems
	if len(mods) != 1 {
		t.Fatalf("modified items = %+v, want 1 entry", mods)
	}
	if mods[0].QuantityDelta != 4 {
		t.Fatalf("quantity delta = %d, want 4", mods[0].QuantityDelta)
	}
	if mods[0].UnitPriceDeltaCents != -50 {
		t.Fatalf("unit price delta = %d, want -50", mods[0].UnitPriceDeltaCents)
	}
	if !containsField(d.ChangedFields, "blocks") {
		t.Fatalf("changed fields = %v, want blocks listed", d.ChangedFields)
	}
}

func TestRemovedItemAndBlock(t *testing.T) {
	before := sampleOffer()
	extra := &domain.Block{ID: uuid.New(), Name: "Dinner"}
	before.Blocks = append(before.Blocks, extra)

	after := cloneOffer(before)
	after.Blocks = after.Blocks[:1]
	after.Blocks[0].Items = after.Blocks[0].Items[:1]

	d := Compute(before, after)

	if len(d.RemovedBlocks) != 1 || d.RemovedBlocks[0].Name != "Dinner" {
		t.Fatalf("removed blocks = %+v, want Dinner", d.RemovedBlocks)
	}
	if len(d.ModifiedBlocks) != 1 {
		t.Fatalf("modified blocks = %+v, want the breakfast block", d.ModifiedBlocks)
	}
	removed := d.ModifiedBlocks[0].RemovedItems
	if len(removed) != 1 || removed[0].Name != "Croissant" {
		t.Fatalf("removed items = %+v, want Croissant", removed)
	}
}

func TestChangedFieldsTrackScalarEdits(t *testing.T) {
	before := sampleOffer()
	after := cloneOffer(before)
	after.Title = "Team offsite, day two"
	after.Status = domain.OfferStatusSent
	after.TotalCents = 6500

	d := Compute(before, after)

	for _, want := range []string{"title", "status", "totalCents"} {
		if !containsField(d.ChangedFields, want) {
			t.Fatalf("changed fields = %v, want %q included", d.ChangedFields, want)
		}
	}
	if containsField(d.ChangedFields, "blocks") {
		t.Fatalf("changed fields = %v, blocks should not be listed", d.ChangedFields)
	}
}

func TestChangeLogRendersTextDelta(t *testing.T) {
	before := sampleOffer()
	after := cloneOffer(before)
	after.Title = "Team offsite catering"
	after.Blocks[0].Items[0].Quantity = 12

	d := Compute(before, after)
	log := ChangeLog(before, after, d)

	if !strings.Contains(log, "title: ") || !strings.Contains(log, "[+") {
		t.Fatalf("change log missing title delta:\n%s", log)
	}
	if !strings.Contains(log, `item "Coffee" changed (quantity +2)`) {
		t.Fatalf("change log missing item delta:\n%s", log)
	}
}

func TestChangeLogForEmptyDiff(t *testing.T) {
	before := sampleOffer()
	after := cloneOffer(before)

	d := Compute(before, after)
	if got := ChangeLog(before, after, d); got != "no structural changes" {
		t.Fatalf("change log = %q, want the empty marker", got)
	}
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
