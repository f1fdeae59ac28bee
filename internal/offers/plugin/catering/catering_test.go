package catering

import (
	"strings"
	"testing"

	catalogrepo "offerbuilder_backend/internal/catalog/repository"
	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/validation"
)

func validOffer() *domain.Offer {
	return &domain.Offer{
		Title:    "Company retreat",
		Currency: "EUR",
		Blocks: []*domain.Block{
			{
				Name: "Lunch",
				Metadata: map[string]any{
					FieldDate:      "2026-09-12",
					FieldStartTime: "12:00",
					FieldEndTime:   "14:00",
					FieldHeadcount: 30,
				},
				Items: []*domain.Item{
					{Type: TypeMenuItem, Name: "Sandwich platter", Quantity: 10, UnitPriceCents: 850, TaxRateBps: 900},
				},
			},
		},
	}
}

func TestValidOfferHasNoViolations(t *testing.T) {
	engine := validation.New(New())
	if got := engine.ValidateOffer(validOffer()); len(got) != 0 {
		t.Fatalf("expected no violations, got %v", got)
	}
}

func TestRulesCollectAllViolations(t *testing.T) {
	offer := validOffer()
	offer.Title = " "
	offer.Blocks[0].Items[0].Name = ""
	offer.Blocks[0].Items[0].TaxRateBps = 12000

	engine := validation.New(New())
	got := engine.ValidateOffer(offer)
	if len(got) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(got), got)
	}
}

func TestTimeWindowRule(t *testing.T) {
	offer := validOffer()
	offer.Blocks[0].Metadata[FieldStartTime] = "14:00"
	offer.Blocks[0].Metadata[FieldEndTime] = "12:00"

	engine := validation.New(New())
	got := engine.ValidateOffer(offer)
	if len(got) != 1 || !strings.Contains(got[0], "ends before it starts") {
		t.Fatalf("expected a time-window violation, got %v", got)
	}
}

func TestUnknownItemTypeIsFlagged(t *testing.T) {
	offer := validOffer()
	offer.Blocks[0].Items[0].Type = "fireworks"

	engine := validation.New(New())
	got := engine.ValidateOffer(offer)
	if len(got) != 1 || !strings.Contains(got[0], "unknown type") {
		t.Fatalf("expected an unknown-type violation, got %v", got)
	}
}

func TestBlockMetadataSchemaRequiresFields(t *testing.T) {
	block := &domain.Block{Name: "Dinner", Metadata: map[string]any{
		FieldDate: "2026-09-12",
	}}

	got := validation.ValidateBlockMetadata(New(), block)
	// startTime, endTime and headcount missing; location is optional.
	if len(got) != 3 {
		t.Fatalf("expected 3 missing-field violations, got %d: %v", len(got), got)
	}
}

func TestSuggestQuantityScalesWithHeadcount(t *testing.T) {
	block := &domain.Block{Metadata: map[string]any{FieldHeadcount: 30}}
	s := New().Suggestions()

	cases := []struct {
		category string
		want     int64
	}{
		{"appetizer", 90},
		{"side", 45},
		{"beverage", 60},
		{"main", 30},
		{"equipment", 1}, // unlisted categories do not scale
	}
	for _, tc := range cases {
		item := catalogrepo.Item{Category: tc.category}
		if got := s.SuggestQuantity(item, block, &domain.Offer{}); got != tc.want {
			t.Fatalf("SuggestQuantity(%s) = %d, want %d", tc.category, got, tc.want)
		}
	}
}

func TestSuggestItemsFiltersByMealTag(t *testing.T) {
	block := &domain.Block{Metadata: map[string]any{FieldStartTime: "08:30"}}
	catalog := []catalogrepo.Item{
		{Name: "Croissants", Available: true, Tags: []string{"meal:breakfast"}},
		{Name: "BBQ set", Available: true, Tags: []string{"meal:dinner"}},
		{Name: "Sparkling water", Available: true}, // untagged fits any meal
		{Name: "Off menu", Available: false, Tags: []string{"meal:breakfast"}},
	}

	got := New().Suggestions().SuggestItems(block, &domain.Offer{}, catalog)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %v", len(got), got)
	}
	if got[0].Name != "Croissants" || got[1].Name != "Sparkling water" {
		t.Fatalf("unexpected candidates: %v", got)
	}
}

func TestSuggestBlockTemplateCyclesByPosition(t *testing.T) {
	s := New().Suggestions()
	if tpl := s.SuggestBlockTemplate(0); tpl.Name != "Breakfast" {
		t.Fatalf("position 0 = %q, want Breakfast", tpl.Name)
	}
	if tpl := s.SuggestBlockTemplate(1); tpl.Name != "Lunch" {
		t.Fatalf("position 1 = %q, want Lunch", tpl.Name)
	}
	if tpl := s.SuggestBlockTemplate(4); tpl.Name != "Lunch" {
		t.Fatalf("position 4 = %q, want Lunch", tpl.Name)
	}

	// Returned metadata must be a copy, not the shared template map.
	tpl := s.SuggestBlockTemplate(0)
	tpl.Metadata[FieldStartTime] = "06:00"
	if again := s.SuggestBlockTemplate(0); again.Metadata[FieldStartTime] != "08:00" {
		t.Fatal("template metadata leaked between calls")
	}
}

func TestStatusTransitionsAddTastingRound(t *testing.T) {
	transitions := New().StatusTransitions()
	fromDraft := transitions[domain.OfferStatusDraft]
	if len(fromDraft) != 1 || fromDraft[0] != OfferStatusTastingScheduled {
		t.Fatalf("unexpected draft transitions: %v", fromDraft)
	}
	fromTasting := transitions[OfferStatusTastingScheduled]
	if len(fromTasting) != 2 {
		t.Fatalf("unexpected tasting transitions: %v", fromTasting)
	}
}

func TestFormatPrice(t *testing.T) {
	f := New().Formatter()
	cases := []struct {
		cents    int64
		currency string
		want     string
	}{
		{184550, "EUR", "€1845.50"},
		{99, "USD", "$0.99"},
		{-2500, "EUR", "-€25.00"},
		{1000, "SEK", "SEK 10.00"},
	}
	for _, tc := range cases {
		if got := f.FormatPrice(tc.cents, tc.currency); got != tc.want {
			t.Fatalf("FormatPrice(%d, %s) = %q, want %q", tc.cents, tc.currency, got, tc.want)
		}
	}
}

func TestFormatQuantityPinsNonEditableTypes(t *testing.T) {
	f := New().Formatter()
	delivery := &domain.Item{Type: TypeDelivery, Quantity: 3}
	if got := f.FormatQuantity(delivery); got != "1 x" {
		t.Fatalf("delivery quantity = %q, want 1 x", got)
	}
	beverage := &domain.Item{Type: TypeBeverage, Quantity: 12}
	if got := f.FormatQuantity(beverage); got != "12 x" {
		t.Fatalf("beverage quantity = %q, want 12 x", got)
	}
}
