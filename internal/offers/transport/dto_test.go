package transport

import (
	"testing"

	"offerbuilder_backend/internal/offers/domain"

	"github.com/google/uuid"
)

func TestToOfferResponseMapsOptionalNotes(t *testing.T) {
	offer := &domain.Offer{
		ID:       uuid.New(),
		Title:    "Harvest dinner",
		Status:   domain.OfferStatusDraft,
		Currency: "EUR",
		Blocks: []*domain.Block{
			{
				ID:   uuid.New(),
				Name: "Dinner",
				Items: []*domain.Item{
					{ID: uuid.New(), Type: "menu_item", Name: "Risotto", Description: "Porcini and parmesan"},
				},
			},
		},
	}

	resp := ToOfferResponse(offer)
	if resp.Notes != "" {
		t.Fatalf("notes = %q, want empty for an offer without notes", resp.Notes)
	}
	if got := resp.Blocks[0].Items[0].Description; got != "Porcini and parmesan" {
		t.Fatalf("item description = %q", got)
	}

	notes := "Allergy list attached."
	offer.Notes = &notes
	if got := ToOfferResponse(offer).Notes; got != notes {
		t.Fatalf("notes = %q, want %q", got, notes)
	}
}
