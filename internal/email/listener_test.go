package email

import (
	"context"
	"testing"

	offerdomain "offerbuilder_backend/internal/offers/domain"
	offersvc "offerbuilder_backend/internal/offers/service"
	offertransport "offerbuilder_backend/internal/offers/transport"
	"offerbuilder_backend/platform/apperr"
	"offerbuilder_backend/platform/events"
	"offerbuilder_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingSender struct {
	sent     []string
	toEmails []string
	viewURL  string
}

func (r *recordingSender) SendOfferEmail(_ context.Context, toEmail, _, _, _, viewURL string, _ ...Attachment) error {
	r.sent = append(r.sent, "offer")
	r.toEmails = append(r.toEmails, toEmail)
	r.viewURL = viewURL
	return nil
}

func (r *recordingSender) SendOfferAcceptedEmail(_ context.Context, toEmail, _, _, _ string) error {
	r.sent = append(r.sent, "accepted")
	r.toEmails = append(r.toEmails, toEmail)
	return nil
}

func (r *recordingSender) SendOfferExpiredEmail(_ context.Context, toEmail, _, _, _ string) error {
	r.sent = append(r.sent, "expired")
	r.toEmails = append(r.toEmails, toEmail)
	return nil
}

type stubOffers struct {
	offer *offerdomain.Offer
}

func (s *stubOffers) GetByID(_ context.Context, orgID, id uuid.UUID) (*offerdomain.Offer, error) {
	if s.offer == nil || s.offer.OrganizationID != orgID || s.offer.ID != id {
		return nil, apperr.NotFound("offer not found")
	}
	return s.offer, nil
}

type stubSharer struct{}

func (stubSharer) ShareOffer(_ context.Context, _, id uuid.UUID) (*offertransport.ShareTokenResponse, error) {
	return &offertransport.ShareTokenResponse{URL: "https://app.test/public/offers/" + id.String()}, nil
}

func statusEvent(offer *offerdomain.Offer, to offerdomain.OfferStatus) offersvc.OfferStatusChangedEvent {
	return offersvc.OfferStatusChangedEvent{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: offer.OrganizationID,
		OfferID:        offer.ID,
		OfferNumber:    offer.OfferNumber,
		To:             string(to),
	}
}

func testListenerOffer(metadata map[string]any) *offerdomain.Offer {
	return &offerdomain.Offer{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		OfferNumber:    "OFF-2026-0007",
		Metadata:       metadata,
	}
}

func TestStatusSentDeliversOfferEmail(t *testing.T) {
	offer := testListenerOffer(map[string]any{
		"customer_email": "pat@example.com",
		"customer_name":  "Pat",
	})
	sender := &recordingSender{}
	l := NewListener(sender, &stubOffers{offer: offer}, stubSharer{}, "Acme Catering", logger.NewNop())

	if err := l.onStatusChanged(context.Background(), statusEvent(offer, offerdomain.OfferStatusSent)); err != nil {
		t.Fatalf("onStatusChanged: %v", err)
	}

	if len(sender.sent) != 1 || sender.sent[0] != "offer" {
		t.Fatalf("expected one offer email, got %v", sender.sent)
	}
	if sender.toEmails[0] != "pat@example.com" {
		t.Fatalf("unexpected recipient %q", sender.toEmails[0])
	}
	if sender.viewURL == "" {
		t.Fatal("expected the email to carry a public view link")
	}
}

func TestStatusAcceptedDeliversThankYou(t *testing.T) {
	offer := testListenerOffer(map[string]any{"customer_email": "pat@example.com"})
	sender := &recordingSender{}
	l := NewListener(sender, &stubOffers{offer: offer}, stubSharer{}, "Acme Catering", logger.NewNop())

	if err := l.onStatusChanged(context.Background(), statusEvent(offer, offerdomain.OfferStatusAccepted)); err != nil {
		t.Fatalf("onStatusChanged: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "accepted" {
		t.Fatalf("expected one accepted email, got %v", sender.sent)
	}
}

func TestMissingCustomerEmailIsSilentlySkipped(t *testing.T) {
	offer := testListenerOffer(nil)
	sender := &recordingSender{}
	l := NewListener(sender, &stubOffers{offer: offer}, stubSharer{}, "Acme Catering", logger.NewNop())

	if err := l.onStatusChanged(context.Background(), statusEvent(offer, offerdomain.OfferStatusSent)); err != nil {
		t.Fatalf("onStatusChanged: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email without a recipient, got %v", sender.sent)
	}
}

func TestRejectionSendsNothing(t *testing.T) {
	offer := testListenerOffer(map[string]any{"customer_email": "pat@example.com"})
	sender := &recordingSender{}
	l := NewListener(sender, &stubOffers{offer: offer}, stubSharer{}, "Acme Catering", logger.NewNop())

	if err := l.onStatusChanged(context.Background(), statusEvent(offer, offerdomain.OfferStatusRejected)); err != nil {
		t.Fatalf("onStatusChanged: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email on rejection, got %v", sender.sent)
	}
}
