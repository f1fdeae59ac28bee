package email

import (
	"context"

	offerdomain "offerbuilder_backend/internal/offers/domain"
	offersvc "offerbuilder_backend/internal/offers/service"
	offertransport "offerbuilder_backend/internal/offers/transport"
	"offerbuilder_backend/platform/events"
	"offerbuilder_backend/platform/logger"

	"github.com/google/uuid"
)

// Metadata keys the listener reads off an offer. The authoring UI stores
// customer contact details in the offer metadata map.
const (
	metaCustomerEmail = "customer_email"
	metaCustomerName  = "customer_name"
)

// OfferReader loads an offer so the listener can find the customer contact.
type OfferReader interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*offerdomain.Offer, error)
}

// ShareLinker produces the public link included in the offer email.
type ShareLinker interface {
	ShareOffer(ctx context.Context, tenantID, id uuid.UUID) (*offertransport.ShareTokenResponse, error)
}

// Listener turns offer status changes into customer emails.
type Listener struct {
	sender   Sender
	offers   OfferReader
	sharer   ShareLinker
	fromName string
	log      *logger.Logger
}

// NewListener creates the listener. fromName doubles as the organization
// display name in email copy.
func NewListener(sender Sender, offers OfferReader, sharer ShareLinker, fromName string, log *logger.Logger) *Listener {
	return &Listener{sender: sender, offers: offers, sharer: sharer, fromName: fromName, log: log}
}

// Register subscribes the listener on the event bus.
func (l *Listener) Register(bus events.Bus) {
	bus.Subscribe(offersvc.EventOfferStatusChanged, events.HandlerFunc(l.onStatusChanged))
}

func (l *Listener) onStatusChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(offersvc.OfferStatusChangedEvent)
	if !ok {
		return nil
	}

	offer, err := l.offers.GetByID(ctx, e.OrganizationID, e.OfferID)
	if err != nil {
		l.log.Warn("offer lookup for email failed", "offer_id", e.OfferID, "error", err)
		return err
	}

	toEmail := metaString(offer, metaCustomerEmail)
	if toEmail == "" {
		// Nothing to deliver to; not an error.
		return nil
	}
	customerName := metaString(offer, metaCustomerName)
	if customerName == "" {
		customerName = "customer"
	}

	switch offerdomain.OfferStatus(e.To) {
	case offerdomain.OfferStatusSent:
		return l.sendOffer(ctx, offer, toEmail, customerName)
	case offerdomain.OfferStatusAccepted:
		return l.sender.SendOfferAcceptedEmail(ctx, toEmail, customerName, l.fromName, offer.OfferNumber)
	case offerdomain.OfferStatusExpired:
		return l.sender.SendOfferExpiredEmail(ctx, toEmail, customerName, l.fromName, offer.OfferNumber)
	}
	return nil
}

func (l *Listener) sendOffer(ctx context.Context, offer *offerdomain.Offer, toEmail, customerName string) error {
	viewURL := ""
	if l.sharer != nil {
		share, err := l.sharer.ShareOffer(ctx, offer.OrganizationID, offer.ID)
		if err != nil {
			l.log.Warn("share link for offer email failed", "offer_id", offer.ID, "error", err)
		} else {
			viewURL = share.URL
		}
	}
	return l.sender.SendOfferEmail(ctx, toEmail, customerName, l.fromName, offer.OfferNumber, viewURL)
}

func metaString(offer *offerdomain.Offer, key string) string {
	if offer.Metadata == nil {
		return ""
	}
	value, _ := offer.Metadata[key].(string)
	return value
}
