// Package email sends offer lifecycle notifications to customers. It listens
// on the event bus rather than being called by the offers service directly,
// so mail delivery can never fail a save.
package email

import "context"

// Attachment is a file included with an outgoing email.
type Attachment struct {
	Content  []byte
	FileName string
	MIMEType string
}

// Sender delivers offer lifecycle emails.
type Sender interface {
	// SendOfferEmail notifies the customer that an offer was sent to them,
	// with a link to the public view.
	SendOfferEmail(ctx context.Context, toEmail, customerName, organizationName, offerNumber, viewURL string, attachments ...Attachment) error

	// SendOfferAcceptedEmail thanks the customer after acceptance.
	SendOfferAcceptedEmail(ctx context.Context, toEmail, customerName, organizationName, offerNumber string) error

	// SendOfferExpiredEmail tells the customer the offer is no longer valid.
	SendOfferExpiredEmail(ctx context.Context, toEmail, customerName, organizationName, offerNumber string) error
}

// Nop is a Sender that silently drops everything. Used when outbound email
// is disabled.
type Nop struct{}

func (Nop) SendOfferEmail(context.Context, string, string, string, string, string, ...Attachment) error {
	return nil
}

func (Nop) SendOfferAcceptedEmail(context.Context, string, string, string, string) error {
	return nil
}

func (Nop) SendOfferExpiredEmail(context.Context, string, string, string, string) error {
	return nil
}

var _ Sender = Nop{}
