package email

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"offerbuilder_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers offer emails over the tenant's SMTP server via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a sender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUser(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

var _ Sender = (*SMTPSender)(nil)

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string, attachments ...Attachment) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	for _, att := range attachments {
		msg.AttachReader(att.FileName, bytes.NewReader(att.Content))
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) SendOfferEmail(ctx context.Context, toEmail, customerName, organizationName, offerNumber, viewURL string, attachments ...Attachment) error {
	content, err := renderEmailTemplate("offer_sent.html", offerEmailData{
		baseEmailData: baseEmailData{
			Title:    fmt.Sprintf(subjectOfferFmt, offerNumber, organizationName),
			Heading:  "You have received an offer",
			CTALabel: "View offer",
			CTAURL:   viewURL,
		},
		CustomerName:     customerName,
		OrganizationName: organizationName,
		OfferNumber:      offerNumber,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectOfferFmt, offerNumber, organizationName), content, attachments...)
}

func (s *SMTPSender) SendOfferAcceptedEmail(ctx context.Context, toEmail, customerName, organizationName, offerNumber string) error {
	content, err := renderEmailTemplate("offer_accepted.html", offerEmailData{
		baseEmailData: baseEmailData{
			Title:   fmt.Sprintf(subjectOfferAcceptedFmt, offerNumber),
			Heading: "Offer accepted",
		},
		CustomerName:     customerName,
		OrganizationName: organizationName,
		OfferNumber:      offerNumber,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectOfferAcceptedFmt, offerNumber), content)
}

func (s *SMTPSender) SendOfferExpiredEmail(ctx context.Context, toEmail, customerName, organizationName, offerNumber string) error {
	content, err := renderEmailTemplate("offer_expired.html", offerEmailData{
		baseEmailData: baseEmailData{
			Title:   fmt.Sprintf(subjectOfferExpiredFmt, offerNumber),
			Heading: "Offer expired",
		},
		CustomerName:     customerName,
		OrganizationName: organizationName,
		OfferNumber:      offerNumber,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectOfferExpiredFmt, offerNumber), content)
}
