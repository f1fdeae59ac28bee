package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/transport"
	"offerbuilder_backend/platform/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const shareTokenType = "offer_share"

// ShareOffer issues a signed read-only link for the offer. Drafts cannot be
// shared; everything the customer sees must have gone through send.
func (s *Service) ShareOffer(ctx context.Context, tenantID, id uuid.UUID) (*transport.ShareTokenResponse, error) {
	if s.share == nil {
		return nil, apperr.BadRequest("sharing is not configured")
	}

	offer, err := s.offers.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if offer.Status == domain.OfferStatusDraft {
		return nil, apperr.Conflict("draft offers cannot be shared")
	}

	expiresAt := time.Now().Add(s.share.GetShareTokenTTL())
	claims := jwt.MapClaims{
		"sub":  offer.ID.String(),
		"org":  tenantID.String(),
		"type": shareTokenType,
		"exp":  expiresAt.Unix(),
		"iat":  time.Now().Unix(),
	}
	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tokenObj.SignedString([]byte(s.share.GetShareTokenSecret()))
	if err != nil {
		return nil, fmt.Errorf("sign share token: %w", err)
	}

	base := strings.TrimRight(s.share.GetAppBaseURL(), "/")
	return &transport.ShareTokenResponse{
		Token:     signed,
		URL:       base + "/public/offers/" + signed,
		QRCodeURL: base + "/public/offers/" + signed + "/qr",
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveShareToken verifies a share token and returns the offer it grants
// access to.
func (s *Service) ResolveShareToken(token string) (orgID, offerID uuid.UUID, err error) {
	if s.share == nil {
		return uuid.Nil, uuid.Nil, apperr.BadRequest("sharing is not configured")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.share.GetShareTokenSecret()), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, uuid.Nil, apperr.NotFound("invalid or expired share link")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != shareTokenType {
		return uuid.Nil, uuid.Nil, apperr.NotFound("invalid or expired share link")
	}

	offerID, err = uuid.Parse(fmt.Sprint(claims["sub"]))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.NotFound("invalid or expired share link")
	}
	orgID, err = uuid.Parse(fmt.Sprint(claims["org"]))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.NotFound("invalid or expired share link")
	}
	return orgID, offerID, nil
}

// GetPublic returns the customer-facing view behind a share token, rendered
// through the plugin's formatter.
func (s *Service) GetPublic(ctx context.Context, token string) (*transport.PublicOfferResponse, error) {
	orgID, offerID, err := s.ResolveShareToken(token)
	if err != nil {
		return nil, err
	}

	offer, err := s.offers.GetByID(ctx, orgID, offerID)
	if err != nil {
		return nil, err
	}

	formatter := s.plug.Formatter()
	blocks := make([]transport.PublicBlockResponse, len(offer.Blocks))
	for i, block := range offer.Blocks {
		items := make([]transport.PublicItemResponse, len(block.Items))
		for j, it := range block.Items {
			items[j] = transport.PublicItemResponse{
				Name:            it.Name,
				Description:     it.Description,
				DisplayQuantity: formatter.FormatQuantity(it),
				DisplayPrice:    formatter.FormatPrice(it.UnitPriceCents, offer.Currency),
				DisplayTotal:    formatter.FormatPrice(it.LineTotalCents, offer.Currency),
				IsOptional:      it.IsOptional,
			}
		}
		blocks[i] = transport.PublicBlockResponse{
			Label:           formatter.BlockLabel(block),
			DisplaySubtotal: formatter.FormatPrice(block.SubtotalCents, offer.Currency),
			Items:           items,
		}
	}

	resp := &transport.PublicOfferResponse{
		OfferNumber:     offer.OfferNumber,
		Title:           offer.Title,
		Status:          string(offer.Status),
		Currency:        offer.Currency,
		DisplaySubtotal: formatter.FormatPrice(offer.SubtotalCents, offer.Currency),
		DisplayTax:      formatter.FormatPrice(offer.TaxCents, offer.Currency),
		DisplayTotal:    formatter.FormatPrice(offer.TotalCents, offer.Currency),
		ValidUntil:      offer.ValidUntil,
		Notes:           notesText(offer.Notes),
		Blocks:          blocks,
	}
	if offer.DiscountCents != 0 {
		resp.DisplayDiscount = formatter.FormatPrice(offer.DiscountCents, offer.Currency)
	}
	return resp, nil
}

func notesText(notes *string) string {
	if notes == nil {
		return ""
	}
	return *notes
}
