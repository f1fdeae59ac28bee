// Package service wires the offer engine together: repositories, the
// builder, the plugin strategy bundle, versioning and the event bus behind a
// transport-facing API.
package service

import (
	"context"
	"fmt"
	"time"

	catalogrepo "offerbuilder_backend/internal/catalog/repository"
	"offerbuilder_backend/internal/offers/builder"
	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/plugin"
	"offerbuilder_backend/internal/offers/repository"
	"offerbuilder_backend/internal/offers/transport"
	"offerbuilder_backend/internal/offers/versioning"
	"offerbuilder_backend/platform/apperr"
	"offerbuilder_backend/platform/config"
	"offerbuilder_backend/platform/events"
	"offerbuilder_backend/platform/logger"
	"offerbuilder_backend/platform/sanitize"

	"github.com/google/uuid"
)

// CatalogReader is the narrow catalog port the offers service needs: bulk
// reads for the suggestion engine plus single-entry lookup for
// catalog-sourced items.
type CatalogReader interface {
	builder.CatalogReader
	GetItemByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (catalogrepo.Item, error)
}

// Service provides business logic for offers
type Service struct {
	offers      repository.OfferRepository
	adjustments repository.AdjustmentRepository
	versions    repository.VersionRepository
	catalog     CatalogReader // optional; nil disables suggestions
	plug        plugin.Plugin
	bus         events.Bus // optional; nil disables event publication
	log         *logger.Logger
	share       config.ShareConfig
	expiry      ExpiryScheduler // optional; nil disables expiry scheduling
}

// ExpiryScheduler enqueues a deferred expiry check for a sent offer.
type ExpiryScheduler interface {
	ScheduleOfferExpiry(ctx context.Context, orgID, offerID uuid.UUID, runAt time.Time) error
}

// New creates a new offers service
func New(
	offers repository.OfferRepository,
	adjustments repository.AdjustmentRepository,
	versions repository.VersionRepository,
	plug plugin.Plugin,
	log *logger.Logger,
) *Service {
	return &Service{
		offers:      offers,
		adjustments: adjustments,
		versions:    versions,
		plug:        plug,
		log:         log,
	}
}

// SetCatalogReader injects the catalog port used for suggestions and
// catalog-sourced items.
func (s *Service) SetCatalogReader(reader CatalogReader) {
	s.catalog = reader
}

// SetEventBus injects the event bus (set after construction to break
// circular deps with subscribers).
func (s *Service) SetEventBus(bus events.Bus) {
	s.bus = bus
}

// SetShareConfig injects share-link settings for the public surface.
func (s *Service) SetShareConfig(cfg config.ShareConfig) {
	s.share = cfg
}

// SetExpiryScheduler injects the deferred-expiry scheduler.
func (s *Service) SetExpiryScheduler(sched ExpiryScheduler) {
	s.expiry = sched
}

// Create creates a new draft offer with no blocks
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateOfferRequest) (*transport.OfferResponse, error) {
	offerNumber, err := s.offers.NextOfferNumber(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("generate offer number: %w", err)
	}

	discountType := domain.DiscountType(req.DiscountType)
	if discountType == "" {
		discountType = domain.DiscountPercentage
	}

	now := time.Now()
	offer := &domain.Offer{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		OfferNumber:    offerNumber,
		Title:          req.Title,
		Status:         domain.OfferStatusDraft,
		Currency:       req.Currency,
		DiscountType:   discountType,
		DiscountValue:  req.DiscountValue,
		Metadata:       req.Metadata,
		ValidUntil:     req.ValidUntil,
		Notes:          optionalText(req.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.offers.Create(ctx, offer)
	if err != nil {
		return nil, err
	}

	s.appendVersion(ctx, tenantID, nil, created)
	s.publish(ctx, OfferCreatedEvent{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: tenantID,
		OfferID:        created.ID,
		OfferNumber:    created.OfferNumber,
	})

	return transport.ToOfferResponse(created), nil
}

// GetByID retrieves an offer with its blocks and current rule violations
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*transport.OfferResponse, error) {
	b := builder.New(s.offers, s.plug, s.log, tenantID)
	if err := b.Load(ctx, id); err != nil {
		return nil, err
	}
	resp := transport.ToOfferResponse(b.Offer())
	resp.Violations = b.Validate()
	return resp, nil
}

// List retrieves offer headers with filtering and pagination
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListOffersRequest) (*transport.OfferListResponse, error) {
	params := repository.ListParams{
		OrganizationID: tenantID,
		Search:         req.Search,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
		Page:           max(req.Page, 1),
		PageSize:       clampPageSize(req.PageSize),
	}
	if req.Status != "" {
		status := domain.OfferStatus(req.Status)
		params.Status = &status
	}

	result, err := s.offers.List(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]transport.OfferResponse, len(result.Items))
	for i, o := range result.Items {
		items[i] = *transport.ToOfferResponse(o)
	}
	return &transport.OfferListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Update changes offer header fields and re-reconciles totals
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateOfferRequest) (*transport.OfferResponse, error) {
	return s.edit(ctx, tenantID, id, func(b *builder.Builder) error {
		offer := b.Offer()
		if req.Title != nil {
			offer.Title = *req.Title
		}
		if req.DiscountType != nil {
			offer.DiscountType = domain.DiscountType(*req.DiscountType)
		}
		if req.DiscountValue != nil {
			offer.DiscountValue = *req.DiscountValue
		}
		if req.ValidUntil != nil {
			offer.ValidUntil = req.ValidUntil
		}
		if req.Notes != nil {
			notes := sanitize.Text(*req.Notes)
			offer.Notes = &notes
		}
		if req.Metadata != nil {
			offer.Metadata = *req.Metadata
		}
		return nil
	})
}

// Delete removes an offer, its blocks and items
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.offers.Delete(ctx, tenantID, id)
}

// Validate runs the plugin rule sets without persisting anything
func (s *Service) Validate(ctx context.Context, tenantID, id uuid.UUID) (*transport.ValidationResponse, error) {
	b := builder.New(s.offers, s.plug, s.log, tenantID)
	if err := b.Load(ctx, id); err != nil {
		return nil, err
	}
	violations := b.Validate()
	return &transport.ValidationResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	}, nil
}

// edit runs one builder session against an editable offer: load, apply the
// mutation, reconcile, snapshot a version. Only drafts and plugin-contributed
// intermediate states accept edits; sent offers change through the
// adjustment workflow.
func (s *Service) edit(ctx context.Context, tenantID, offerID uuid.UUID, fn func(b *builder.Builder) error) (*transport.OfferResponse, error) {
	return s.editSession(ctx, tenantID, offerID, true, fn)
}

func (s *Service) editSession(ctx context.Context, tenantID, offerID uuid.UUID, draftOnly bool, fn func(b *builder.Builder) error) (*transport.OfferResponse, error) {
	b := builder.New(s.offers, s.plug, s.log, tenantID)
	if err := b.Load(ctx, offerID); err != nil {
		return nil, err
	}
	if draftOnly && !s.isEditable(b.Offer().Status) {
		return nil, apperr.Conflict(fmt.Sprintf("offer in status %q cannot be edited", b.Offer().Status))
	}

	before := b.Offer().Clone()

	if s.catalog != nil {
		if err := b.LoadCatalog(ctx, s.catalog, catalogrepo.Filters{}); err != nil {
			// Suggestions degrade gracefully; the edit itself proceeds.
			s.log.RepositoryError("catalog.load", err)
		}
	}

	if err := fn(b); err != nil {
		return nil, err
	}

	saved, err := b.Save(ctx)
	if err != nil {
		return nil, err
	}

	s.appendVersion(ctx, tenantID, before, saved)
	s.publish(ctx, OfferSavedEvent{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: tenantID,
		OfferID:        saved.ID,
		Version:        saved.Version,
		TotalCents:     saved.TotalCents,
	})

	resp := transport.ToOfferResponse(saved)
	resp.Violations = b.Validate()
	return resp, nil
}

// isEditable reports whether direct edits are allowed for the status. Core
// non-draft states are locked; unknown states came from the plugin's
// transition table and sit before sending, so they stay editable.
func (s *Service) isEditable(status domain.OfferStatus) bool {
	if status == domain.OfferStatusDraft {
		return true
	}
	switch status {
	case domain.OfferStatusSent, domain.OfferStatusAccepted, domain.OfferStatusRejected, domain.OfferStatusExpired:
		return false
	}
	return true
}

// appendVersion records an immutable snapshot of the saved aggregate. Every
// completed save appends one, even when the structural diff is empty: block
// and offer metadata sit outside the diff contract, so an empty diff does
// not mean nothing changed. The history is advisory next to the live row,
// so a failed append is logged and never fails the save that produced it.
func (s *Service) appendVersion(ctx context.Context, tenantID uuid.UUID, before, after *domain.Offer) {
	d := versioning.Compute(before, after)
	_, err := s.versions.Append(ctx, tenantID, &domain.Version{
		OfferID:       after.ID,
		Snapshot:      after.Clone(),
		ChangeLog:     versioning.ChangeLog(before, after, d),
		ChangedFields: d.ChangedFields,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		s.log.RepositoryError("versions.append", err)
	}
}

// publish fires an event if a bus is configured. Failures are the
// subscriber's problem, never the caller's.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

// optionalText sanitizes a free-text field, returning nil when nothing
// survives so empty notes are stored as absent.
func optionalText(s string) *string {
	t := sanitize.Text(s)
	if t == "" {
		return nil
	}
	return &t
}

func clampPageSize(size int) int {
	if size < 1 || size > 100 {
		return 50
	}
	return size
}
