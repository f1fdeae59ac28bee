// Package service manages offer attachments: presigned upload slots,
// presigned downloads and deletion, always scoped to one organization's
// offer.
package service

import (
	"context"
	"fmt"

	"offerbuilder_backend/internal/attachments/repository"
	"offerbuilder_backend/internal/attachments/transport"
	offerdomain "offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/platform/apperr"
	"offerbuilder_backend/platform/logger"
	"offerbuilder_backend/platform/storage"

	"github.com/google/uuid"
)

// OfferReader looks up the offer an attachment belongs to.
type OfferReader interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*offerdomain.Offer, error)
}

// AdjustmentReader looks up adjustments when one is the attachment target.
type AdjustmentReader interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*offerdomain.Adjustment, error)
}

// Service handles attachment operations.
type Service struct {
	repo        repository.Repository
	store       storage.ObjectStore
	offers      OfferReader
	adjustments AdjustmentReader
	log         *logger.Logger
}

// New creates the attachments service.
func New(repo repository.Repository, store storage.ObjectStore, offers OfferReader, adjustments AdjustmentReader, log *logger.Logger) *Service {
	return &Service{repo: repo, store: store, offers: offers, adjustments: adjustments, log: log}
}

// RequestUpload validates the target, reserves a presigned upload slot and
// records the attachment descriptor.
func (s *Service) RequestUpload(ctx context.Context, orgID, offerID uuid.UUID, userID *uuid.UUID, req transport.RequestUploadRequest) (*transport.UploadSlotResponse, error) {
	kind := repository.TargetKind(req.TargetKind)
	if err := s.checkTarget(ctx, orgID, offerID, kind, req.TargetID); err != nil {
		return nil, err
	}

	folder := fmt.Sprintf("%s/%s/%s", orgID, offerID, req.TargetKind)
	slot, err := s.store.PresignUpload(ctx, folder, req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return nil, err
	}

	att := &repository.Attachment{
		ID:             uuid.New(),
		OrganizationID: orgID,
		OfferID:        offerID,
		TargetKind:     kind,
		TargetID:       req.TargetID,
		FileName:       req.FileName,
		FileKey:        slot.FileKey,
		ContentType:    req.ContentType,
		SizeBytes:      req.SizeBytes,
		UploadedBy:     userID,
	}
	if err := s.repo.Create(ctx, att); err != nil {
		s.log.RepositoryError("attachments.create", err)
		return nil, err
	}

	return &transport.UploadSlotResponse{
		Attachment: transport.ToAttachmentResponse(*att),
		Upload:     *slot,
	}, nil
}

// List returns the attachment descriptors of one offer.
func (s *Service) List(ctx context.Context, orgID, offerID uuid.UUID) ([]transport.AttachmentResponse, error) {
	if _, err := s.offers.GetByID(ctx, orgID, offerID); err != nil {
		return nil, err
	}

	attachments, err := s.repo.ListByOffer(ctx, orgID, offerID)
	if err != nil {
		s.log.RepositoryError("attachments.list", err)
		return nil, err
	}

	out := make([]transport.AttachmentResponse, 0, len(attachments))
	for _, att := range attachments {
		out = append(out, transport.ToAttachmentResponse(att))
	}
	return out, nil
}

// Download returns a presigned GET URL for one attachment.
func (s *Service) Download(ctx context.Context, orgID, offerID, id uuid.UUID) (*transport.DownloadResponse, error) {
	att, err := s.repo.GetByID(ctx, orgID, offerID, id)
	if err != nil {
		return nil, err
	}

	url, err := s.store.PresignDownload(ctx, att.FileKey)
	if err != nil {
		return nil, err
	}
	return &transport.DownloadResponse{FileName: att.FileName, Download: *url}, nil
}

// Delete removes the descriptor and, best effort, the stored object.
func (s *Service) Delete(ctx context.Context, orgID, offerID, id uuid.UUID) error {
	att, err := s.repo.GetByID(ctx, orgID, offerID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, orgID, offerID, id); err != nil {
		s.log.RepositoryError("attachments.delete", err)
		return err
	}

	// The descriptor is gone either way; an orphaned object only wastes space.
	if err := s.store.Delete(ctx, att.FileKey); err != nil {
		s.log.Warn("attachment object deletion failed", "file_key", att.FileKey, "error", err)
	}
	return nil
}

func (s *Service) checkTarget(ctx context.Context, orgID, offerID uuid.UUID, kind repository.TargetKind, targetID uuid.UUID) error {
	if !kind.Valid() {
		return apperr.BadRequest("unknown attachment target kind")
	}

	offer, err := s.offers.GetByID(ctx, orgID, offerID)
	if err != nil {
		return err
	}

	switch kind {
	case repository.TargetOffer:
		if targetID != offerID {
			return apperr.BadRequest("offer-level attachments must target the offer itself")
		}
	case repository.TargetBlock:
		if findBlock(offer, targetID) == nil {
			return apperr.NotFound("target block not found on this offer")
		}
	case repository.TargetItem:
		if !hasItem(offer, targetID) {
			return apperr.NotFound("target item not found on this offer")
		}
	case repository.TargetAdjustment:
		adj, err := s.adjustments.GetByID(ctx, orgID, targetID)
		if err != nil {
			return err
		}
		if adj.OfferID != offerID {
			return apperr.NotFound("target adjustment does not belong to this offer")
		}
	}
	return nil
}

func findBlock(offer *offerdomain.Offer, blockID uuid.UUID) *offerdomain.Block {
	for _, block := range offer.Blocks {
		if block.ID == blockID {
			return block
		}
	}
	return nil
}

func hasItem(offer *offerdomain.Offer, itemID uuid.UUID) bool {
	for _, block := range offer.Blocks {
		for _, item := range block.Items {
			if item.ID == itemID {
				return true
			}
		}
	}
	return false
}
