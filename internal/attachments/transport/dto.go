package transport

import (
	"time"

	"offerbuilder_backend/internal/attachments/repository"
	"offerbuilder_backend/platform/storage"

	"github.com/google/uuid"
)

// RequestUploadRequest asks for a presigned upload slot on an offer entity.
type RequestUploadRequest struct {
	TargetKind  string    `json:"targetKind" binding:"required,oneof=offer block item adjustment"`
	TargetID    uuid.UUID `json:"targetId" binding:"required"`
	FileName    string    `json:"fileName" binding:"required,max=255"`
	ContentType string    `json:"contentType" binding:"required"`
	SizeBytes   int64     `json:"sizeBytes" binding:"required,min=1"`
}

// AttachmentResponse is an attachment descriptor as returned by the API.
type AttachmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	OfferID     uuid.UUID  `json:"offerId"`
	TargetKind  string     `json:"targetKind"`
	TargetID    uuid.UUID  `json:"targetId"`
	FileName    string     `json:"fileName"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	UploadedBy  *uuid.UUID `json:"uploadedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// UploadSlotResponse pairs the created attachment with its presigned PUT URL.
type UploadSlotResponse struct {
	Attachment AttachmentResponse   `json:"attachment"`
	Upload     storage.PresignedURL `json:"upload"`
}

// DownloadResponse is a presigned GET URL for an attachment.
type DownloadResponse struct {
	FileName string               `json:"fileName"`
	Download storage.PresignedURL `json:"download"`
}

// ToAttachmentResponse maps a stored attachment to its API shape.
func ToAttachmentResponse(att repository.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          att.ID,
		OfferID:     att.OfferID,
		TargetKind:  string(att.TargetKind),
		TargetID:    att.TargetID,
		FileName:    att.FileName,
		ContentType: att.ContentType,
		SizeBytes:   att.SizeBytes,
		UploadedBy:  att.UploadedBy,
		CreatedAt:   att.CreatedAt,
	}
}
