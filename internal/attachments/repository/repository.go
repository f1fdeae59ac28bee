// Package repository stores attachment metadata. The file bytes live in
// object storage; only the descriptors live in Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TargetKind names the offer entity an attachment hangs off.
type TargetKind string

const (
	TargetOffer      TargetKind = "offer"
	TargetBlock      TargetKind = "block"
	TargetItem       TargetKind = "item"
	TargetAdjustment TargetKind = "adjustment"
)

// Valid reports whether the kind is one of the known targets.
func (k TargetKind) Valid() bool {
	switch k {
	case TargetOffer, TargetBlock, TargetItem, TargetAdjustment:
		return true
	}
	return false
}

// Attachment describes one stored file.
type Attachment struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	OfferID        uuid.UUID
	TargetKind     TargetKind
	TargetID       uuid.UUID
	FileName       string
	FileKey        string
	ContentType    string
	SizeBytes      int64
	UploadedBy     *uuid.UUID
	CreatedAt      time.Time
}

// Repository defines attachment metadata storage.
type Repository interface {
	Create(ctx context.Context, att *Attachment) error
	GetByID(ctx context.Context, orgID, offerID, id uuid.UUID) (*Attachment, error)
	ListByOffer(ctx context.Context, orgID, offerID uuid.UUID) ([]Attachment, error)
	Delete(ctx context.Context, orgID, offerID, id uuid.UUID) error
}

const attachmentNotFoundMessage = "attachment not found"

const attachmentColumns = `id, organization_id, offer_id, target_kind, target_id, file_name, file_key, content_type, size_bytes, uploaded_by, created_at`

// Postgres implements Repository on pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates the Postgres attachment repository.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Repository = (*Postgres)(nil)

func (r *Postgres) Create(ctx context.Context, att *Attachment) error {
	query := `INSERT INTO offer_attachments
		(id, organization_id, offer_id, target_kind, target_id, file_name, file_key, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		att.ID, att.OrganizationID, att.OfferID, att.TargetKind, att.TargetID,
		att.FileName, att.FileKey, att.ContentType, att.SizeBytes, att.UploadedBy,
	).Scan(&att.CreatedAt)
	if err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

func (r *Postgres) GetByID(ctx context.Context, orgID, offerID, id uuid.UUID) (*Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM offer_attachments
		WHERE organization_id = $1 AND offer_id = $2 AND id = $3`

	att, err := scanAttachment(r.pool.QueryRow(ctx, query, orgID, offerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(attachmentNotFoundMessage)
		}
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return att, nil
}

func (r *Postgres) ListByOffer(ctx context.Context, orgID, offerID uuid.UUID) ([]Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM offer_attachments
		WHERE organization_id = $1 AND offer_id = $2
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, orgID, offerID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	attachments := make([]Attachment, 0)
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, *att)
	}
	return attachments, rows.Err()
}

func (r *Postgres) Delete(ctx context.Context, orgID, offerID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM offer_attachments WHERE organization_id = $1 AND offer_id = $2 AND id = $3`,
		orgID, offerID, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(attachmentNotFoundMessage)
	}
	return nil
}

func scanAttachment(row pgx.Row) (*Attachment, error) {
	var att Attachment
	err := row.Scan(
		&att.ID,
		&att.OrganizationID,
		&att.OfferID,
		&att.TargetKind,
		&att.TargetID,
		&att.FileName,
		&att.FileKey,
		&att.ContentType,
		&att.SizeBytes,
		&att.UploadedBy,
		&att.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &att, nil
}
