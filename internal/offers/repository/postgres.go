package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production OfferRepository backed by pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres-backed offer repository.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NextOfferNumber atomically generates the next offer number for an organization.
func (r *PostgresStore) NextOfferNumber(ctx context.Context, orgID uuid.UUID) (string, error) {
	var nextNum int
	query := `
		INSERT INTO offer_counters (organization_id, last_number)
		VALUES ($1, 1)
		ON CONFLICT (organization_id) DO UPDATE SET last_number = offer_counters.last_number + 1
		RETURNING last_number`

	if err := r.pool.QueryRow(ctx, query, orgID).Scan(&nextNum); err != nil {
		return "", fmt.Errorf("failed to generate offer number: %w", err)
	}

	return fmt.Sprintf("OFF-%d-%04d", time.Now().Year(), nextNum), nil
}

// GetByID retrieves the full offer tree scoped to the organization.
func (r *PostgresStore) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Offer, error) {
	var o domain.Offer
	query := `
		SELECT id, organization_id, offer_number, title, status, currency, version,
			subtotal_cents, tax_cents, discount_cents, total_cents,
			discount_type, discount_value, metadata, valid_until, notes,
			created_at, updated_at
		FROM offers WHERE id = $1 AND organization_id = $2`

	err := r.pool.QueryRow(ctx, query, id, orgID).Scan(
		&o.ID, &o.OrganizationID, &o.OfferNumber, &o.Title, &o.Status, &o.Currency, &o.Version,
		&o.SubtotalCents, &o.TaxCents, &o.DiscountCents, &o.TotalCents,
		&o.DiscountType, &o.DiscountValue, &o.Metadata, &o.ValidUntil, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(offerNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	blocks, err := r.blocksByOfferID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Blocks = blocks
	return &o, nil
}

func (r *PostgresStore) blocksByOfferID(ctx context.Context, offerID uuid.UUID) ([]*domain.Block, error) {
	query := `
		SELECT id, offer_id, name, position, subtotal_cents, metadata
		FROM offer_blocks WHERE offer_id = $1
		ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offer blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*domain.Block
	for rows.Next() {
		var b domain.Block
		if err := rows.Scan(&b.ID, &b.OfferID, &b.Name, &b.Position, &b.SubtotalCents, &b.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan offer block: %w", err)
		}
		blocks = append(blocks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offer blocks: %w", err)
	}

	for _, b := range blocks {
		items, err := r.itemsByBlockID(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		b.Items = items
	}
	return blocks, nil
}

func (r *PostgresStore) itemsByBlockID(ctx context.Context, blockID uuid.UUID) ([]*domain.Item, error) {
	query := `
		SELECT id, block_id, type, name, description, catalog_item_id,
			quantity, unit_price_cents, tax_rate_bps, line_total_cents,
			is_optional, position
		FROM offer_items WHERE block_id = $1
		ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offer items: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(
			&it.ID, &it.BlockID, &it.Type, &it.Name, &it.Description, &it.CatalogItemID,
			&it.Quantity, &it.UnitPriceCents, &it.TaxRateBps, &it.LineTotalCents,
			&it.IsOptional, &it.Position,
		); err != nil {
			return nil, fmt.Errorf("failed to scan offer item: %w", err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offer items: %w", err)
	}
	return items, nil
}

// Create inserts the offer tree in a single transaction and returns it with
// repository-assigned identities.
func (r *PostgresStore) Create(ctx context.Context, offer *domain.Offer) (*domain.Offer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	persisted := offer.Clone()
	persisted.ID = uuid.New()
	persisted.Version = 1
	persisted.CreatedAt = now
	persisted.UpdatedAt = now
	if persisted.OfferNumber == "" {
		number, err := r.NextOfferNumber(ctx, persisted.OrganizationID)
		if err != nil {
			return nil, err
		}
		persisted.OfferNumber = number
	}

	offerQuery := `
		INSERT INTO offers (
			id, organization_id, offer_number, title, status, currency, version,
			subtotal_cents, tax_cents, discount_cents, total_cents,
			discount_type, discount_value, metadata, valid_until, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	if _, err := tx.Exec(ctx, offerQuery,
		persisted.ID, persisted.OrganizationID, persisted.OfferNumber, persisted.Title,
		persisted.Status, persisted.Currency, persisted.Version,
		persisted.SubtotalCents, persisted.TaxCents, persisted.DiscountCents, persisted.TotalCents,
		persisted.DiscountType, persisted.DiscountValue, persisted.Metadata,
		persisted.ValidUntil, persisted.Notes, persisted.CreatedAt, persisted.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert offer: %w", err)
	}

	for _, block := range persisted.Blocks {
		block.ID = uuid.New()
		block.OfferID = persisted.ID
		block.PendingCreate = false
		if err := insertBlock(ctx, tx, block); err != nil {
			return nil, err
		}
		for _, it := range block.Items {
			it.ID = uuid.New()
			it.BlockID = block.ID
			it.PendingCreate = false
			if err := insertItem(ctx, tx, it); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit offer insert: %w", err)
	}
	return persisted, nil
}

func insertBlock(ctx context.Context, tx pgx.Tx, block *domain.Block) error {
	query := `
		INSERT INTO offer_blocks (id, offer_id, name, position, subtotal_cents, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.Exec(ctx, query,
		block.ID, block.OfferID, block.Name, block.Position, block.SubtotalCents, block.Metadata,
	); err != nil {
		return fmt.Errorf("failed to insert offer block: %w", err)
	}
	return nil
}

func insertItem(ctx context.Context, tx pgx.Tx, it *domain.Item) error {
	query := `
		INSERT INTO offer_items (
			id, block_id, type, name, description, catalog_item_id,
			quantity, unit_price_cents, tax_rate_bps, line_total_cents,
			is_optional, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := tx.Exec(ctx, query,
		it.ID, it.BlockID, it.Type, it.Name, it.Description, it.CatalogItemID,
		it.Quantity, it.UnitPriceCents, it.TaxRateBps, it.LineTotalCents,
		it.IsOptional, it.Position,
	); err != nil {
		return fmt.Errorf("failed to insert offer item: %w", err)
	}
	return nil
}

// Update persists offer header fields. The version counter in the WHERE
// clause rejects stale writes; the counter is incremented on success.
func (r *PostgresStore) Update(ctx context.Context, offer *domain.Offer) (*domain.Offer, error) {
	query := `
		UPDATE offers SET
			title = $3, status = $4, currency = $5, version = version + 1,
			subtotal_cents = $6, tax_cents = $7, discount_cents = $8, total_cents = $9,
			discount_type = $10, discount_value = $11, metadata = $12,
			valid_until = $13, notes = $14, updated_at = $15
		WHERE id = $1 AND organization_id = $2 AND version = $16
		RETURNING version, created_at, updated_at`

	updated := offer.Clone()
	updated.Blocks = nil
	err := r.pool.QueryRow(ctx, query,
		offer.ID, offer.OrganizationID, offer.Title, offer.Status, offer.Currency,
		offer.SubtotalCents, offer.TaxCents, offer.DiscountCents, offer.TotalCents,
		offer.DiscountType, offer.DiscountValue, offer.Metadata,
		offer.ValidUntil, offer.Notes, time.Now(), offer.Version,
	).Scan(&updated.Version, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyUpdateMiss(ctx, offer.OrganizationID, offer.ID)
		}
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}
	return updated, nil
}

// classifyUpdateMiss distinguishes a missing offer from a stale version.
func (r *PostgresStore) classifyUpdateMiss(ctx context.Context, orgID, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM offers WHERE id = $1 AND organization_id = $2)`,
		id, orgID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check offer existence: %w", err)
	}
	if !exists {
		return apperr.NotFound(offerNotFoundMsg)
	}
	return apperr.Conflict("offer was modified by another save")
}

// Delete removes an offer; blocks and items cascade at the schema level.
func (r *PostgresStore) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM offers WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(offerNotFoundMsg)
	}
	return nil
}

// UpdateStatus updates the status of an offer.
func (r *PostgresStore) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status domain.OfferStatus) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE offers SET status = $3, updated_at = $4 WHERE id = $1 AND organization_id = $2`,
		id, orgID, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update offer status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(offerNotFoundMsg)
	}
	return nil
}

// List retrieves offer headers with filtering and pagination.
func (r *PostgresStore) List(ctx context.Context, params ListParams) (*ListResult, error) {
	var statusParam interface{}
	if params.Status != nil {
		statusParam = string(*params.Status)
	}
	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}

	baseQuery := `
		FROM offers
		WHERE organization_id = $1
			AND ($2::text IS NULL OR status = $2)
			AND ($3::text IS NULL OR offer_number ILIKE $3 OR title ILIKE $3)
	`
	args := []interface{}{params.OrganizationID, statusParam, searchParam}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count offers: %w", err)
	}

	page, size := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	offset := (page - 1) * size

	selectQuery := `
		SELECT id, organization_id, offer_number, title, status, currency, version,
			subtotal_cents, tax_cents, discount_cents, total_cents,
			discount_type, discount_value, metadata, valid_until, notes,
			created_at, updated_at
		` + baseQuery + `
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	args = append(args, size, offset)
	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var items []*domain.Offer
	for rows.Next() {
		var o domain.Offer
		if err := rows.Scan(
			&o.ID, &o.OrganizationID, &o.OfferNumber, &o.Title, &o.Status, &o.Currency, &o.Version,
			&o.SubtotalCents, &o.TaxCents, &o.DiscountCents, &o.TotalCents,
			&o.DiscountType, &o.DiscountValue, &o.Metadata, &o.ValidUntil, &o.Notes,
			&o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		items = append(items, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offers: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}, nil
}

// CreateBlock inserts a block record with a fresh identity. Items are not
// inserted here; the reconciler issues per-item create calls.
func (r *PostgresStore) CreateBlock(ctx context.Context, orgID uuid.UUID, block *domain.Block) (*domain.Block, error) {
	if err := r.checkOfferScope(ctx, orgID, block.OfferID); err != nil {
		return nil, err
	}

	stored := block.Clone()
	stored.ID = uuid.New()
	stored.PendingCreate = false
	stored.Items = nil

	query := `
		INSERT INTO offer_blocks (id, offer_id, name, position, subtotal_cents, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.pool.Exec(ctx, query,
		stored.ID, stored.OfferID, stored.Name, stored.Position, stored.SubtotalCents, stored.Metadata,
	); err != nil {
		return nil, fmt.Errorf("failed to insert offer block: %w", err)
	}
	return stored, nil
}

// UpdateBlock persists the block's current field values.
func (r *PostgresStore) UpdateBlock(ctx context.Context, orgID uuid.UUID, block *domain.Block) (*domain.Block, error) {
	query := `
		UPDATE offer_blocks b SET name = $3, position = $4, subtotal_cents = $5, metadata = $6
		FROM offers o
		WHERE b.id = $1 AND b.offer_id = o.id AND o.organization_id = $2`
	result, err := r.pool.Exec(ctx, query,
		block.ID, orgID, block.Name, block.Position, block.SubtotalCents, block.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to update offer block: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperr.NotFound(blockNotFoundMsg)
	}

	updated := block.Clone()
	updated.PendingCreate = false
	updated.Items = nil
	return updated, nil
}

// DeleteBlock removes the block; its items cascade at the schema level.
func (r *PostgresStore) DeleteBlock(ctx context.Context, orgID, id uuid.UUID) error {
	query := `
		DELETE FROM offer_blocks b
		USING offers o
		WHERE b.id = $1 AND b.offer_id = o.id AND o.organization_id = $2`
	result, err := r.pool.Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete offer block: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(blockNotFoundMsg)
	}
	return nil
}

// CreateItem inserts an item record with a fresh identity.
func (r *PostgresStore) CreateItem(ctx context.Context, orgID uuid.UUID, item *domain.Item) (*domain.Item, error) {
	if err := r.checkBlockScope(ctx, orgID, item.BlockID); err != nil {
		return nil, err
	}

	stored := item.Clone()
	stored.ID = uuid.New()
	stored.PendingCreate = false

	query := `
		INSERT INTO offer_items (
			id, block_id, type, name, description, catalog_item_id,
			quantity, unit_price_cents, tax_rate_bps, line_total_cents,
			is_optional, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.pool.Exec(ctx, query,
		stored.ID, stored.BlockID, stored.Type, stored.Name, stored.Description, stored.CatalogItemID,
		stored.Quantity, stored.UnitPriceCents, stored.TaxRateBps, stored.LineTotalCents,
		stored.IsOptional, stored.Position,
	); err != nil {
		return nil, fmt.Errorf("failed to insert offer item: %w", err)
	}
	return stored, nil
}

// UpdateItem persists the item's current field values.
func (r *PostgresStore) UpdateItem(ctx context.Context, orgID uuid.UUID, item *domain.Item) (*domain.Item, error) {
	query := `
		UPDATE offer_items i SET
			type = $3, name = $4, description = $5, catalog_item_id = $6,
			quantity = $7, unit_price_cents = $8, tax_rate_bps = $9,
			line_total_cents = $10, is_optional = $11, position = $12
		FROM offer_blocks b, offers o
		WHERE i.id = $1 AND i.block_id = b.id AND b.offer_id = o.id AND o.organization_id = $2`
	result, err := r.pool.Exec(ctx, query,
		item.ID, orgID, item.Type, item.Name, item.Description, item.CatalogItemID,
		item.Quantity, item.UnitPriceCents, item.TaxRateBps,
		item.LineTotalCents, item.IsOptional, item.Position)
	if err != nil {
		return nil, fmt.Errorf("failed to update offer item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperr.NotFound(itemNotFoundMsg)
	}

	updated := item.Clone()
	updated.PendingCreate = false
	return updated, nil
}

// DeleteItem removes the item.
func (r *PostgresStore) DeleteItem(ctx context.Context, orgID, id uuid.UUID) error {
	query := `
		DELETE FROM offer_items i
		USING offer_blocks b, offers o
		WHERE i.id = $1 AND i.block_id = b.id AND b.offer_id = o.id AND o.organization_id = $2`
	result, err := r.pool.Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete offer item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(itemNotFoundMsg)
	}
	return nil
}

// ReorderItems rewrites item positions to match orderedIDs.
func (r *PostgresStore) ReorderItems(ctx context.Context, orgID, blockID uuid.UUID, orderedIDs []uuid.UUID) error {
	if err := r.checkBlockScope(ctx, orgID, blockID); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for pos, id := range orderedIDs {
		result, err := tx.Exec(ctx,
			`UPDATE offer_items SET position = $3 WHERE id = $1 AND block_id = $2`,
			id, blockID, pos)
		if err != nil {
			return fmt.Errorf("failed to reorder offer item: %w", err)
		}
		if result.RowsAffected() == 0 {
			return apperr.NotFound(itemNotFoundMsg)
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresStore) checkOfferScope(ctx context.Context, orgID, offerID uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM offers WHERE id = $1 AND organization_id = $2)`,
		offerID, orgID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check offer scope: %w", err)
	}
	if !exists {
		return apperr.NotFound(offerNotFoundMsg)
	}
	return nil
}

func (r *PostgresStore) checkBlockScope(ctx context.Context, orgID, blockID uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM offer_blocks b
			JOIN offers o ON o.id = b.offer_id
			WHERE b.id = $1 AND o.organization_id = $2
		)`, blockID, orgID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check block scope: %w", err)
	}
	if !exists {
		return apperr.NotFound(blockNotFoundMsg)
	}
	return nil
}

// Compile-time check that PostgresStore implements the offer contract.
var _ OfferRepository = (*PostgresStore)(nil)
