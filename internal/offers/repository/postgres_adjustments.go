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

// PostgresAdjustments is the production AdjustmentRepository.
type PostgresAdjustments struct {
	pool *pgxpool.Pool
}

// NewPostgresAdjustments creates a new Postgres-backed adjustment repository.
func NewPostgresAdjustments(pool *pgxpool.Pool) *PostgresAdjustments {
	return &PostgresAdjustments{pool: pool}
}

const adjustmentColumns = `
	id, offer_id, requested_by, requester_role, type, target_kind, target_id,
	description, proposed_change, price_impact_cents, status,
	reviewed_by, reviewed_at, created_at, updated_at`

// GetByOfferID returns the offer's adjustments with comments, oldest first.
func (r *PostgresAdjustments) GetByOfferID(ctx context.Context, orgID, offerID uuid.UUID) ([]*domain.Adjustment, error) {
	query := `
		SELECT ` + adjustmentColumns + `
		FROM offer_adjustments a
		WHERE a.offer_id = $1
			AND EXISTS (SELECT 1 FROM offers o WHERE o.id = a.offer_id AND o.organization_id = $2)
		ORDER BY a.created_at ASC`

	rows, err := r.pool.Query(ctx, query, offerID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Adjustment
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate adjustments: %w", err)
	}

	for _, adj := range out {
		comments, err := r.commentsByAdjustmentID(ctx, adj.ID)
		if err != nil {
			return nil, err
		}
		adj.Comments = comments
	}
	return out, nil
}

// GetByID returns a single adjustment with its comments.
func (r *PostgresAdjustments) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Adjustment, error) {
	query := `
		SELECT ` + adjustmentColumns + `
		FROM offer_adjustments a
		WHERE a.id = $1
			AND EXISTS (SELECT 1 FROM offers o WHERE o.id = a.offer_id AND o.organization_id = $2)`

	row := r.pool.QueryRow(ctx, query, id, orgID)
	adj, err := scanAdjustment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(adjustmentNotFoundMsg)
		}
		return nil, err
	}

	comments, err := r.commentsByAdjustmentID(ctx, adj.ID)
	if err != nil {
		return nil, err
	}
	adj.Comments = comments
	return adj, nil
}

// Create persists a new adjustment in pending state.
func (r *PostgresAdjustments) Create(ctx context.Context, adj *domain.Adjustment) (*domain.Adjustment, error) {
	now := time.Now()
	stored := *adj
	stored.ID = uuid.New()
	if stored.Status == "" {
		stored.Status = domain.AdjustmentStatusPending
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	query := `
		INSERT INTO offer_adjustments (
			id, offer_id, requested_by, requester_role, type, target_kind, target_id,
			description, proposed_change, price_impact_cents, status,
			reviewed_by, reviewed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := r.pool.Exec(ctx, query,
		stored.ID, stored.OfferID, stored.RequestedBy, stored.RequesterRole,
		stored.Type, stored.TargetKind, stored.TargetID,
		stored.Description, stored.ProposedChange, stored.PriceImpactCents, stored.Status,
		stored.ReviewedBy, stored.ReviewedAt, stored.CreatedAt, stored.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert adjustment: %w", err)
	}
	return &stored, nil
}

// Update persists the adjustment's current field values.
func (r *PostgresAdjustments) Update(ctx context.Context, adj *domain.Adjustment) (*domain.Adjustment, error) {
	updated := *adj
	updated.UpdatedAt = time.Now()

	query := `
		UPDATE offer_adjustments SET
			description = $2, proposed_change = $3, price_impact_cents = $4,
			status = $5, reviewed_by = $6, reviewed_at = $7, updated_at = $8
		WHERE id = $1`
	result, err := r.pool.Exec(ctx, query,
		updated.ID, updated.Description, updated.ProposedChange, updated.PriceImpactCents,
		updated.Status, updated.ReviewedBy, updated.ReviewedAt, updated.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update adjustment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperr.NotFound(adjustmentNotFoundMsg)
	}
	return &updated, nil
}

// Delete removes an adjustment; comments cascade at the schema level.
func (r *PostgresAdjustments) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	query := `
		DELETE FROM offer_adjustments a
		USING offers o
		WHERE a.id = $1 AND a.offer_id = o.id AND o.organization_id = $2`
	result, err := r.pool.Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete adjustment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(adjustmentNotFoundMsg)
	}
	return nil
}

// AddComment appends a comment to an adjustment.
func (r *PostgresAdjustments) AddComment(ctx context.Context, orgID uuid.UUID, comment *domain.AdjustmentComment) (*domain.AdjustmentComment, error) {
	if _, err := r.GetByID(ctx, orgID, comment.AdjustmentID); err != nil {
		return nil, err
	}

	stored := *comment
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()

	query := `
		INSERT INTO adjustment_comments (id, adjustment_id, author, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.pool.Exec(ctx, query,
		stored.ID, stored.AdjustmentID, stored.Author, stored.Body, stored.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert adjustment comment: %w", err)
	}
	return &stored, nil
}

func (r *PostgresAdjustments) commentsByAdjustmentID(ctx context.Context, adjustmentID uuid.UUID) ([]domain.AdjustmentComment, error) {
	query := `
		SELECT id, adjustment_id, author, body, created_at
		FROM adjustment_comments WHERE adjustment_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, adjustmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustment comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.AdjustmentComment
	for rows.Next() {
		var c domain.AdjustmentComment
		if err := rows.Scan(&c.ID, &c.AdjustmentID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate adjustment comments: %w", err)
	}
	return comments, nil
}

func scanAdjustment(row pgx.Row) (*domain.Adjustment, error) {
	var adj domain.Adjustment
	if err := row.Scan(
		&adj.ID, &adj.OfferID, &adj.RequestedBy, &adj.RequesterRole,
		&adj.Type, &adj.TargetKind, &adj.TargetID,
		&adj.Description, &adj.ProposedChange, &adj.PriceImpactCents, &adj.Status,
		&adj.ReviewedBy, &adj.ReviewedAt, &adj.CreatedAt, &adj.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan adjustment: %w", err)
	}
	return &adj, nil
}

// Compile-time check.
var _ AdjustmentRepository = (*PostgresAdjustments)(nil)
