package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresVersions is the production VersionRepository. Snapshots are stored
// as JSONB; the table is append-only and nothing here updates or deletes.
type PostgresVersions struct {
	pool *pgxpool.Pool
}

// NewPostgresVersions creates a new Postgres-backed version repository.
func NewPostgresVersions(pool *pgxpool.Pool) *PostgresVersions {
	return &PostgresVersions{pool: pool}
}

// Append stores a new snapshot, assigning the next sequence number inside a
// transaction so concurrent saves of different offers cannot interleave.
func (r *PostgresVersions) Append(ctx context.Context, orgID uuid.UUID, version *domain.Version) (*domain.Version, error) {
	snapshot, err := json.Marshal(version.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode offer snapshot: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stored := *version
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()

	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(v.sequence), 0) + 1
		FROM offer_versions v
		WHERE v.offer_id = $1`, version.OfferID,
	).Scan(&stored.Sequence)
	if err != nil {
		return nil, fmt.Errorf("failed to compute next version sequence: %w", err)
	}

	query := `
		INSERT INTO offer_versions (id, offer_id, sequence, snapshot, change_log, changed_fields, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE EXISTS (SELECT 1 FROM offers o WHERE o.id = $2 AND o.organization_id = $8)`
	result, err := tx.Exec(ctx, query,
		stored.ID, stored.OfferID, stored.Sequence, snapshot,
		stored.ChangeLog, stored.ChangedFields, stored.CreatedAt, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert offer version: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperr.NotFound(offerNotFoundMsg)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit offer version: %w", err)
	}
	return &stored, nil
}

// ListByOfferID returns all versions of the offer in sequence order.
func (r *PostgresVersions) ListByOfferID(ctx context.Context, orgID, offerID uuid.UUID) ([]*domain.Version, error) {
	query := `
		SELECT v.id, v.offer_id, v.sequence, v.snapshot, v.change_log, v.changed_fields, v.created_at
		FROM offer_versions v
		JOIN offers o ON o.id = v.offer_id
		WHERE v.offer_id = $1 AND o.organization_id = $2
		ORDER BY v.sequence ASC`

	rows, err := r.pool.Query(ctx, query, offerID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offer versions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offer versions: %w", err)
	}
	return out, nil
}

// GetBySequence returns one snapshot by its sequence number.
func (r *PostgresVersions) GetBySequence(ctx context.Context, orgID, offerID uuid.UUID, sequence int64) (*domain.Version, error) {
	query := `
		SELECT v.id, v.offer_id, v.sequence, v.snapshot, v.change_log, v.changed_fields, v.created_at
		FROM offer_versions v
		JOIN offers o ON o.id = v.offer_id
		WHERE v.offer_id = $1 AND o.organization_id = $2 AND v.sequence = $3`

	v, err := scanVersion(r.pool.QueryRow(ctx, query, offerID, orgID, sequence))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(versionNotFoundMsg)
		}
		return nil, err
	}
	return v, nil
}

// LatestSequence returns the highest stored sequence, zero when none exist.
func (r *PostgresVersions) LatestSequence(ctx context.Context, orgID, offerID uuid.UUID) (int64, error) {
	var latest int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(v.sequence), 0)
		FROM offer_versions v
		JOIN offers o ON o.id = v.offer_id
		WHERE v.offer_id = $1 AND o.organization_id = $2`, offerID, orgID,
	).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest version sequence: %w", err)
	}
	return latest, nil
}

func scanVersion(row pgx.Row) (*domain.Version, error) {
	var v domain.Version
	var snapshot []byte
	if err := row.Scan(&v.ID, &v.OfferID, &v.Sequence, &snapshot, &v.ChangeLog, &v.ChangedFields, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan offer version: %w", err)
	}
	if err := json.Unmarshal(snapshot, &v.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode offer snapshot: %w", err)
	}
	return &v, nil
}

// Compile-time check.
var _ VersionRepository = (*PostgresVersions)(nil)
