package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const itemNotFoundMessage = "catalog item not found"

const itemColumns = `id, organization_id, type, name, description, price_cents, tax_rate_bps, category, tags, available, created_at, updated_at`

// Repo implements the catalog repository against Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetItems returns catalog items matching the filters.
func (r *Repo) GetItems(ctx context.Context, orgID uuid.UUID, filters Filters) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM catalog_items WHERE organization_id = $1`
	args := []any{orgID}

	query, args = applyFilters(query, args, filters)
	query += ` ORDER BY category, name`
	if filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filters.Limit)
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get catalog items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetItemByID returns one catalog item.
func (r *Repo) GetItemByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (Item, error) {
	query := `SELECT ` + itemColumns + ` FROM catalog_items WHERE organization_id = $1 AND id = $2`

	row := r.pool.QueryRow(ctx, query, orgID, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, apperr.NotFound(itemNotFoundMessage)
		}
		return Item{}, fmt.Errorf("get catalog item: %w", err)
	}
	return item, nil
}

// SearchItems returns items whose name or description matches the query.
func (r *Repo) SearchItems(ctx context.Context, orgID uuid.UUID, search string, filters Filters) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM catalog_items
		WHERE organization_id = $1 AND (name ILIKE $2 OR description ILIKE $2)`
	args := []any{orgID, "%" + strings.TrimSpace(search) + "%"}

	query, args = applyFilters(query, args, filters)
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search catalog items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetItemsByType returns available items of one plugin item type.
func (r *Repo) GetItemsByType(ctx context.Context, orgID uuid.UUID, itemType string) ([]Item, error) {
	return r.GetItems(ctx, orgID, Filters{Types: []string{itemType}, OnlyAvailable: true})
}

// GetItemsByCategory returns available items in one category.
func (r *Repo) GetItemsByCategory(ctx context.Context, orgID uuid.UUID, category string) ([]Item, error) {
	return r.GetItems(ctx, orgID, Filters{Categories: []string{category}, OnlyAvailable: true})
}

func applyFilters(query string, args []any, filters Filters) (string, []any) {
	if len(filters.Types) > 0 {
		args = append(args, filters.Types)
		query += fmt.Sprintf(` AND type = ANY($%d)`, len(args))
	}
	if len(filters.Categories) > 0 {
		args = append(args, filters.Categories)
		query += fmt.Sprintf(` AND category = ANY($%d)`, len(args))
	}
	if len(filters.Tags) > 0 {
		args = append(args, filters.Tags)
		query += fmt.Sprintf(` AND tags && $%d`, len(args))
	}
	if filters.OnlyAvailable {
		query += ` AND available`
	}
	return query, args
}

func scanItems(rows pgx.Rows) ([]Item, error) {
	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(
		&item.ID,
		&item.OrganizationID,
		&item.Type,
		&item.Name,
		&item.Description,
		&item.PriceCents,
		&item.TaxRateBps,
		&item.Category,
		&item.Tags,
		&item.Available,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}
