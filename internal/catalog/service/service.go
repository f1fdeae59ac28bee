// Package service exposes the read side of the catalog: listing, lookup and
// free-text search over the items an organization can place on offers.
package service

import (
	"context"
	"strings"

	"offerbuilder_backend/internal/catalog/repository"
	"offerbuilder_backend/internal/catalog/transport"
	"offerbuilder_backend/platform/apperr"
	"offerbuilder_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Service answers catalog queries.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a catalog service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Repository exposes the underlying store so other modules can read the
// catalog directly, through the same cache this service uses.
func (s *Service) Repository() repository.Repository {
	return s.repo
}

// List returns catalog items matching the request filters.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, req transport.ListItemsRequest) ([]transport.ItemResponse, error) {
	filters := repository.Filters{
		Types:         splitCSV(req.Types),
		Categories:    splitCSV(req.Categories),
		Tags:          splitCSV(req.Tags),
		OnlyAvailable: req.OnlyAvailable,
		Limit:         clampPageSize(req.Limit),
		Offset:        req.Offset,
	}

	items, err := s.repo.GetItems(ctx, orgID, filters)
	if err != nil {
		s.log.RepositoryError("catalog.list", err)
		return nil, err
	}
	return transport.ToItemResponses(items), nil
}

// Get returns one catalog item.
func (s *Service) Get(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*transport.ItemResponse, error) {
	item, err := s.repo.GetItemByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	resp := transport.ToItemResponse(item)
	return &resp, nil
}

// Search runs a free-text search over item names and descriptions.
func (s *Service) Search(ctx context.Context, orgID uuid.UUID, req transport.SearchItemsRequest) ([]transport.ItemResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, apperr.BadRequest("search query is required")
	}

	filters := repository.Filters{
		Types:         splitCSV(req.Types),
		OnlyAvailable: req.OnlyAvailable,
		Limit:         clampPageSize(req.Limit),
	}

	items, err := s.repo.SearchItems(ctx, orgID, query, filters)
	if err != nil {
		s.log.RepositoryError("catalog.search", err)
		return nil, err
	}
	return transport.ToItemResponses(items), nil
}

// Categories returns the distinct categories present in an organization's
// catalog, in sorted order.
func (s *Service) Categories(ctx context.Context, orgID uuid.UUID) ([]string, error) {
	items, err := s.repo.GetItems(ctx, orgID, repository.Filters{OnlyAvailable: true})
	if err != nil {
		s.log.RepositoryError("catalog.categories", err)
		return nil, err
	}

	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, item := range items {
		if item.Category == "" || seen[item.Category] {
			continue
		}
		seen[item.Category] = true
		categories = append(categories, item.Category)
	}
	return categories, nil
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func clampPageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
