package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"offerbuilder_backend/platform/apperr"

	"github.com/google/uuid"
)

// Memory is an in-memory catalog repository for tests and local development.
type Memory struct {
	mu    sync.RWMutex
	items map[uuid.UUID][]Item
}

// NewMemory creates an empty in-memory catalog repository.
func NewMemory() *Memory {
	return &Memory{items: make(map[uuid.UUID][]Item)}
}

var _ Repository = (*Memory)(nil)

// Seed replaces the catalog of an organization.
func (m *Memory) Seed(orgID uuid.UUID, items []Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[orgID] = append([]Item(nil), items...)
}

func (m *Memory) GetItems(_ context.Context, orgID uuid.UUID, filters Filters) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]Item, 0)
	for _, item := range m.items[orgID] {
		if matchesFilters(item, filters) {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Category != matched[j].Category {
			return matched[i].Category < matched[j].Category
		}
		return matched[i].Name < matched[j].Name
	})
	return paginate(matched, filters), nil
}

func (m *Memory) GetItemByID(_ context.Context, orgID uuid.UUID, id uuid.UUID) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items[orgID] {
		if item.ID == id {
			return item, nil
		}
	}
	return Item{}, apperr.NotFound(itemNotFoundMessage)
}

func (m *Memory) SearchItems(ctx context.Context, orgID uuid.UUID, query string, filters Filters) ([]Item, error) {
	all, err := m.GetItems(ctx, orgID, Filters{Types: filters.Types, Categories: filters.Categories, Tags: filters.Tags, OnlyAvailable: filters.OnlyAvailable})
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	matched := make([]Item, 0)
	for _, item := range all {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			matched = append(matched, item)
			continue
		}
		if item.Description != nil && strings.Contains(strings.ToLower(*item.Description), needle) {
			matched = append(matched, item)
		}
	}
	return paginate(matched, filters), nil
}

func (m *Memory) GetItemsByType(ctx context.Context, orgID uuid.UUID, itemType string) ([]Item, error) {
	return m.GetItems(ctx, orgID, Filters{Types: []string{itemType}, OnlyAvailable: true})
}

func (m *Memory) GetItemsByCategory(ctx context.Context, orgID uuid.UUID, category string) ([]Item, error) {
	return m.GetItems(ctx, orgID, Filters{Categories: []string{category}, OnlyAvailable: true})
}

func matchesFilters(item Item, filters Filters) bool {
	if filters.OnlyAvailable && !item.Available {
		return false
	}
	if len(filters.Types) > 0 && !contains(filters.Types, item.Type) {
		return false
	}
	if len(filters.Categories) > 0 && !contains(filters.Categories, item.Category) {
		return false
	}
	if len(filters.Tags) > 0 && !overlaps(filters.Tags, item.Tags) {
		return false
	}
	return true
}

func paginate(items []Item, filters Filters) []Item {
	if filters.Offset > 0 {
		if filters.Offset >= len(items) {
			return []Item{}
		}
		items = items[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(items) {
		items = items[:filters.Limit]
	}
	return items
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func overlaps(want, have []string) bool {
	for _, w := range want {
		if contains(have, w) {
			return true
		}
	}
	return false
}
