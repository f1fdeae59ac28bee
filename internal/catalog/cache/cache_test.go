package cache

import (
	"context"
	"testing"

	catalogrepo "offerbuilder_backend/internal/catalog/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type countingRepo struct {
	*catalogrepo.Memory
	getItems  int
	getByID   int
	searches  int
}

func (c *countingRepo) GetItems(ctx context.Context, orgID uuid.UUID, filters catalogrepo.Filters) ([]catalogrepo.Item, error) {
	c.getItems++
	return c.Memory.GetItems(ctx, orgID, filters)
}

func (c *countingRepo) GetItemByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (catalogrepo.Item, error) {
	c.getByID++
	return c.Memory.GetItemByID(ctx, orgID, id)
}

func (c *countingRepo) SearchItems(ctx context.Context, orgID uuid.UUID, query string, filters catalogrepo.Filters) ([]catalogrepo.Item, error) {
	c.searches++
	return c.Memory.SearchItems(ctx, orgID, query, filters)
}

func newTestCache(t *testing.T) (*Cache, *countingRepo, uuid.UUID) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	orgID := uuid.New()
	repo := &countingRepo{Memory: catalogrepo.NewMemory()}
	repo.Seed(orgID, []catalogrepo.Item{
		{ID: uuid.New(), OrganizationID: orgID, Type: "food", Name: "Sandwich platter", PriceCents: 850, TaxRateBps: 900, Category: "lunch", Available: true},
		{ID: uuid.New(), OrganizationID: orgID, Type: "beverage", Name: "Coffee", PriceCents: 250, TaxRateBps: 900, Category: "beverage", Available: true},
	})

	return New(repo, rdb, 0, nil), repo, orgID
}

func TestGetItemsReadThrough(t *testing.T) {
	c, repo, orgID := newTestCache(t)
	ctx := context.Background()

	first, err := c.GetItems(ctx, orgID, catalogrepo.Filters{OnlyAvailable: true})
	if err != nil {
		t.Fatalf("first GetItems: %v", err)
	}
	second, err := c.GetItems(ctx, orgID, catalogrepo.Filters{OnlyAvailable: true})
	if err != nil {
		t.Fatalf("second GetItems: %v", err)
	}

	if repo.getItems != 1 {
		t.Fatalf("expected 1 repository hit, got %d", repo.getItems)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 items both times, got %d and %d", len(first), len(second))
	}
	if second[0].Name != first[0].Name {
		t.Fatalf("cached list diverged: %q vs %q", second[0].Name, first[0].Name)
	}
}

func TestDistinctFiltersDistinctEntries(t *testing.T) {
	c, repo, orgID := newTestCache(t)
	ctx := context.Background()

	if _, err := c.GetItems(ctx, orgID, catalogrepo.Filters{Types: []string{"food"}}); err != nil {
		t.Fatalf("food filter: %v", err)
	}
	if _, err := c.GetItems(ctx, orgID, catalogrepo.Filters{Types: []string{"beverage"}}); err != nil {
		t.Fatalf("beverage filter: %v", err)
	}

	if repo.getItems != 2 {
		t.Fatalf("expected distinct filters to miss separately, got %d hits", repo.getItems)
	}

	beverages, err := c.GetItems(ctx, orgID, catalogrepo.Filters{Types: []string{"beverage"}})
	if err != nil {
		t.Fatalf("cached beverage filter: %v", err)
	}
	if repo.getItems != 2 {
		t.Fatalf("expected repeat filter to hit cache, got %d repository hits", repo.getItems)
	}
	if len(beverages) != 1 || beverages[0].Name != "Coffee" {
		t.Fatalf("unexpected cached beverage list: %+v", beverages)
	}
}

func TestGetItemByIDCachesAndInvalidates(t *testing.T) {
	c, repo, orgID := newTestCache(t)
	ctx := context.Background()

	items, err := repo.Memory.GetItems(ctx, orgID, catalogrepo.Filters{})
	if err != nil {
		t.Fatalf("seed lookup: %v", err)
	}
	id := items[0].ID

	if _, err := c.GetItemByID(ctx, orgID, id); err != nil {
		t.Fatalf("first GetItemByID: %v", err)
	}
	if _, err := c.GetItemByID(ctx, orgID, id); err != nil {
		t.Fatalf("second GetItemByID: %v", err)
	}
	if repo.getByID != 1 {
		t.Fatalf("expected 1 repository hit, got %d", repo.getByID)
	}

	c.Invalidate(ctx, orgID)

	if _, err := c.GetItemByID(ctx, orgID, id); err != nil {
		t.Fatalf("GetItemByID after invalidation: %v", err)
	}
	if repo.getByID != 2 {
		t.Fatalf("expected invalidation to force a repository hit, got %d", repo.getByID)
	}
}

func TestSearchBypassesCache(t *testing.T) {
	c, repo, orgID := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.SearchItems(ctx, orgID, "coffee", catalogrepo.Filters{}); err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
	}
	if repo.searches != 2 {
		t.Fatalf("expected search to always reach the repository, got %d hits", repo.searches)
	}
}
