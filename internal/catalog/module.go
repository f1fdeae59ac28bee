// Package catalog wires the catalog read API: Postgres storage behind a
// Redis read-through cache, exposed over HTTP and to the offer engine.
package catalog

import (
	"offerbuilder_backend/internal/catalog/cache"
	"offerbuilder_backend/internal/catalog/handler"
	"offerbuilder_backend/internal/catalog/repository"
	"offerbuilder_backend/internal/catalog/service"
	apphttp "offerbuilder_backend/internal/http"
	"offerbuilder_backend/platform/config"
	"offerbuilder_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module bundles the catalog components.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
}

// NewModule assembles the catalog module. A nil Redis client runs the
// catalog uncached.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, cfg config.CacheConfig, log *logger.Logger) *Module {
	store := cache.New(repository.New(pool), rdb, cfg.GetCatalogCacheTTL(), log)
	svc := service.New(store, log)
	return &Module{
		svc:     svc,
		handler: handler.New(svc),
	}
}

var _ apphttp.Module = (*Module)(nil)

// Name returns the module name.
func (m *Module) Name() string { return "catalog" }

// Service exposes the catalog service.
func (m *Module) Service() *service.Service { return m.svc }

// Repository exposes the cached catalog store so other modules read the
// catalog through the same cache.
func (m *Module) Repository() repository.Repository { return m.svc.Repository() }

// RegisterRoutes mounts the catalog API under the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/catalog"))
}
