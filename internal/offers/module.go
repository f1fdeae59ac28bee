// Package offers provides the offer authoring domain module.
package offers

import (
	apphttp "offerbuilder_backend/internal/http"
	"offerbuilder_backend/internal/offers/handler"
	"offerbuilder_backend/internal/offers/plugin"
	"offerbuilder_backend/internal/offers/repository"
	"offerbuilder_backend/internal/offers/service"
	"offerbuilder_backend/platform/config"
	"offerbuilder_backend/platform/events"
	"offerbuilder_backend/platform/logger"
	"offerbuilder_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the offers domain module
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
	store         repository.OfferRepository
	adjustments   repository.AdjustmentRepository
}

// NewModule creates a new offers module with all dependencies wired
func NewModule(pool *pgxpool.Pool, plug plugin.Plugin, eventBus *events.InMemoryBus, val *validator.Validator, shareCfg config.ShareConfig, log *logger.Logger) *Module {
	store := repository.NewPostgresStore(pool)
	adjustments := repository.NewPostgresAdjustments(pool)
	versions := repository.NewPostgresVersions(pool)

	svc := service.New(store, adjustments, versions, plug, log)
	svc.SetEventBus(eventBus)
	svc.SetShareConfig(shareCfg)

	return &Module{
		handler:       handler.New(svc, val),
		publicHandler: handler.NewPublic(svc, shareCfg.GetAppBaseURL()),
		service:       svc,
		store:         store,
		adjustments:   adjustments,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "offers"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// SetCatalogReader wires the catalog port used for suggestions.
func (m *Module) SetCatalogReader(reader service.CatalogReader) {
	m.service.SetCatalogReader(reader)
}

// SetExpiryScheduler wires the deferred-expiry scheduler.
func (m *Module) SetExpiryScheduler(sched service.ExpiryScheduler) {
	m.service.SetExpiryScheduler(sched)
}

// Repository exposes offer storage for modules that hang off offers
// (attachments, notifications).
func (m *Module) Repository() repository.OfferRepository {
	return m.store
}

// Adjustments exposes adjustment storage for the same purpose.
func (m *Module) Adjustments() repository.AdjustmentRepository {
	return m.adjustments
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/offers"))

	// Public routes, no auth middleware
	m.publicHandler.RegisterRoutes(ctx.Public)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
