// Package attachments wires offer attachment storage: descriptors in
// Postgres, file bytes behind presigned MinIO URLs.
package attachments

import (
	"offerbuilder_backend/internal/attachments/handler"
	"offerbuilder_backend/internal/attachments/repository"
	"offerbuilder_backend/internal/attachments/service"
	apphttp "offerbuilder_backend/internal/http"
	offerrepo "offerbuilder_backend/internal/offers/repository"
	"offerbuilder_backend/platform/logger"
	"offerbuilder_backend/platform/storage"
	"offerbuilder_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the attachments components.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
}

// NewModule assembles the attachments module on top of the offers
// repositories (attachments always hang off an existing offer entity).
func NewModule(pool *pgxpool.Pool, store storage.ObjectStore, offers offerrepo.OfferRepository, adjustments offerrepo.AdjustmentRepository, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.NewPostgres(pool), store, offers, adjustments, log)
	return &Module{
		svc:     svc,
		handler: handler.New(svc, val),
	}
}

var _ apphttp.Module = (*Module)(nil)

// Name returns the module name.
func (m *Module) Name() string { return "attachments" }

// Service exposes the attachments service.
func (m *Module) Service() *service.Service { return m.svc }

// RegisterRoutes mounts the attachment API under the offer resource.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/offers/:id/attachments"))
}
