package handler

import (
	"net/http"

	"offerbuilder_backend/internal/catalog/service"
	"offerbuilder_backend/internal/catalog/transport"
	"offerbuilder_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves the catalog read API.
type Handler struct {
	svc *service.Service
}

// New creates a catalog handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the catalog routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/search", h.Search)
	rg.GET("/categories", h.Categories)
	rg.GET("/:id", h.Get)
}

// List returns catalog items, optionally filtered.
func (h *Handler) List(c *gin.Context) {
	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.ListItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query parameters", nil)
		return
	}

	items, err := h.svc.List(c.Request.Context(), tenantID, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, items)
}

// Get returns a single catalog item.
func (h *Handler) Get(c *gin.Context) {
	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid item ID", nil)
		return
	}

	item, err := h.svc.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, item)
}

// Search runs a free-text search over the catalog.
func (h *Handler) Search(c *gin.Context) {
	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.SearchItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "search query is required", nil)
		return
	}

	items, err := h.svc.Search(c.Request.Context(), tenantID, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, items)
}

// Categories lists the distinct categories in the catalog.
func (h *Handler) Categories(c *gin.Context) {
	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	categories, err := h.svc.Categories(c.Request.Context(), tenantID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.CategoriesResponse{Categories: categories})
}

func mustGetTenantID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.Nil, false
	}
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusBadRequest, "tenant ID is required", nil)
		return uuid.Nil, false
	}
	return *tenantID, true
}
