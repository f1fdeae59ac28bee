package handler

import (
	"net/http"
	"strconv"

	"offerbuilder_backend/internal/offers/service"
	"offerbuilder_backend/internal/offers/transport"
	"offerbuilder_backend/platform/httpkit"
	"offerbuilder_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for offers
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new offers handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the offer routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/full", h.GetBundle)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.GET("/:id/transitions", h.AllowedTransitions)
	rg.GET("/:id/validation", h.Validate)
	rg.POST("/:id/share", h.Share)

	rg.POST("/:id/blocks", h.AddBlock)
	rg.PUT("/:id/blocks/:blockId", h.UpdateBlock)
	rg.DELETE("/:id/blocks/:blockId", h.DeleteBlock)
	rg.GET("/:id/blocks/:blockId/suggestions", h.SuggestItems)
	rg.POST("/:id/blocks/:blockId/items", h.AddItem)
	rg.PUT("/:id/blocks/:blockId/items/:itemId", h.UpdateItem)
	rg.DELETE("/:id/blocks/:blockId/items/:itemId", h.DeleteItem)
	rg.POST("/:id/blocks/:blockId/reorder", h.ReorderItems)

	rg.GET("/:id/adjustments", h.ListAdjustments)
	rg.POST("/:id/adjustments", h.CreateAdjustment)
	rg.GET("/:id/adjustments/:adjustmentId", h.GetAdjustment)
	rg.POST("/:id/adjustments/:adjustmentId/review", h.ReviewAdjustment)
	rg.POST("/:id/adjustments/:adjustmentId/apply", h.ApplyAdjustment)
	rg.POST("/:id/adjustments/:adjustmentId/comments", h.AddAdjustmentComment)

	rg.GET("/:id/versions", h.ListVersions)
	rg.GET("/:id/versions/:sequence", h.GetVersion)
	rg.GET("/:id/diff", h.DiffVersions)
}

// List handles GET /api/v1/offers
func (h *Handler) List(c *gin.Context) {
	var req transport.ListOffersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create handles POST /api/v1/offers
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// GetByID handles GET /api/v1/offers/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetBundle handles GET /api/v1/offers/:id/full
func (h *Handler) GetBundle(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	result, err := h.svc.GetBundle(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Update handles PUT /api/v1/offers/:id
func (h *Handler) Update(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	var req transport.UpdateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Update(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete handles DELETE /api/v1/offers/:id
func (h *Handler) Delete(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// UpdateStatus handles PATCH /api/v1/offers/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	var req transport.UpdateOfferStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpdateStatus(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AllowedTransitions handles GET /api/v1/offers/:id/transitions
func (h *Handler) AllowedTransitions(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	result, err := h.svc.AllowedTransitions(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"transitions": result})
}

// Validate handles GET /api/v1/offers/:id/validation
func (h *Handler) Validate(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	result, err := h.svc.Validate(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Share handles POST /api/v1/offers/:id/share
func (h *Handler) Share(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	result, err := h.svc.ShareOffer(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// AddBlock handles POST /api/v1/offers/:id/blocks
func (h *Handler) AddBlock(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	var req transport.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AddBlock(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// UpdateBlock handles PUT /api/v1/offers/:id/blocks/:blockId
func (h *Handler) UpdateBlock(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	blockID, err := uuid.Parse(c.Param("blockId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpdateBlock(c.Request.Context(), tenantID, id, blockID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteBlock handles DELETE /api/v1/offers/:id/blocks/:blockId
func (h *Handler) DeleteBlock(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	blockID, err := uuid.Parse(c.Param("blockId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.DeleteBlock(c.Request.Context(), tenantID, id, blockID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SuggestItems handles GET /api/v1/offers/:id/blocks/:blockId/suggestions
func (h *Handler) SuggestItems(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	blockID, err := uuid.Parse(c.Param("blockId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.SuggestItems(c.Request.Context(), tenantID, id, blockID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// AddItem handles POST /api/v1/offers/:id/blocks/:blockId/items
func (h *Handler) AddItem(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	blockID, err := uuid.Parse(c.Param("blockId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AddItem(c.Request.Context(), tenantID, id, blockID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// UpdateItem handles PUT /api/v1/offers/:id/blocks/:blockId/items/:itemId
func (h *Handler) UpdateItem(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	blockID, itemID, ok := itemScope(c)
	if !ok {
		return
	}

	var req transport.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpdateItem(c.Request.Context(), tenantID, id, blockID, itemID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteItem handles DELETE /api/v1/offers/:id/blocks/:blockId/items/:itemId
func (h *Handler) DeleteItem(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	blockID, itemID, ok := itemScope(c)
	if !ok {
		return
	}

	result, err := h.svc.DeleteItem(c.Request.Context(), tenantID, id, blockID, itemID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ReorderItems handles POST /api/v1/offers/:id/blocks/:blockId/reorder
func (h *Handler) ReorderItems(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	blockID, err := uuid.Parse(c.Param("blockId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ReorderItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ReorderItems(c.Request.Context(), tenantID, id, blockID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListAdjustments handles GET /api/v1/offers/:id/adjustments
func (h *Handler) ListAdjustments(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	result, err := h.svc.ListAdjustments(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// CreateAdjustment handles POST /api/v1/offers/:id/adjustments
func (h *Handler) CreateAdjustment(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	var req transport.CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateAdjustment(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// GetAdjustment handles GET /api/v1/offers/:id/adjustments/:adjustmentId
func (h *Handler) GetAdjustment(c *gin.Context) {
	_, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	adjustmentID, err := uuid.Parse(c.Param("adjustmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.GetAdjustment(c.Request.Context(), tenantID, adjustmentID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ReviewAdjustment handles POST /api/v1/offers/:id/adjustments/:adjustmentId/review
func (h *Handler) ReviewAdjustment(c *gin.Context) {
	_, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	adjustmentID, err := uuid.Parse(c.Param("adjustmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ReviewAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ReviewAdjustment(c.Request.Context(), tenantID, adjustmentID, identity.UserID().String(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ApplyAdjustment handles POST /api/v1/offers/:id/adjustments/:adjustmentId/apply
func (h *Handler) ApplyAdjustment(c *gin.Context) {
	_, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	adjustmentID, err := uuid.Parse(c.Param("adjustmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ApplyAdjustment(c.Request.Context(), tenantID, adjustmentID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddAdjustmentComment handles POST /api/v1/offers/:id/adjustments/:adjustmentId/comments
func (h *Handler) AddAdjustmentComment(c *gin.Context) {
	_, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	adjustmentID, err := uuid.Parse(c.Param("adjustmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AdjustmentCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AddAdjustmentComment(c.Request.Context(), tenantID, adjustmentID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// ListVersions handles GET /api/v1/offers/:id/versions
func (h *Handler) ListVersions(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	result, err := h.svc.ListVersions(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// GetVersion handles GET /api/v1/offers/:id/versions/:sequence
func (h *Handler) GetVersion(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}
	sequence, err := strconv.ParseInt(c.Param("sequence"), 10, 64)
	if err != nil || sequence < 1 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.GetVersion(c.Request.Context(), tenantID, id, sequence)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DiffVersions handles GET /api/v1/offers/:id/diff?from=N&to=M
func (h *Handler) DiffVersions(c *gin.Context) {
	id, tenantID, ok := offerScope(c)
	if !ok {
		return
	}

	var req transport.DiffVersionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.DiffVersions(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func offerScope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, uuid.UUID{}, false
	}
	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return uuid.UUID{}, uuid.UUID{}, false
	}
	return id, tenantID, true
}

func itemScope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	blockID, err := uuid.Parse(c.Param("blockId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, uuid.UUID{}, false
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, uuid.UUID{}, false
	}
	return blockID, itemID, true
}

func mustGetTenantID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, false
	}
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusBadRequest, "tenant ID is required", nil)
		return uuid.UUID{}, false
	}
	return *tenantID, true
}
