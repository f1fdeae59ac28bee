package handler

import (
	"net/http"

	"offerbuilder_backend/internal/attachments/service"
	"offerbuilder_backend/internal/attachments/transport"
	"offerbuilder_backend/platform/httpkit"
	"offerbuilder_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request payload"

// Handler serves the attachment API of an offer.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates an attachments handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the attachment routes. The group is expected to be
// rooted at /offers/:id/attachments.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.RequestUpload)
	rg.GET("/:attachmentId/download", h.Download)
	rg.DELETE("/:attachmentId", h.Delete)
}

// RequestUpload reserves a presigned upload slot.
func (h *Handler) RequestUpload(c *gin.Context) {
	tenantID, offerID, userID, ok := attachmentScope(c)
	if !ok {
		return
	}

	var req transport.RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	slot, err := h.svc.RequestUpload(c.Request.Context(), tenantID, offerID, userID, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, slot)
}

// List returns the offer's attachment descriptors.
func (h *Handler) List(c *gin.Context) {
	tenantID, offerID, _, ok := attachmentScope(c)
	if !ok {
		return
	}

	attachments, err := h.svc.List(c.Request.Context(), tenantID, offerID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, attachments)
}

// Download returns a presigned download URL.
func (h *Handler) Download(c *gin.Context) {
	tenantID, offerID, _, ok := attachmentScope(c)
	if !ok {
		return
	}
	attachmentID, err := uuid.Parse(c.Param("attachmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid attachment ID", nil)
		return
	}

	resp, err := h.svc.Download(c.Request.Context(), tenantID, offerID, attachmentID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, resp)
}

// Delete removes an attachment.
func (h *Handler) Delete(c *gin.Context) {
	tenantID, offerID, _, ok := attachmentScope(c)
	if !ok {
		return
	}
	attachmentID, err := uuid.Parse(c.Param("attachmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid attachment ID", nil)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, offerID, attachmentID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.NoContent(c)
}

func attachmentScope(c *gin.Context) (uuid.UUID, uuid.UUID, *uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.Nil, uuid.Nil, nil, false
	}
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusBadRequest, "tenant ID is required", nil)
		return uuid.Nil, uuid.Nil, nil, false
	}

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid offer ID", nil)
		return uuid.Nil, uuid.Nil, nil, false
	}

	userID := identity.UserID()
	return *tenantID, offerID, &userID, true
}
