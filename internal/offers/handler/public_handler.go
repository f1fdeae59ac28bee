package handler

import (
	"net/http"

	"offerbuilder_backend/internal/offers/service"
	"offerbuilder_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

// PublicHandler serves the unauthenticated share-link surface.
type PublicHandler struct {
	svc        *service.Service
	appBaseURL string
}

// NewPublic creates a handler for public offer routes.
func NewPublic(svc *service.Service, appBaseURL string) *PublicHandler {
	return &PublicHandler{svc: svc, appBaseURL: appBaseURL}
}

// RegisterRoutes registers the public offer routes
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/offers/:token", h.GetOffer)
	rg.GET("/offers/:token/qr", h.GetQRCode)
}

// GetOffer handles GET /public/offers/:token
func (h *PublicHandler) GetOffer(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.GetPublic(c.Request.Context(), token)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetQRCode handles GET /public/offers/:token/qr and renders the share URL
// as a PNG for print material.
func (h *PublicHandler) GetQRCode(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	// Verify before rendering so expired links 404 instead of yielding a
	// dead QR code.
	if _, _, err := h.svc.ResolveShareToken(token); err != nil {
		if httpkit.HandleError(c, err) {
			return
		}
	}

	url := h.appBaseURL + "/public/offers/" + token
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "QR generation failed", nil)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
