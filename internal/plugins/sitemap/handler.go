package sitemap

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the sitemap.
type Handler struct {
	service *SitemapService
}

// NewHandler creates a new sitemap handler.
func NewHandler(service *SitemapService) *Handler {
	return &Handler{service: service}
}

// Sitemap serves /sitemap.xml. The service caches the document, so the
// handler only needs to set crawler-friendly cache headers.
func (h *Handler) Sitemap(c echo.Context) error {
	content, err := h.service.Generate(c.Request().Context())
	if err != nil {
		return err
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", []byte(content))
}

// RegisterRoutes sets up the sitemap route.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/sitemap.xml", h.Sitemap)
}
