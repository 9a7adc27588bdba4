package courses

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the catalog routes. All of them are public: the
// catalog is browsable without a session, and the detail handler itself
// decides how much lesson content the caller may see.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/api/courses", h.Catalog)
	e.GET("/api/courses/:slug", h.Detail)
	e.GET("/api/categories", h.Categories)
}
