package blog

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up blog routes. The blog is fully public.
// Static paths register before the :slug catch-all so Echo's router does
// not swallow them.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/blog")

	g.GET("", h.List)
	g.GET("/search", h.Search)
	g.GET("/categories", h.Categories)
	g.GET("/tags", h.Tags)
	g.GET("/category/:slug", h.ByCategory)
	g.GET("/tag/:tag", h.ByTag)
	g.GET("/:slug", h.BySlug)
}
