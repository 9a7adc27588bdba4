package blog

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for the blog. All routes are public.
type Handler struct {
	service BlogService
}

// NewHandler creates a new blog handler.
func NewHandler(service BlogService) *Handler {
	return &Handler{service: service}
}

func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// List returns a page of articles (GET /api/blog?page=&limit=).
func (h *Handler) List(c echo.Context) error {
	page := intQueryParam(c, "page", 1)
	limit := intQueryParam(c, "limit", 0)

	result, err := h.service.ListArticles(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// BySlug returns one article with rendered content and related articles
// (GET /api/blog/:slug).
func (h *Handler) BySlug(c echo.Context) error {
	article, related, err := h.service.GetArticle(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"article": article,
		"related": related,
	})
}

// ByCategory returns articles in a category (GET /api/blog/category/:slug).
func (h *Handler) ByCategory(c echo.Context) error {
	page := intQueryParam(c, "page", 1)
	limit := intQueryParam(c, "limit", 0)

	articles, err := h.service.ListByCategory(c.Request().Context(), c.Param("slug"), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"articles": articles})
}

// ByTag returns articles carrying a tag (GET /api/blog/tag/:tag).
func (h *Handler) ByTag(c echo.Context) error {
	articles, err := h.service.ListByTag(c.Request().Context(), c.Param("tag"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"articles": articles})
}

// Search returns articles matching a query (GET /api/blog/search?q=).
func (h *Handler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "q is required",
		})
	}

	articles, err := h.service.Search(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"articles": articles})
}

// Categories returns the active categories (GET /api/blog/categories).
func (h *Handler) Categories(c echo.Context) error {
	categories, err := h.service.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"categories": categories})
}

// Tags returns all tags (GET /api/blog/tags).
func (h *Handler) Tags(c echo.Context) error {
	tags, err := h.service.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"tags": tags})
}
