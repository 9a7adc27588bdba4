package courses

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jadihebat/platform/internal/middleware"
)

// EnrollmentChecker reports whether a user is enrolled in a course. The
// progress plugin provides the implementation; the indirection keeps this
// package from depending on enrollment internals.
type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
}

// Handler handles HTTP requests for the course catalog. Handlers are thin:
// bind request, call service, render response.
type Handler struct {
	service     CourseService
	enrollments EnrollmentChecker
}

// NewHandler creates a new catalog handler.
func NewHandler(service CourseService, enrollments EnrollmentChecker) *Handler {
	return &Handler{service: service, enrollments: enrollments}
}

// Catalog returns the published course list (GET /api/courses).
// Supports ?category=<slug> and ?limit=<n>.
func (h *Handler) Catalog(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	list, err := h.service.GetCatalog(c.Request().Context(), c.QueryParam("category"), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"courses": list,
	})
}

// Categories returns the active categories (GET /api/categories).
func (h *Handler) Categories(c echo.Context) error {
	categories, err := h.service.GetCategories(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"categories": categories,
	})
}

// Detail returns a course with its content hierarchy
// (GET /api/courses/:slug). Anonymous visitors and non-enrolled users see
// the outline with free lesson content only; enrolled users get everything.
func (h *Handler) Detail(c echo.Context) error {
	slug := c.Param("slug")
	if slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "course slug is required")
	}

	ctx := c.Request().Context()

	// The enrollment check needs the course ID, so resolve the outline
	// first and upgrade to full content when the check passes.
	detail, err := h.service.GetCourseDetail(ctx, slug, false)
	if err != nil {
		return err
	}

	if user := middleware.CurrentUser(c); user != nil {
		enrolled, err := h.enrollments.IsEnrolled(ctx, user.ID, detail.Course.ID)
		if err != nil {
			// Degrade to the outline view rather than failing the page.
			slog.Warn("enrollment check failed",
				slog.String("course_id", detail.Course.ID),
				slog.Any("error", err),
			)
		} else if enrolled {
			detail, err = h.service.GetCourseDetail(ctx, slug, true)
			if err != nil {
				return err
			}
		}
	}

	return c.JSON(http.StatusOK, detail)
}
