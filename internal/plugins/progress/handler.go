package progress

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jadihebat/platform/internal/apperror"
	"github.com/jadihebat/platform/internal/middleware"
)

// Handler handles HTTP requests for enrollments and lesson progress. All
// routes require a session; the route group applies the guard.
type Handler struct {
	service ProgressService
}

// NewHandler creates a new progress handler.
func NewHandler(service ProgressService) *Handler {
	return &Handler{service: service}
}

// lessonCompletionRequest is the body for lesson complete/incomplete calls.
type lessonCompletionRequest struct {
	LessonID string `json:"lessonId"`
	CourseID string `json:"courseId"`
}

// enrollRequest is the body for the enroll call.
type enrollRequest struct {
	CourseID string `json:"course_id"`
}

// Enroll enrolls the current user in a course (POST /api/enrollments/enroll).
func (h *Handler) Enroll(c echo.Context) error {
	var req enrollRequest
	if err := c.Bind(&req); err != nil || req.CourseID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Course ID is required",
		})
	}

	user := middleware.CurrentUser(c)

	enrollment, err := h.service.Enroll(c.Request().Context(), user.ID, req.CourseID)
	if err != nil {
		if apperror.SafeCode(err) == http.StatusConflict {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error":      "Already enrolled in this course",
				"enrollment": enrollment,
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"enrollment": enrollment,
	})
}

// CheckEnrollment reports enrollment status (GET /api/enrollments/check?courseId=).
func (h *Handler) CheckEnrollment(c echo.Context) error {
	courseID := c.QueryParam("courseId")
	if courseID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "courseId is required",
		})
	}

	user := middleware.CurrentUser(c)

	enrolled, err := h.service.IsEnrolled(c.Request().Context(), user.ID, courseID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"enrolled": enrolled,
	})
}

// MyCourses lists the current user's enrollments (GET /api/my-courses).
func (h *Handler) MyCourses(c echo.Context) error {
	user := middleware.CurrentUser(c)

	list, err := h.service.ListMyCourses(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"courses": list,
	})
}

// CompleteLesson marks a lesson complete (POST /api/progress/lesson/complete).
func (h *Handler) CompleteLesson(c echo.Context) error {
	return h.setCompletion(c, true)
}

// IncompleteLesson marks a lesson incomplete (POST /api/progress/lesson/incomplete).
func (h *Handler) IncompleteLesson(c echo.Context) error {
	return h.setCompletion(c, false)
}

func (h *Handler) setCompletion(c echo.Context, completed bool) error {
	var req lessonCompletionRequest
	if err := c.Bind(&req); err != nil || req.LessonID == "" || req.CourseID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Lesson ID and Course ID are required",
		})
	}

	user := middleware.CurrentUser(c)

	if err := h.service.SetLessonCompletion(c.Request().Context(), user.ID, req.LessonID, req.CourseID, completed); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
	})
}

// LessonCompleted reports one lesson's completion state
// (GET /api/progress/lesson/:lessonId/completed).
func (h *Handler) LessonCompleted(c echo.Context) error {
	lessonID := c.Param("lessonId")
	user := middleware.CurrentUser(c)

	completed, err := h.service.IsLessonCompleted(c.Request().Context(), user.ID, lessonID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"completed": completed,
	})
}

// CourseProgress returns all lesson progress for a course
// (GET /api/progress/course/:courseId).
func (h *Handler) CourseProgress(c echo.Context) error {
	courseID := c.Param("courseId")
	user := middleware.CurrentUser(c)

	list, err := h.service.GetCourseProgress(c.Request().Context(), user.ID, courseID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"progress": list,
	})
}

// CourseStats returns completion statistics for a course
// (GET /api/progress/course/:courseId/stats).
func (h *Handler) CourseStats(c echo.Context) error {
	courseID := c.Param("courseId")
	user := middleware.CurrentUser(c)

	stats, err := h.service.GetCourseStats(c.Request().Context(), user.ID, courseID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}
