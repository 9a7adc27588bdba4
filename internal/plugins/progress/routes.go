package progress

import (
	"github.com/labstack/echo/v4"

	"github.com/jadihebat/platform/internal/middleware"
)

// RegisterRoutes sets up enrollment and progress routes. Everything here is
// per-user data, so the whole group requires a session. The session
// middleware has already resolved the identity; RequireLogin only turns its
// absence into a 401.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	api := e.Group("/api", middleware.RequireLogin)

	api.POST("/enrollments/enroll", h.Enroll)
	api.GET("/enrollments/check", h.CheckEnrollment)
	api.GET("/my-courses", h.MyCourses)

	api.POST("/progress/lesson/complete", h.CompleteLesson)
	api.POST("/progress/lesson/incomplete", h.IncompleteLesson)
	api.GET("/progress/lesson/:lessonId/completed", h.LessonCompleted)
	api.GET("/progress/course/:courseId", h.CourseProgress)
	api.GET("/progress/course/:courseId/stats", h.CourseStats)
}
