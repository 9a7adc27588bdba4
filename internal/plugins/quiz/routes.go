package quiz

import (
	"github.com/labstack/echo/v4"

	"github.com/jadihebat/platform/internal/middleware"
)

// RegisterRoutes sets up quiz routes. Existence checks are public so lesson
// pages can show a quiz badge without a session; everything touching
// attempts or scores requires one.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.POST("/api/quiz/exists", h.Exists)

	api := e.Group("/api/quiz", middleware.RequireLogin)
	api.GET("/lesson/:lessonId", h.ByLesson)
	api.POST("/attempt/start", h.StartAttempt)
	api.POST("/attempt/submit", h.SubmitAnswers)
	api.POST("/attempt/complete", h.CompleteAttempt)
	api.POST("/best-score", h.BestScore)
}
