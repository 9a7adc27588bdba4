package quiz

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jadihebat/platform/internal/middleware"
)

// Handler handles HTTP requests for quizzes and attempts.
type Handler struct {
	service QuizService
}

// NewHandler creates a new quiz handler.
func NewHandler(service QuizService) *Handler {
	return &Handler{service: service}
}

type lessonIDRequest struct {
	LessonID string `json:"lessonId"`
}

type startAttemptRequest struct {
	QuizID string `json:"quizId"`
}

type submitAnswersRequest struct {
	AttemptID string   `json:"attemptId"`
	Answers   []Answer `json:"answers"`
}

type completeAttemptRequest struct {
	AttemptID string `json:"attemptId"`
	TimeTaken int    `json:"timeTaken"`
}

// Exists reports whether a lesson has a quiz (POST /api/quiz/exists).
func (h *Handler) Exists(c echo.Context) error {
	var req lessonIDRequest
	if err := c.Bind(&req); err != nil || req.LessonID == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Lesson ID is required",
		})
	}

	exists, err := h.service.QuizExists(c.Request().Context(), req.LessonID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"quizExists": exists,
	})
}

// ByLesson returns the quiz for a lesson (GET /api/quiz/lesson/:lessonId).
// Questions come with their options but never with the correct answers.
func (h *Handler) ByLesson(c echo.Context) error {
	quiz, err := h.service.GetQuizByLesson(c.Request().Context(), c.Param("lessonId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"quiz":    quiz,
	})
}

// StartAttempt opens a new attempt (POST /api/quiz/attempt/start).
func (h *Handler) StartAttempt(c echo.Context) error {
	var req startAttemptRequest
	if err := c.Bind(&req); err != nil || req.QuizID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Quiz ID is required",
		})
	}

	user := middleware.CurrentUser(c)

	attemptID, err := h.service.StartAttempt(c.Request().Context(), user.ID, req.QuizID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"attemptId": attemptID,
	})
}

// SubmitAnswers records a batch of answers (POST /api/quiz/attempt/submit).
func (h *Handler) SubmitAnswers(c echo.Context) error {
	var req submitAnswersRequest
	if err := c.Bind(&req); err != nil || req.AttemptID == "" || req.Answers == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Attempt ID and answers array are required",
		})
	}

	user := middleware.CurrentUser(c)

	if err := h.service.SubmitAnswers(c.Request().Context(), user.ID, req.AttemptID, req.Answers); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
	})
}

// CompleteAttempt finalises an attempt (POST /api/quiz/attempt/complete).
// The score is computed from the recorded answers, not taken from the body.
func (h *Handler) CompleteAttempt(c echo.Context) error {
	var req completeAttemptRequest
	if err := c.Bind(&req); err != nil || req.AttemptID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Attempt ID is required",
		})
	}

	user := middleware.CurrentUser(c)

	result, err := h.service.CompleteAttempt(c.Request().Context(), user.ID, req.AttemptID, req.TimeTaken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"result":  result,
	})
}

// BestScore returns the user's best completed score for a lesson's quiz
// (POST /api/quiz/best-score). No quiz or no attempt both yield null.
func (h *Handler) BestScore(c echo.Context) error {
	var req lessonIDRequest
	if err := c.Bind(&req); err != nil || req.LessonID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Lesson ID is required",
		})
	}

	user := middleware.CurrentUser(c)

	best, err := h.service.GetBestScoreByLesson(c.Request().Context(), user.ID, req.LessonID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"bestScore": best,
	})
}
