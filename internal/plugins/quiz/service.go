package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jadihebat/platform/internal/apperror"
)

// maxAttemptsFallback caps attempts when a quiz row has no explicit limit.
const maxAttemptsFallback = 2

// QuizService defines the business logic contract for quizzes and attempts.
// Grading is entirely server side: option correctness never leaves the
// service, and final scores are computed from the recorded answers rather
// than trusted from the client.
type QuizService interface {
	// GetQuizByLesson returns the lesson's quiz with questions and
	// options, or a not-found error when the lesson has none.
	GetQuizByLesson(ctx context.Context, lessonID string) (*Quiz, error)

	// QuizExists reports whether a lesson has an active quiz.
	QuizExists(ctx context.Context, lessonID string) (bool, error)

	// StartAttempt opens a new attempt for the user, enforcing the
	// quiz's attempt limit.
	StartAttempt(ctx context.Context, userID, quizID string) (string, error)

	// SubmitAnswers grades and records a batch of answers against an
	// attempt owned by the user.
	SubmitAnswers(ctx context.Context, userID, attemptID string, answers []Answer) error

	// CompleteAttempt closes the attempt, computing the final score from
	// recorded answers and the pass flag from the quiz's passing score.
	CompleteAttempt(ctx context.Context, userID, attemptID string, timeTaken int) (*AttemptResult, error)

	// GetBestScoreByLesson returns the user's best completed score for
	// the lesson's quiz, or nil when there is no quiz or no attempt.
	GetBestScoreByLesson(ctx context.Context, userID, lessonID string) (*BestScore, error)
}

// quizService implements QuizService.
type quizService struct {
	repo   QuizRepository
	logger *slog.Logger
}

// NewQuizService creates a new quiz service.
func NewQuizService(repo QuizRepository, logger *slog.Logger) QuizService {
	return &quizService{repo: repo, logger: logger}
}

func (s *quizService) GetQuizByLesson(ctx context.Context, lessonID string) (*Quiz, error) {
	quiz, err := s.repo.FindQuizByLesson(ctx, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("no quiz for this lesson")
	}
	if err != nil {
		return nil, fmt.Errorf("finding quiz for lesson %s: %w", lessonID, err)
	}

	questions, err := s.repo.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	options, err := s.repo.ListOptions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[string][]QuizOption, len(questions))
	for _, o := range options {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], QuizOption{
			ID:   o.ID,
			Text: o.Text,
		})
	}

	quiz.Questions = make([]QuizQuestion, 0, len(questions))
	for _, q := range questions {
		quiz.Questions = append(quiz.Questions, QuizQuestion{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Points:       q.Points,
			Options:      byQuestion[q.ID],
		})
	}
	return quiz, nil
}

func (s *quizService) QuizExists(ctx context.Context, lessonID string) (bool, error) {
	_, err := s.repo.FindQuizByLesson(ctx, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking quiz for lesson %s: %w", lessonID, err)
	}
	return true, nil
}

func (s *quizService) StartAttempt(ctx context.Context, userID, quizID string) (string, error) {
	quiz, err := s.findQuiz(ctx, quizID)
	if err != nil {
		return "", err
	}

	limit := quiz.MaxAttempts
	if limit <= 0 {
		limit = maxAttemptsFallback
	}

	count, err := s.repo.CountAttempts(ctx, userID, quizID)
	if err != nil {
		return "", fmt.Errorf("counting quiz attempts: %w", err)
	}
	if count >= limit {
		return "", apperror.NewForbidden("maximum quiz attempts reached")
	}

	maxScore, err := s.repo.MaxScore(ctx, quizID)
	if err != nil {
		return "", fmt.Errorf("computing quiz max score: %w", err)
	}

	attemptID, err := s.repo.CreateAttempt(ctx, userID, quizID, maxScore)
	if err != nil {
		return "", err
	}

	s.logger.Info("quiz attempt started",
		slog.String("quiz_id", quizID),
		slog.String("attempt_id", attemptID))
	return attemptID, nil
}

func (s *quizService) SubmitAnswers(ctx context.Context, userID, attemptID string, answers []Answer) error {
	attempt, err := s.ownAttempt(ctx, userID, attemptID)
	if err != nil {
		return err
	}
	if attempt.CompletedAt != nil {
		return apperror.NewBadRequest("attempt is already completed")
	}

	for _, a := range answers {
		correct := false
		if a.SelectedOptionID != "" {
			opt, err := s.repo.FindOption(ctx, a.SelectedOptionID)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("grading answer for question %s: %w", a.QuestionID, err)
			}
			// An option belonging to a different question never counts.
			if opt != nil && opt.QuestionID == a.QuestionID {
				correct = opt.IsCorrect
			}
		}

		points := 0
		if correct {
			points, err = s.repo.QuestionPoints(ctx, a.QuestionID)
			if err != nil {
				return fmt.Errorf("loading points for question %s: %w", a.QuestionID, err)
			}
		}

		if err := s.repo.RecordAnswer(ctx, attemptID, a.QuestionID, a.SelectedOptionID, a.AnswerText, correct, points); err != nil {
			return err
		}
	}
	return nil
}

func (s *quizService) CompleteAttempt(ctx context.Context, userID, attemptID string, timeTaken int) (*AttemptResult, error) {
	attempt, err := s.ownAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.CompletedAt != nil {
		return nil, apperror.NewBadRequest("attempt is already completed")
	}

	quiz, err := s.findQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	score, err := s.repo.SumPointsEarned(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("totalling attempt score: %w", err)
	}

	passed := score >= quiz.PassingScore
	if err := s.repo.CompleteAttempt(ctx, attemptID, score, passed, timeTaken); err != nil {
		return nil, err
	}

	s.logger.Info("quiz attempt completed",
		slog.String("attempt_id", attemptID),
		slog.Int("score", score),
		slog.Bool("passed", passed))

	return &AttemptResult{
		Score:        score,
		MaxScore:     attempt.MaxScore,
		PassingScore: quiz.PassingScore,
		Passed:       passed,
	}, nil
}

func (s *quizService) GetBestScoreByLesson(ctx context.Context, userID, lessonID string) (*BestScore, error) {
	quiz, err := s.repo.FindQuizByLesson(ctx, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding quiz for lesson %s: %w", lessonID, err)
	}

	best, err := s.repo.BestCompletedAttempt(ctx, userID, quiz.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding best attempt: %w", err)
	}

	return &BestScore{Score: best.Score, Passed: best.Passed}, nil
}

// findQuiz loads a quiz header by ID.
func (s *quizService) findQuiz(ctx context.Context, quizID string) (*Quiz, error) {
	quiz, err := s.repo.FindQuizHeader(ctx, quizID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("quiz not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding quiz %s: %w", quizID, err)
	}
	return quiz, nil
}

// ownAttempt loads an attempt and verifies the caller owns it.
func (s *quizService) ownAttempt(ctx context.Context, userID, attemptID string) (*Attempt, error) {
	attempt, err := s.repo.FindAttempt(ctx, attemptID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("attempt not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding attempt %s: %w", attemptID, err)
	}
	if attempt.UserID != userID {
		return nil, apperror.NewForbidden("attempt belongs to another user")
	}
	return attempt, nil
}
