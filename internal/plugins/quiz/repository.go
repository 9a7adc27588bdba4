package quiz

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QuizRepository defines the data access contract for quizzes, questions,
// options and attempts. All SQL lives in the concrete implementation.
type QuizRepository interface {
	// FindQuizByLesson returns the active quiz for a lesson, or
	// sql.ErrNoRows when the lesson has none.
	FindQuizByLesson(ctx context.Context, lessonID string) (*Quiz, error)

	// FindQuizHeader returns a quiz by ID without questions loaded,
	// sql.ErrNoRows when absent.
	FindQuizHeader(ctx context.Context, quizID string) (*Quiz, error)

	// ListQuestions returns a quiz's questions ordered by order_index.
	ListQuestions(ctx context.Context, quizID string) ([]questionRow, error)

	// ListOptions returns all options for a quiz's questions, ordered by
	// question then order_index.
	ListOptions(ctx context.Context, quizID string) ([]optionRow, error)

	// MaxScore returns the sum of points across a quiz's questions.
	MaxScore(ctx context.Context, quizID string) (int, error)

	// CountAttempts returns how many attempts the user has started.
	CountAttempts(ctx context.Context, userID, quizID string) (int, error)

	// CreateAttempt inserts a new attempt and returns its ID.
	CreateAttempt(ctx context.Context, userID, quizID string, maxScore int) (string, error)

	// FindAttempt loads an attempt by ID, sql.ErrNoRows when absent.
	FindAttempt(ctx context.Context, attemptID string) (*Attempt, error)

	// RecordAnswer stores one graded answer for an attempt.
	RecordAnswer(ctx context.Context, attemptID, questionID, selectedOptionID, answerText string, correct bool, points int) error

	// FindOption loads a single option row for grading.
	FindOption(ctx context.Context, optionID string) (*optionRow, error)

	// QuestionPoints returns the point value of a question.
	QuestionPoints(ctx context.Context, questionID string) (int, error)

	// SumPointsEarned totals the recorded answer points for an attempt.
	SumPointsEarned(ctx context.Context, attemptID string) (int, error)

	// CompleteAttempt stamps the attempt with its final score.
	CompleteAttempt(ctx context.Context, attemptID string, score int, passed bool, timeTaken int) error

	// BestCompletedAttempt returns the user's highest-scoring completed
	// attempt for a quiz, sql.ErrNoRows when there is none.
	BestCompletedAttempt(ctx context.Context, userID, quizID string) (*Attempt, error)
}

// quizRepository implements QuizRepository with MariaDB queries.
type quizRepository struct {
	db *sql.DB
}

// NewQuizRepository creates a new repository backed by the given DB pool.
func NewQuizRepository(db *sql.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) FindQuizByLesson(ctx context.Context, lessonID string) (*Quiz, error) {
	query := `SELECT id, lesson_id, title, description, passing_score, max_attempts,
	                 COALESCE(time_limit, 15)
	          FROM quizzes WHERE lesson_id = ? AND is_active = 1 LIMIT 1`

	var q Quiz
	err := r.db.QueryRowContext(ctx, query, lessonID).Scan(
		&q.ID, &q.LessonID, &q.Title, &q.Description,
		&q.PassingScore, &q.MaxAttempts, &q.TimeLimit,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quizRepository) FindQuizHeader(ctx context.Context, quizID string) (*Quiz, error) {
	query := `SELECT id, lesson_id, title, description, passing_score, max_attempts,
	                 COALESCE(time_limit, 15)
	          FROM quizzes WHERE id = ? AND is_active = 1`

	var q Quiz
	err := r.db.QueryRowContext(ctx, query, quizID).Scan(
		&q.ID, &q.LessonID, &q.Title, &q.Description,
		&q.PassingScore, &q.MaxAttempts, &q.TimeLimit,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quizRepository) ListQuestions(ctx context.Context, quizID string) ([]questionRow, error) {
	query := `SELECT id, quiz_id, question_text, question_type, order_index, points,
	                 COALESCE(explanation, '')
	          FROM quiz_questions WHERE quiz_id = ? ORDER BY order_index ASC`

	rows, err := r.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("listing quiz questions: %w", err)
	}
	defer rows.Close()

	var questions []questionRow
	for rows.Next() {
		var q questionRow
		if err := rows.Scan(&q.ID, &q.QuizID, &q.QuestionText, &q.QuestionType,
			&q.OrderIndex, &q.Points, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scanning quiz question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *quizRepository) ListOptions(ctx context.Context, quizID string) ([]optionRow, error) {
	query := `SELECT o.id, o.question_id, o.option_text, o.is_correct, o.order_index
	          FROM quiz_question_options o
	          JOIN quiz_questions q ON q.id = o.question_id
	          WHERE q.quiz_id = ?
	          ORDER BY o.question_id, o.order_index ASC`

	rows, err := r.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("listing quiz options: %w", err)
	}
	defer rows.Close()

	var options []optionRow
	for rows.Next() {
		var o optionRow
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect, &o.OrderIndex); err != nil {
			return nil, fmt.Errorf("scanning quiz option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (r *quizRepository) MaxScore(ctx context.Context, quizID string) (int, error) {
	var max int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(points), 0) FROM quiz_questions WHERE quiz_id = ?`,
		quizID).Scan(&max)
	return max, err
}

func (r *quizRepository) CountAttempts(ctx context.Context, userID, quizID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE user_id = ? AND quiz_id = ?`,
		userID, quizID).Scan(&count)
	return count, err
}

func (r *quizRepository) CreateAttempt(ctx context.Context, userID, quizID string, maxScore int) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO quiz_attempts (id, user_id, quiz_id, max_score, passed, started_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		id, userID, quizID, maxScore, time.Now())
	if err != nil {
		return "", fmt.Errorf("creating quiz attempt: %w", err)
	}
	return id, nil
}

func (r *quizRepository) FindAttempt(ctx context.Context, attemptID string) (*Attempt, error) {
	query := `SELECT id, user_id, quiz_id, COALESCE(score, 0), max_score, passed,
	                 started_at, completed_at, COALESCE(time_taken, 0)
	          FROM quiz_attempts WHERE id = ?`

	var a Attempt
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, attemptID).Scan(
		&a.ID, &a.UserID, &a.QuizID, &a.Score, &a.MaxScore, &a.Passed,
		&a.StartedAt, &completedAt, &a.TimeTaken,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return &a, nil
}

func (r *quizRepository) RecordAnswer(ctx context.Context, attemptID, questionID, selectedOptionID, answerText string, correct bool, points int) error {
	var optionID any
	if selectedOptionID != "" {
		optionID = selectedOptionID
	}
	var text any
	if answerText != "" {
		text = answerText
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO quiz_attempt_answers
		   (id, attempt_id, question_id, selected_option_id, answer_text, is_correct, points_earned)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), attemptID, questionID, optionID, text, correct, points)
	if err != nil {
		return fmt.Errorf("recording quiz answer: %w", err)
	}
	return nil
}

func (r *quizRepository) FindOption(ctx context.Context, optionID string) (*optionRow, error) {
	var o optionRow
	err := r.db.QueryRowContext(ctx,
		`SELECT id, question_id, option_text, is_correct, order_index
		 FROM quiz_question_options WHERE id = ?`,
		optionID).Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect, &o.OrderIndex)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *quizRepository) QuestionPoints(ctx context.Context, questionID string) (int, error) {
	var points int
	err := r.db.QueryRowContext(ctx,
		`SELECT points FROM quiz_questions WHERE id = ?`, questionID).Scan(&points)
	return points, err
}

func (r *quizRepository) SumPointsEarned(ctx context.Context, attemptID string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(points_earned), 0) FROM quiz_attempt_answers WHERE attempt_id = ?`,
		attemptID).Scan(&total)
	return total, err
}

func (r *quizRepository) CompleteAttempt(ctx context.Context, attemptID string, score int, passed bool, timeTaken int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE quiz_attempts SET score = ?, passed = ?, completed_at = ?, time_taken = ?
		 WHERE id = ?`,
		score, passed, time.Now(), timeTaken, attemptID)
	if err != nil {
		return fmt.Errorf("completing quiz attempt: %w", err)
	}
	return nil
}

func (r *quizRepository) BestCompletedAttempt(ctx context.Context, userID, quizID string) (*Attempt, error) {
	query := `SELECT id, user_id, quiz_id, COALESCE(score, 0), max_score, passed,
	                 started_at, completed_at, COALESCE(time_taken, 0)
	          FROM quiz_attempts
	          WHERE user_id = ? AND quiz_id = ? AND completed_at IS NOT NULL
	          ORDER BY score DESC, completed_at ASC
	          LIMIT 1`

	var a Attempt
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, quizID).Scan(
		&a.ID, &a.UserID, &a.QuizID, &a.Score, &a.MaxScore, &a.Passed,
		&a.StartedAt, &completedAt, &a.TimeTaken,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return &a, nil
}
