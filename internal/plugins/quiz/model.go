package quiz

import "time"

// Quiz is a quiz attached to a lesson. The client-facing shape never carries
// correct answers; grading happens server side against the options table.
type Quiz struct {
	ID           string         `json:"id"`
	LessonID     string         `json:"-"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	PassingScore int            `json:"passingScore"`
	MaxAttempts  int            `json:"maxAttempts"`
	TimeLimit    int            `json:"timeLimit"` // minutes
	Questions    []QuizQuestion `json:"questions"`
}

// QuizQuestion is a single question with its answer options, ordered by
// order_index. IsCorrect stays on the row type and is stripped before
// serialization.
type QuizQuestion struct {
	ID           string       `json:"id"`
	QuestionText string       `json:"question"`
	QuestionType string       `json:"type"`
	Points       int          `json:"points"`
	Options      []QuizOption `json:"options"`
}

// QuizOption is one selectable answer. Correctness is intentionally absent
// from the JSON shape.
type QuizOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// questionRow is the internal question shape with grading fields.
type questionRow struct {
	ID           string
	QuizID       string
	QuestionText string
	QuestionType string
	OrderIndex   int
	Points       int
	Explanation  string
}

// optionRow is the internal option shape with grading fields.
type optionRow struct {
	ID         string
	QuestionID string
	Text       string
	IsCorrect  bool
	OrderIndex int
}

// Attempt is one user's run through a quiz.
type Attempt struct {
	ID          string     `json:"id"`
	UserID      string     `json:"-"`
	QuizID      string     `json:"quizId"`
	Score       int        `json:"score"`
	MaxScore    int        `json:"maxScore"`
	Passed      bool       `json:"passed"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	TimeTaken   int        `json:"timeTaken"` // seconds
}

// Answer is one recorded answer within an attempt.
type Answer struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
	AnswerText       string `json:"answerText,omitempty"`
}

// BestScore summarises a user's best completed attempt for a quiz.
type BestScore struct {
	Score  int  `json:"score"`
	Passed bool `json:"passed"`
}

// AttemptResult is the graded outcome returned when an attempt completes.
type AttemptResult struct {
	Score        int  `json:"score"`
	MaxScore     int  `json:"maxScore"`
	PassingScore int  `json:"passingScore"`
	Passed       bool `json:"passed"`
}
