package progress

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProgressRepository defines the data access contract for enrollments and
// lesson progress. All SQL lives in the concrete implementation.
type ProgressRepository interface {
	// FindEnrollment returns the user's enrollment in a course, or
	// sql.ErrNoRows when there is none.
	FindEnrollment(ctx context.Context, userID, courseID string) (*Enrollment, error)

	// CreateEnrollment inserts a new enrollment and increments the
	// course's enrollment counter in the same transaction.
	CreateEnrollment(ctx context.Context, userID, courseID string) (*Enrollment, error)

	// UpdateEnrollmentProgress stores the recomputed completion
	// percentage, stamping completed_at when it reaches 100.
	UpdateEnrollmentProgress(ctx context.Context, userID, courseID string, percent int) error

	// ListUserEnrollments returns the user's enrollments joined with
	// course listing fields, most recent first.
	ListUserEnrollments(ctx context.Context, userID string) ([]EnrolledCourse, error)

	// UpsertLessonProgress records a lesson's completion state,
	// overwriting any previous state for the same user and lesson.
	UpsertLessonProgress(ctx context.Context, userID, lessonID, courseID string, completed bool) error

	// ListLessonProgress returns all progress rows for a user in a course.
	ListLessonProgress(ctx context.Context, userID, courseID string) ([]LessonProgress, error)

	// IsLessonCompleted reports a single lesson's completion state.
	IsLessonCompleted(ctx context.Context, userID, lessonID string) (bool, error)

	// CountCompleted returns how many lessons the user completed in a course.
	CountCompleted(ctx context.Context, userID, courseID string) (int, error)
}

// progressRepository implements ProgressRepository with MariaDB queries.
type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new repository backed by the given DB pool.
func NewProgressRepository(db *sql.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) FindEnrollment(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	query := `SELECT id, user_id, course_id, progress_percent, enrolled_at, completed_at
	          FROM enrollments WHERE user_id = ? AND course_id = ?`

	var e Enrollment
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(
		&e.ID, &e.UserID, &e.CourseID, &e.ProgressPercent, &e.EnrolledAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	return &e, nil
}

func (r *progressRepository) CreateEnrollment(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning enrollment tx: %w", err)
	}
	defer tx.Rollback()

	enrollment := &Enrollment{
		ID:         uuid.NewString(),
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO enrollments (id, user_id, course_id, progress_percent, enrolled_at)
		 VALUES (?, ?, ?, 0, ?)`,
		enrollment.ID, userID, courseID, enrollment.EnrolledAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting enrollment: %w", err)
	}

	// Keep the catalog's counter in sync so course cards can show it
	// without an aggregate query.
	_, err = tx.ExecContext(ctx,
		`UPDATE courses SET enrollment_count = enrollment_count + 1 WHERE id = ?`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("incrementing enrollment count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing enrollment: %w", err)
	}
	return enrollment, nil
}

func (r *progressRepository) UpdateEnrollmentProgress(ctx context.Context, userID, courseID string, percent int) error {
	query := `UPDATE enrollments
	          SET progress_percent = ?,
	              completed_at = CASE WHEN ? >= 100 THEN COALESCE(completed_at, UTC_TIMESTAMP()) ELSE NULL END
	          WHERE user_id = ? AND course_id = ?`

	if _, err := r.db.ExecContext(ctx, query, percent, percent, userID, courseID); err != nil {
		return fmt.Errorf("updating enrollment progress: %w", err)
	}
	return nil
}

func (r *progressRepository) ListUserEnrollments(ctx context.Context, userID string) ([]EnrolledCourse, error) {
	query := `SELECT e.id, e.user_id, e.course_id, e.progress_percent, e.enrolled_at, e.completed_at,
	                 c.title, c.slug, c.cover_image
	          FROM enrollments e
	          JOIN courses c ON c.id = e.course_id
	          WHERE e.user_id = ?
	          ORDER BY e.enrolled_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying enrollments: %w", err)
	}
	defer rows.Close()

	var list []EnrolledCourse
	for rows.Next() {
		var ec EnrolledCourse
		var completedAt sql.NullTime
		var coverImage sql.NullString
		if err := rows.Scan(
			&ec.ID, &ec.UserID, &ec.CourseID, &ec.ProgressPercent, &ec.EnrolledAt, &completedAt,
			&ec.CourseTitle, &ec.CourseSlug, &coverImage,
		); err != nil {
			return nil, fmt.Errorf("scanning enrollment: %w", err)
		}
		if completedAt.Valid {
			ec.CompletedAt = &completedAt.Time
		}
		ec.CoverImage = coverImage.String
		list = append(list, ec)
	}
	return list, rows.Err()
}

func (r *progressRepository) UpsertLessonProgress(ctx context.Context, userID, lessonID, courseID string, completed bool) error {
	// completed_at only advances when the lesson flips to completed;
	// un-completing clears it.
	query := `INSERT INTO lesson_progress (id, user_id, lesson_id, course_id, completed, completed_at)
	          VALUES (?, ?, ?, ?, ?, CASE WHEN ? THEN UTC_TIMESTAMP() ELSE NULL END)
	          ON DUPLICATE KEY UPDATE
	              completed = VALUES(completed),
	              completed_at = VALUES(completed_at)`

	_, err := r.db.ExecContext(ctx, query,
		uuid.NewString(), userID, lessonID, courseID, completed, completed,
	)
	if err != nil {
		return fmt.Errorf("upserting lesson progress: %w", err)
	}
	return nil
}

func (r *progressRepository) ListLessonProgress(ctx context.Context, userID, courseID string) ([]LessonProgress, error) {
	query := `SELECT id, user_id, lesson_id, course_id, completed, completed_at
	          FROM lesson_progress WHERE user_id = ? AND course_id = ?`

	rows, err := r.db.QueryContext(ctx, query, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying lesson progress: %w", err)
	}
	defer rows.Close()

	var list []LessonProgress
	for rows.Next() {
		var lp LessonProgress
		var completedAt sql.NullTime
		if err := rows.Scan(&lp.ID, &lp.UserID, &lp.LessonID, &lp.CourseID, &lp.Completed, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning lesson progress: %w", err)
		}
		if completedAt.Valid {
			lp.CompletedAt = &completedAt.Time
		}
		list = append(list, lp)
	}
	return list, rows.Err()
}

func (r *progressRepository) IsLessonCompleted(ctx context.Context, userID, lessonID string) (bool, error) {
	query := `SELECT completed FROM lesson_progress WHERE user_id = ? AND lesson_id = ?`

	var completed bool
	err := r.db.QueryRowContext(ctx, query, userID, lessonID).Scan(&completed)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying lesson completion: %w", err)
	}
	return completed, nil
}

func (r *progressRepository) CountCompleted(ctx context.Context, userID, courseID string) (int, error) {
	query := `SELECT COUNT(*) FROM lesson_progress
	          WHERE user_id = ? AND course_id = ? AND completed = 1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting completed lessons: %w", err)
	}
	return count, nil
}
