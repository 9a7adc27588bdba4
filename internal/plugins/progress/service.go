package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jadihebat/platform/internal/apperror"
	"github.com/jadihebat/platform/internal/images"
)

// LessonCounter provides the total active lesson count of a course. The
// courses plugin implements it; progress only needs the one number to turn
// completed-lesson counts into percentages.
type LessonCounter interface {
	CountLessons(ctx context.Context, courseID string) (int, error)
}

// ProgressService defines the business logic contract for enrollment and
// lesson progress. Handlers call these methods -- they never touch the
// repository directly.
type ProgressService interface {
	// Enroll enrolls the user in a course. Enrolling twice returns the
	// existing enrollment with a conflict error.
	Enroll(ctx context.Context, userID, courseID string) (*Enrollment, error)

	// IsEnrolled reports whether the user is enrolled in the course.
	// Also satisfies courses.EnrollmentChecker.
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)

	// ListMyCourses returns the user's enrollments with course info.
	ListMyCourses(ctx context.Context, userID string) ([]EnrolledCourse, error)

	// SetLessonCompletion marks a lesson complete or incomplete and
	// recomputes the enrollment's progress percentage.
	SetLessonCompletion(ctx context.Context, userID, lessonID, courseID string, completed bool) error

	// GetCourseProgress returns all lesson progress rows for the user in
	// a course.
	GetCourseProgress(ctx context.Context, userID, courseID string) ([]LessonProgress, error)

	// IsLessonCompleted reports one lesson's completion state.
	IsLessonCompleted(ctx context.Context, userID, lessonID string) (bool, error)

	// GetCourseStats returns completion statistics for the user in a course.
	GetCourseStats(ctx context.Context, userID, courseID string) (*CourseStats, error)
}

// progressService implements ProgressService.
type progressService struct {
	repo    ProgressRepository
	lessons LessonCounter
	imgs    *images.Builder
}

// NewProgressService creates a new progress service.
func NewProgressService(repo ProgressRepository, lessons LessonCounter, imgs *images.Builder) ProgressService {
	return &progressService{repo: repo, lessons: lessons, imgs: imgs}
}

func (s *progressService) Enroll(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	existing, err := s.repo.FindEnrollment(ctx, userID, courseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewInternal(fmt.Errorf("checking enrollment: %w", err))
	}
	if existing != nil {
		return existing, apperror.NewConflict("already enrolled in this course")
	}

	enrollment, err := s.repo.CreateEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating enrollment: %w", err))
	}

	slog.Info("user enrolled",
		slog.String("user_id", userID),
		slog.String("course_id", courseID),
	)

	return enrollment, nil
}

func (s *progressService) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	_, err := s.repo.FindEnrollment(ctx, userID, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperror.NewInternal(fmt.Errorf("checking enrollment: %w", err))
	}
	return true, nil
}

func (s *progressService) ListMyCourses(ctx context.Context, userID string) ([]EnrolledCourse, error) {
	list, err := s.repo.ListUserEnrollments(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing enrollments: %w", err))
	}
	for i := range list {
		list[i].CoverImage = s.imgs.URL(list[i].CoverImage)
	}
	return list, nil
}

func (s *progressService) SetLessonCompletion(ctx context.Context, userID, lessonID, courseID string, completed bool) error {
	if err := s.repo.UpsertLessonProgress(ctx, userID, lessonID, courseID, completed); err != nil {
		return apperror.NewInternal(fmt.Errorf("recording lesson progress: %w", err))
	}

	// Recompute and persist the enrollment percentage. A failure here
	// leaves the denormalized number stale, which the next completion
	// fixes; don't fail the user's action over it.
	stats, err := s.GetCourseStats(ctx, userID, courseID)
	if err != nil {
		slog.Warn("failed to compute course stats",
			slog.String("course_id", courseID),
			slog.Any("error", err),
		)
		return nil
	}
	if err := s.repo.UpdateEnrollmentProgress(ctx, userID, courseID, stats.ProgressPercentage); err != nil {
		slog.Warn("failed to update enrollment progress",
			slog.String("course_id", courseID),
			slog.Any("error", err),
		)
	}

	return nil
}

func (s *progressService) GetCourseProgress(ctx context.Context, userID, courseID string) ([]LessonProgress, error) {
	list, err := s.repo.ListLessonProgress(ctx, userID, courseID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing lesson progress: %w", err))
	}
	return list, nil
}

func (s *progressService) IsLessonCompleted(ctx context.Context, userID, lessonID string) (bool, error) {
	completed, err := s.repo.IsLessonCompleted(ctx, userID, lessonID)
	if err != nil {
		return false, apperror.NewInternal(fmt.Errorf("checking lesson completion: %w", err))
	}
	return completed, nil
}

func (s *progressService) GetCourseStats(ctx context.Context, userID, courseID string) (*CourseStats, error) {
	total, err := s.lessons.CountLessons(ctx, courseID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("counting lessons: %w", err))
	}

	completed, err := s.repo.CountCompleted(ctx, userID, courseID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("counting completed lessons: %w", err))
	}

	stats := &CourseStats{
		TotalLessons:     total,
		CompletedLessons: completed,
	}
	if total > 0 {
		stats.ProgressPercentage = completed * 100 / total
	}
	return stats, nil
}
